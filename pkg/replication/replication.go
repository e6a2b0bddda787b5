// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package replication dumps the code-stream store to flat CSV files and
// re-ingests them on another instance, mirroring the original
// replication/master_dump.py and replication/slave_ingest.py scripts.
package replication

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/echoprint/matchsrv/pkg/codestore"
	"github.com/echoprint/matchsrv/pkg/matcher"
	"github.com/echoprint/matchsrv/pkg/types"
)

// ItemsPerFile caps the number of rows written to a single replication
// file before rolling over to the next.
const ItemsPerFile = 250_000

// FilenameTemplate matches the original dump tool's output naming:
// echoprint-replication-out-<timestamp>-<file number>.csv
const FilenameTemplate = "echoprint-replication-out-%s-%d.csv"

// TrackLister is implemented by a codestore.Store that can enumerate its
// keys, so Dump knows what to export. codestore.MemStore implements it.
type TrackLister interface {
	Keys() []string
}

// Dump writes every track currently in codes to CSV files under dir,
// named per FilenameTemplate and timestamped with isoNow (an ISO-8601
// UTC timestamp, e.g. "2026-08-01T00:00:00Z"), then records isoNow under
// codestore.LastDumpKey. meta supplies per-track metadata; a track with
// no metadata entry is skipped. It returns the list of files written.
func Dump(ctx context.Context, codes codestore.Store, lister TrackLister, meta map[string]types.Metadata, dir, isoNow string) ([]string, error) {
	trackIDs := lister.Keys()

	var files []string
	var writer *csv.Writer
	var out *os.File
	fileCount := 0
	itemCount := 0

	closeCurrent := func() error {
		if writer == nil {
			return nil
		}
		writer.Flush()
		err := writer.Error()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		return err
	}
	openNext := func() error {
		if err := closeCurrent(); err != nil {
			return err
		}
		fileCount++
		name := fmt.Sprintf(FilenameTemplate, isoNow, fileCount)
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("replication: creating %s: %w", path, err)
		}
		out = f
		writer = csv.NewWriter(f)
		files = append(files, path)
		itemCount = 0
		return nil
	}

	if err := openNext(); err != nil {
		return nil, err
	}

	for _, trackID := range trackIDs {
		if trackID == codestore.LastDumpKey {
			continue
		}
		m, ok := meta[trackID]
		if !ok {
			continue
		}
		code, found, err := codes.Get(ctx, trackID)
		if err != nil {
			return files, fmt.Errorf("replication: reading %s: %w", trackID, err)
		}
		if !found {
			continue
		}
		row := []string{
			trackID,
			m.CodeVer,
			code,
			strconv.Itoa(m.Length),
			m.Artist,
			m.Release,
			m.Track,
		}
		if err := writer.Write(row); err != nil {
			return files, fmt.Errorf("replication: writing row for %s: %w", trackID, err)
		}
		itemCount++
		if itemCount >= ItemsPerFile {
			if err := openNext(); err != nil {
				return files, err
			}
		}
	}

	if err := closeCurrent(); err != nil {
		return files, err
	}

	if err := codes.Set(ctx, codestore.LastDumpKey, isoNow); err != nil {
		return files, fmt.Errorf("replication: recording %s: %w", codestore.LastDumpKey, err)
	}
	return files, nil
}

// Ingest reads a replication CSV (track_id, codever, fp, length, artist,
// release, track) from r and ingests every row into engine with
// split=false, the way slave_ingest.py replays a master's dump without
// re-segmenting already-segmented rows.
func Ingest(ctx context.Context, engine *matcher.Engine, r io.Reader, importDate string) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 7

	var batch []types.Fingerprint
	count := 0
	const batchSize = 10000

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := engine.Ingest(ctx, batch, false); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("replication: reading CSV row %d: %w", count+1, err)
		}
		trackID, codever, code, lengthStr, artist, release, track := record[0], record[1], record[2], record[3], record[4], record[5], record[6]
		length, err := strconv.Atoi(lengthStr)
		if err != nil {
			return count, fmt.Errorf("replication: row %d has invalid length %q: %w", count+1, lengthStr, err)
		}
		batch = append(batch, types.Fingerprint{
			TrackID: trackID,
			Code:    code,
			Meta: types.Metadata{
				Length:     length,
				CodeVer:    codever,
				Artist:     artist,
				Release:    release,
				Track:      track,
				Source:     "master",
				ImportDate: importDate,
			},
		})
		count++
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return count, fmt.Errorf("replication: ingesting batch at row %d: %w", count, err)
			}
		}
	}
	if err := flush(); err != nil {
		return count, fmt.Errorf("replication: ingesting final batch: %w", err)
	}
	return count, nil
}
