// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package app implements the replicate CLI: a local stand-in for the
// master_dump/slave_ingest pair of scripts that keep two echoprint
// deployments in sync.
package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/echoprint/matchsrv/pkg/codestore"
	"github.com/echoprint/matchsrv/pkg/index"
	"github.com/echoprint/matchsrv/pkg/matcher"
	"github.com/echoprint/matchsrv/pkg/replication"
	"github.com/echoprint/matchsrv/pkg/types"
)

// Options configures a single replicate run.
type Options struct {
	Mode      string // "dump" or "ingest"
	OutDir    string // dump: destination directory for replication files
	InFiles   []string // ingest: replication files to read, "-" for stdin
	SeedFiles []string // dump: replication files to seed the in-memory store from, before dumping it back out
	ImportDate string
	LogFile   string
	LogFormat string
	LogLevel  string
	Version   bool
}

// Run executes the configured mode against a fresh in-memory index and
// code-stream store. Because this implementation's backends are
// in-memory (see pkg/index, pkg/codestore), dump has nothing to export
// unless it is first seeded with one or more replication files: this
// mirrors round-trip testing of a replication pipeline without requiring
// the persistent backend the original master/slave pair assumed.
func Run(ctx context.Context, o *Options) error {
	idx := index.NewMemStore(0)
	codes := codestore.NewMemStore()
	engine := matcher.NewEngine(idx, codes)

	switch o.Mode {
	case "ingest":
		return runIngest(ctx, engine, o)
	case "dump":
		return runDump(ctx, engine, codes, o)
	default:
		return fmt.Errorf("replicate: unknown mode %q, want \"dump\" or \"ingest\"", o.Mode)
	}
}

func runIngest(ctx context.Context, engine *matcher.Engine, o *Options) error {
	if len(o.InFiles) == 0 {
		return fmt.Errorf("replicate: ingest mode requires at least one input file")
	}
	total := 0
	for i, name := range o.InFiles {
		slog.Info("importing replication file", "n", i+1, "of", len(o.InFiles), "file", name)
		n, err := ingestOne(ctx, engine, name, o.ImportDate)
		if err != nil {
			return fmt.Errorf("replicate: ingesting %s: %w", name, err)
		}
		total += n
	}
	slog.Info("ingest complete", "tracks", total)
	return nil
}

func ingestOne(ctx context.Context, engine *matcher.Engine, name, importDate string) (int, error) {
	var r io.Reader
	if name == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}
	return replication.Ingest(ctx, engine, r, importDate)
}

// seedRow is one parsed replication CSV record, used to both seed the
// in-memory store for a dump run and to rebuild the metadata map Dump
// needs (our MemStore indexes by segment, not by whole track).
type seedRow struct {
	fp types.Fingerprint
}

func runDump(ctx context.Context, engine *matcher.Engine, codes *codestore.MemStore, o *Options) error {
	if err := os.MkdirAll(o.OutDir, 0o755); err != nil {
		return fmt.Errorf("replicate: creating %s: %w", o.OutDir, err)
	}

	meta := make(map[string]types.Metadata)
	for _, name := range o.SeedFiles {
		rows, err := readSeedRows(name)
		if err != nil {
			return fmt.Errorf("replicate: seeding from %s: %w", name, err)
		}
		fps := make([]types.Fingerprint, len(rows))
		for i, row := range rows {
			fps[i] = row.fp
			meta[row.fp.TrackID] = row.fp.Meta
		}
		if err := engine.Ingest(ctx, fps, false); err != nil {
			return fmt.Errorf("replicate: seeding from %s: %w", name, err)
		}
	}

	isoNow := o.ImportDate
	if isoNow == "" {
		isoNow = time.Now().UTC().Format("2006-01-02T15:04:05Z")
	}
	files, err := replication.Dump(ctx, codes, codes, meta, o.OutDir, isoNow)
	if err != nil {
		return fmt.Errorf("replicate: dump: %w", err)
	}
	slog.Info("dump complete", "files", len(files), "tracks", len(meta))
	for _, f := range files {
		slog.Info("wrote replication file", "path", f)
	}
	return nil
}

func readSeedRows(name string) ([]seedRow, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 7
	var rows []seedRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		length, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("invalid length %q: %w", record[3], err)
		}
		rows = append(rows, seedRow{fp: types.Fingerprint{
			TrackID: record[0],
			Code:    record[2],
			Meta: types.Metadata{
				Length:  length,
				CodeVer: record[1],
				Artist:  record[4],
				Release: record[5],
				Track:   record[6],
			},
		}})
	}
	return rows, nil
}
