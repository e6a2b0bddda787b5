// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeReplicationFile(t *testing.T, dir, name string, n int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var b strings.Builder
	for i := 0; i < n; i++ {
		trackID := "TRREPL" + strconv.Itoa(i)
		var code strings.Builder
		for j := 0; j < 20; j++ {
			if j > 0 {
				code.WriteByte(' ')
			}
			code.WriteString(strconv.Itoa(500 + i*100 + j))
			code.WriteByte(' ')
			code.WriteString(strconv.Itoa(j * 2))
		}
		b.WriteString(trackID + ",4.12," + code.String() + ",180,Artist,Release,Track\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRunIngest(t *testing.T) {
	dir := t.TempDir()
	path := writeReplicationFile(t, dir, "in.csv", 3)

	o := &Options{Mode: "ingest", InFiles: []string{path}, ImportDate: "2026-08-01T00:00:00Z"}
	require.NoError(t, Run(context.Background(), o))
}

func TestRunIngestUnknownMode(t *testing.T) {
	o := &Options{Mode: "bogus"}
	require.Error(t, Run(context.Background(), o))
}

func TestRunDumpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	seedPath := writeReplicationFile(t, dir, "seed.csv", 5)
	outDir := filepath.Join(dir, "out")

	o := &Options{Mode: "dump", OutDir: outDir, SeedFiles: []string{seedPath}, ImportDate: "2026-08-01T00:00:00Z"}
	require.NoError(t, Run(context.Background(), o))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, 5, strings.Count(string(data), "\n"))
}

func TestRunIngestRequiresInputFiles(t *testing.T) {
	o := &Options{Mode: "ingest"}
	require.Error(t, Run(context.Background(), o))
}
