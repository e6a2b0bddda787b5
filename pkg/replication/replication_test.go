// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package replication

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/echoprint/matchsrv/pkg/codestore"
	"github.com/echoprint/matchsrv/pkg/index"
	"github.com/echoprint/matchsrv/pkg/matcher"
	"github.com/echoprint/matchsrv/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpWritesOneRowPerTrack(t *testing.T) {
	ctx := context.Background()
	codes := codestore.NewMemStore()
	require.NoError(t, codes.Set(ctx, "TRAAAAA", "1 0 2 100"))
	require.NoError(t, codes.Set(ctx, "TRBBBBB", "3 0 4 100"))

	meta := map[string]types.Metadata{
		"TRAAAAA": {Length: 30, CodeVer: "4.10", Artist: "A"},
		"TRBBBBB": {Length: 45, CodeVer: "4.10", Artist: "B"},
	}

	dir := t.TempDir()
	files, err := Dump(ctx, codes, codes, meta, dir, "2026-08-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "TRAAAAA,4.10,1 0 2 100,30,A,,")
	assert.Contains(t, content, "TRBBBBB,4.10,3 0 4 100,45,B,,")

	lastDump, ok, err := codes.Get(ctx, codestore.LastDumpKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-08-01T00:00:00Z", lastDump)
}

func TestDumpSkipsTracksWithoutMetadata(t *testing.T) {
	ctx := context.Background()
	codes := codestore.NewMemStore()
	require.NoError(t, codes.Set(ctx, "TRAAAAA", "1 0 2 100"))

	dir := t.TempDir()
	files, err := Dump(ctx, codes, codes, map[string]types.Metadata{}, dir, "2026-08-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(data)))
}

func TestIngestRoundTrip(t *testing.T) {
	ctx := context.Background()
	engine := matcher.NewEngine(index.NewMemStore(4), codestore.NewMemStore())

	csvData := "TRAAAAA,4.10,1 0 2 100,30,Artist,Release,Track\n"
	n, err := Ingest(ctx, engine, strings.NewReader(csvData), "2026-08-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	code, found, err := engine.Codes.Get(ctx, "TRAAAAA")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1 0 2 100", code)
}

func TestIngestMalformedLength(t *testing.T) {
	ctx := context.Background()
	engine := matcher.NewEngine(index.NewMemStore(4), codestore.NewMemStore())
	csvData := "TRAAAAA,4.10,1 0 2 100,notanumber,Artist,Release,Track\n"
	_, err := Ingest(ctx, engine, strings.NewReader(csvData), "2026-08-01T00:00:00Z")
	assert.Error(t, err)
}

func TestDumpFileNaming(t *testing.T) {
	ctx := context.Background()
	codes := codestore.NewMemStore()
	require.NoError(t, codes.Set(ctx, "TRAAAAA", "1 0"))
	meta := map[string]types.Metadata{"TRAAAAA": {Length: 1, CodeVer: "4.10"}}

	dir := t.TempDir()
	files, err := Dump(ctx, codes, codes, meta, dir, "2026-08-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "echoprint-replication-out-2026-08-01T00:00:00Z-1.csv"), files[0])
}
