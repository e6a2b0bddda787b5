// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package index

import (
	"context"
	"testing"

	"github.com/echoprint/matchsrv/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagQueryRanksByCount(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)

	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-0", []uint32{100, 200}, types.Metadata{Length: 10}))
	require.NoError(t, st.AddSegment(ctx, "TRBBBBB-0", []uint32{100}, types.Metadata{Length: 10}))

	cands, err := st.BagQuery(ctx, []uint32{100, 200}, 30)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "TRAAAAA-0", cands[0].SegmentID)
	assert.Equal(t, 2, cands[0].Score)
	assert.Equal(t, "TRBBBBB-0", cands[1].SegmentID)
	assert.Equal(t, 1, cands[1].Score)
}

func TestBagQueryTiesBrokenBySegmentID(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)
	require.NoError(t, st.AddSegment(ctx, "TRBBBBB-0", []uint32{1}, types.Metadata{}))
	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-0", []uint32{1}, types.Metadata{}))

	cands, err := st.BagQuery(ctx, []uint32{1}, 30)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "TRAAAAA-0", cands[0].SegmentID)
	assert.Equal(t, "TRBBBBB-0", cands[1].SegmentID)
}

func TestBagQueryNoResults(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)
	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-0", []uint32{1}, types.Metadata{}))

	cands, err := st.BagQuery(ctx, []uint32{999}, 30)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestBagQueryRows(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)
	for i := 0; i < 5; i++ {
		id := string(rune('A' + i))
		require.NoError(t, st.AddSegment(ctx, "TR"+id+"-0", []uint32{42}, types.Metadata{}))
	}
	cands, err := st.BagQuery(ctx, []uint32{42}, 3)
	require.NoError(t, err)
	assert.Len(t, cands, 3)
}

func TestDeletePrefix(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)
	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-0", []uint32{1, 2}, types.Metadata{Length: 10}))
	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-1", []uint32{2, 3}, types.Metadata{Length: 10}))
	require.NoError(t, st.AddSegment(ctx, "TRBBBBB-0", []uint32{1}, types.Metadata{Length: 10}))

	require.NoError(t, st.DeletePrefix(ctx, "TRAAAAA"))

	cands, err := st.BagQuery(ctx, []uint32{1, 2, 3}, 30)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "TRBBBBB-0", cands[0].SegmentID)

	_, ok := st.MetadataFor("TRAAAAA-0")
	assert.False(t, ok)
}

func TestAddSegmentDedupesWithinSegment(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)
	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-0", []uint32{1, 1, 1}, types.Metadata{}))
	cands, err := st.BagQuery(ctx, []uint32{1}, 30)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 1, cands[0].Score)
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore(4)
	meta := types.Metadata{Length: 120, CodeVer: "4.10", Artist: "Test Artist"}
	require.NoError(t, st.AddSegment(ctx, "TRAAAAA-0", []uint32{1}, meta))
	got, ok := st.MetadataFor("TRAAAAA-0")
	require.True(t, ok)
	assert.Equal(t, meta, got)
}
