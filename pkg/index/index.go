// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package index defines the inverted-index backend contract used by the
// matcher, plus a sharded in-memory implementation. A production
// deployment would swap MemStore for a client talking to a real search
// backend (the original echoprint server used Solr) without the matcher
// core noticing.
package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/echoprint/matchsrv/pkg/types"
)

// Store is the inverted-index backend contract: given a bag of hash
// tokens, return the top-K segment IDs by number of shared hashes.
type Store interface {
	// AddSegment indexes one segment's distinct hashes and stores its metadata.
	AddSegment(ctx context.Context, segmentID string, hashes []uint32, meta types.Metadata) error
	// BagQuery returns up to rows candidates ordered by descending shared-hash
	// count, ties broken by segment ID. A backend failure or timeout should
	// surface as (nil, nil) so callers degrade to NO_RESULTS rather than error.
	BagQuery(ctx context.Context, hashes []uint32, rows int) ([]types.Candidate, error)
	// DeletePrefix removes the segment whose ID is trackIDPrefix itself and
	// every segment whose ID begins with "<trackIDPrefix>-".
	DeletePrefix(ctx context.Context, trackIDPrefix string) error
	// Commit makes prior writes visible to subsequent queries.
	Commit(ctx context.Context) error
}

const defaultShards = 16

// MemStore is a sharded, mutex-protected in-memory Store.
type MemStore struct {
	shards []*shard
}

type shard struct {
	mu       sync.RWMutex
	postings map[uint32]map[string]struct{} // hash -> set of segment IDs
	metadata map[string]types.Metadata      // segment ID -> metadata
}

// NewMemStore returns an in-memory Store sharded across nShards posting
// maps. nShards <= 0 uses a sane default.
func NewMemStore(nShards int) *MemStore {
	if nShards <= 0 {
		nShards = defaultShards
	}
	ms := &MemStore{shards: make([]*shard, nShards)}
	for i := range ms.shards {
		ms.shards[i] = &shard{
			postings: make(map[uint32]map[string]struct{}),
			metadata: make(map[string]types.Metadata),
		}
	}
	return ms
}

func (ms *MemStore) shardFor(hash uint32) *shard {
	var buf [4]byte
	buf[0] = byte(hash)
	buf[1] = byte(hash >> 8)
	buf[2] = byte(hash >> 16)
	buf[3] = byte(hash >> 24)
	return ms.shardForKey(buf[:])
}

func (ms *MemStore) shardForKey(key []byte) *shard {
	h := xxhash.Sum64(key)
	return ms.shards[h%uint64(len(ms.shards))]
}

// AddSegment implements Store.
func (ms *MemStore) AddSegment(_ context.Context, segmentID string, hashes []uint32, meta types.Metadata) error {
	seen := make(map[uint32]struct{}, len(hashes))
	for _, h := range hashes {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		sh := ms.shardFor(h)
		sh.mu.Lock()
		segs, ok := sh.postings[h]
		if !ok {
			segs = make(map[string]struct{})
			sh.postings[h] = segs
		}
		segs[segmentID] = struct{}{}
		sh.mu.Unlock()
	}
	// Metadata is keyed by segment ID directly, sharded the same way.
	sh := ms.shardForKey([]byte(segmentID))
	sh.mu.Lock()
	sh.metadata[segmentID] = meta
	sh.mu.Unlock()
	return nil
}

// BagQuery implements Store.
func (ms *MemStore) BagQuery(_ context.Context, hashes []uint32, rows int) ([]types.Candidate, error) {
	counts := make(map[string]int)
	seen := make(map[uint32]struct{}, len(hashes))
	for _, h := range hashes {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		sh := ms.shardFor(h)
		sh.mu.RLock()
		for segID := range sh.postings[h] {
			counts[segID]++
		}
		sh.mu.RUnlock()
	}
	if len(counts) == 0 {
		return nil, nil
	}
	candidates := make([]types.Candidate, 0, len(counts))
	for segID, count := range counts {
		candidates = append(candidates, types.Candidate{SegmentID: segID, Score: count})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].SegmentID < candidates[j].SegmentID
	})
	if rows > 0 && len(candidates) > rows {
		candidates = candidates[:rows]
	}
	return candidates, nil
}

// DeletePrefix implements Store.
func (ms *MemStore) DeletePrefix(_ context.Context, trackIDPrefix string) error {
	prefix := trackIDPrefix + "-"
	for _, sh := range ms.shards {
		sh.mu.Lock()
		for hash, segs := range sh.postings {
			for segID := range segs {
				if segID == trackIDPrefix || strings.HasPrefix(segID, prefix) {
					delete(segs, segID)
				}
			}
			if len(segs) == 0 {
				delete(sh.postings, hash)
			}
		}
		for segID := range sh.metadata {
			if segID == trackIDPrefix || strings.HasPrefix(segID, prefix) {
				delete(sh.metadata, segID)
			}
		}
		sh.mu.Unlock()
	}
	return nil
}

// Commit implements Store. The in-memory store makes writes visible
// immediately, so Commit is a no-op barrier for API symmetry with a
// real backend.
func (ms *MemStore) Commit(_ context.Context) error {
	return nil
}

// MetadataFor returns the stored metadata for a segment ID, if present.
func (ms *MemStore) MetadataFor(segmentID string) (types.Metadata, bool) {
	sh := ms.shardForKey([]byte(segmentID))
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	m, ok := sh.metadata[segmentID]
	return m, ok
}
