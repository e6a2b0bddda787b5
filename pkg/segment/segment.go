// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package segment splits a track's code stream into overlapping ~60
// second windows for ingest into the inverted index and code-stream
// store.
package segment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/echoprint/matchsrv/pkg/types"
)

// SegmentLength is the length of one segment in time units:
// 60*1000/43.45, about 1381 units.
const SegmentLength = 60 * 1000.0 / 43.45

// HalfSegment is the overlap step between consecutive segments.
const HalfSegment = SegmentLength / 2.0

// Split divides fp's code stream into overlapping segments keyed
// "<track_id>-<index>", index starting at 0. Segment i covers the
// half-open time window [i*HalfSegment, i*HalfSegment+SegmentLength).
// An empty code string yields zero segments. A code string with fewer
// than two tokens is an error.
func Split(fp types.Fingerprint) ([]types.Segment, error) {
	code := strings.TrimSpace(fp.Code)
	if code == "" {
		return nil, nil
	}
	fields := strings.Fields(code)
	if len(fields) < 2 {
		return nil, fmt.Errorf("segment: code string %q has fewer than 2 tokens", fp.Code)
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("segment: code string has an odd number of tokens")
	}

	type pair struct {
		time int
		text string // "hash time"
	}
	n := len(fields) / 2
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		hash := fields[2*i]
		timeStr := fields[2*i+1]
		t, err := strconv.Atoi(timeStr)
		if err != nil {
			return nil, fmt.Errorf("segment: parse time %q: %w", timeStr, err)
		}
		pairs[i] = pair{time: t, text: hash + " " + timeStr}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].time < pairs[j].time })

	lastTime := pairs[len(pairs)-1].time
	numSegs := int(float64(lastTime)/HalfSegment) + 1

	segments := make([]types.Segment, 0, numSegs)
	startIdx := 0
	for i := 0; i < numSegs; i++ {
		winStart := float64(i) * HalfSegment
		winEnd := winStart + SegmentLength

		for startIdx < len(pairs) && float64(pairs[startIdx].time) < winStart {
			startIdx++
		}
		endIdx := startIdx
		for endIdx < len(pairs) && float64(pairs[endIdx].time) < winEnd {
			endIdx++
		}

		texts := make([]string, 0, endIdx-startIdx)
		for _, p := range pairs[startIdx:endIdx] {
			texts = append(texts, p.text)
		}
		segments = append(segments, types.Segment{
			SegmentID: fmt.Sprintf("%s-%d", fp.TrackID, i),
			Code:      strings.Join(texts, " "),
			Meta:      fp.Meta,
		})
	}
	return segments, nil
}
