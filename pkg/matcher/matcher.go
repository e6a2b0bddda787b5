// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package matcher is the decision engine: it orchestrates the codec,
// segmenter, inverted index, code-stream store, and histogram rescorer
// into the three operations the HTTP surface needs — query, ingest, and
// delete.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/echoprint/matchsrv/pkg/codec"
	"github.com/echoprint/matchsrv/pkg/codestore"
	"github.com/echoprint/matchsrv/pkg/histogram"
	"github.com/echoprint/matchsrv/pkg/index"
	"github.com/echoprint/matchsrv/pkg/segment"
	"github.com/echoprint/matchsrv/pkg/types"
)

// Code classifies the outcome of a query. Values and meanings follow the
// original matcher's Response codes.
type Code int

const (
	NotEnoughCode Code = iota
	CannotDecode
	SingleBadMatch
	SingleGoodMatch
	NoResults
	MultipleGoodMatchHistogramIncreased // historical; current rules never emit it
	MultipleGoodMatchHistogramDecreased
	MultipleBadHistogramMatch
	MultipleGoodMatch // historical; current rules never emit it
)

func (c Code) String() string {
	switch c {
	case NotEnoughCode:
		return "NOT_ENOUGH_CODE"
	case CannotDecode:
		return "CANNOT_DECODE"
	case SingleBadMatch:
		return "SINGLE_BAD_MATCH"
	case SingleGoodMatch:
		return "SINGLE_GOOD_MATCH"
	case NoResults:
		return "NO_RESULTS"
	case MultipleGoodMatchHistogramIncreased:
		return "MULTIPLE_GOOD_MATCH_HISTOGRAM_INCREASED"
	case MultipleGoodMatchHistogramDecreased:
		return "MULTIPLE_GOOD_MATCH_HISTOGRAM_DECREASED"
	case MultipleBadHistogramMatch:
		return "MULTIPLE_BAD_HISTOGRAM_MATCH"
	case MultipleGoodMatch:
		return "MULTIPLE_GOOD_MATCH"
	default:
		return "UNKNOWN"
	}
}

// Message returns a short human-readable explanation, mirroring the
// original Response.message().
func (c Code) Message() string {
	switch c {
	case NotEnoughCode:
		return "query code length is too small"
	case CannotDecode:
		return "could not decode query code"
	case SingleBadMatch, NoResults, MultipleBadHistogramMatch:
		return fmt.Sprintf("no results found (type %s)", c)
	default:
		return fmt.Sprintf("OK (match type %s)", c)
	}
}

// Match reports whether c represents a successful identification.
func (c Code) Match() bool {
	switch c {
	case SingleGoodMatch, MultipleGoodMatchHistogramIncreased, MultipleGoodMatchHistogramDecreased, MultipleGoodMatch:
		return true
	default:
		return false
	}
}

// Response is the result of a BestMatch query.
type Response struct {
	Code     Code
	TrackID  string
	Score    int
	QTime    int
	Metadata types.Metadata
}

// timeUnitsPerSecond is the number of code-stream time units in one
// second (1s ~= 43.45 units).
const timeUnitsPerSecond = 43.45

// sixtySecondsInUnits is how far past a query's first timestamp codes are
// kept; codes beyond 60 seconds from the start cannot match a single
// 60-second index segment and only add noise.
const sixtySecondsInUnits = 60.0 * timeUnitsPerSecond

// Engine wires the backend stores together and implements the decision
// rules. It holds no mutable state of its own; all state lives in the
// Store/Store implementations it was constructed with.
type Engine struct {
	Index     index.Store
	Codes     codestore.Store
	Elbow     int
	Slop      int
	QueryRows int
}

// NewEngine returns an Engine with the given backends and defaults
// matching the original matcher (elbow=10, slop=2, 30 candidate rows).
func NewEngine(idx index.Store, codes codestore.Store) *Engine {
	return &Engine{Index: idx, Codes: codes, Elbow: 10, Slop: 2, QueryRows: 30}
}

// metadataProvider is implemented by index.Store backends (such as
// MemStore) that can answer metadata lookups by segment ID directly,
// without going through a BagQuery. It is optional: a Store that does
// not implement it simply yields zero-value metadata on a match.
type metadataProvider interface {
	MetadataFor(segmentID string) (types.Metadata, bool)
}

func (e *Engine) metadataFor(segmentID string) types.Metadata {
	if mp, ok := e.Index.(metadataProvider); ok {
		m, _ := mp.MetadataFor(segmentID)
		return m
	}
	return types.Metadata{}
}

// BestMatch decodes, validates, and classifies a query code string,
// following the original best_match_for_query decision tree exactly.
func (e *Engine) BestMatch(ctx context.Context, queryCodeString string) Response {
	elbow := e.Elbow
	if elbow <= 0 {
		elbow = 10
	}

	codeString := queryCodeString
	if codec.LooksCompressed(codeString) {
		decoded, err := codec.Decode(codeString)
		if err != nil {
			return Response{Code: CannotDecode}
		}
		codeString = decoded
	}

	fields := strings.Fields(codeString)
	codeLen := len(fields) / 2
	if codeLen < elbow {
		return Response{Code: NotEnoughCode}
	}

	codeString = cutCodeStringLength(codeString)
	codeLen = len(strings.Fields(codeString)) / 2

	hashes, err := parseHashes(codeString)
	if err != nil {
		return Response{Code: CannotDecode}
	}

	candidates, err := e.Index.BagQuery(ctx, hashes, e.QueryRows)
	if err != nil || len(candidates) == 0 {
		return Response{Code: NoResults}
	}

	topScore := candidates[0].Score

	if len(candidates) == 1 {
		trackID := types.TrackIDFromSegmentID(candidates[0].SegmentID)
		if codeLen-topScore < elbow {
			return Response{Code: SingleGoodMatch, TrackID: trackID, Score: topScore, Metadata: e.metadataFor(candidates[0].SegmentID)}
		}
		return Response{Code: SingleBadMatch}
	}

	if float64(topScore) < 0.05*float64(codeLen) {
		return Response{Code: MultipleBadHistogramMatch}
	}

	// Not a strong enough bag-count match alone; rescore via histogram
	// alignment against the full stored code stream of each candidate.
	segmentIDs := make([]string, len(candidates))
	originalScores := make(map[string]int, len(candidates))
	for i, c := range candidates {
		segmentIDs[i] = c.SegmentID
		originalScores[c.SegmentID] = c.Score
	}

	storedCodes, found, err := e.Codes.MultiGet(ctx, segmentIDs)
	if err != nil {
		return Response{Code: NoResults}
	}

	slop := e.Slop
	if slop <= 0 {
		slop = 2
	}

	type scored struct {
		segmentID string
		score     int
	}
	actual := make([]scored, 0, len(segmentIDs))
	for i, segID := range segmentIDs {
		if !found[i] {
			continue
		}
		s := histogram.ActualMatches(codeString, storedCodes[i], slop, elbow)
		actual = append(actual, scored{segmentID: segID, score: s})
	}

	sort.SliceStable(actual, func(i, j int) bool {
		if actual[i].score != actual[j].score {
			return actual[i].score > actual[j].score
		}
		return actual[i].segmentID > actual[j].segmentID
	})

	// Collapse segments from the same track so a track split across
	// multiple 60s windows doesn't dominate the top of the list.
	deduped := make([]scored, 0, len(actual))
	seenTracks := make(map[string]struct{}, len(actual))
	for _, a := range actual {
		trackID := types.TrackIDFromSegmentID(a.segmentID)
		if _, ok := seenTracks[trackID]; ok {
			continue
		}
		seenTracks[trackID] = struct{}{}
		deduped = append(deduped, a)
	}

	if len(deduped) == 0 {
		return Response{Code: MultipleBadHistogramMatch}
	}

	if len(deduped) == 1 {
		top := deduped[0]
		if float64(top.score) < 0.1*float64(codeLen) {
			return Response{Code: SingleBadMatch}
		}
		if top.score > originalScores[top.segmentID]/2 {
			trackID := types.TrackIDFromSegmentID(top.segmentID)
			return Response{Code: MultipleGoodMatchHistogramDecreased, TrackID: trackID, Score: top.score, Metadata: e.metadataFor(top.segmentID)}
		}
		return Response{Code: MultipleBadHistogramMatch}
	}

	top := deduped[0]
	second := deduped[1]

	if float64(top.score) < 0.05*float64(codeLen) {
		return Response{Code: MultipleBadHistogramMatch}
	}
	if top.score <= originalScores[top.segmentID]/4 {
		return Response{Code: MultipleBadHistogramMatch}
	}
	if top.score-second.score < top.score/3 {
		return Response{Code: MultipleBadHistogramMatch}
	}

	trackID := types.TrackIDFromSegmentID(top.segmentID)
	return Response{Code: MultipleGoodMatchHistogramDecreased, TrackID: trackID, Score: top.score, Metadata: e.metadataFor(top.segmentID)}
}

// Ingest stores one or more fingerprints. When split is true, each
// fingerprint is divided into overlapping ~60s segments before indexing
// and storing (the normal ingest path); when false, fingerprints are
// indexed and stored whole (used by replication ingest of already-split
// replication files).
func (e *Engine) Ingest(ctx context.Context, fingerprints []types.Fingerprint, split bool) error {
	for _, fp := range fingerprints {
		if fp.TrackID == "" {
			return fmt.Errorf("matcher: ingest requires a track_id")
		}
		if fp.Meta.Source == "" {
			fp.Meta.Source = "local"
		}
		if fp.Meta.ImportDate == "" {
			fp.Meta.ImportDate = time.Now().UTC().Format("2006-01-02T15:04:05Z")
		}
		var segs []types.Segment
		if split {
			var err error
			segs, err = segment.Split(fp)
			if err != nil {
				return fmt.Errorf("matcher: splitting %s: %w", fp.TrackID, err)
			}
		} else {
			segs = []types.Segment{{SegmentID: fp.TrackID, Code: fp.Code, Meta: fp.Meta}}
		}
		for _, s := range segs {
			hashes, err := parseHashes(s.Code)
			if err != nil {
				return fmt.Errorf("matcher: parsing codes for %s: %w", s.SegmentID, err)
			}
			if err := e.Index.AddSegment(ctx, s.SegmentID, hashes, s.Meta); err != nil {
				return fmt.Errorf("matcher: indexing %s: %w", s.SegmentID, err)
			}
			if err := e.Codes.Set(ctx, s.SegmentID, s.Code); err != nil {
				return fmt.Errorf("matcher: storing %s: %w", s.SegmentID, err)
			}
		}
	}
	if err := e.Index.Commit(ctx); err != nil {
		return fmt.Errorf("matcher: commit: %w", err)
	}
	return nil
}

// Delete removes every segment belonging to the given track IDs from
// both backends: the entry stored under the track ID itself (a whole,
// unsplit ingest) and every "<track_id>-<index>" segment. Split segments
// are found in the code-stream store through its Keys method when it has
// one, as codestore.MemStore does; a store without Keys only loses the
// entries keyed by the track IDs themselves.
func (e *Engine) Delete(ctx context.Context, trackIDs []string) error {
	for _, t := range trackIDs {
		if err := e.Index.DeletePrefix(ctx, t); err != nil {
			return fmt.Errorf("matcher: deleting %s from index: %w", t, err)
		}
	}
	keys := append([]string(nil), trackIDs...)
	if kl, ok := e.Codes.(interface{ Keys() []string }); ok {
		for _, k := range kl.Keys() {
			for _, t := range trackIDs {
				if strings.HasPrefix(k, t+"-") {
					keys = append(keys, k)
					break
				}
			}
		}
	}
	if err := e.Codes.MultiDelete(ctx, keys); err != nil {
		return fmt.Errorf("matcher: deleting from code store: %w", err)
	}
	if err := e.Index.Commit(ctx); err != nil {
		return fmt.Errorf("matcher: commit after delete: %w", err)
	}
	return nil
}

// cutCodeStringLength discards every (hash, time) pair more than 60
// seconds past the first timestamp: the index only ever matches within a
// single 60s segment, so anything further out is noise.
func cutCodeStringLength(codeString string) string {
	fields := strings.Fields(codeString)
	if len(fields) < 2 {
		return codeString
	}
	firstTime, err := strconv.Atoi(fields[1])
	if err != nil {
		return codeString
	}
	cutoff := float64(firstTime) + sixtySecondsInUnits

	kept := make([]string, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		t, err := strconv.Atoi(fields[i+1])
		if err != nil {
			continue
		}
		if float64(t) <= cutoff {
			kept = append(kept, fields[i], fields[i+1])
		}
	}
	return strings.Join(kept, " ")
}

func parseHashes(codeString string) ([]uint32, error) {
	fields := strings.Fields(codeString)
	hashes := make([]uint32, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		h, err := strconv.ParseUint(fields[i], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("matcher: parsing hash %q: %w", fields[i], err)
		}
		hashes = append(hashes, uint32(h))
	}
	return hashes, nil
}
