// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package histogram rescores a bag-query candidate by actually aligning
// its code stream against the query's, rather than just counting shared
// hashes. A true match clusters at a single time offset; noise does not.
package histogram

import (
	"sort"
	"strconv"
	"strings"
)

// minDist tracks the smallest time offset seen for one match-code hash,
// tagging whether any query hash has matched it yet. This replaces the
// 32767 magic sentinel the original matcher used to mean "no match yet".
type minDist struct {
	dist  int
	valid bool
}

func (m *minDist) offer(d int) {
	if !m.valid || d < m.dist {
		m.dist = d
		m.valid = true
	}
}

// ActualMatches aligns queryCode against matchCode and returns the
// strength of the best-aligned time offset. queryCode and matchCode are
// canonical "hash time hash time ..." strings. slop quantizes time
// offsets so near-simultaneous hashes count as the same offset. elbow is
// the minimum number of (hash, time) pairs matchCode must contain for
// the comparison to be meaningful; shorter matches score 0.
//
// The algorithm: normalize the query's timestamps to start at 0,
// quantize by slop, and invert it into hash -> []quantized-time. Then
// walk matchCode's hashes; for each one present in the query, find the
// nearest query occurrence at or before it in (quantized) time, i.e. the
// smallest non-negative offset, and tally that offset in
// a histogram. The two most common offsets, summed, are the score — a
// true alignment concentrates most hits at one or two adjacent offsets,
// while noise spreads across many.
func ActualMatches(queryCode, matchCode string, slop, elbow int) int {
	queryFields := strings.Fields(queryCode)
	matchFields := strings.Fields(matchCode)
	if len(matchFields) < elbow*2 {
		return 0
	}
	if slop <= 0 {
		slop = 1
	}

	queryTimes, err := parseTimes(queryFields)
	if err != nil || len(queryTimes) == 0 {
		return 0
	}
	minTime := queryTimes[0]
	for _, t := range queryTimes[1:] {
		if t < minTime {
			minTime = t
		}
	}

	queryCodes := make(map[string][]int)
	for i := 0; i < len(queryFields)-1; i += 2 {
		hash := queryFields[i]
		t := queryTimes[i/2] - minTime
		queryCodes[hash] = append(queryCodes[hash], t/slop)
	}

	histogram := make(map[int]int)
	for i := 0; i+1 < len(matchFields); i += 2 {
		hash := matchFields[i]
		times, ok := queryCodes[hash]
		if !ok {
			continue
		}
		matchTime, err := strconv.Atoi(matchFields[i+1])
		if err != nil {
			continue
		}
		matchTime /= slop

		var best minDist
		for _, qt := range times {
			if d := matchTime - qt; d >= 0 {
				best.offer(d)
			}
		}
		if best.valid {
			histogram[best.dist]++
		}
	}

	if len(histogram) == 0 {
		return 0
	}
	offsets := make([]int, 0, len(histogram))
	for offset := range histogram {
		offsets = append(offsets, offset)
	}
	sort.Slice(offsets, func(i, j int) bool {
		if histogram[offsets[i]] != histogram[offsets[j]] {
			return histogram[offsets[i]] > histogram[offsets[j]]
		}
		return offsets[i] > offsets[j]
	})
	if len(offsets) > 1 {
		return histogram[offsets[0]] + histogram[offsets[1]]
	}
	return histogram[offsets[0]]
}

func parseTimes(fields []string) ([]int, error) {
	times := make([]int, len(fields)/2)
	for i := 0; i < len(times); i++ {
		t, err := strconv.Atoi(fields[2*i+1])
		if err != nil {
			return nil, err
		}
		times[i] = t
	}
	return times, nil
}
