// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package types holds the data structures shared across the matcher
// packages: codec, segment, index, codestore, histogram and matcher.
package types

import "fmt"

// CodePair is one (hash, time) sample of an audio fingerprint.
type CodePair struct {
	Hash uint32
	Time uint32
}

// Metadata describes a track or one of its segments.
type Metadata struct {
	Length    int    `json:"length"`
	CodeVer   string `json:"codever"`
	Artist    string `json:"artist,omitempty"`
	Release   string `json:"release,omitempty"`
	Track     string `json:"track,omitempty"`
	Source    string `json:"source,omitempty"`
	ImportDate string `json:"import_date,omitempty"`
}

// Fingerprint is a track (or segment) submitted for ingest.
type Fingerprint struct {
	TrackID string
	Code    string // canonical "hash time hash time ..." code string
	Meta    Metadata
}

// Segment is one piece of a split fingerprint, ready for storage.
type Segment struct {
	SegmentID string // "<track_id>-<index>"
	Code      string
	Meta      Metadata
}

// TrackIDFromSegmentID recovers the track ID from a segment ID by taking
// the substring before the first '-'.
func TrackIDFromSegmentID(segmentID string) string {
	for i := 0; i < len(segmentID); i++ {
		if segmentID[i] == '-' {
			return segmentID[:i]
		}
	}
	return segmentID
}

// Candidate is one hit returned by an inverted-index bag query.
type Candidate struct {
	SegmentID string
	Score     int
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s:%d", c.SegmentID, c.Score)
}
