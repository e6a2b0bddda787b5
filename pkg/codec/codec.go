// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package codec inflates and decompresses the wire representation of a
// code string into the canonical "hash time hash time ..." textual form
// the rest of the matcher operates on.
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// hexFieldWidth is the width, in hex characters, of one 20-bit time or
// hash field (5 hex chars = 20 bits).
const hexFieldWidth = 5

// Inflate takes an uncompressed code string consisting of zero-padded
// fixed-width hex fields (n time fields followed by n hash fields) and
// converts it to the canonical code string "hash time hash time ...".
func Inflate(s string) (string, error) {
	if len(s)%(2*hexFieldWidth) != 0 {
		return "", fmt.Errorf("codec: hex code string length %d is not a multiple of %d", len(s), 2*hexFieldWidth)
	}
	n := len(s) / (2 * hexFieldWidth)
	times := make([]uint64, n)
	hashes := make([]uint64, n)
	timesEnd := n * hexFieldWidth
	for i := 0; i < n; i++ {
		off := i * hexFieldWidth
		v, err := strconv.ParseUint(s[off:off+hexFieldWidth], 16, 32)
		if err != nil {
			return "", fmt.Errorf("codec: parse time field %d: %w", i, err)
		}
		times[i] = v
	}
	for i := 0; i < n; i++ {
		off := timesEnd + i*hexFieldWidth
		v, err := strconv.ParseUint(s[off:off+hexFieldWidth], 16, 32)
		if err != nil {
			return "", fmt.Errorf("codec: parse hash field %d: %w", i, err)
		}
		hashes[i] = v
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d %d", hashes[i], times[i])
	}
	return b.String(), nil
}

// Decode decompresses a URL-safe base64, zlib-compressed code string. If
// the decompressed payload contains no space character it is assumed to
// be the hex form consumed by Inflate. An empty input decodes to the
// empty string. Any base64, zlib, or inflate failure is reported as an
// error so callers can classify it as CANNOT_DECODE.
func Decode(compressed string) (string, error) {
	if compressed == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(compressed)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(compressed)
	}
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(compressed)
	}
	if err != nil {
		return "", fmt.Errorf("codec: base64 decode: %w", err)
	}

	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("codec: zlib open: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("codec: zlib decompress: %w", err)
	}
	actual := buf.String()

	if !strings.Contains(actual, " ") {
		inflated, err := Inflate(actual)
		if err != nil {
			return "", fmt.Errorf("codec: inflate: %w", err)
		}
		return inflated, nil
	}
	return actual, nil
}

// LooksCompressed reports whether s should be treated as a compressed
// blob rather than a canonical decimal-space code stream: true iff s
// contains any character from the base64url/base64 alphabet set
// [A-Za-z/+_-].
func LooksCompressed(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
			return true
		case c == '/' || c == '+' || c == '_' || c == '-':
			return true
		}
	}
	return false
}
