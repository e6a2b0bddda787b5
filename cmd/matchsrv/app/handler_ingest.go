// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/echoprint/matchsrv/pkg/codec"
	"github.com/echoprint/matchsrv/pkg/types"
)

const trackIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newTrackID generates a fresh track ID of the form "TR" + 5 random
// uppercase letters + a hex timestamp, for ingest requests that don't
// supply their own track_id.
func newTrackID() string {
	letters := make([]byte, 5)
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is not something callers can act on here;
		// fall back to a fixed suffix rather than panicking.
		buf = []byte{0, 1, 2, 3, 4}
	}
	for i, b := range buf {
		letters[i] = trackIDAlphabet[int(b)%len(trackIDAlphabet)]
	}
	return fmt.Sprintf("TR%s%x", letters, time.Now().UnixMilli())
}

// ingestHandlerFunc handles POST /ingest: it stores a fingerprint under
// track_id (generating one if absent), splitting it into overlapping
// ~60s segments before indexing.
func (s *Server) ingestHandlerFunc(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.jsonResponse(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return
	}

	f := newFormAccErr()
	fpCode := f.Required("fp_code", r.FormValue("fp_code"))
	length := f.Atoi("length", f.Required("length", r.FormValue("length")))
	codever := f.Required("codever", r.FormValue("codever"))
	if f.err != nil {
		s.jsonResponse(w, map[string]string{"error": f.err.Error()}, http.StatusBadRequest)
		return
	}

	trackID := strings.TrimSpace(r.FormValue("track_id"))
	if trackID == "" {
		trackID = newTrackID()
	}

	if codec.LooksCompressed(fpCode) {
		decoded, err := codec.Decode(fpCode)
		if err != nil {
			s.jsonResponse(w, map[string]string{"error": "could not decode fp_code"}, http.StatusBadRequest)
			return
		}
		fpCode = decoded
	}

	fp := types.Fingerprint{
		TrackID: trackID,
		Code:    fpCode,
		Meta: types.Metadata{
			Length:  length,
			CodeVer: codever,
			Artist:  r.FormValue("artist"),
			Release: r.FormValue("release"),
			Track:   r.FormValue("track"),
		},
	}

	if err := s.Engine.Ingest(r.Context(), []types.Fingerprint{fp}, true); err != nil {
		s.jsonResponse(w, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]string{"track_id": trackID, "status": "ok"}, http.StatusOK)
}
