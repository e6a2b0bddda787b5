// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/http"
	"strings"
)

// deleteHandlerFunc handles POST /delete: it removes every segment for
// one or more comma-separated track IDs from both backends.
func (s *Server) deleteHandlerFunc(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.jsonResponse(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return
	}

	f := newFormAccErr()
	raw := f.Required("track_id", r.FormValue("track_id"))
	if f.err != nil {
		s.jsonResponse(w, map[string]string{"error": f.err.Error()}, http.StatusBadRequest)
		return
	}

	var trackIDs []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			trackIDs = append(trackIDs, t)
		}
	}

	if err := s.Engine.Delete(r.Context(), trackIDs); err != nil {
		s.jsonResponse(w, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]any{"track_id": trackIDs, "status": "ok"}, http.StatusOK)
}
