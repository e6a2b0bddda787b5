// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func ingestCode(t *testing.T, srv *httptest.Server, trackID, code string) {
	t.Helper()
	form := url.Values{
		"track_id": {trackID},
		"fp_code":  {code},
		"length":   {"180"},
		"codever":  {"4.12"},
	}
	resp, err := http.Post(srv.URL+"/ingest", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQueryHandlerSingleGoodMatch(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	code := codeOf(50)
	ingestCode(t, srv, "TRKNOWN1", code)

	resp, err := http.Get(srv.URL + "/query?fp_code=" + url.QueryEscape(code))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body queryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.OK)
	require.True(t, body.Match)
	require.Equal(t, "TRKNOWN1", body.TrackID)
}

func TestQueryHandlerEmptyCode(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	form := url.Values{"fp_code": {""}}
	resp, err := http.PostForm(srv.URL+"/query", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryHandlerNoResults(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/query?fp_code=" + url.QueryEscape(codeOf(50)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body queryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Match)
	require.Contains(t, body.Message, "NO_RESULTS")
}
