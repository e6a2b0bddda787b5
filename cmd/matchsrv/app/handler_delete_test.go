// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeleteHandlerRemovesTrack(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	code := codeOf(50)
	ingestCode(t, srv, "TRDELME1", code)

	resp, err := http.Get(srv.URL + "/query?fp_code=" + url.QueryEscape(code))
	require.NoError(t, err)
	var before queryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&before))
	resp.Body.Close()
	require.True(t, before.Match)

	delResp, err := http.PostForm(srv.URL+"/delete", url.Values{"track_id": {"TRDELME1"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, delResp.StatusCode)
	delResp.Body.Close()

	resp2, err := http.Get(srv.URL + "/query?fp_code=" + url.QueryEscape(code))
	require.NoError(t, err)
	defer resp2.Body.Close()
	var after queryResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&after))
	require.False(t, after.Match)
}

func TestDeleteHandlerMissingTrackID(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/delete", url.Values{})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
