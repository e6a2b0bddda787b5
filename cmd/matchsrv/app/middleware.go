// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/http"

	"github.com/echoprint/matchsrv/internal"
)

func addVersionHeader(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Matchsrv-Version", internal.GetVersion())
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
