// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import "errors"

var (
	errMissingField = errors.New("missing required field")
	errEmptyQuery   = errors.New("empty fp_code")
)
