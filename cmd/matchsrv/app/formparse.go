// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"strconv"
)

// formAccErr accumulates the first error encountered while pulling typed
// values out of form fields, so a handler can read every field it needs
// and check one error at the end instead of bailing out field by field.
type formAccErr struct {
	err error
}

func newFormAccErr() *formAccErr {
	return &formAccErr{}
}

// Required returns val, recording an error if it is empty.
func (f *formAccErr) Required(key, val string) string {
	if f.err != nil {
		return ""
	}
	if val == "" {
		f.err = fmt.Errorf("%s: %w", key, errMissingField)
		return ""
	}
	return val
}

// Atoi parses val as an int, defaulting to 0 on an empty val.
func (f *formAccErr) Atoi(key, val string) int {
	if f.err != nil || val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		f.err = fmt.Errorf("key=%s, err=%w", key, err)
		return 0
	}
	return n
}

// AtoiDefault parses val as an int, returning def if val is empty.
func (f *formAccErr) AtoiDefault(key, val string, def int) int {
	if val == "" {
		return def
	}
	return f.Atoi(key, val)
}
