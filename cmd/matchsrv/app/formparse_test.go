// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormAccErrRequired(t *testing.T) {
	f := newFormAccErr()
	got := f.Required("track_id", "TRAAAAA")
	require.NoError(t, f.err)
	assert.Equal(t, "TRAAAAA", got)
}

func TestFormAccErrRequiredMissing(t *testing.T) {
	f := newFormAccErr()
	f.Required("length", "")
	require.Error(t, f.err)
	assert.ErrorIs(t, f.err, errMissingField)
}

func TestFormAccErrStopsOnFirstError(t *testing.T) {
	f := newFormAccErr()
	f.Required("length", "")
	got := f.Atoi("elbow", "10")
	assert.Equal(t, 0, got, "subsequent calls should short-circuit once an error is recorded")
}

func TestFormAccErrAtoi(t *testing.T) {
	f := newFormAccErr()
	got := f.Atoi("elbow", "15")
	require.NoError(t, f.err)
	assert.Equal(t, 15, got)
}

func TestFormAccErrAtoiInvalid(t *testing.T) {
	f := newFormAccErr()
	f.Atoi("elbow", "not-a-number")
	assert.Error(t, f.err)
}

func TestFormAccErrAtoiDefault(t *testing.T) {
	f := newFormAccErr()
	assert.Equal(t, 10, f.AtoiDefault("elbow", "", 10))
	assert.Equal(t, 20, f.AtoiDefault("elbow", "20", 10))
}
