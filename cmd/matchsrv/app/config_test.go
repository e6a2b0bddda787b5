// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	osArgs := []string{"/path/matchsrv"}
	cfg, err := LoadConfig(osArgs, "/root")
	assert.NoError(t, err)
	c := DefaultConfig
	assert.Equal(t, c, *cfg)
}

func TestCommandLine(t *testing.T) {
	osArgs := []string{"/path/matchsrv", "--loglevel", "debug", "--elbow", "15", "--indexshards", "8"}
	cfg, err := LoadConfig(osArgs, "/root")
	assert.NoError(t, err)
	c := DefaultConfig
	c.LogLevel = "debug"
	c.Elbow = 15
	c.IndexShards = 8
	assert.Equal(t, c, *cfg)
}

func TestEnv(t *testing.T) {
	osArgs := []string{"/path/matchsrv", "--loglevel", "debug"}
	t.Setenv("MATCHSRV_LOGLEVEL", "warn")
	cfg, err := LoadConfig(osArgs, "/root")
	assert.NoError(t, err)
	c := DefaultConfig
	c.LogLevel = "warn"
	assert.Equal(t, c, *cfg)
}

func TestDomainsAndCertPathConflict(t *testing.T) {
	osArgs := []string{"/path/matchsrv", "--domains", "example.com", "--certpath", "cert.pem", "--keypath", "key.pem"}
	_, err := LoadConfig(osArgs, "/root")
	assert.Error(t, err)
}
