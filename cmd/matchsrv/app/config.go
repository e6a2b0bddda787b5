// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"

	"github.com/spf13/pflag"

	"github.com/echoprint/matchsrv/pkg/logging"
)

const (
	defaultReqIntervalS = 24 * 3600
	defaultElbow        = 10
	defaultSlop         = 2
	defaultIndexRows    = 30
	defaultIndexShards  = 16
)

// ServerConfig holds everything needed to stand up a matcher HTTP server.
type ServerConfig struct {
	LogFormat   string `json:"logformat"`
	LogLevel    string `json:"loglevel"`
	ReqLimitLog string `json:"reqlimitlog"`
	ReqLimitInt int    `json:"reqlimitint"` // in seconds
	Port        int    `json:"port"`
	TimeoutS    int    `json:"timeoutS"`
	MaxRequests int    `json:"maxrequests"`
	// WhiteListBlocks is a comma-separated list of CIDR blocks that are not rate limited
	WhiteListBlocks string `json:"whitelistblocks"`
	// Domains is a comma-separated list of domains for Let's Encrypt
	Domains string `json:"domains"`
	// CertPath is a path to a valid TLS certificate
	CertPath string `json:"-"`
	// KeyPath is a path to a valid private TLS key
	KeyPath string `json:"-"`
	// Elbow is the minimum-evidence threshold used by the decision engine.
	Elbow int `json:"elbow"`
	// Slop is the time-quantisation factor used by the histogram rescorer.
	Slop int `json:"slop"`
	// IndexRows is the number of bag-query candidates requested per query.
	IndexRows int `json:"indexrows"`
	// IndexShards is the number of posting-list shards in the in-memory index.
	IndexShards int `json:"indexshards"`
}

var DefaultConfig = ServerConfig{
	LogFormat:       "text",
	LogLevel:        "INFO",
	Port:            8502,
	TimeoutS:        30,
	MaxRequests:     0,
	ReqLimitInt:     defaultReqIntervalS,
	WhiteListBlocks: "",
	Elbow:           defaultElbow,
	Slop:            defaultSlop,
	IndexRows:       defaultIndexRows,
	IndexShards:     defaultIndexShards,
}

type Config struct {
	Konf      *koanf.Koanf
	ServerCfg ServerConfig
}

// LoadConfig loads defaults, config file, command line, and finally applies environment variables.
func LoadConfig(args []string, cwd string) (*ServerConfig, error) {
	k := koanf.New(".")
	defaults := DefaultConfig
	if err := k.Load(structs.Provider(defaults, "json"), nil); err != nil {
		return nil, err
	}

	f := pflag.NewFlagSet("matchsrv", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	cfgFile := f.String("cfg", "", "path to a JSON config file")
	f.Int("port", k.Int("port"), "HTTP port")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [%s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.String("whitelistblocks", k.String("whitelistblocks"), "comma-separated list of CIDR blocks that are not rate limited")
	f.Int("timeout", k.Int("timeoutS"), "timeout for all requests (seconds)")
	f.Int("maxrequests", k.Int("maxrequests"), "max nr of requests per IP address per interval")
	f.String("reqlimitlog", k.String("reqlimitlog"), "path to request limit log file (only written if maxrequests > 0)")
	f.Int("reqlimitint", k.Int("reqlimitint"), "interval for request limit in seconds (only used if maxrequests > 0)")
	f.String("domains", k.String("domains"), "One or more DNS domains (comma-separated) for auto certificate from Let's Encrypt")
	f.String("certpath", k.String("certpath"), "path to TLS certificate file (for HTTPS). Use domains instead if possible")
	f.String("keypath", k.String("keypath"), "path to TLS private key file (for HTTPS). Use domains instead if possible.")
	f.Int("elbow", k.Int("elbow"), "minimum-evidence threshold for a query to be considered")
	f.Int("slop", k.Int("slop"), "time-quantisation factor for histogram rescoring")
	f.Int("indexrows", k.Int("indexrows"), "number of bag-query candidates requested per query")
	f.Int("indexshards", k.Int("indexshards"), "number of posting-list shards in the in-memory index")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	if *cfgFile != "" {
		cf := file.Provider(*cfgFile)
		if err := k.Load(cf, json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %v", err)
	}

	err := k.Load(env.Provider("MATCHSRV_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "MATCHSRV_")), "_", ".", -1)
	}), nil)
	if err != nil {
		return nil, err
	}

	if err := checkTLSParams(k); err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func checkTLSParams(k *koanf.Koanf) error {
	domains := k.String("domains")
	certPath := k.String("certpath")
	keyPath := k.String("keypath")
	switch {
	case domains != "":
		if certPath != "" || keyPath != "" {
			return fmt.Errorf("cannot use certpath and keypath together with Let's Encrypt domains")
		}
		return nil
	case certPath == "" && keyPath == "":
		return nil // HTTP
	case certPath != "" && keyPath != "":
		return nil // HTTPS
	default:
		return fmt.Errorf("certpath and keypath must both be empty or set")
	}
}
