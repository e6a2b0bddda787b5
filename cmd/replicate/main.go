// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/echoprint/matchsrv/cmd/replicate/app"
	"github.com/echoprint/matchsrv/internal"
	"github.com/echoprint/matchsrv/pkg/logging"
	flag "github.com/spf13/pflag"
)

var usg = `Usage of %s:

%s keeps two echoprint deployments in sync.

  %s dump --outdir DIR [--seed FILE ...]
      writes the current code-stream store out as replication CSV files.
  %s ingest FILE [FILE ...]
      ingests one or more replication CSV files (use - for stdin).
`

func parseOptions() *app.Options {
	name := os.Args[0]
	o := app.Options{}
	var seedFiles []string
	flag.StringVarP(&o.OutDir, "outdir", "o", ".", "dump: output directory for replication files")
	flag.StringSliceVarP(&seedFiles, "seed", "s", nil, "dump: replication file(s) to seed the store from before dumping")
	flag.StringVarP(&o.ImportDate, "importdate", "", "", "ISO-8601 UTC timestamp to stamp this run with [default: now]")
	logFormatUsage := fmt.Sprintf("format and type of log: %v", logging.LogFormats)
	flag.StringVarP(&o.LogFile, "logfile", "l", "", "log file [default stdout]")
	flag.StringVarP(&o.LogFormat, "logformat", "", logging.LogText, logFormatUsage)
	flag.StringVarP(&o.LogLevel, "loglevel", "", "info", "initial log level")
	flag.BoolVarP(&o.Version, "version", "v", false, "print version and date")
	flag.CommandLine.SortFlags = false

	flag.Usage = func() {
		parts := strings.Split(name, "/")
		base := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, usg, base, base, base, base)
		flag.PrintDefaults()
		os.Exit(2)
	}

	flag.Parse()
	if o.Version {
		fmt.Printf("replicate: %s\n", internal.GetVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
	}
	o.Mode = args[0]
	o.SeedFiles = seedFiles
	switch o.Mode {
	case "dump":
	case "ingest":
		o.InFiles = args[1:]
		if len(o.InFiles) == 0 {
			flag.Usage()
		}
	default:
		flag.Usage()
	}

	return &o
}

func main() {
	o := parseOptions()

	if err := logging.InitSlog(o.LogLevel, o.LogFormat); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	slog.Info("starting", "version", internal.GetVersion(), "mode", o.Mode)
	if err := app.Run(context.Background(), o); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
