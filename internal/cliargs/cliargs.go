/*
 * Copyright 2025 go-proactor Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cliargs parses the proactor binary's command line: a log
// level, an optional log file path, and --help. Modeled on the
// corpus's own entrypoint style of bare stdlib flag.Parse rather than
// a third-party flags library.
package cliargs

import (
	"flag"
	"fmt"
	"io"

	"github.com/sagarsabu/go-proactor/internal/logx"
)

// Args is the parsed command line.
type Args struct {
	Level   logx.Level
	LogFile string
	Demo    bool
}

// Parse parses args (normally os.Args[1:]) against fs, which must not
// yet have been parsed. Parse errors, including flag.ErrHelp for
// --help, are returned to the caller rather than exiting the process
// (NewFlagSet builds fs with flag.ContinueOnError).
func Parse(fs *flag.FlagSet, args []string) (Args, error) {
	levelStr := fs.String("level", "i", "log level: t|trace d|debug i|info w|warn e|error c|critical")
	fs.StringVar(levelStr, "l", *levelStr, "shorthand for --level")
	logFile := fs.String("file", "", "path to the log file (default: stderr)")
	fs.StringVar(logFile, "f", *logFile, "shorthand for --file")
	demo := fs.Bool("demo", false, "register the built-in demo timer and TCP client handlers")

	if err := fs.Parse(args); err != nil {
		return Args{}, err
	}

	level, ok := logx.ParseLevel(*levelStr)
	if !ok {
		return Args{}, fmt.Errorf("cliargs: unrecognized --level %q", *levelStr)
	}

	return Args{Level: level, LogFile: *logFile, Demo: *demo}, nil
}

// NewFlagSet builds the FlagSet Parse expects, writing usage text to w.
func NewFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}
