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

// Command proactord hosts the proactor event loop: it wires up
// logging, the log-file-exists checker, and (optionally) a pair of
// demo handlers illustrating the timer and TCP client subsystems.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sagarsabu/go-proactor/internal/cliargs"
	"github.com/sagarsabu/go-proactor/internal/iouring"
	"github.com/sagarsabu/go-proactor/internal/logfilecheck"
	"github.com/sagarsabu/go-proactor/internal/logx"
	"github.com/sagarsabu/go-proactor/internal/proactor"
	"github.com/sagarsabu/go-proactor/internal/timing"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run contains everything main would otherwise do directly; it exists
// so a panic unwinding out of Proactor.Run can be recovered and mapped
// to an exit code, mirroring the original's try/catch around main.
func run(args []string) (exitCode int) {
	fs := cliargs.NewFlagSet("proactord", os.Stderr)
	parsed, err := cliargs.Parse(fs, args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, sink, closeLog := buildLogger(parsed)
	defer closeLog()

	defer func() {
		if r := recover(); r != nil {
			log.Criticalf("proactord: fatal: %v", r)
			exitCode = 1
		}
	}()

	ring, err := iouring.NewRing(iouring.DefaultQueueDepth, log)
	if err != nil {
		log.Criticalf("proactord: failed to create ring: %s", err)
		return 1
	}
	defer ring.Close()

	p := proactor.New(ring, log)

	checker := logfilecheck.NewChecker(sink, log)
	if err := p.AddTimerHandler(checker); err != nil {
		log.Errorf("proactord: failed to register log file checker: %s", err)
	}

	if parsed.Demo {
		registerDemoHandlers(p, log)
	}

	if err := p.Run(); err != nil {
		log.Criticalf("proactord: run failed: %s", err)
		return 1
	}
	return 0
}

func buildLogger(args cliargs.Args) (logx.Logger, logx.Sink, func()) {
	if args.LogFile == "" {
		return logx.New(os.Stderr, args.Level), logx.NoopSink{}, func() {}
	}

	sink, f, err := logx.NewFileSink(args.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "proactord: %s, falling back to stderr\n", err)
		return logx.New(os.Stderr, args.Level), logx.NoopSink{}, func() {}
	}
	return logx.New(f, args.Level), sink, func() { _ = f.Close() }
}

// registerDemoHandlers restores the original process's illustrative
// handlers: a 1-second timer that just logs, and a TCP client against
// 127.0.0.1:8080 that greets the peer and logs what it reads.
func registerDemoHandlers(p *proactor.Proactor, log logx.Logger) {
	demoTimer := proactor.NewTimer("demo-timer", time.Second, func() {
		log.Infof("demo-timer: tick at %s", timing.Now(time.Now()))
	})
	if err := p.AddTimerHandler(demoTimer); err != nil {
		log.Errorf("proactord: failed to register demo timer: %s", err)
	}

	firstGreeting := true
	client := proactor.NewTCPClient("127.0.0.1", "8080",
		func() { log.Infof("demo-tcp-client: connected") },
		func(data []byte) { log.Infof("demo-tcp-client: received %q", trimNewline(data)) },
	).WithGreeting(func() []byte {
		if firstGreeting {
			firstGreeting = false
			return []byte("client saying hi\n")
		}
		return []byte(fmt.Sprintf("client said hi at %s\n", timing.Now(time.Now())))
	})

	if err := p.AddTCPClient(client); err != nil {
		log.Errorf("proactord: failed to register demo tcp client: %s", err)
	}
}

func trimNewline(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
