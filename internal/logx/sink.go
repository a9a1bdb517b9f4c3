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

package logx

import (
	"fmt"
	"os"
)

// Sink is the log destination the core's logger writes through when
// given a file path rather than stderr. It exists so something can
// periodically verify the destination is still writeable — the
// rotation/rename machinery itself is out of scope for the core (spec
// §1 "Out of scope: ... log-file rotation, periodic 'log file exists'
// check").
type Sink interface {
	// EnsureFileWriteable reopens the backing file if it has vanished
	// (e.g. deleted out from under the process by an external log
	// rotator) and returns an error if it cannot be recreated.
	EnsureFileWriteable() error
}

// FileSink is the minimal Sink backing a file-based logger: it knows
// its own path and reopens it on demand.
type FileSink struct {
	path string
	file *os.File
}

// NewFileSink opens path for appending and returns a Sink over it. The
// returned *os.File should be passed to New as the log writer.
func NewFileSink(path string) (*FileSink, *os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logx: open %s: %w", path, err)
	}
	return &FileSink{path: path, file: f}, f, nil
}

// EnsureFileWriteable stats the path and reopens it if missing.
func (s *FileSink) EnsureFileWriteable() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logx: reopen %s: %w", s.path, err)
	}
	old := s.file
	s.file = f
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// File returns the currently open file handle.
func (s *FileSink) File() *os.File { return s.file }

// NoopSink is used when logging to stderr, where there is no backing
// file to lose and recreate.
type NoopSink struct{}

// EnsureFileWriteable always succeeds.
func (NoopSink) EnsureFileWriteable() error { return nil }
