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

// Package logfilecheck wires the periodic "does the log file still
// exist" check onto the core's own timer subsystem, the way the
// original process wired a LogFileChecker ahead of user handlers.
// Everything about the log sink itself (reopening a vanished file)
// lives in internal/logx; this package only supplies the periodic
// trigger.
package logfilecheck

import (
	"time"

	"github.com/sagarsabu/go-proactor/internal/logx"
	"github.com/sagarsabu/go-proactor/internal/proactor"
)

// period matches the original implementation's log file checker cadence.
const period = 250 * time.Millisecond

// Checker is a proactor.TimerHandler that periodically asks a Sink to
// ensure its backing file still exists.
type Checker struct {
	*proactor.BaseTimer
	sink logx.Sink
	log  logx.Logger
}

// NewChecker builds a Checker over sink, logging through log.
func NewChecker(sink logx.Sink, log logx.Logger) *Checker {
	if log == nil {
		log = logx.Noop()
	}
	return &Checker{
		BaseTimer: proactor.NewBaseTimer("logfile-checker", period),
		sink:      sink,
		log:       log,
	}
}

// OnExpire implements proactor.TimerHandler.
func (c *Checker) OnExpire() {
	if err := c.sink.EnsureFileWriteable(); err != nil {
		c.log.Errorf("logfilecheck: %s", err)
	}
}
