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

// Package timing provides the two small timing helpers the proactor
// core depends on: a scoped deadline probe for handler callbacks, and
// a wall-clock timestamp formatter used by the demo timer's log
// message and the TCP demo client's greeting payload.
package timing

import (
	"fmt"
	"time"

	"github.com/sagarsabu/go-proactor/internal/logx"
)

// Now formats t in the core's timestamp convention: "DD-MM-YYYY
// HH:MM:SS" in local time, plus a ":NNNNNNNNN" nanosecond-of-second
// suffix.
func Now(t time.Time) string {
	return fmt.Sprintf("%s:%09d", t.Format("02-01-2006 15:04:05"), t.Nanosecond())
}

// ScopedDeadline times a unit of work identified by tag and logs a
// warning through log if it exceeds budget. Intended usage mirrors an
// RAII guard: construct it on entry, call Done when the work
// completes.
//
//	d := timing.StartDeadline(log, "TimerHandler:"+name, 20*time.Millisecond)
//	defer d.Done()
type ScopedDeadline struct {
	log    logx.Logger
	tag    string
	budget time.Duration
	start  time.Time
}

// StartDeadline begins timing tag against budget.
func StartDeadline(log logx.Logger, tag string, budget time.Duration) *ScopedDeadline {
	if log == nil {
		log = logx.Noop()
	}
	return &ScopedDeadline{log: log, tag: tag, budget: budget, start: time.Now()}
}

// Done ends the timing window and logs a warning if the elapsed time
// exceeded the budget.
func (d *ScopedDeadline) Done() {
	elapsed := time.Since(d.start)
	if elapsed > d.budget {
		d.log.Warningf("%s exceeded deadline: %s > %s", d.tag, elapsed, d.budget)
	}
}
