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

package timing

import (
	"bytes"
	"testing"
	"time"

	"github.com/sagarsabu/go-proactor/internal/logx"
	"github.com/stretchr/testify/require"
)

func TestNow_Format(t *testing.T) {
	ts := time.Date(2026, time.July, 30, 9, 5, 3, 123456789, time.Local)
	got := Now(ts)
	require.Equal(t, "30-07-2026 09:05:03:123456789", got)
}

func TestScopedDeadline_WarnsWhenOverBudget(t *testing.T) {
	var buf bytes.Buffer
	log := logx.New(&buf, logx.LevelTrace)

	d := StartDeadline(log, "slow-op", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	d.Done()

	require.Contains(t, buf.String(), "slow-op exceeded deadline")
}

func TestScopedDeadline_SilentWithinBudget(t *testing.T) {
	var buf bytes.Buffer
	log := logx.New(&buf, logx.LevelTrace)

	d := StartDeadline(log, "fast-op", time.Second)
	d.Done()

	require.Empty(t, buf.String())
}

func TestStartDeadline_NilLoggerFallsBackToNoop(t *testing.T) {
	d := StartDeadline(nil, "tag", time.Nanosecond)
	require.NotPanics(t, func() {
		time.Sleep(time.Millisecond)
		d.Done()
	})
}
