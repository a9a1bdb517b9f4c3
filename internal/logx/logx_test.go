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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"t": LevelTrace, "trace": LevelTrace,
		"d": LevelDebug, "debug": LevelDebug,
		"i": LevelInfo, "info": LevelInfo,
		"w": LevelWarning, "warn": LevelWarning, "warning": LevelWarning,
		"e": LevelError, "error": LevelError,
		"c": LevelCritical, "critical": LevelCritical,
	}
	for s, want := range cases {
		got, ok := ParseLevel(s)
		require.True(t, ok, s)
		require.Equal(t, want, got, s)
	}

	_, ok := ParseLevel("bogus")
	require.False(t, ok)
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarning)

	log.Debugf("should not appear")
	log.Infof("should not appear either")
	require.Empty(t, buf.String())

	log.Warningf("heads up: %d", 1)
	require.Contains(t, buf.String(), "heads up: 1")
}

func TestLogger_FormatsArgs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelTrace)

	log.Errorf("boom: %s (%d)", "bad", 42)
	line := buf.String()
	require.True(t, strings.Contains(line, "boom: bad (42)"))
}

func TestNoop_NeverPanics(t *testing.T) {
	log := Noop()
	require.NotPanics(t, func() {
		log.Tracef("x")
		log.Debugf("x")
		log.Infof("x")
		log.Warningf("x")
		log.Errorf("x")
	})
}
