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

package logfilecheck

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sagarsabu/go-proactor/internal/logx"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	err   error
	calls int
}

func (f *fakeSink) EnsureFileWriteable() error {
	f.calls++
	return f.err
}

func TestChecker_OnExpire_Success(t *testing.T) {
	sink := &fakeSink{}
	c := NewChecker(sink, logx.Noop())

	c.OnExpire()
	c.OnExpire()
	require.Equal(t, 2, sink.calls)
}

func TestChecker_OnExpire_LogsOnError(t *testing.T) {
	var buf bytes.Buffer
	sink := &fakeSink{err: errors.New("file vanished")}
	c := NewChecker(sink, logx.New(&buf, logx.LevelTrace))

	c.OnExpire()
	require.Contains(t, buf.String(), "file vanished")
}

func TestChecker_Period(t *testing.T) {
	c := NewChecker(&fakeSink{}, logx.Noop())
	require.Equal(t, "logfile-checker", c.Name())
	require.Equal(t, period, c.State().Period())
}
