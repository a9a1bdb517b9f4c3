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

package cliargs

import (
	"bytes"
	"flag"
	"testing"

	"github.com/sagarsabu/go-proactor/internal/logx"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	fs := NewFlagSet("test", &bytes.Buffer{})
	args, err := Parse(fs, nil)
	require.NoError(t, err)
	require.Equal(t, logx.LevelInfo, args.Level)
	require.Empty(t, args.LogFile)
	require.False(t, args.Demo)
}

func TestParse_LevelAndFileAndDemo(t *testing.T) {
	fs := NewFlagSet("test", &bytes.Buffer{})
	args, err := Parse(fs, []string{"--level", "debug", "--file", "/tmp/proactord.log", "--demo"})
	require.NoError(t, err)
	require.Equal(t, logx.LevelDebug, args.Level)
	require.Equal(t, "/tmp/proactord.log", args.LogFile)
	require.True(t, args.Demo)
}

func TestParse_ShorthandFlags(t *testing.T) {
	fs := NewFlagSet("test", &bytes.Buffer{})
	args, err := Parse(fs, []string{"-l", "e", "-f", "out.log"})
	require.NoError(t, err)
	require.Equal(t, logx.LevelError, args.Level)
	require.Equal(t, "out.log", args.LogFile)
}

func TestParse_UnknownLevelErrors(t *testing.T) {
	fs := NewFlagSet("test", &bytes.Buffer{})
	_, err := Parse(fs, []string{"--level", "nonsense"})
	require.Error(t, err)
}

func TestParse_Help(t *testing.T) {
	var out bytes.Buffer
	fs := NewFlagSet("test", &out)
	_, err := Parse(fs, []string{"--help"})
	require.ErrorIs(t, err, flag.ErrHelp)
	require.NotEmpty(t, out.String())
}
