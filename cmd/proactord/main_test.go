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

package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	require.Equal(t, 0, run([]string{"--help"}))
}

func TestRun_UnknownFlag(t *testing.T) {
	require.Equal(t, 1, run([]string{"--not-a-flag"}))
}

func TestRun_BadLevel(t *testing.T) {
	require.Equal(t, 1, run([]string{"--level", "nonsense"}))
}

func TestTrimNewline(t *testing.T) {
	require.Equal(t, "hello", trimNewline([]byte("hello\n")))
	require.Equal(t, "hello", trimNewline([]byte("hello\r\n")))
	require.Equal(t, "", trimNewline([]byte("\n\n")))
	require.Equal(t, "no newline", trimNewline([]byte("no newline")))
}
