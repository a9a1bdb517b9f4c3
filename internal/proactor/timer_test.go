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

package proactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseTimer_DefaultOnExpireIsNoop(t *testing.T) {
	bt := NewBaseTimer("base", time.Second)
	require.Equal(t, "base", bt.Name())
	require.Equal(t, time.Second, bt.State().Period())
	require.NotPanics(t, bt.OnExpire)
}

func TestTimer_OnExpireInvokesCallback(t *testing.T) {
	fired := 0
	tm := NewTimer("ticker", 10*time.Millisecond, func() { fired++ })

	require.Equal(t, "ticker", tm.Name())
	tm.OnExpire()
	tm.OnExpire()
	require.Equal(t, 2, fired)
}

func TestTimer_NilCallbackIsNoop(t *testing.T) {
	tm := NewTimer("no-op", time.Second, nil)
	require.NotPanics(t, tm.OnExpire)
}
