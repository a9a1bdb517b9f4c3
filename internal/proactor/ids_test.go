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

import "testing"

func TestIDGenerator_Monotonic(t *testing.T) {
	var g idGenerator

	a := g.nextID()
	b := g.nextID()
	c := g.nextID()

	if a == 0 || b == 0 || c == 0 {
		t.Fatalf("ids must never be zero: got %d, %d, %d", a, b, c)
	}
	if !(a < b && b < c) {
		t.Fatalf("ids must be strictly increasing: got %d, %d, %d", a, b, c)
	}
}

func TestIDGenerator_Saturates(t *testing.T) {
	var g idGenerator
	g.next.Store(maxID - 1)

	first := g.nextID()
	if first != maxID {
		t.Fatalf("expected first call to reach maxID, got %d", first)
	}

	second := g.nextID()
	if second != maxID {
		t.Fatalf("expected saturated generator to keep returning maxID, got %d", second)
	}
}
