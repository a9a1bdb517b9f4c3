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

// eventKind tags the kind-specific payload carried by an event record.
// Replaces the original's RTTI + dynamic downcast from a polymorphic
// Event base with an exhaustive switch.
type eventKind int

const (
	kindTimerExpired eventKind = iota
	kindTimerUpdate
	kindTimerCancel
	kindSignal
	kindTCPConnect
	kindTCPSend
	kindTCPRecv
)

func (k eventKind) String() string {
	switch k {
	case kindTimerExpired:
		return "TimerExpired"
	case kindTimerUpdate:
		return "TimerUpdate"
	case kindTimerCancel:
		return "TimerCancel"
	case kindSignal:
		return "Signal"
	case kindTCPConnect:
		return "TcpConnect"
	case kindTCPSend:
		return "TcpSend"
	case kindTCPRecv:
		return "TcpRecv"
	default:
		return "Unknown"
	}
}

// event is the tagged variant owned by pendingEvents. Only the payload
// field matching kind is populated; the rest are zero.
type event struct {
	token   uint64
	kind    eventKind
	handle  uint64 // owning handle id; zero for a process-wide signal
	retires bool   // erase from pendingEvents once this completion is handled

	signal     *signalPayload
	tcpConnect *tcpConnectPayload
	tcpSend    *tcpSendPayload
	tcpRecv    *tcpRecvPayload
}

type signalPayload struct {
	signum int
	fd     int
	buf    []byte
}

type tcpConnectPayload struct {
	host string
	port string
	fd   int
}

type tcpSendPayload struct {
	fd   int
	data []byte
}

type tcpRecvPayload struct {
	fd  int
	buf []byte
}
