/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package conntest provides a scriptable conn.Conn double for the test
// suites of every package that consumes the engine's connection
// capability interface, so none of them need their own ad-hoc mock.
package conntest

import (
	"sync"
	"time"

	"github.com/nabbar/qengine/conn"
)

// Stub is a conn.Conn whose every capability is driven by an optional
// function field; a nil field falls back to a harmless default.
type Stub struct {
	mu sync.Mutex

	TickFunc             func(now time.Time) conn.TickResult
	PacketInFunc         func(pkt *conn.PacketIn) error
	NextPacketToSendFunc func() (*conn.PacketOut, bool)
	PacketSentFunc       func(pkt *conn.PacketOut)
	PacketNotSentFunc    func(pkt *conn.PacketOut)
	EncryptPacketFunc    func(pkt *conn.PacketOut) conn.EncryptResult
	IsTickableFunc       func() bool
	IsEvanescentFunc     func() bool
	NextTickTimeFunc     func() time.Time
	StatelessResetFunc   func()
	DestroyFunc          func()
	GetStatsFunc         func() (conn.Stats, bool)
	ClientCallOnNewFunc  func()

	DestroyCalls         int
	StatelessResetCalls  int
	ClientCallOnNewCalls int
}

func (s *Stub) Tick(now time.Time) conn.TickResult {
	if s.TickFunc != nil {
		return s.TickFunc(now)
	}
	return conn.TickNone
}

func (s *Stub) PacketIn(pkt *conn.PacketIn) error {
	if s.PacketInFunc != nil {
		return s.PacketInFunc(pkt)
	}
	return nil
}

func (s *Stub) NextPacketToSend() (*conn.PacketOut, bool) {
	if s.NextPacketToSendFunc != nil {
		return s.NextPacketToSendFunc()
	}
	return nil, false
}

func (s *Stub) PacketSent(pkt *conn.PacketOut) {
	if s.PacketSentFunc != nil {
		s.PacketSentFunc(pkt)
	}
}

func (s *Stub) PacketNotSent(pkt *conn.PacketOut) {
	if s.PacketNotSentFunc != nil {
		s.PacketNotSentFunc(pkt)
	}
}

func (s *Stub) EncryptPacket(pkt *conn.PacketOut) conn.EncryptResult {
	if s.EncryptPacketFunc != nil {
		return s.EncryptPacketFunc(pkt)
	}
	return conn.EncryptOK
}

func (s *Stub) IsTickable() bool {
	if s.IsTickableFunc != nil {
		return s.IsTickableFunc()
	}
	return false
}

func (s *Stub) IsEvanescent() bool {
	if s.IsEvanescentFunc != nil {
		return s.IsEvanescentFunc()
	}
	return false
}

func (s *Stub) NextTickTime() time.Time {
	if s.NextTickTimeFunc != nil {
		return s.NextTickTimeFunc()
	}
	return time.Time{}
}

func (s *Stub) StatelessReset() {
	s.mu.Lock()
	s.StatelessResetCalls++
	s.mu.Unlock()
	if s.StatelessResetFunc != nil {
		s.StatelessResetFunc()
	}
}

func (s *Stub) Destroy() {
	s.mu.Lock()
	s.DestroyCalls++
	s.mu.Unlock()
	if s.DestroyFunc != nil {
		s.DestroyFunc()
	}
}

func (s *Stub) GetStats() (conn.Stats, bool) {
	if s.GetStatsFunc != nil {
		return s.GetStatsFunc()
	}
	return conn.Stats{}, false
}

func (s *Stub) ClientCallOnNew() {
	s.mu.Lock()
	s.ClientCallOnNewCalls++
	s.mu.Unlock()
	if s.ClientCallOnNewFunc != nil {
		s.ClientCallOnNewFunc()
	}
}
