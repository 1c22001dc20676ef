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

package engine

import (
	"net"
	"sync"
	"time"

	libatm "github.com/nabbar/qengine/atomic"

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/egress"
	"github.com/nabbar/qengine/ingress"
	"github.com/nabbar/qengine/logger"
	"github.com/nabbar/qengine/refcount"
)

type engine struct {
	deps Deps

	dispatcher ingress.Dispatcher
	pipeline   egress.Pipeline

	// proc is the PROC reentrancy flag: CompareAndSwap(false, true)
	// claims a processing call, Store(false) releases it.
	proc libatm.Value[bool]

	mu           sync.Mutex
	canSend      bool
	resumeAt     time.Time
	lastSent     time.Time
	pastDeadline bool
}

func newEngine(deps Deps) (*engine, error) {
	if e := deps.Settings.Validate(); e != nil {
		return nil, ErrSettingsValidation.Error(e)
	}

	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}

	e := &engine{
		deps:    deps,
		canSend: true,
		proc:    libatm.NewValue[bool](),
	}
	// CompareAndSwap fails on a Value that has never been stored, so the
	// PROC flag starts at an explicit false.
	e.proc.Store(false)

	e.dispatcher = ingress.New(ingress.Deps{
		Mode:         deps.Settings.Mode,
		HonorPrst:    deps.Settings.HonorStatelessReset,
		Parser:       deps.Parser,
		Registry:     deps.Registry,
		RefTracker:   deps.RefTracker,
		TickableHeap: deps.TickableHeap,
	})

	e.pipeline = egress.New(egress.Deps{
		OutgoingHeap:     deps.OutgoingHeap,
		RefTracker:       deps.RefTracker,
		Registry:         deps.Registry,
		PMI:              deps.PMI,
		Send:             deps.Send,
		Limiter:          deps.Limiter,
		InitialBatchSize: deps.Settings.InitialBatchSize,
		ResumeFailsafe:   deps.Settings.ResumeSendingFailsafe.Time(),
		Clock:            deps.Clock,
	})

	return e, nil
}

func (e *engine) now() time.Time {
	if e.deps.Clock != nil {
		return e.deps.Clock()
	}
	return time.Now()
}

func (e *engine) PacketIn(payloads [][]byte, local, peer *net.UDPAddr, ecn uint8, now time.Time) (ingress.Result, error) {
	return e.dispatcher.PacketIn(payloads, local, peer, ecn, now)
}

func (e *engine) HasUnsentPackets() bool {
	return e.deps.OutgoingHeap.Count() > 0
}

// SupportedVersions reports the configured version bitmask intersected
// with LibrarySupportedVersions. Settings.Validate already rejects any
// bit outside that set, so this is normally a no-op; it stays an
// explicit intersection rather than a verbatim pass-through so the
// accessor's contract holds even if a caller mutates Settings after
// construction.
func (e *engine) SupportedVersions() uint32 {
	return e.deps.Settings.SupportedVersions & conn.LibrarySupportedVersions
}

func (e *engine) CountAttq(now time.Time, fromNow time.Duration) int {
	return e.deps.Attq.CountBefore(now.Add(fromNow))
}

// AddToTickable implements Facade. It is a no-op while a processing call
// is in flight: the drain loop that is already running will revisit the
// connection on its own before ProcessConns returns.
func (e *engine) AddToTickable(c conn.Conn) {
	if e.proc.Load() {
		return
	}
	if e.deps.RefTracker.Test(c, refcount.Tickable) {
		return
	}
	if e.deps.RefTracker.Incref(c, refcount.Tickable) == nil {
		e.deps.TickableHeap.Insert(c, e.now())
	}
}

// AddToAttq implements Facade, honoring the same PROC no-op rule.
func (e *engine) AddToAttq(c conn.Conn, at time.Time) {
	if e.proc.Load() {
		return
	}
	if e.deps.RefTracker.Test(c, refcount.Tickable) || e.deps.RefTracker.Test(c, refcount.Attq) {
		return
	}
	if e.deps.RefTracker.Incref(c, refcount.Attq) == nil {
		e.deps.Attq.Add(c, at)
	}
}
