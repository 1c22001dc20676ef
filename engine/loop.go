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
	"time"

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/logger"
	"github.com/nabbar/qengine/refcount"
)

// ProcessConns is process_conns. It is not safe to call reentrantly;
// a call made while one is already in flight on the same engine is a
// programming contract violation and panics, matching the assert the
// rest of this engine uses for invariant breaches.
func (e *engine) ProcessConns(now time.Time) {
	if !e.proc.CompareAndSwap(false, true) {
		panic("engine: process_conns called reentrantly")
	}
	defer e.proc.Store(false)

	e.mu.Lock()
	if !e.canSend && now.After(e.resumeAt) {
		e.canSend = true
	}
	lastSent := e.lastSent
	e.mu.Unlock()

	for _, c := range e.deps.Attq.Pop(now) {
		e.deps.RefTracker.Decref(c, refcount.Attq)
		if !e.deps.RefTracker.Test(c, refcount.Tickable) {
			if e.deps.RefTracker.Incref(c, refcount.Tickable) == nil {
				e.deps.TickableHeap.Insert(c, now)
			}
		}
	}

	var closedConns, tickedConns []conn.Conn

	for i := 0; ; i++ {
		c, ok := e.deps.TickableHeap.Pop()
		if !ok {
			break
		}

		e.deps.RefTracker.Decref(c, refcount.Tickable)
		res := c.Tick(now.Add(time.Duration(i)))

		if res.Send() {
			if !e.deps.RefTracker.Test(c, refcount.HasOutgoing) {
				if e.deps.RefTracker.Incref(c, refcount.HasOutgoing) == nil {
					e.deps.OutgoingHeap.Insert(c, lastSent)
				}
			}
		}

		if res.Close() {
			closedConns = append(closedConns, c)
			e.deps.RefTracker.Incref(c, refcount.Closing)
			if e.deps.RefTracker.Test(c, refcount.Hashed) {
				e.deps.Registry.RemoveAll(c)
				e.deps.RefTracker.Decref(c, refcount.Hashed)
			}
		} else {
			tickedConns = append(tickedConns, c)
			e.deps.RefTracker.Incref(c, refcount.Ticked)
		}
	}

	ticked := make(map[conn.Conn]struct{}, len(tickedConns))
	for _, c := range tickedConns {
		ticked[c] = struct{}{}
	}

	e.mu.Lock()
	canSend := e.canSend
	e.mu.Unlock()

	if canSend && e.deps.OutgoingHeap.Count() > 0 {
		e.runEgress(now, ticked)
	}

	if len(closedConns) > 0 {
		e.deps.Logger.WithFields(logger.Fields{"count": len(closedConns)}).Debug("connections closed")
	}

	for _, c := range closedConns {
		e.deps.RefTracker.Decref(c, refcount.Closing)
	}

	for _, c := range tickedConns {
		if _, stillTicked := ticked[c]; !stillTicked {
			// the egress pipeline already closed this connection on
			// BADCRYPT and cleared TICKED itself.
			continue
		}

		e.deps.RefTracker.Decref(c, refcount.Ticked)

		if _, ok := e.deps.RefTracker.Popcount(c); !ok {
			continue
		}

		if c.IsTickable() {
			if !e.deps.RefTracker.Test(c, refcount.Tickable) {
				if e.deps.RefTracker.Incref(c, refcount.Tickable) == nil {
					e.deps.TickableHeap.Insert(c, now)
				}
			}
			continue
		}

		t := c.NextTickTime()
		if t.IsZero() {
			panic("engine: next_tick_time returned zero for a non-tickable connection")
		}
		if e.deps.RefTracker.Incref(c, refcount.Attq) == nil {
			e.deps.Attq.Add(c, t)
		}
	}
}

// SendUnsentPackets is send_unsent_packets: it resets the processing
// deadline to now+proc_time_thresh and, if sending is currently
// allowed, drains C3 without ticking any connection. The deadline
// reset on every call (rather than extending a still-running slice)
// mirrors the preserved behavior around the accounting-under-load
// open question.
func (e *engine) SendUnsentPackets(now time.Time) {
	e.mu.Lock()
	if !e.canSend && now.After(e.resumeAt) {
		e.canSend = true
	}
	canSend := e.canSend
	e.mu.Unlock()

	if !canSend || e.deps.OutgoingHeap.Count() == 0 {
		return
	}

	e.runEgress(now, nil)
}

func (e *engine) runEgress(now time.Time, ticked map[conn.Conn]struct{}) {
	e.mu.Lock()
	lastSent := e.lastSent
	e.mu.Unlock()

	deadline := now.Add(e.deps.Settings.ProcTimeThresh.Time())
	rep := e.pipeline.Drain(now, deadline, lastSent, ticked)

	e.mu.Lock()
	e.lastSent = rep.LastSent
	e.canSend = rep.CanSend
	e.pastDeadline = rep.PastDeadline
	if !rep.CanSend {
		e.resumeAt = rep.ResumeAt
	}
	e.mu.Unlock()

	if !rep.CanSend {
		e.deps.Stats.OnBackpressure()
		e.deps.Logger.WithFields(logger.Fields{"resume_at": rep.ResumeAt}).Warn("egress backpressure engaged")
	}
}

// EarliestAdvTick is earliest_adv_tick.
func (e *engine) EarliestAdvTick(now time.Time) (time.Duration, bool) {
	e.mu.Lock()
	pastDeadline := e.pastDeadline
	canSend := e.canSend
	resumeAt := e.resumeAt
	e.mu.Unlock()

	if (pastDeadline && e.deps.OutgoingHeap.Count() > 0) || e.deps.TickableHeap.Count() > 0 {
		return 0, true
	}

	next, ok := e.deps.Attq.NextTime()
	if !canSend {
		if !ok || resumeAt.Before(next) {
			next, ok = resumeAt, true
		}
	}
	if !ok {
		return 0, false
	}
	return next.Sub(now), true
}
