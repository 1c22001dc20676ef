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

// Package egress implements the egress pipeline (C7): it walks the
// outgoing heap, encrypts packets as needed, fills send batches,
// invokes the host's transport callback, and feeds an AIMD-style
// batch-size controller from the result. A single Drain call empties
// every connection that had a packet ready when it started, subject to
// a deadline and to the host's packet-memory and pacing limits.
package egress

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/heap"
	"github.com/nabbar/qengine/refcount"
	"github.com/nabbar/qengine/registry"
)

// Report summarizes one Drain call for the processing loop (C8), which
// folds it into the engine's last_sent, CAN_SEND and deadline state.
type Report struct {
	// PacketsSent is the number of packets the send callback accepted
	// across every batch flushed during the call.
	PacketsSent int
	// PacketsNotSent is the number of packets returned to their
	// connections via PacketNotSent, for any reason.
	PacketsNotSent int
	// LastSent is the engine's last_sent clock after this call; zero if
	// no batch was ever flushed.
	LastSent time.Time
	// CanSend is false when the most recent flush was partial or
	// errored; the caller should honor ResumeAt before draining again.
	CanSend bool
	// ResumeAt is only meaningful when CanSend is false.
	ResumeAt time.Time
	// PastDeadline is true if the drain stopped because it ran past
	// the deadline passed to Drain, rather than because C3 and the
	// active list both went empty.
	PastDeadline bool
	// OutOfMemory is true if the drain stopped because the PMI
	// returned NOMEM; the remaining connections keep HAS_OUTGOING and
	// are re-heaped for a later call.
	OutOfMemory bool
}

// Pipeline is the capability C8 drives once per processing call, after
// ticking connections and before re-heaping them.
type Pipeline interface {
	// Drain walks C3 starting from now, stopping at deadline, and
	// flushes full batches through the send callback. ticked is C8's
	// transient TICKED set; a connection that closes with BADCRYPT
	// during the drain is removed from it and decreffed here, since by
	// the time egress discovers BADCRYPT the caller has already handed
	// off control of that set for the remainder of the slice.
	Drain(now, deadline time.Time, lastSent time.Time, ticked map[conn.Conn]struct{}) Report

	// BatchSize reports the controller's current batch size, mostly
	// useful for tests and metrics.
	BatchSize() int
}

// Deps bundles the collaborators the pipeline needs.
type Deps struct {
	// OutgoingHeap is C3: connections with at least one ready packet,
	// ordered by last_sent.
	OutgoingHeap heap.Heap[conn.Conn]
	RefTracker   refcount.Tracker
	Registry     registry.Registry
	PMI          conn.PMI
	Send         conn.SendFunc

	// Limiter paces batch flushes; nil disables pacing entirely.
	Limiter *rate.Limiter

	// InitialBatchSize seeds the AIMD controller; clamped into
	// [conn.BatchSizeMin, conn.BatchSizeMax].
	InitialBatchSize int

	// ResumeFailsafe is how long a partial or errored flush suspends
	// sending for; zero defaults to one second.
	ResumeFailsafe time.Duration

	// Clock reports the wall-clock time used to test the deadline
	// after each batch flush; nil defaults to time.Now. Tests supply a
	// fake so deadline behavior doesn't depend on when the suite runs.
	Clock func() time.Time
}

// New returns a Pipeline wired to deps.
func New(deps Deps) Pipeline {
	return newPipeline(deps)
}
