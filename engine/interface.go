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

// Package engine ties every other package into the processing loop
// (C8) and the connection lifecycle / factory (C9). It is the one
// package most callers import: everything else in this module is a
// collaborator engine wires together behind a single facade.
package engine

import (
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/nabbar/qengine/attq"
	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/heap"
	"github.com/nabbar/qengine/ingress"
	"github.com/nabbar/qengine/logger"
	"github.com/nabbar/qengine/refcount"
	"github.com/nabbar/qengine/registry"
)

// Facade is what a connection constructor receives so a connection can
// ask to be scheduled without reaching into engine internals. Both
// methods honor the PROC reentrancy flag: calls made from inside a
// Tick are no-ops, since the processing loop will revisit the
// connection on its own before returning.
type Facade interface {
	// AddToTickable marks c TICKABLE (inserting it into C2) if it is
	// not already.
	AddToTickable(c conn.Conn)
	// AddToAttq schedules c to wake at t (inserting it into C4) if it
	// is not already ATTQ or TICKABLE.
	AddToAttq(c conn.Conn, at time.Time)
}

// Constructor builds a new client connection. facade and settings are
// the engine's own, handed through so the connection can self-schedule
// and honor the negotiated settings; local/peer are the socket
// addresses connect() was called with.
type Constructor func(facade Facade, settings conn.Settings, local, peer *net.UDPAddr) (conn.Conn, error)

// Engine is the capability the host drives: connect/destroy
// connections, feed it inbound datagrams, and give it turns to process
// and send.
type Engine interface {
	// Connect creates a client connection via Deps.Constructor, records
	// it in C1/C2, and invokes its ClientCallOnNew hook. Refused if the
	// engine is in by-endpoint mode and local's port is already bound.
	Connect(local, peer *net.UDPAddr) (conn.Conn, error)

	// PacketIn hands one or more datagrams to the ingress dispatcher.
	PacketIn(payloads [][]byte, local, peer *net.UDPAddr, ecn uint8, now time.Time) (ingress.Result, error)

	// ProcessConns is process_conns: pop ATTQ, drain C2, tick every
	// popped connection, run egress if allowed, and re-schedule every
	// ticked connection into C2 or C4. Panics if called reentrantly.
	ProcessConns(now time.Time)

	// SendUnsentPackets resets the processing deadline and, if sending
	// is currently allowed, drains C3 without ticking anything.
	SendUnsentPackets(now time.Time)

	// HasUnsentPackets reports whether C3 holds any connection with a
	// packet ready to go out.
	HasUnsentPackets() bool

	// EarliestAdvTick reports how long until the host should next call
	// ProcessConns: zero if C3 has work left over from a deadline cutoff
	// or C2 is non-empty, otherwise the nearest of ATTQ's next wakeup
	// and (when sending is suspended) resume_sending_at. ok is false
	// when there is nothing scheduled at all.
	EarliestAdvTick(now time.Time) (time.Duration, bool)

	// CountAttq reports how many ATTQ entries are due at or before
	// now+fromNow (fromNow may be negative).
	CountAttq(now time.Time, fromNow time.Duration) int

	// AddCid registers an additional CCE for c. Only meaningful in
	// by-CID mode.
	AddCid(c conn.Conn, cid []byte) error

	// RetireCid removes one of c's CCEs; c's other CCEs are unaffected.
	RetireCid(c conn.Conn, cid []byte)

	// SupportedVersions reports the configured version bitmask
	// intersected with conn.LibrarySupportedVersions.
	SupportedVersions() uint32

	// Destroy force-closes every connection still alive and releases
	// engine-owned resources. The engine must not be used afterward.
	Destroy()
}

// Deps bundles every collaborator the engine drives. All fields are
// required except Limiter, Constructor, Stats, Clock and Logger.
type Deps struct {
	Settings conn.Settings

	Registry     registry.Registry
	TickableHeap heap.Heap[conn.Conn]
	OutgoingHeap heap.Heap[conn.Conn]
	Attq         attq.Queue[conn.Conn]
	RefTracker   refcount.Tracker

	Parser ingress.Parser
	PMI    conn.PMI
	Send   conn.SendFunc

	// Limiter paces egress flushes; nil disables pacing.
	Limiter *rate.Limiter

	// Constructor builds client connections for Connect. Required only
	// if the host ever calls Connect.
	Constructor Constructor

	// Stats counts connections created by Connect and egress
	// backpressure events; nil disables them. Per-connection counters
	// on destruction reach it only when its OnDestroy is the Tracker's
	// destroy callback.
	Stats *Collectors

	// Clock reports the wall-clock time used for deadline bookkeeping;
	// nil defaults to time.Now.
	Clock func() time.Time

	// Logger receives a handful of lifecycle and backpressure events;
	// nil discards them.
	Logger logger.Logger
}

// New validates deps and returns a ready Engine.
func New(deps Deps) (Engine, error) {
	e, err := newEngine(deps)
	if err != nil {
		return nil, err
	}
	return e, nil
}
