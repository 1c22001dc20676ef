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

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/errors/pool"
	"github.com/nabbar/qengine/logger"
	"github.com/nabbar/qengine/refcount"
)

// Connect is connect. Only meaningful for client-role engines; a
// server-role engine only ever learns of connections through PacketIn.
func (e *engine) Connect(local, peer *net.UDPAddr) (conn.Conn, error) {
	if e.deps.Constructor == nil {
		return nil, ErrNilConstructor.Error()
	}

	if e.deps.Settings.Mode == conn.ModeByEndpoint {
		if local == nil {
			return nil, ErrEndpointInUse.Error()
		}
		if _, bound := e.deps.Registry.LookupEndpoint(uint16(local.Port)); bound {
			return nil, ErrEndpointInUse.Error()
		}
	}

	c, err := e.deps.Constructor(e, e.deps.Settings, local, peer)
	if err != nil {
		return nil, ErrConstructFailed.Error(err)
	}

	e.deps.RefTracker.Track(c, refcount.Hashed, refcount.Tickable)
	e.deps.Stats.OnTrack()

	if e.deps.Settings.Mode == conn.ModeByEndpoint {
		e.deps.Registry.AddEndpoint(uint16(local.Port), c)
	}

	e.deps.TickableHeap.Insert(c, e.now())
	c.ClientCallOnNew()

	e.deps.Logger.WithFields(logger.Fields{"peer": peer}).Info("connection established")

	return c, nil
}

// AddCid is add_cid: register another CCE for c. Meaningless (but
// harmless) outside ModeByCID.
func (e *engine) AddCid(c conn.Conn, cid []byte) error {
	if !e.deps.Registry.AddCID(cid, c) {
		return ErrCidInUse.Error()
	}
	return nil
}

// RetireCid is retire_cid: deregister one CCE. c's other CCEs, and its
// membership mask, are unaffected.
func (e *engine) RetireCid(c conn.Conn, cid []byte) {
	e.deps.Registry.RemoveCID(cid)
}

// Destroy forces every remaining connection closed: drain C3, drain
// C2, then for everything still tracked remove it from C4 and C1,
// letting the cascading decrefs destroy it.
func (e *engine) Destroy() {
	errs := pool.New()

	for {
		c, ok := e.deps.OutgoingHeap.Pop()
		if !ok {
			break
		}
		errs.Add(e.deps.RefTracker.Decref(c, refcount.HasOutgoing))
	}

	for {
		c, ok := e.deps.TickableHeap.Pop()
		if !ok {
			break
		}
		errs.Add(e.deps.RefTracker.Decref(c, refcount.Tickable))
	}

	var remaining []conn.Conn
	e.deps.RefTracker.Range(func(c conn.Conn) {
		remaining = append(remaining, c)
	})

	for _, c := range remaining {
		if e.deps.RefTracker.Test(c, refcount.Attq) {
			e.deps.Attq.Remove(c)
			errs.Add(e.deps.RefTracker.Decref(c, refcount.Attq))
		}
		if e.deps.RefTracker.Test(c, refcount.Hashed) {
			e.deps.Registry.RemoveAll(c)
			errs.Add(e.deps.RefTracker.Decref(c, refcount.Hashed))
		}
	}

	e.deps.Logger.WithFields(logger.Fields{"count": len(remaining)}).Info("engine destroyed, connections force-closed")

	if err := errs.Error(); err != nil {
		e.deps.Logger.WithFields(logger.Fields{"error": err}).Warn("unexpected refcount errors during destroy")
	}
}
