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

package ingress

import (
	"net"
	"time"

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/errors/pool"
	"github.com/nabbar/qengine/refcount"
	"github.com/nabbar/qengine/registry"
)

type dispatcher struct {
	deps Deps
}

func newDispatcher(deps Deps) *dispatcher {
	return &dispatcher{deps: deps}
}

func (d *dispatcher) PacketIn(payloads [][]byte, local, peer *net.UDPAddr, ecn uint8, now time.Time) (Result, error) {
	var res Result
	errs := pool.New()

	for _, payload := range payloads {
		delivered, perr := d.one(payload, local, peer, ecn, now)
		if perr != nil {
			errs.Add(perr)
			continue
		}
		if delivered {
			res.Delivered = true
		}
	}

	return res, errs.Error()
}

func (d *dispatcher) one(payload []byte, local, peer *net.UDPAddr, ecn uint8, now time.Time) (bool, error) {
	hdr, perr := d.deps.Parser.ParseBegin(payload)
	if perr != nil {
		return false, ErrParseFailed.Error(perr)
	}

	owner, found := d.lookup(local, hdr)

	if !found {
		if hdr.PublicReset && !d.deps.HonorPrst {
			return false, nil
		}
		if d.deps.HonorPrst && hdr.IETFShaped && len(payload) >= MinStatelessResetSize {
			owner, found = d.lookupResetToken(payload)
			if found {
				owner.StatelessReset()
				d.markTickable(owner, now)
			}
		}
		return false, nil
	}

	pkt := &conn.PacketIn{
		Payload:  payload,
		Local:    local,
		Peer:     peer,
		RecvTime: now,
		ECN:      ecn,
	}

	d.markTickable(owner, now)

	if perr = owner.PacketIn(pkt); perr != nil {
		return false, perr
	}

	return true, nil
}

func (d *dispatcher) lookup(local *net.UDPAddr, hdr Header) (conn.Conn, bool) {
	if d.deps.Mode == conn.ModeByEndpoint {
		if local == nil {
			return nil, false
		}
		return d.deps.Registry.LookupEndpoint(uint16(local.Port))
	}
	return d.deps.Registry.LookupCID(hdr.CID)
}

func (d *dispatcher) lookupResetToken(payload []byte) (conn.Conn, bool) {
	if len(payload) < 16 {
		return nil, false
	}
	var tok registry.ResetToken
	copy(tok[:], payload[len(payload)-16:])
	return d.deps.Registry.LookupResetToken(tok)
}

func (d *dispatcher) markTickable(c conn.Conn, now time.Time) {
	if d.deps.RefTracker.Test(c, refcount.Tickable) {
		return
	}
	if d.deps.RefTracker.Incref(c, refcount.Tickable) == nil {
		d.deps.TickableHeap.Insert(c, now)
	}
}
