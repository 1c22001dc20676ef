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

package egress

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/refcount"
)

// slot is one queued send: the packet and the connection that produced
// it, kept together so a rejected send can be handed back.
type slot struct {
	pkt   *conn.PacketOut
	owner conn.Conn
}

type pipeline struct {
	deps Deps

	mu        sync.Mutex
	batchSize int
}

func newPipeline(deps Deps) *pipeline {
	bs := deps.InitialBatchSize
	if bs < conn.BatchSizeMin {
		bs = conn.BatchSizeMin
	}
	if bs > conn.BatchSizeMax {
		bs = conn.BatchSizeMax
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &pipeline{deps: deps, batchSize: bs}
}

func (p *pipeline) BatchSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batchSize
}

func (p *pipeline) Drain(now, deadline, lastSent time.Time, ticked map[conn.Conn]struct{}) Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	rep := Report{CanSend: true, LastSent: lastSent}

	if p.deps.Send == nil {
		return rep
	}

	activeQ := list.New()
	activeElem := make(map[conn.Conn]*list.Element)
	inactive := make(map[conn.Conn]struct{})

	pushActive := func(c conn.Conn) {
		if _, ok := activeElem[c]; ok {
			return
		}
		delete(inactive, c)
		activeElem[c] = activeQ.PushBack(c)
	}
	deactivate := func(c conn.Conn) {
		if e, ok := activeElem[c]; ok {
			activeQ.Remove(e)
			delete(activeElem, c)
		}
		inactive[c] = struct{}{}
	}
	removeEntirely := func(c conn.Conn) {
		if e, ok := activeElem[c]; ok {
			activeQ.Remove(e)
			delete(activeElem, c)
		}
		delete(inactive, c)
	}

	var batch []slot
	var globalSeq int64

	flush := func() {
		n := len(batch)
		if n == 0 {
			return
		}

		out := make([]*conn.PacketOut, n)
		for i, s := range batch {
			s.pkt.SentAt = now
			out[i] = s.pkt
		}

		if p.deps.Limiter != nil {
			ctx, cancel := context.WithDeadline(context.Background(), deadline)
			werr := p.deps.Limiter.WaitN(ctx, n)
			cancel()
			if werr != nil {
				rep.PastDeadline = true
			}
		}

		accepted, err := p.deps.Send(out)
		if accepted < 0 {
			accepted = 0
		}
		if accepted > n {
			accepted = n
		}

		for i := 0; i < accepted; i++ {
			s := batch[i]
			ts := now.Add(time.Duration(globalSeq))
			globalSeq++
			rep.LastSent = ts
			s.owner.PacketSent(s.pkt)
			if p.deps.PMI != nil {
				p.deps.PMI.Release(s.pkt.Buf)
			}
			rep.PacketsSent++
		}

		for i := n - 1; i >= accepted; i-- {
			s := batch[i]
			s.owner.PacketNotSent(s.pkt)
			rep.PacketsNotSent++
			if _, ok := activeElem[s.owner]; !ok && !s.owner.IsEvanescent() {
				pushActive(s.owner)
			}
		}

		full := err == nil && accepted == n
		if full {
			rep.CanSend = true
			if !rep.PastDeadline {
				p.batchSize = growBatch(p.batchSize)
			}
		} else {
			rep.CanSend = false
			failsafe := p.deps.ResumeFailsafe
			if failsafe <= 0 {
				failsafe = time.Second
			}
			rep.ResumeAt = now.Add(failsafe)
			p.batchSize = shrinkBatch(p.batchSize)
		}

		batch = batch[:0]

		if p.deps.Clock().After(deadline) {
			rep.PastDeadline = true
		}
	}

drain:
	for {
		if rep.PastDeadline {
			break
		}

		var cur conn.Conn
		switch {
		case p.deps.OutgoingHeap.Count() > 0:
			k, ok := p.deps.OutgoingHeap.Pop()
			if !ok {
				break drain
			}
			cur = k
			pushActive(cur)
		case activeQ.Front() != nil:
			e := activeQ.Front()
			cur = e.Value.(conn.Conn)
			activeQ.MoveToBack(e)
		default:
			break drain
		}

		pkt, ok := cur.NextPacketToSend()
		if !ok {
			deactivate(cur)
			continue
		}

		if pkt.Encrypted() && pkt.Peer != nil {
			wantV6 := pkt.Peer.IP.To4() == nil
			if pkt.IsV6 != wantV6 {
				if p.deps.PMI != nil {
					p.deps.PMI.Return(pkt.Buf)
				}
				pkt.Flags &^= conn.Encrypted
			}
		}

		if pkt.NeedsEncrypt() {
			switch cur.EncryptPacket(pkt) {
			case conn.EncryptNoMem:
				cur.PacketNotSent(pkt)
				rep.OutOfMemory = true
				break drain
			case conn.EncryptBadCrypto:
				cur.PacketNotSent(pkt)
				p.closeBadCrypto(cur, ticked)
				removeEntirely(cur)
				continue
			}
		}

		batch = append(batch, slot{pkt: pkt, owner: cur})
		if len(batch) >= p.batchSize {
			flush()
		}
	}

	flush()

	key := rep.LastSent
	if key.IsZero() {
		key = now
	}
	for e := activeQ.Front(); e != nil; e = e.Next() {
		p.deps.OutgoingHeap.Insert(e.Value.(conn.Conn), key)
	}
	for c := range inactive {
		_ = p.deps.RefTracker.Decref(c, refcount.HasOutgoing)
	}

	return rep
}

// closeBadCrypto tears down a connection whose encrypt_packet reported
// BADCRYPT: it can never send again, so it leaves C1 and is marked
// CLOSING (which implies !HASHED) right away rather than waiting for
// the next tick to discover the same thing.
func (p *pipeline) closeBadCrypto(c conn.Conn, ticked map[conn.Conn]struct{}) {
	p.deps.Registry.RemoveAll(c)

	if p.deps.RefTracker.Test(c, refcount.Hashed) {
		_ = p.deps.RefTracker.Decref(c, refcount.Hashed)
	}
	if !p.deps.RefTracker.Test(c, refcount.Closing) {
		_ = p.deps.RefTracker.Incref(c, refcount.Closing)
	}
	if p.deps.RefTracker.Test(c, refcount.HasOutgoing) {
		_ = p.deps.RefTracker.Decref(c, refcount.HasOutgoing)
	}

	if ticked != nil {
		if _, ok := ticked[c]; ok {
			delete(ticked, c)
			if p.deps.RefTracker.Test(c, refcount.Ticked) {
				_ = p.deps.RefTracker.Decref(c, refcount.Ticked)
			}
		}
	}
}

func growBatch(n int) int {
	next := n * 2
	if next < conn.BatchSizeMin {
		return conn.BatchSizeMin
	}
	if next > conn.BatchSizeMax {
		return conn.BatchSizeMax
	}
	return next
}

func shrinkBatch(n int) int {
	next := n / 2
	if next < conn.BatchSizeMin {
		return conn.BatchSizeMin
	}
	return next
}
