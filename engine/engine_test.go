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

package engine_test

import (
	"net"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/qengine/attq"
	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/conn/conntest"
	"github.com/nabbar/qengine/duration"
	"github.com/nabbar/qengine/engine"
	"github.com/nabbar/qengine/heap"
	"github.com/nabbar/qengine/ingress"
	"github.com/nabbar/qengine/refcount"
	"github.com/nabbar/qengine/registry"
)

type fakePMI struct {
	mu       sync.Mutex
	released int
}

func (f *fakePMI) Allocate(size int) []byte { return make([]byte, size) }
func (f *fakePMI) Release(buf []byte) {
	f.mu.Lock()
	f.released++
	f.mu.Unlock()
}
func (f *fakePMI) Return([]byte) {}

type fakeParser struct {
	hdr ingress.Header
	err error
}

func (p fakeParser) ParseBegin([]byte) (ingress.Header, error) { return p.hdr, p.err }

func newSettings() conn.Settings {
	s := conn.DefaultSettings(conn.RoleClient)
	s.Mode = conn.ModeByEndpoint
	s.ProcTimeThresh = duration.Duration(time.Minute)
	s.ResumeSendingFailsafe = duration.Duration(time.Second)
	s.InitialBatchSize = 4
	return s
}

var _ = Describe("Engine", func() {
	var (
		reg  registry.Registry
		ref  refcount.Tracker
		th   heap.Heap[conn.Conn]
		oh   heap.Heap[conn.Conn]
		aq   attq.Queue[conn.Conn]
		pmi  *fakePMI
		now  time.Time
		peer *net.UDPAddr
	)

	BeforeEach(func() {
		reg = registry.New()
		ref = refcount.New(nil)
		th = heap.New[conn.Conn]()
		oh = heap.New[conn.Conn]()
		aq = attq.New[conn.Conn]()
		pmi = &fakePMI{}
		now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		peer = &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4433}
	})

	newDeps := func(send conn.SendFunc) engine.Deps {
		return engine.Deps{
			Settings:     newSettings(),
			Registry:     reg,
			TickableHeap: th,
			OutgoingHeap: oh,
			Attq:         aq,
			RefTracker:   ref,
			Parser:       fakeParser{},
			PMI:          pmi,
			Send:         send,
			Clock:        func() time.Time { return now },
		}
	}

	It("ticks a connection, sends its packet, and reschedules it via ATTQ", func() {
		c := &conntest.Stub{}
		served := false
		wakeAt := now.Add(time.Hour)
		c.TickFunc = func(t time.Time) conn.TickResult { return conn.TickSend }
		c.NextPacketToSendFunc = func() (*conn.PacketOut, bool) {
			if served {
				return nil, false
			}
			served = true
			return &conn.PacketOut{Buf: []byte("x"), Peer: peer}, true
		}
		c.NextTickTimeFunc = func() time.Time { return wakeAt }

		ref.Track(c, refcount.Hashed, refcount.Tickable)
		th.Insert(c, now)

		e, err := engine.New(newDeps(func(batch []*conn.PacketOut) (int, error) {
			return len(batch), nil
		}))
		Expect(err).ToNot(HaveOccurred())

		e.ProcessConns(now)

		Expect(aq.Len()).To(Equal(1))
		Expect(ref.Test(c, refcount.Attq)).To(BeTrue())
		Expect(ref.Test(c, refcount.Tickable)).To(BeFalse())
		Expect(pmi.released).To(Equal(1))
	})

	It("sets PastDeadline and reports an immediate EarliestAdvTick once egress exceeds proc_time_thresh", func() {
		conns := make([]*conntest.Stub, 5)
		for i := range conns {
			c := &conntest.Stub{}
			served := false
			c.TickFunc = func(t time.Time) conn.TickResult { return conn.TickSend }
			c.NextPacketToSendFunc = func() (*conn.PacketOut, bool) {
				if served {
					return nil, false
				}
				served = true
				return &conn.PacketOut{Buf: []byte("x"), Peer: peer}, true
			}
			c.NextTickTimeFunc = func() time.Time { return now.Add(time.Hour) }
			conns[i] = c
			ref.Track(c, refcount.Hashed, refcount.Tickable)
			th.Insert(c, now.Add(time.Duration(i)))
		}

		settings := newSettings()
		settings.ProcTimeThresh = duration.Duration(time.Nanosecond)

		clock := now.Add(time.Hour)
		deps := newDeps(func(batch []*conn.PacketOut) (int, error) {
			return len(batch), nil
		})
		deps.Settings = settings
		deps.Clock = func() time.Time { return clock }

		e, err := engine.New(deps)
		Expect(err).ToNot(HaveOccurred())

		e.ProcessConns(now)

		d, ok := e.EarliestAdvTick(now)
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal(time.Duration(0)))
		Expect(oh.Count()).To(BeNumerically(">", 0))
	})

	It("panics on a reentrant ProcessConns call", func() {
		e, err := engine.New(newDeps(func(batch []*conn.PacketOut) (int, error) {
			return len(batch), nil
		}))
		Expect(err).ToNot(HaveOccurred())

		c := &conntest.Stub{}
		c.TickFunc = func(t time.Time) conn.TickResult {
			Expect(func() { e.ProcessConns(now) }).To(Panic())
			return conn.TickNone
		}
		c.NextTickTimeFunc = func() time.Time { return now.Add(time.Hour) }

		ref.Track(c, refcount.Hashed, refcount.Tickable)
		th.Insert(c, now)

		e.ProcessConns(now)
	})

	It("refuses Connect when the local endpoint is already bound", func() {
		local := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
		deps := newDeps(nil)
		deps.Constructor = func(_ engine.Facade, _ conn.Settings, _, _ *net.UDPAddr) (conn.Conn, error) {
			return &conntest.Stub{}, nil
		}
		e, err := engine.New(deps)
		Expect(err).ToNot(HaveOccurred())

		_, err = e.Connect(local, peer)
		Expect(err).ToNot(HaveOccurred())

		_, err = e.Connect(local, peer)
		Expect(err).To(HaveOccurred())
	})

	It("destroys every remaining connection on engine Destroy", func() {
		c := &conntest.Stub{}
		c.NextTickTimeFunc = func() time.Time { return now.Add(time.Hour) }

		ref.Track(c, refcount.Hashed, refcount.Tickable)
		th.Insert(c, now)
		reg.AddEndpoint(1234, c)

		e, err := engine.New(newDeps(nil))
		Expect(err).ToNot(HaveOccurred())

		e.Destroy()

		Expect(c.DestroyCalls).To(Equal(1))
		_, ok := reg.LookupEndpoint(1234)
		Expect(ok).To(BeFalse())
	})

	It("reports EarliestAdvTick as the nearest ATTQ wakeup", func() {
		e, err := engine.New(newDeps(nil))
		Expect(err).ToNot(HaveOccurred())

		c := &conntest.Stub{}
		ref.Track(c, refcount.Hashed)
		ref.Incref(c, refcount.Attq)
		aq.Add(c, now.Add(5*time.Minute))

		d, ok := e.EarliestAdvTick(now)
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal(5 * time.Minute))
	})

	It("reports no pending wakeup when nothing is scheduled", func() {
		e, err := engine.New(newDeps(nil))
		Expect(err).ToNot(HaveOccurred())

		_, ok := e.EarliestAdvTick(now)
		Expect(ok).To(BeFalse())
	})

	It("adds and retires a CID without disturbing other CCEs", func() {
		e, err := engine.New(newDeps(nil))
		Expect(err).ToNot(HaveOccurred())

		c := &conntest.Stub{}
		ref.Track(c, refcount.Hashed)

		cidA := conntest.NewCID()
		cidB := conntest.NewCID()

		Expect(e.AddCid(c, cidA)).ToNot(HaveOccurred())
		Expect(e.AddCid(c, cidB)).ToNot(HaveOccurred())

		other := &conntest.Stub{}
		ref.Track(other, refcount.Hashed)
		Expect(e.AddCid(other, cidA)).To(HaveOccurred())

		e.RetireCid(c, cidA)

		got, ok := reg.LookupCID(cidB)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(c))

		_, ok = reg.LookupCID(cidA)
		Expect(ok).To(BeFalse())
	})
})
