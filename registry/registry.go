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

package registry

import (
	"sync/atomic"

	libatm "github.com/nabbar/qengine/atomic"
	"github.com/nabbar/qengine/conn"
)

// reg backs every lookup mode with an atomic.MapTyped, giving O(1)
// expected insert/remove/lookup without a package-wide lock. Counts are
// tracked separately since MapTyped has no Len.
type reg struct {
	cid   libatm.MapTyped[string, conn.Conn]
	ep    libatm.MapTyped[uint16, conn.Conn]
	reset libatm.MapTyped[ResetToken, conn.Conn]

	cidCount atomic.Int64
	epCount  atomic.Int64
}

func newRegistry() *reg {
	return &reg{
		cid:   libatm.NewMapTyped[string, conn.Conn](),
		ep:    libatm.NewMapTyped[uint16, conn.Conn](),
		reset: libatm.NewMapTyped[ResetToken, conn.Conn](),
	}
}

func (r *reg) AddCID(cid []byte, c conn.Conn) bool {
	_, loaded := r.cid.LoadOrStore(string(cid), c)
	if !loaded {
		r.cidCount.Add(1)
	}
	return !loaded
}

func (r *reg) RemoveCID(cid []byte) {
	if _, ok := r.cid.LoadAndDelete(string(cid)); ok {
		r.cidCount.Add(-1)
	}
}

func (r *reg) LookupCID(cid []byte) (conn.Conn, bool) {
	return r.cid.Load(string(cid))
}

func (r *reg) AddEndpoint(port uint16, c conn.Conn) bool {
	_, loaded := r.ep.LoadOrStore(port, c)
	if !loaded {
		r.epCount.Add(1)
	}
	return !loaded
}

func (r *reg) RemoveEndpoint(port uint16) {
	if _, ok := r.ep.LoadAndDelete(port); ok {
		r.epCount.Add(-1)
	}
}

func (r *reg) LookupEndpoint(port uint16) (conn.Conn, bool) {
	return r.ep.Load(port)
}

func (r *reg) AddResetToken(token ResetToken, c conn.Conn) {
	r.reset.Store(token, c)
}

func (r *reg) RemoveResetToken(token ResetToken) {
	r.reset.Delete(token)
}

func (r *reg) LookupResetToken(token ResetToken) (conn.Conn, bool) {
	return r.reset.Load(token)
}

func (r *reg) CountCID() int {
	return int(r.cidCount.Load())
}

func (r *reg) CountEndpoint() int {
	return int(r.epCount.Load())
}

func (r *reg) RemoveAll(c conn.Conn) {
	var cids []string
	r.cid.Range(func(k string, v conn.Conn) bool {
		if v == c {
			cids = append(cids, k)
		}
		return true
	})
	for _, k := range cids {
		if _, ok := r.cid.LoadAndDelete(k); ok {
			r.cidCount.Add(-1)
		}
	}

	var eps []uint16
	r.ep.Range(func(k uint16, v conn.Conn) bool {
		if v == c {
			eps = append(eps, k)
		}
		return true
	})
	for _, k := range eps {
		if _, ok := r.ep.LoadAndDelete(k); ok {
			r.epCount.Add(-1)
		}
	}

	var tokens []ResetToken
	r.reset.Range(func(k ResetToken, v conn.Conn) bool {
		if v == c {
			tokens = append(tokens, k)
		}
		return true
	})
	for _, k := range tokens {
		r.reset.Delete(k)
	}
}
