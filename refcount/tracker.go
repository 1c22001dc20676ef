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

package refcount

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/nabbar/qengine/conn"
)

type entry struct {
	mu   sync.Mutex
	mask *bitset.BitSet
	dead bool
}

type tracker struct {
	mu        sync.RWMutex
	conns     map[conn.Conn]*entry
	onDestroy OnDestroy
}

func newTracker(onDestroy OnDestroy) *tracker {
	return &tracker{
		conns:     make(map[conn.Conn]*entry),
		onDestroy: onDestroy,
	}
}

func (t *tracker) Track(c conn.Conn, initial ...Bit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.conns[c]; ok {
		return
	}

	m := bitset.New(numBits)
	for _, b := range initial {
		m.Set(uint(b))
	}
	t.conns[c] = &entry{mask: m}
}

func (t *tracker) get(c conn.Conn) (*entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.conns[c]
	return e, ok
}

func (t *tracker) Incref(c conn.Conn, bit Bit) error {
	e, ok := t.get(c)
	if !ok {
		return ErrUnknownKey.Error()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dead {
		return ErrPoisoned.Error()
	}
	if e.mask.Test(uint(bit)) {
		return ErrAlreadySet.Error()
	}
	e.mask.Set(uint(bit))
	return nil
}

func (t *tracker) Decref(c conn.Conn, bit Bit) error {
	e, ok := t.get(c)
	if !ok {
		return ErrUnknownKey.Error()
	}

	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return ErrPoisoned.Error()
	}
	if !e.mask.Test(uint(bit)) {
		e.mu.Unlock()
		return ErrAlreadyClear.Error()
	}
	e.mask.Clear(uint(bit))
	empty := e.mask.Count() == 0
	if empty {
		e.dead = true
	}
	e.mu.Unlock()

	if empty {
		t.destroy(c)
	}
	return nil
}

func (t *tracker) destroy(c conn.Conn) {
	t.mu.Lock()
	delete(t.conns, c)
	t.mu.Unlock()

	stats, hasStats := c.GetStats()
	if t.onDestroy != nil {
		t.onDestroy(c, stats, hasStats)
	}
	c.Destroy()
}

func (t *tracker) Test(c conn.Conn, bit Bit) bool {
	e, ok := t.get(c)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mask.Test(uint(bit))
}

func (t *tracker) Popcount(c conn.Conn) (int, bool) {
	e, ok := t.get(c)
	if !ok {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.mask.Count()), true
}

func (t *tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

func (t *tracker) Range(f func(c conn.Conn)) {
	t.mu.RLock()
	snap := make([]conn.Conn, 0, len(t.conns))
	for c := range t.conns {
		snap = append(snap, c)
	}
	t.mu.RUnlock()

	for _, c := range snap {
		f(c)
	}
}
