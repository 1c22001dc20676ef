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

package heap

import (
	"sync"
	"time"

	"github.com/tidwall/btree"
)

type treeHeap[K comparable] struct {
	mu   sync.Mutex
	tree *btree.BTreeG[item[K]]
	idx  map[K]item[K]
	seq  uint64
}

func newTreeHeap[K comparable]() *treeHeap[K] {
	return &treeHeap[K]{
		tree: btree.NewBTreeG[item[K]](item[K].less),
		idx:  make(map[K]item[K]),
	}
}

func (h *treeHeap[K]) Insert(key K, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.idx[key]; ok {
		h.tree.Delete(old)
	}

	h.seq++
	it := item[K]{key: key, at: at, seq: h.seq}
	h.tree.Set(it)
	h.idx[key] = it
}

func (h *treeHeap[K]) Pop() (K, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	it, ok := h.tree.PopMin()
	if !ok {
		var zero K
		return zero, false
	}
	delete(h.idx, it.key)
	return it.key, true
}

func (h *treeHeap[K]) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tree.Len()
}
