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

package attq

import (
	"sync"
	"time"

	"github.com/tidwall/btree"
)

// treeQueue keeps wakeups ordered by time in a btree so Pop and
// CountBefore walk only the entries they need, while a plain map gives
// Add/Remove the O(1) lookup needed to replace an existing entry
// without a linear scan of the tree.
type treeQueue[K comparable] struct {
	mu   sync.Mutex
	tree *btree.BTreeG[wakeup[K]]
	idx  map[K]wakeup[K]
	seq  uint64
}

func newTreeQueue[K comparable]() *treeQueue[K] {
	return &treeQueue[K]{
		tree: btree.NewBTreeG[wakeup[K]](wakeup[K].less),
		idx:  make(map[K]wakeup[K]),
	}
}

func (q *treeQueue[K]) Add(key K, t time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.idx[key]; ok {
		q.tree.Delete(old)
	}

	q.seq++
	w := wakeup[K]{key: key, at: t, seq: q.seq}
	q.tree.Set(w)
	q.idx[key] = w
}

func (q *treeQueue[K]) Remove(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, ok := q.idx[key]
	if !ok {
		return false
	}
	delete(q.idx, key)
	q.tree.Delete(w)
	return true
}

func (q *treeQueue[K]) Pop(now time.Time) []K {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []K
	for {
		w, ok := q.tree.Min()
		if !ok || w.at.After(now) {
			break
		}
		q.tree.Delete(w)
		delete(q.idx, w.key)
		out = append(out, w.key)
	}
	return out
}

func (q *treeQueue[K]) NextTime() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, ok := q.tree.Min()
	if !ok {
		return time.Time{}, false
	}
	return w.at, true
}

func (q *treeQueue[K]) CountBefore(t time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	q.tree.Scan(func(w wakeup[K]) bool {
		if w.at.After(t) {
			return false
		}
		n++
		return true
	})
	return n
}

func (q *treeQueue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tree.Len()
}
