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

// Package heap implements the ordered min-heap backing C2 (tickable
// connections, keyed by last_ticked) and C3 (connections with ready
// outbound packets, keyed by last_sent). Both collections share the
// same contract: insert, pop-the-minimum, and count; no decrease-key,
// since the driver always consumes an entry before it would ever need
// reordering.
//
// The original C implementation backs both heaps with a single
// contiguous two-half array that doubles on growth. Go has no
// equivalent of that allocation trick that is also idiomatic, so this
// package keeps the observable contract (insert/pop/count, FIFO among
// ties) and drops the shared-allocation detail; see the design notes
// for the rationale.
package heap

import "time"

// Heap is the capability C8's processing loop and C9's factory use to
// park connections until they are due to run (C2) or until they have
// outbound work (C3).
type Heap[K comparable] interface {
	// Insert adds key ordered by at. If key is already present its
	// entry is replaced rather than duplicated.
	Insert(key K, at time.Time)

	// Pop removes and returns the minimum-keyed entry. ok is false
	// when the heap is empty.
	Pop() (key K, ok bool)

	// Count reports the number of entries currently held.
	Count() int
}

// New returns an empty Heap backed by an ordered tree.
func New[K comparable]() Heap[K] {
	return newTreeHeap[K]()
}
