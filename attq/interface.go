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

// Package attq implements the advisory tick time queue: an ordered timer
// structure keyed by a per-connection absolute wakeup time. A connection
// registered here is owed exactly one future tick; re-adding it replaces
// the pending wakeup rather than scheduling a second one.
package attq

import "time"

// Queue is the capability C8 and C9 use to park a connection until its
// next scheduled wakeup and to pull due connections back out in time
// order. K is whatever the caller uses to identify a connection; the
// engine uses its registry handle type.
type Queue[K comparable] interface {
	// Add schedules key to fire at t, replacing any wakeup already
	// pending for key.
	Add(key K, t time.Time)

	// Remove cancels the pending wakeup for key, if any, and reports
	// whether one was found.
	Remove(key K) bool

	// Pop removes and returns every key whose wakeup is at or before
	// now, ordered by wakeup time (ties broken by registration order).
	Pop(now time.Time) []K

	// NextTime peeks at the earliest pending wakeup without removing
	// it. ok is false when the queue is empty.
	NextTime() (t time.Time, ok bool)

	// CountBefore reports how many pending entries fire at or before t.
	CountBefore(t time.Time) int

	// Len reports the number of pending entries.
	Len() int
}

// New returns an empty Queue backed by an ordered tree, giving O(log n)
// Add/Remove/Pop and peek.
func New[K comparable]() Queue[K] {
	return newTreeQueue[K]()
}
