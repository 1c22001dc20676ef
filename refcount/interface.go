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

// Package refcount implements the reference tracker (C5): the six-bit
// (plus two transient) membership mask that decides when a connection
// is destroyed. A connection is live as long as any bit is set; the
// moment the last one clears, refcount sums its stats into the engine
// totals, poisons it against further insertion, and calls Destroy.
package refcount

import "github.com/nabbar/qengine/conn"

// OnDestroy is invoked exactly once per connection, the moment its
// membership mask reaches zero. stats/ok mirror conn.Conn.GetStats.
type OnDestroy func(c conn.Conn, stats conn.Stats, ok bool)

// Tracker is the capability every other component uses to move a
// connection in and out of a collection without knowing about the
// other five.
type Tracker interface {
	// Track registers c with the given initial bits set (e.g. a
	// freshly built connection starts with Hashed|Tickable). Calling
	// Track twice for the same connection is a no-op safeguard, not a
	// supported usage.
	Track(c conn.Conn, initial ...Bit)

	// Incref sets bit for c. It is an error if bit is already set or
	// if c was never tracked or has already been destroyed.
	Incref(c conn.Conn, bit Bit) error

	// Decref clears bit for c. It is an error if bit is already clear.
	// If this clears the last set bit, c is destroyed synchronously
	// before Decref returns.
	Decref(c conn.Conn, bit Bit) error

	// Test reports whether bit is currently set for c.
	Test(c conn.Conn, bit Bit) bool

	// Popcount reports the number of set bits for c, and whether c is
	// tracked at all.
	Popcount(c conn.Conn) (int, bool)

	// Len reports the number of connections currently tracked (i.e.
	// not yet destroyed).
	Len() int

	// Range calls f once for every currently tracked connection, in an
	// unspecified order, on a point-in-time snapshot. Used by the
	// engine's forced-shutdown path, which has no other way to
	// enumerate every connection still alive across all six
	// collections.
	Range(f func(c conn.Conn))
}

// New returns an empty Tracker. onDestroy may be nil.
func New(onDestroy OnDestroy) Tracker {
	return newTracker(onDestroy)
}
