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

// Bit is one position in a connection's membership mask. The six
// tracked bits each correspond to membership in exactly one collection
// (C1, C2, C3, C4) or one of C8's transient lists; the two COI bits are
// owned by C7's outgoing iterator and count toward the same reference
// total without belonging to any collection.
type Bit uint

const (
	Hashed Bit = iota
	HasOutgoing
	Tickable
	Ticked
	Closing
	Attq

	// CoiActive and CoiInactive are transient, held only while C7's
	// iterator has the connection on its active or inactive list.
	CoiActive
	CoiInactive

	numBits = 8
)

func (b Bit) String() string {
	switch b {
	case Hashed:
		return "HASHED"
	case HasOutgoing:
		return "HAS_OUTGOING"
	case Tickable:
		return "TICKABLE"
	case Ticked:
		return "TICKED"
	case Closing:
		return "CLOSING"
	case Attq:
		return "ATTQ"
	case CoiActive:
		return "COI_ACTIVE"
	case CoiInactive:
		return "COI_INACTIVE"
	}
	return "UNKNOWN"
}
