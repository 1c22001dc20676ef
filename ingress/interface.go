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

// Package ingress implements the ingress dispatcher (C6): it classifies
// an inbound datagram, locates the owning connection by endpoint or by
// CID, hands it the packet, and re-marks the connection tickable.
//
// Actual QUIC header parsing is out of scope for the core (wire-format
// parsing is a declared non-goal); Parser is the narrow collaborator
// this package consumes to learn just enough about a datagram - its
// recovered CID, and whether it is shaped like a candidate for the
// stateless-reset fallback - to route it.
package ingress

import (
	"net"
	"time"

	"github.com/nabbar/qengine/conn"
	"github.com/nabbar/qengine/heap"
	"github.com/nabbar/qengine/refcount"
	"github.com/nabbar/qengine/registry"
)

// MinStatelessResetSize is the shortest datagram the fallback lookup in
// step 4 of packet_in will consider: the 16-byte token plus the
// smallest legal IETF short header.
const MinStatelessResetSize = 21

// Header is what the dispatcher needs from a datagram's header to
// route it; recovering it is the Parser's job, not this package's.
type Header struct {
	// CID is the connection ID recovered from the header, used in
	// ModeByCID. Nil/empty when the datagram carries none.
	CID []byte

	// IETFShaped reports whether the datagram's first byte matches the
	// IETF long/short header form bit (mask 0x40), a precondition for
	// treating it as a stateless-reset candidate.
	IETFShaped bool

	// PublicReset reports a parsed Google-QUIC public-reset packet;
	// silently dropped when honor_prst is off.
	PublicReset bool
}

// Parser is the external collaborator that performs parse_begin: just
// enough header inspection to classify and route a datagram. It never
// touches connection state.
type Parser interface {
	ParseBegin(payload []byte) (Header, error)
}

// Result is the outcome of one PacketIn call across the whole buffer,
// mirroring packet_in's tri-state return (0/1/-1) with the Delivered
// flag and the error PacketIn returns alongside it.
type Result struct {
	// Delivered is true iff at least one datagram reached a live
	// connection.
	Delivered bool
}

// Dispatcher is the capability C9's engine drives on every inbound
// datagram buffer.
type Dispatcher interface {
	// PacketIn processes one or more datagrams read into payloads,
	// attributing each to its connection and marking it tickable. now
	// stamps every delivered packet's receive time. Per-datagram parse
	// or delivery failures are accumulated across the whole buffer (via
	// errors/pool) rather than only the last one surviving; the
	// returned error is nil iff every datagram in payloads succeeded.
	PacketIn(payloads [][]byte, local, peer *net.UDPAddr, ecn uint8, now time.Time) (Result, error)
}

// Deps bundles the collaborators the dispatcher needs: the registry to
// resolve owners, the reference tracker and tickable heap to re-mark a
// connection TICKABLE, and the settings that decide lookup mode and
// stateless-reset handling.
type Deps struct {
	Mode         conn.Mode
	HonorPrst    bool
	Parser       Parser
	Registry     registry.Registry
	RefTracker   refcount.Tracker
	TickableHeap heap.Heap[conn.Conn]
}

// New returns a Dispatcher wired to deps.
func New(deps Deps) Dispatcher {
	return newDispatcher(deps)
}
