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

// Package conn declares the narrow capability interface the engine core
// consumes from a QUIC connection. Everything a connection does with its
// handshake, loss recovery, stream scheduling, or cryptography is none of
// this package's business: the core only needs to tick a connection
// forward in time, hand it inbound packets, and pull outbound packets
// back out.
package conn

import "time"

// TickResult is the outcome bitmask a connection reports from Tick: it
// tells the engine whether the connection produced outbound work and
// whether it wants to be torn down.
type TickResult uint8

const (
	// TickNone means no outbound packets and no closure.
	TickNone TickResult = 0
	// TickSend means the connection has at least one packet ready via
	// NextPacketToSend.
	TickSend TickResult = 1 << iota
	// TickClose means the connection is done; the engine clears HASHED
	// and lets the reference tracker destroy it once every other bit
	// clears.
	TickClose
)

func (r TickResult) Send() bool  { return r&TickSend != 0 }
func (r TickResult) Close() bool { return r&TickClose != 0 }

// EncryptResult is the outcome of asking a connection to encrypt a
// packet it previously returned from NextPacketToSend.
type EncryptResult uint8

const (
	// EncryptOK means the packet's buffer is ready to send.
	EncryptOK EncryptResult = iota
	// EncryptNoMem means the PMI could not supply a buffer; the egress
	// pipeline flushes whatever it already has and retries later.
	EncryptNoMem
	// EncryptBadCrypto means the connection can never send again; the
	// engine closes it immediately.
	EncryptBadCrypto
)

// Stats is the optional per-connection counters a connection may report
// at destruction time; the engine sums these into its own totals.
type Stats struct {
	PacketsIn       uint64
	PacketsOut      uint64
	BytesIn         uint64
	BytesOut        uint64
	PacketsDropped  uint64
	HandshakesDone  uint64
	ConnCloseFrames uint64
}

// Conn is the capability set the engine core requires of a connection.
// Implementations are expected to be safe for the engine's single
// processing goroutine plus concurrent ingress/egress calls only to the
// extent the engine itself serializes them; conn does not mandate a
// concurrency model beyond that.
type Conn interface {
	// Tick advances the connection's internal state machine to now and
	// reports whether it produced sendable packets or wants to close.
	Tick(now time.Time) TickResult

	// PacketIn hands an inbound, already-demultiplexed datagram to the
	// connection. The connection owns pkt's payload after this call
	// returns and must release it through the PMI itself.
	PacketIn(pkt *PacketIn) error

	// NextPacketToSend returns the next outbound packet the connection
	// has queued, or ok=false if it has none right now.
	NextPacketToSend() (pkt *PacketOut, ok bool)

	// PacketSent notifies the connection that pkt was handed to the
	// wire successfully.
	PacketSent(pkt *PacketOut)

	// PacketNotSent notifies the connection that pkt was not sent and
	// should be considered for retry on a future tick.
	PacketNotSent(pkt *PacketOut)

	// EncryptPacket asks the connection to encrypt pkt's payload in
	// place, allocating the output buffer from the PMI.
	EncryptPacket(pkt *PacketOut) EncryptResult

	// IsTickable reports whether the connection currently has work to
	// do if ticked right now.
	IsTickable() bool

	// IsEvanescent reports whether the connection is short-lived and
	// must not be reactivated in the egress iterator after a rejected
	// or unsent packet; set and cleared by the connection itself.
	IsEvanescent() bool

	// NextTickTime reports the absolute time this connection should
	// next be ticked if it is not already tickable. A zero time is a
	// caller error.
	NextTickTime() time.Time

	// StatelessReset is invoked when the ingress dispatcher resolves an
	// inbound datagram as a stateless reset token matching this
	// connection.
	StatelessReset()

	// Destroy releases any resources the connection holds; called
	// exactly once, when the reference tracker's membership mask
	// reaches zero.
	Destroy()

	// GetStats returns the connection's counters, if it tracks any.
	GetStats() (Stats, bool)

	// ClientCallOnNew is invoked once, immediately after a client
	// connection is constructed and registered.
	ClientCallOnNew()
}
