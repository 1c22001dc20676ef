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

package conn

import (
	"net"
	"time"
)

// PacketIn is one inbound, still-encrypted datagram as handed from the
// ingress dispatcher to a connection's PacketIn capability.
type PacketIn struct {
	Payload  []byte
	Local    *net.UDPAddr
	Peer     *net.UDPAddr
	RecvTime time.Time
	ECN      uint8
}

// PacketFlag marks state the egress pipeline and the PMI both need to
// agree on for a single outbound packet.
type PacketFlag uint8

const (
	// Encrypted marks a packet whose buffer already holds ciphertext.
	// The egress pipeline clears it whenever it must ask the
	// connection to re-encrypt against a different peer address.
	Encrypted PacketFlag = 1 << iota
	// NoEncryptNeeded marks a packet the connection built to go out in
	// the clear (e.g. a version-negotiation or retry packet); the
	// egress pipeline skips EncryptPacket for it.
	NoEncryptNeeded
)

// PacketOut is one outbound packet as returned by NextPacketToSend and
// threaded through EncryptPacket and the send callback. Buf is owned by
// the packet-memory interface (PMI); the core never allocates or frees
// it directly, it only asks the PMI to allocate, release, or return it.
type PacketOut struct {
	Buf    []byte
	Local  *net.UDPAddr
	Peer   *net.UDPAddr
	ECN    uint8
	IsV6   bool
	Flags  PacketFlag
	// SentAt is stamped by the egress pipeline immediately before the
	// send callback is invoked, so the connection's RTT sampling never
	// sees a timestamp taken after the syscall returns.
	SentAt time.Time
}

func (p *PacketOut) Encrypted() bool { return p.Flags&Encrypted != 0 }

// NeedsEncrypt reports whether the egress pipeline must still invoke
// EncryptPacket before this packet can go on the wire.
func (p *PacketOut) NeedsEncrypt() bool {
	return p.Flags&(Encrypted|NoEncryptNeeded) == 0
}

// PMI is the packet-memory interface: the external allocator for
// outbound packet buffers. The core never reads or writes Buf's
// contents itself; it only moves buffers between the connection, the
// send callback, and back.
type PMI interface {
	// Allocate returns a buffer of at least size bytes.
	Allocate(size int) []byte
	// Release returns a buffer to the pool after it has been sent.
	Release(buf []byte)
	// Return gives back a buffer that was allocated but never sent,
	// e.g. because the packet's IPv6-ness no longer matches the peer.
	Return(buf []byte)
}

// SendFunc is the UDP send callback the egress pipeline drives. It
// returns the number of packets out of batch that were actually
// accepted by the transport, in order; the remainder are considered
// unsent.
type SendFunc func(batch []*PacketOut) (accepted int, err error)
