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

// Package registry implements the connection registry (C1): the lookup
// maps from connection IDs, local-endpoint ports, and stateless-reset
// tokens to the owning connection. Lookups return a weak handle - they
// never touch the connection's membership mask.
package registry

import "github.com/nabbar/qengine/conn"

// ResetToken is the trailing 16-byte stateless-reset token carried by
// an IETF-shaped datagram that has no matching CID.
type ResetToken [16]byte

// Registry is the capability C6's ingress dispatcher and C9's factory
// use to bind and resolve connection identifiers. Both lookup modes
// (by-CID and by-endpoint) are always available; settings.Mode decides
// which one the engine actually populates and queries.
type Registry interface {
	// AddCID binds cid to c. Returns false if cid is already bound.
	AddCID(cid []byte, c conn.Conn) bool
	// RemoveCID unbinds cid; other CIDs of the same connection are
	// unaffected.
	RemoveCID(cid []byte)
	// LookupCID resolves cid to its owning connection.
	LookupCID(cid []byte) (c conn.Conn, ok bool)

	// AddEndpoint binds the local port to c. Returns false, keeping the
	// existing binding, if the port is already bound to any connection
	// (c included).
	AddEndpoint(port uint16, c conn.Conn) bool
	// RemoveEndpoint unbinds port.
	RemoveEndpoint(port uint16)
	// LookupEndpoint resolves port to its owning connection.
	LookupEndpoint(port uint16) (c conn.Conn, ok bool)

	// AddResetToken binds a stateless-reset token to c.
	AddResetToken(token ResetToken, c conn.Conn)
	// RemoveResetToken unbinds token.
	RemoveResetToken(token ResetToken)
	// LookupResetToken resolves token to its owning connection.
	LookupResetToken(token ResetToken) (c conn.Conn, ok bool)

	// CountCID reports the number of live CID bindings.
	CountCID() int
	// CountEndpoint reports the number of live endpoint bindings.
	CountEndpoint() int

	// RemoveAll unbinds every CID, endpoint, and reset-token entry that
	// currently resolves to c, across both lookup modes. Used when a
	// connection is forced closed and every one of its CCEs must leave
	// C1 regardless of which keys they were filed under.
	RemoveAll(c conn.Conn)
}

// New returns an empty Registry.
func New() Registry {
	return newRegistry()
}
