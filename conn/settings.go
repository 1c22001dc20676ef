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
	"github.com/go-playground/validator/v10"

	"github.com/nabbar/qengine/duration"
)

// Mode selects how the connection registry keys connections: by the
// connection IDs they present, or by local UDP port when source CIDs
// are disabled.
type Mode uint8

const (
	ModeByCID Mode = iota
	ModeByEndpoint
)

// Version bits identify the header-parser variants the library ships:
// the IETF draft form, and the two Google-QUIC forms the by-endpoint
// parser-selection table dispatches on.
const (
	VersionIETF uint32 = 1 << iota
	VersionQ044
	VersionQ098

	// LibrarySupportedVersions is every version bit this build actually
	// implements a parser/constructor for; Settings.SupportedVersions
	// must be a non-empty subset of it.
	LibrarySupportedVersions = VersionIETF | VersionQ044 | VersionQ098
)

// Role distinguishes client-only behavior (connect, client_call_on_new)
// from server-only behavior (accept via ingress alone).
type Role uint8

const (
	RoleServer Role = iota
	RoleClient
)

// Settings is the engine's frozen-after-construction configuration. It
// is validated once, in New, and never mutated afterward.
type Settings struct {
	// Role selects client or server defaults.
	Role Role `validate:"oneof=0 1"`

	// Mode selects the registry's lookup key.
	Mode Mode `validate:"oneof=0 1"`

	// HonorStatelessReset enables the stateless-reset fallback lookup
	// in the ingress dispatcher when no owner is found by CID/endpoint.
	HonorStatelessReset bool

	// SourceCIDLen is the length in bytes of locally-generated
	// connection IDs; 0 is only legal for clients and forces
	// ModeByEndpoint, otherwise it must fall within [4, 18].
	SourceCIDLen uint8 `validate:"lte=18"`

	// SupportedVersions is the bitmask of QUIC versions this engine
	// will negotiate; it must be non-zero and must be a subset of
	// LibrarySupportedVersions.
	SupportedVersions uint32 `validate:"required"`

	// IdleTimeout bounds per-connection idle shutdown; the contract
	// caps it at 600s regardless of what a caller requests.
	IdleTimeout duration.Duration `validate:"lte=600000000000"`

	// ProcTimeThresh bounds a single ProcessConns call's egress slice.
	ProcTimeThresh duration.Duration `validate:"gt=0"`

	// ResumeSendingFailsafe is the failsafe duration after which
	// send-backpressure is cleared even without an explicit resume.
	ResumeSendingFailsafe duration.Duration `validate:"gt=0"`

	// InitialBatchSize is the out-batch scratch buffer's starting
	// size; clamped to [BatchSizeMin, BatchSizeMax].
	InitialBatchSize int `validate:"gte=4,lte=1024"`
}

const (
	BatchSizeMin = 4
	BatchSizeMax = 1024

	// DefaultIdleTimeout is the contract's ceiling, also the default
	// when a caller does not override it.
	DefaultIdleTimeout = 600 * duration.Duration(1e9)
)

// DefaultSettings returns settings for the given role with every
// contract floor/ceiling already applied.
func DefaultSettings(role Role) Settings {
	s := Settings{
		Role:                  role,
		Mode:                  ModeByCID,
		HonorStatelessReset:   true,
		SourceCIDLen:          8,
		SupportedVersions:     1,
		IdleTimeout:           DefaultIdleTimeout,
		ProcTimeThresh:        duration.Duration(10 * 1e6), // 10ms
		ResumeSendingFailsafe: duration.Duration(1 * 1e9),  // 1s
		InitialBatchSize:      32,
	}
	if role == RoleClient {
		s.SourceCIDLen = 0
	}
	return s
}

// Validate checks s against the contract in check_settings: bounds on
// idle timeout, source CID length (0 for clients only, otherwise
// [4, 18]), batch size, and a non-empty supported-version set. Mode is
// additionally forced to ModeByEndpoint whenever SourceCIDLen is zero,
// since by-CID lookup is meaningless without CIDs.
func (s *Settings) Validate() error {
	if s.SourceCIDLen == 0 {
		s.Mode = ModeByEndpoint
	}
	if s.SourceCIDLen == 0 && s.Role == RoleServer {
		return ErrZeroLengthCIDOnServer.Error()
	}
	if s.SourceCIDLen != 0 && s.SourceCIDLen < 4 {
		return ErrSourceCIDLenOutOfRange.Error()
	}
	if s.SupportedVersions&^LibrarySupportedVersions != 0 {
		return ErrUnsupportedVersion.Error()
	}

	val := validator.New()
	if e := val.Struct(s); e != nil {
		return ErrSettingsValidation.Error(e)
	}
	return nil
}
