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

package engine

import "github.com/nabbar/qengine/errors"

const (
	ErrSettingsValidation errors.CodeError = iota + errors.MinPkgEngine
	ErrNilConstructor
	ErrEndpointInUse
	ErrConstructFailed
	ErrCidInUse
)

func init() {
	errors.RegisterIdFctMessage(ErrSettingsValidation, getMessage)
	errors.RegisterIdFctMessage(ErrNilConstructor, getMessage)
	errors.RegisterIdFctMessage(ErrEndpointInUse, getMessage)
	errors.RegisterIdFctMessage(ErrConstructFailed, getMessage)
	errors.RegisterIdFctMessage(ErrCidInUse, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrSettingsValidation:
		return "engine: settings validation failed"
	case ErrNilConstructor:
		return "engine: connect called with no connection constructor configured"
	case ErrEndpointInUse:
		return "engine: local endpoint already bound to another connection"
	case ErrConstructFailed:
		return "engine: connection constructor returned an error"
	case ErrCidInUse:
		return "engine: connection ID already bound to another connection"
	}

	return ""
}
