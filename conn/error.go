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

import "github.com/nabbar/qengine/errors"

const (
	ErrSettingsValidation errors.CodeError = iota + errors.MinPkgConn
	ErrZeroLengthCIDOnServer
	ErrSourceCIDLenOutOfRange
	ErrUnsupportedVersion
)

func init() {
	errors.RegisterIdFctMessage(ErrSettingsValidation, getMessage)
	errors.RegisterIdFctMessage(ErrZeroLengthCIDOnServer, getMessage)
	errors.RegisterIdFctMessage(ErrSourceCIDLenOutOfRange, getMessage)
	errors.RegisterIdFctMessage(ErrUnsupportedVersion, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrSettingsValidation:
		return "connection settings failed validation"
	case ErrZeroLengthCIDOnServer:
		return "zero-length source connection ID is only legal for clients"
	case ErrSourceCIDLenOutOfRange:
		return "source connection ID length must be 0 (client only) or between 4 and 18 bytes"
	case ErrUnsupportedVersion:
		return "supported_versions bitmask includes a version bit the library does not implement"
	}

	return ""
}
