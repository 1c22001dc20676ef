/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package logger provides the leveled, field-structured logging contract
// used across the engine packages. It is a deliberately small surface:
// the full multi-backend logger (file/syslog hooks, gorm/hclog adapters)
// has no place in an embedded, single-process engine that never owns a
// log file's lifecycle - this keeps only the Entry/Fields contract and a
// logrus-backed default.
package logger

// Logger is injected into the engine and every collaborator package at
// construction. A nil Logger is valid and discards everything.
type Logger interface {
	WithFields(f Fields) Logger
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// New returns a Logger backed by logrus, logging at lvl and above.
func New(lvl Level) Logger {
	return newLogrus(lvl)
}

// Discard is a Logger that drops every entry; used where the host does
// not supply one.
func Discard() Logger {
	return discard{}
}

type discard struct{}

func (discard) WithFields(Fields) Logger { return discard{} }
func (discard) Debug(string)             {}
func (discard) Info(string)              {}
func (discard) Warn(string)              {}
func (discard) Error(string)             {}
