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

package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	base *logrus.Entry
}

func newLogrus(lvl Level) Logger {
	l := logrus.New()
	l.SetLevel(lvl.Logrus())
	if lvl == NilLevel {
		l.SetOutput(io.Discard)
	}
	return &logrusLogger{base: logrus.NewEntry(l)}
}

func (l *logrusLogger) WithFields(f Fields) Logger {
	return &logrusLogger{base: l.base.WithFields(f.logrus())}
}

func (l *logrusLogger) Debug(msg string) { l.base.Debug(msg) }
func (l *logrusLogger) Info(msg string)  { l.base.Info(msg) }
func (l *logrusLogger) Warn(msg string)  { l.base.Warn(msg) }
func (l *logrusLogger) Error(msg string) { l.base.Error(msg) }
