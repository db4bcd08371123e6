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

package logging

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	jww "github.com/spf13/jwalterweatherman"
)

// Fields carries structured log context (fd, backend, peer, cipher, ...).
type Fields map[string]interface{}

func (f Fields) clone() Fields {
	res := make(Fields, len(f))
	for k, v := range f {
		res[k] = v
	}
	return res
}

func (f Fields) Add(key string, val interface{}) Fields {
	res := f.clone()
	res[key] = val
	return res
}

// Logger is the structured logging contract used by reactor and tlsctx.
// It deliberately exposes only level-gated entry points, not the logrus
// type itself, so the sink can be swapped without touching call sites.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level
	WithFields(f Fields) Logger
	Log(lvl Level, msg string)
	Logf(lvl Level, pattern string, args ...interface{})
}

type logger struct {
	mut sync.RWMutex
	lvl *atomic.Uint32
	std *logrus.Logger
	fld Fields
}

// New returns a Logger writing to stdout via logrus, defaulting to
// InfoLevel, and redirects jwalterweatherman's log output into the
// logrus writer, the way the teacher's logger/spf13.go bridges jww.
func New() Logger {
	l := &logger{
		std: logrus.New(),
		fld: make(Fields),
		lvl: new(atomic.Uint32),
	}
	l.std.SetOutput(os.Stdout)
	l.SetLevel(InfoLevel)
	jww.SetLogOutput(l.std.Writer())
	return l
}

func (l *logger) SetLevel(lvl Level) {
	l.lvl.Store(uint32(lvl))
	l.mut.Lock()
	defer l.mut.Unlock()
	switch lvl {
	case PanicLevel:
		l.std.SetLevel(logrus.PanicLevel)
	case FatalLevel:
		l.std.SetLevel(logrus.FatalLevel)
	case ErrorLevel:
		l.std.SetLevel(logrus.ErrorLevel)
	case WarnLevel:
		l.std.SetLevel(logrus.WarnLevel)
	case DebugLevel:
		l.std.SetLevel(logrus.DebugLevel)
	default:
		l.std.SetLevel(logrus.InfoLevel)
	}
}

func (l *logger) GetLevel() Level {
	return Level(l.lvl.Load())
}

func (l *logger) WithFields(f Fields) Logger {
	l.mut.RLock()
	base := l.fld.clone()
	l.mut.RUnlock()

	for k, v := range f {
		base[k] = v
	}

	return &logger{std: l.std, fld: base, lvl: l.lvl}
}

func (l *logger) entry() *logrus.Entry {
	l.mut.RLock()
	defer l.mut.RUnlock()
	return l.std.WithFields(logrus.Fields(l.fld))
}

func (l *logger) Log(lvl Level, msg string) {
	switch lvl {
	case PanicLevel:
		l.entry().Panic(msg)
	case FatalLevel:
		l.entry().Fatal(msg)
	case ErrorLevel:
		l.entry().Error(msg)
	case WarnLevel:
		l.entry().Warn(msg)
	case DebugLevel:
		l.entry().Debug(msg)
	default:
		l.entry().Info(msg)
	}
}

func (l *logger) Logf(lvl Level, pattern string, args ...interface{}) {
	switch lvl {
	case PanicLevel:
		l.entry().Panicf(pattern, args...)
	case FatalLevel:
		l.entry().Fatalf(pattern, args...)
	case ErrorLevel:
		l.entry().Errorf(pattern, args...)
	case WarnLevel:
		l.entry().Warnf(pattern, args...)
	case DebugLevel:
		l.entry().Debugf(pattern, args...)
	default:
		l.entry().Infof(pattern, args...)
	}
}

// Default is the package-wide fallback logger, mirroring the teacher's
// certificates.Default TLSConfig singleton pattern.
var Default = New()
