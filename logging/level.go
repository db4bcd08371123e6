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

// Package logging is a trimmed structured-logging layer over logrus, in the
// shape of the teacher's logger package: a Level type, a Fields map, and a
// Logger that wraps a *logrus.Logger instead of exposing it directly.
package logging

import "strings"

type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l Level) String() string {
	switch l {
	case PanicLevel:
		return "panic"
	case FatalLevel:
		return "fatal"
	case ErrorLevel:
		return "error"
	case WarnLevel:
		return "warn"
	case InfoLevel:
		return "info"
	case DebugLevel:
		return "debug"
	default:
		return "info"
	}
}

// ParseLevel returns the Level matching s, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(PanicLevel.String(), s) && s != "":
		return PanicLevel
	case strings.Contains(FatalLevel.String(), s) && s != "":
		return FatalLevel
	case strings.Contains(ErrorLevel.String(), s) && s != "":
		return ErrorLevel
	case strings.Contains(WarnLevel.String(), s) && s != "":
		return WarnLevel
	case strings.Contains(DebugLevel.String(), s) && s != "":
		return DebugLevel
	default:
		return InfoLevel
	}
}
