/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package backend implements the tagged-variant poll backends (spec.md
// §4.2 / §9 "Dynamic dispatch over polling backends"): SELECT, POLL,
// EPOLL and KQUEUE behind one Backend interface, selected at runtime by
// Method, so the reactor loop never branches on platform itself.
package backend

import "strings"

// Method identifies which concrete Backend a reactor is driving.
type Method uint8

const (
	MethodUnset Method = iota
	MethodSelect
	MethodPoll
	MethodEpoll
	MethodKqueue
)

func (m Method) String() string {
	switch m {
	case MethodSelect:
		return "select"
	case MethodPoll:
		return "poll"
	case MethodEpoll:
		return "epoll"
	case MethodKqueue:
		return "kqueue"
	default:
		return "unset"
	}
}

// Parse returns the Method matching s (case-insensitive), or MethodUnset.
func Parse(s string) Method {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "select":
		return MethodSelect
	case "poll":
		return MethodPoll
	case "epoll":
		return MethodEpoll
	case "kqueue":
		return MethodKqueue
	default:
		return MethodUnset
	}
}

// Available lists the backends compiled into this binary, in the
// preference order used by Best(): EPOLL > KQUEUE > POLL > SELECT.
func Available() []Method {
	m := make([]Method, 0, 4)
	if epollAvailable {
		m = append(m, MethodEpoll)
	}
	if kqueueAvailable {
		m = append(m, MethodKqueue)
	}
	if pollAvailable {
		m = append(m, MethodPoll)
	}
	if selectAvailable {
		m = append(m, MethodSelect)
	}
	return m
}

// Best returns the highest-preference Method available on this platform,
// or MethodUnset if this build carries no usable backend.
func Best() Method {
	if m := Available(); len(m) > 0 {
		return m[0]
	}
	return MethodUnset
}
