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

package backend

import "time"

// Event is a single readiness notification returned by Wait: the
// descriptor and the readable/writable/error bits observed for it.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	Errored  bool
}

// Interest declares which directions a descriptor should be armed for.
// Exceptional requests delivery of out-of-band/error conditions
// (SELECT's exceptfds, POLLPRI, EPOLLPRI); POLLERR/POLLHUP/EPOLLHUP and
// kqueue's EV_ERROR are reported regardless, since the kernel does not
// gate those on an opt-in bit the way it gates priority data.
type Interest struct {
	Fd          int
	Readable    bool
	Writable    bool
	Exceptional bool
}

// Backend is the uniform four-operation contract every poll mechanism
// (SELECT/POLL/EPOLL/KQUEUE) implements, per spec.md §4.2: attach/modify
// and detach mutate the watch set, Wait blocks for readiness or timeout,
// and Teardown releases any backend-held resource (epoll/kqueue fd).
//
// Each implementation guards its watch set with its own mutex, so
// Attach/Modify/Detach may run while another goroutine is blocked in
// Wait; the reactor loop calls Wait without holding its own lock.
type Backend interface {
	Method() Method

	// Attach arms fd for the given interest. Modify changes an
	// already-armed fd's interest. Detach disarms fd entirely.
	Attach(i Interest) error
	Modify(i Interest) error
	Detach(fd int) error

	// Wait blocks until at least one armed descriptor is ready or
	// timeout elapses (timeout < 0 means block indefinitely), and
	// appends ready events to dst, returning the extended slice.
	Wait(timeout time.Duration, dst []Event) ([]Event, error)

	// Count reports the number of descriptors currently armed.
	Count() int

	Teardown() error
}
