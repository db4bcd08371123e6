//go:build !windows

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

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const pollAvailable = true

// pollBackend rebuilds the unix.PollFd slice from its watch map on every
// Wait call. Unlike epoll/kqueue it holds no kernel-side state between
// calls, which is exactly what makes it the portable fallback.
type pollBackend struct {
	mu    sync.Mutex
	watch map[int]Interest
}

func newPoll() Backend {
	return &pollBackend{watch: make(map[int]Interest)}
}

func (b *pollBackend) Method() Method { return MethodPoll }

func (b *pollBackend) Attach(i Interest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watch[i.Fd] = i
	return nil
}

func (b *pollBackend) Modify(i Interest) error {
	return b.Attach(i)
}

func (b *pollBackend) Detach(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watch, fd)
	return nil
}

func (b *pollBackend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watch)
}

func (b *pollBackend) Wait(timeout time.Duration, dst []Event) ([]Event, error) {
	b.mu.Lock()
	fds := make([]unix.PollFd, 0, len(b.watch))
	order := make([]int, 0, len(b.watch))
	for fd := range b.watch {
		order = append(order, fd)
	}
	sort.Ints(order)
	for _, fd := range order {
		i := b.watch[fd]
		var ev int16
		if i.Readable {
			ev |= unix.POLLIN
		}
		if i.Writable {
			ev |= unix.POLLOUT
		}
		if i.Exceptional {
			ev |= unix.POLLPRI
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: ev})
	}
	b.mu.Unlock()

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	if n == 0 {
		return dst, nil
	}

	for _, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		dst = append(dst, Event{
			Fd:       int(pfd.Fd),
			Readable: pfd.Revents&(unix.POLLIN|unix.POLLHUP) != 0,
			Writable: pfd.Revents&unix.POLLOUT != 0,
			Errored:  pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL|unix.POLLPRI) != 0,
		})
	}
	return dst, nil
}

func (b *pollBackend) Teardown() error {
	return nil
}
