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

const selectAvailable = true

// selectBackend is the lowest-common-denominator fallback: FD_SETSIZE
// (1024 on most unix targets) bounds both the watch set and the
// highest fd value it can represent, per spec.md §4.2's note that
// SELECT is capacity-bounded where the others are not.
type selectBackend struct {
	mu    sync.Mutex
	watch map[int]Interest
}

const selectMaxFd = unix.FD_SETSIZE - 1

func newSelect() Backend {
	return &selectBackend{watch: make(map[int]Interest)}
}

func (b *selectBackend) Method() Method { return MethodSelect }

func (b *selectBackend) Attach(i Interest) error {
	if i.Fd > selectMaxFd {
		return ErrorBackendUnavailable.Error(nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watch[i.Fd] = i
	return nil
}

func (b *selectBackend) Modify(i Interest) error {
	return b.Attach(i)
}

func (b *selectBackend) Detach(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watch, fd)
	return nil
}

func (b *selectBackend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watch)
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}

func (b *selectBackend) Wait(timeout time.Duration, dst []Event) ([]Event, error) {
	b.mu.Lock()
	order := make([]int, 0, len(b.watch))
	for fd := range b.watch {
		order = append(order, fd)
	}
	sort.Ints(order)

	var rset, wset, eset unix.FdSet
	maxFd := -1
	for _, fd := range order {
		i := b.watch[fd]
		if i.Readable {
			fdSet(&rset, fd)
		}
		if i.Writable {
			fdSet(&wset, fd)
		}
		if i.Exceptional {
			fdSet(&eset, fd)
		}
		if fd > maxFd {
			maxFd = fd
		}
	}
	b.mu.Unlock()

	var tv *unix.Timeval
	if timeout >= 0 {
		t := unix.NsecToTimeval(timeout.Nanoseconds())
		tv = &t
	}

	n, err := unix.Select(maxFd+1, &rset, &wset, &eset, tv)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	if n == 0 {
		return dst, nil
	}

	for _, fd := range order {
		r := fdIsSet(&rset, fd)
		w := fdIsSet(&wset, fd)
		e := fdIsSet(&eset, fd)
		if r || w || e {
			dst = append(dst, Event{Fd: fd, Readable: r, Writable: w, Errored: e})
		}
	}
	return dst, nil
}

func (b *selectBackend) Teardown() error {
	return nil
}
