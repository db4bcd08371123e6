//go:build darwin || freebsd || dragonfly || netbsd || openbsd

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
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const kqueueAvailable = true

// kqueueBackend tracks read/write interest per fd separately, since
// kqueue represents them as two independent filters (EVFILT_READ,
// EVFILT_WRITE) rather than epoll's single combined mask. Modeled on
// the trpc-group-tnet poller_kqueue.go changelist helper.
type kqueueBackend struct {
	mu    sync.Mutex
	kqfd  int
	watch map[int]Interest
	buf   []unix.Kevent_t
}

func newKqueue() (Backend, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueueBackend{
		kqfd:  fd,
		watch: make(map[int]Interest),
		buf:   make([]unix.Kevent_t, 128),
	}, nil
}

func (b *kqueueBackend) Method() Method { return MethodKqueue }

func kqChangelist(fd int, prev, next Interest) []unix.Kevent_t {
	var changes []unix.Kevent_t
	add := func(filter int16, flags uint16) {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  flags,
		})
	}
	if next.Readable && !prev.Readable {
		add(unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
	} else if !next.Readable && prev.Readable {
		add(unix.EVFILT_READ, unix.EV_DELETE)
	}
	if next.Writable && !prev.Writable {
		add(unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE)
	} else if !next.Writable && prev.Writable {
		add(unix.EVFILT_WRITE, unix.EV_DELETE)
	}
	return changes
}

func (b *kqueueBackend) apply(fd int, prev, next Interest) error {
	changes := kqChangelist(fd, prev, next)
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kqfd, changes, nil, nil)
	return err
}

func (b *kqueueBackend) Attach(i Interest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.apply(i.Fd, Interest{}, i); err != nil {
		return err
	}
	b.watch[i.Fd] = i
	return nil
}

func (b *kqueueBackend) Modify(i Interest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.watch[i.Fd]
	if err := b.apply(i.Fd, prev, i); err != nil {
		return err
	}
	b.watch[i.Fd] = i
	return nil
}

func (b *kqueueBackend) Detach(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, ok := b.watch[fd]
	if !ok {
		return nil
	}
	err := b.apply(fd, prev, Interest{})
	delete(b.watch, fd)
	return err
}

func (b *kqueueBackend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watch)
}

func (b *kqueueBackend) Wait(timeout time.Duration, dst []Event) ([]Event, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	b.mu.Lock()
	buf := b.buf
	b.mu.Unlock()

	n, err := unix.Kevent(b.kqfd, nil, buf, ts)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}

	for i := 0; i < n; i++ {
		ev := buf[i]
		fd := int(ev.Ident)
		// kqueue has no exceptfds equivalent to arm explicitly; EV_EOF
		// (peer hangup) and EV_ERROR ride on whichever filter already
		// fired, so Interest.Exceptional is a no-op for this backend.
		e := Event{Fd: fd, Errored: ev.Flags&(unix.EV_ERROR|unix.EV_EOF) != 0}
		switch int16(ev.Filter) {
		case unix.EVFILT_READ:
			e.Readable = true
		case unix.EVFILT_WRITE:
			e.Writable = true
		}
		dst = append(dst, e)
	}
	return dst, nil
}

func (b *kqueueBackend) Teardown() error {
	return unix.Close(b.kqfd)
}
