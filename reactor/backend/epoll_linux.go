//go:build linux

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

const epollAvailable = true

// epollBackend wires Attach/Modify/Detach onto unix.EpollCtl and Wait
// onto unix.EpollWait, following the trpc-group-tnet poller_epoll.go
// shape: one epoll fd, an EPOLLET-free level-triggered watch set, and a
// reusable raw-event buffer to keep Wait allocation-free on the hot path.
type epollBackend struct {
	mu   sync.Mutex
	epfd int
	n    int
	buf  []unix.EpollEvent
}

func newEpoll() (Backend, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epollBackend{epfd: fd, buf: make([]unix.EpollEvent, 128)}, nil
}

func (b *epollBackend) Method() Method { return MethodEpoll }

func toEpollMask(i Interest) uint32 {
	var m uint32
	if i.Readable {
		m |= unix.EPOLLIN
	}
	if i.Writable {
		m |= unix.EPOLLOUT
	}
	if i.Exceptional {
		m |= unix.EPOLLPRI
	}
	return m
}

func (b *epollBackend) Attach(i Interest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := unix.EpollEvent{Events: toEpollMask(i), Fd: int32(i.Fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, i.Fd, &ev); err != nil {
		return err
	}
	b.n++
	return nil
}

func (b *epollBackend) Modify(i Interest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := unix.EpollEvent{Events: toEpollMask(i), Fd: int32(i.Fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, i.Fd, &ev)
}

func (b *epollBackend) Detach(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == nil && b.n > 0 {
		b.n--
	}
	return err
}

func (b *epollBackend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

func (b *epollBackend) Wait(timeout time.Duration, dst []Event) ([]Event, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	b.mu.Lock()
	buf := b.buf
	b.mu.Unlock()

	n, err := unix.EpollWait(b.epfd, buf, ms)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}

	for i := 0; i < n; i++ {
		ev := buf[i]
		dst = append(dst, Event{
			Fd:       int(ev.Fd),
			Readable: ev.Events&(unix.EPOLLIN|unix.EPOLLHUP) != 0,
			Writable: ev.Events&unix.EPOLLOUT != 0,
			Errored:  ev.Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLPRI) != 0,
		})
	}
	return dst, nil
}

func (b *epollBackend) Teardown() error {
	return unix.Close(b.epfd)
}
