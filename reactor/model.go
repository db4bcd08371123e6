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

// Package reactor implements the async I/O reactor of spec.md §4.1: a
// single-thread-owned event loop that multiplexes file descriptors
// across SELECT/POLL/EPOLL/KQUEUE backends (package
// github.com/nabbar/corenet/reactor/backend) and an integrated,
// deadline-ordered timer list. It deliberately does not implement a
// thread pool, work-stealing scheduler, or fiber runtime - callers
// drive Run from whichever goroutine should own the loop.
package reactor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nabbar/corenet/logging"
	"github.com/nabbar/corenet/reactor/backend"
)

// SignalFunc is invoked from within the loop, after timers and I/O
// callbacks have fired, at most once per pass: however many times Signal
// was called since the previous pass, it is invoked once - never
// concurrently with dispatch, per spec.md §4.4's
// "signals are NOT delivered inside handlers" rule. A pass with no
// captured Signal does not invoke it at all.
type SignalFunc func(r Reactor)

// Reactor is the public contract for one event loop instance, covering
// spec.md §6's external interface: attach/detach descriptors, switch
// backend method at runtime, arm/cancel timers, and drive the loop.
type Reactor interface {
	AttachFd(fd int, flags Flags, cb Callback, arg interface{}) error
	DetachFd(fd int) error

	SetMethod(m backend.Method) error
	GetMethod() backend.Method
	SetMaxFds(n int)
	SetReuseRecords(v bool)
	GetReuseRecords() bool

	ArmTimer(d time.Duration, cb TimerCallback, arg interface{}) TimerID
	CancelTimer(id TimerID) bool

	Run(sig SignalFunc) error
	Cancel()
	Signal()

	// SetMutex installs an externally owned mutex in place of the
	// reactor's own, per spec.md's set_mutex(ptr): every lock/unlock
	// this package performs afterward dereferences through the new
	// slot, letting an application multiplexing several reactors (or
	// other libraries) share one lock. Call this before Run; it is not
	// synchronized against a concurrently held lock.
	SetMutex(m *sync.Mutex)

	// Lock and Unlock expose the slot SetMutex installs into (the
	// reactor's own mutex by default), so package threadstore's
	// thread_enter/thread_leave bracket can serialize a foreign
	// goroutine against the owning one without reaching into an
	// unexported field.
	Lock()
	Unlock()

	Stats() Stats
}

type reactor struct {
	ownMu sync.Mutex
	mu    *sync.Mutex // defaults to &ownMu; swappable via SetMutex
	id    uuid.UUID
	log   logging.Logger

	reg *registry
	tmr *timerList
	bck backend.Backend

	method      backend.Method
	wantMethod  backend.Method
	needsUpdate bool

	running    bool
	cancel     chan struct{}
	cancelOnce sync.Once

	sigPending bool

	blockWarn time.Duration
}

// Option configures a Reactor at construction time.
type Option func(*reactor)

func WithLogger(l logging.Logger) Option {
	return func(r *reactor) { r.log = l }
}

func WithMethod(m backend.Method) Option {
	return func(r *reactor) { r.wantMethod = m }
}

func WithMaxFds(n int) Option {
	return func(r *reactor) { r.reg.maxFds = n }
}

// WithBlockWarn overrides the default 500ms blocking-budget advisory a
// single Wait() call is expected to stay under.
func WithBlockWarn(d time.Duration) Option {
	return func(r *reactor) { r.blockWarn = d }
}

// New builds a Reactor. When no method is requested it starts on
// backend.Best() for the host platform, per spec.md §9's dynamic
// dispatch design note.
func New(opts ...Option) (Reactor, error) {
	r := &reactor{
		id:        uuid.New(),
		reg:       newRegistry(0),
		tmr:       newTimerList(),
		log:       logging.Default,
		cancel:    make(chan struct{}),
		blockWarn: 500 * time.Millisecond,
	}
	r.mu = &r.ownMu
	for _, o := range opts {
		o(r)
	}

	m := r.wantMethod
	if m == backend.MethodUnset {
		m = backend.Best()
	}

	b, err := backend.New(m)
	if err != nil {
		return nil, err
	}
	r.bck = b
	r.method = m
	return r, nil
}

func (r *reactor) SetMaxFds(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reg.maxFds = n
}

func (r *reactor) SetReuseRecords(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reg.setReuseRecords(v)
}

func (r *reactor) GetReuseRecords() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.reuseRecs
}

// SetMutex swaps the slot Lock/Unlock dereference. Passing nil is a
// no-op. See the Reactor interface doc for the synchronization caveat.
func (r *reactor) SetMutex(m *sync.Mutex) {
	if m == nil {
		return
	}
	old := r.mu
	old.Lock()
	r.mu = m
	old.Unlock()
}

func (r *reactor) Lock() { r.mu.Lock() }

func (r *reactor) Unlock() { r.mu.Unlock() }

// Signal records that an external signal was captured, per spec.md
// §4.4: the loop delivers it to sig at most once per pass, from within
// Run rather than concurrently with I/O dispatch.
func (r *reactor) Signal() {
	r.mu.Lock()
	r.sigPending = true
	r.mu.Unlock()
}

func (r *reactor) GetMethod() backend.Method {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.method
}

// SetMethod requests a backend switch, applied at the start of the next
// pass (the "update" flag of spec.md §4.1) rather than mid-wait, so the
// loop never tears down a backend while a syscall is in flight on it.
func (r *reactor) SetMethod(m backend.Method) error {
	if m == backend.MethodUnset {
		return ErrorBadArgument.Error(nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wantMethod = m
	r.needsUpdate = true
	return nil
}

func (r *reactor) AttachFd(fd int, flags Flags, cb Callback, arg interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if flags.IsZero() {
		if _, err := r.reg.detach(fd); err != nil {
			return err
		}
		return r.bck.Detach(fd)
	}

	rec, isNew, err := r.reg.attach(fd, flags, cb, arg)
	if err != nil {
		return err
	}

	i := backend.Interest{Fd: fd, Readable: flags.Readable(), Writable: flags.Writable(), Exceptional: flags.Exceptional()}
	if isNew {
		return r.bck.Attach(i)
	}
	_ = rec
	return r.bck.Modify(i)
}

func (r *reactor) DetachFd(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.reg.detach(fd); err != nil {
		return err
	}
	return r.bck.Detach(fd)
}

func (r *reactor) ArmTimer(d time.Duration, cb TimerCallback, arg interface{}) TimerID {
	return r.tmr.insert(time.Now().Add(d), cb, arg)
}

func (r *reactor) CancelTimer(id TimerID) bool {
	return r.tmr.cancel(id)
}

func (r *reactor) Cancel() {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running {
		r.cancelOnce.Do(func() { close(r.cancel) })
	}
}
