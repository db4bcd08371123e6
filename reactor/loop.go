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

package reactor

import (
	"sync"
	"time"

	"github.com/nabbar/corenet/logging"
	"github.com/nabbar/corenet/reactor/backend"
)

// Run drives the loop until Cancel is called; it is the only method
// that blocks for the reactor's lifetime. The caller's goroutine is the
// sole owner of this Reactor for the duration of Run, per spec.md §5's
// single-thread-owned concurrency model. The loop takes its mutex only
// briefly, to read or update its own state (the running flag, the
// current backend, a registry lookup, the pending-signal flag); Wait,
// I/O callbacks, timer callbacks and the SignalFunc all run without it
// held. Foreign goroutines touch this Reactor only via threadstore's
// Enter/Leave bracket.
func (r *reactor) Run(sig SignalFunc) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrorAlreadyPolling.Error(nil)
	}
	r.running = true
	r.cancel = make(chan struct{})
	r.cancelOnce = sync.Once{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	events := make([]backend.Event, 0, 128)
	for {
		select {
		case <-r.cancel:
			return nil
		default:
		}

		if err := r.maybeSwitchBackend(); err != nil {
			r.log.Logf(logging.ErrorLevel, "backend switch failed: %v", err)
		}

		timeout := r.waitTimeout()

		// r.mu is held only to read the current backend; Wait itself
		// runs unlocked, so blocking here for up to timeout does not
		// stall a concurrent AttachFd/DetachFd from another goroutine.
		r.mu.Lock()
		bck := r.bck
		r.mu.Unlock()

		start := time.Now()
		evs, err := bck.Wait(timeout, events[:0])
		blocked := time.Since(start)

		if blocked > r.blockWarn {
			r.log.Logf(logging.WarnLevel, "reactor pass blocked %s (budget %s)", blocked, r.blockWarn)
		}

		if err != nil {
			r.log.Logf(logging.WarnLevel, "backend wait error: %v", err)
		} else {
			r.dispatch(evs)
		}

		r.fireTimers()

		if sig != nil {
			r.mu.Lock()
			captured := r.sigPending
			r.sigPending = false
			r.mu.Unlock()
			if captured {
				sig(r)
			}
		}
	}
}

// waitTimeout computes how long Wait may block: until the next armed
// timer's deadline, or indefinitely (negative) when none is pending.
func (r *reactor) waitTimeout() time.Duration {
	deadline, ok := r.tmr.nextDeadline()
	if !ok {
		return -1
	}
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}

func (r *reactor) dispatch(evs []backend.Event) {
	for _, ev := range evs {
		r.mu.Lock()
		rec, ok := r.reg.lookup(ev.Fd)
		r.mu.Unlock()
		if !ok || rec.cb == nil {
			continue
		}

		var ready Flags
		if ev.Readable {
			ready |= FlagRead
		}
		if ev.Writable {
			ready |= FlagWrite
		}
		if ev.Errored {
			ready |= FlagExcept
		}
		if ready == 0 {
			continue
		}
		rec.cb(ev.Fd, ready, rec.arg)
	}
}

func (r *reactor) fireTimers() {
	due := r.tmr.fireExpired(time.Now())
	for _, e := range due {
		if e.cb != nil {
			e.cb(e.id, e.arg)
		}
	}
}

// maybeSwitchBackend performs the dynamic backend swap flagged by
// SetMethod: a fresh backend is built, every currently-armed descriptor
// is re-attached to it, and the old backend is torn down. Descriptors
// fail over without the caller detaching/reattaching them itself.
func (r *reactor) maybeSwitchBackend() error {
	r.mu.Lock()
	if !r.needsUpdate {
		r.mu.Unlock()
		return nil
	}
	wanted := r.wantMethod
	r.mu.Unlock()

	nb, err := backend.New(wanted)
	if err != nil {
		r.mu.Lock()
		r.needsUpdate = false
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.bck
	r.reg.each(func(rec *record) bool {
		_ = nb.Attach(backend.Interest{
			Fd:          rec.fd,
			Readable:    rec.flags.Readable(),
			Writable:    rec.flags.Writable(),
			Exceptional: rec.flags.Exceptional(),
		})
		return true
	})

	r.bck = nb
	r.method = wanted
	r.needsUpdate = false

	if old != nil {
		_ = old.Teardown()
	}
	return nil
}
