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
	"github.com/nabbar/corenet/atomic"
)

// record is the registry's bookkeeping for one attached descriptor: the
// flags last requested, the callback/arg pair to fire on readiness, and
// whether the backend currently has it armed or it is detached and kept
// for a later re-attach.
type record struct {
	fd      int
	flags   Flags
	cb      Callback
	arg     interface{}
	armed   bool
	pending bool // detached and kept for re-attach, per reuse_records policy
}

// registry is the Descriptor Registry of spec.md §4.1: an fd-keyed map
// from which the reactor loop derives the backend's watch set. It does
// not itself touch the backend; model.go drives Attach/Modify/Detach
// calls from the deltas registry mutations produce.
type registry struct {
	recs      atomic.MapTyped[int, *record]
	maxFds    int
	reuseRecs bool
}

func newRegistry(maxFds int) *registry {
	return &registry{
		recs:      atomic.NewMapTyped[int, *record](),
		maxFds:    maxFds,
		reuseRecs: true,
	}
}

func (r *registry) setReuseRecords(v bool) {
	r.reuseRecs = v
}

func (r *registry) count() int {
	n := 0
	r.recs.Range(func(_ int, rec *record) bool {
		if rec.armed {
			n++
		}
		return true
	})
	return n
}

// attach upserts fd's record. A brand-new fd must fit within maxFds or
// ErrorTooManyDescriptors is returned; re-attaching an existing fd just
// updates its flags/callback in place (idempotent per spec.md §4.1).
func (r *registry) attach(fd int, flags Flags, cb Callback, arg interface{}) (*record, bool, error) {
	if fd < 0 {
		return nil, false, ErrorBadDescriptor.Error(nil)
	}

	if existing, ok := r.recs.Load(fd); ok {
		existing.flags = flags
		existing.cb = cb
		existing.arg = arg
		wasArmed := existing.armed
		existing.armed = true
		existing.pending = false
		return existing, !wasArmed, nil
	}

	if r.maxFds > 0 && r.count() >= r.maxFds {
		return nil, false, ErrorTooManyDescriptors.Error(nil)
	}

	rec := &record{fd: fd, flags: flags, cb: cb, arg: arg, armed: true}
	r.recs.Store(fd, rec)
	return rec, true, nil
}

// detach disarms fd. When reuse_records is enabled the record is kept
// (pending=true) so a fast re-attach avoids a fresh allocation; otherwise
// it is removed outright.
func (r *registry) detach(fd int) (*record, error) {
	rec, ok := r.recs.Load(fd)
	if !ok {
		return nil, ErrorNotFound.Error(nil)
	}
	rec.armed = false
	rec.cb = nil
	rec.arg = nil
	if r.reuseRecs {
		rec.pending = true
	} else {
		r.recs.Delete(fd)
	}
	return rec, nil
}

func (r *registry) lookup(fd int) (*record, bool) {
	rec, ok := r.recs.Load(fd)
	if !ok || !rec.armed {
		return nil, false
	}
	return rec, true
}

func (r *registry) each(f func(rec *record) bool) {
	r.recs.Range(func(_ int, rec *record) bool {
		if !rec.armed {
			return true
		}
		return f(rec)
	})
}
