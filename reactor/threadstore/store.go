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

// Package threadstore emulates the process-wide thread-local reactor
// slot of spec.md §4.1 (Thread Context Store): each owning goroutine
// registers the Reactor it drives under a caller-supplied Token, and a
// global fallback Reactor serves lookups from goroutines that never
// attached one (spec.md calls these "foreign threads").
//
// Go has no pthread_key_create equivalent with per-thread destructors,
// and goroutines are not OS threads, so this package cannot reproduce
// the original's automatic cleanup-on-thread-exit semantics. Callers
// own the Token lifecycle explicitly via Attach/Detach (or Init/Close)
// instead; see DESIGN.md for the tradeoff this was weighed against.
package threadstore

import (
	"sync"
	"sync/atomic"

	"github.com/nabbar/corenet/reactor"
)

// Token identifies one logical owning thread. Callers typically derive
// it from a goroutine-local value they already track (a worker index,
// a connection ID) since Go offers no native thread identity.
type Token uint64

type entry struct {
	r reactor.Reactor
}

// fallbackHolder wraps the process-wide fallback reactor so fallbk
// always stores the same concrete type, including the "cleared" state
// (atomic.Value panics if Store ever sees a differently-typed value,
// and a bare reactor.Reactor interface can't represent nil that way).
type fallbackHolder struct {
	r reactor.Reactor
}

// enterState records what Enter did for a token, so the matching Leave
// can restore it without the caller having to remember anything.
type enterState struct {
	r         reactor.Reactor
	prevReuse bool
}

var (
	mu      sync.RWMutex
	slots   = make(map[Token]*entry)
	fallbk  atomic.Value // *fallbackHolder
	enterMu sync.Mutex
	entered = make(map[Token]*enterState)
)

func getFallback() reactor.Reactor {
	v := fallbk.Load()
	if v == nil {
		return nil
	}
	return v.(*fallbackHolder).r
}

// Init allocates a reactor and binds it to token - thread_init of
// spec.md §4.5. The first call in the process also publishes it as the
// global fallback, so library calls from threads that never call Init
// still have a reactor to reach via Enter.
func Init(token Token, opts ...reactor.Option) (reactor.Reactor, error) {
	r, err := reactor.New(opts...)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	if _, ok := slots[token]; ok {
		mu.Unlock()
		return nil, ErrAlreadyBound
	}
	slots[token] = &entry{r: r}
	isFirst := getFallback() == nil
	mu.Unlock()

	if isFirst {
		SetFallback(r)
	}
	return r, nil
}

// Close deallocates token's binding - thread_close of spec.md §4.5. It
// clears the global fallback too if token's reactor was serving that
// role. The reactor itself is not Cancel'd; Close only drops this
// package's reference to it.
func Close(token Token) {
	mu.Lock()
	e, ok := slots[token]
	if ok {
		delete(slots, token)
	}
	mu.Unlock()
	if !ok {
		return
	}

	if getFallback() == e.r {
		SetFallback(nil)
	}
}

// Attach binds r to token. ErrAlreadyBound is returned if token already
// owns a different reactor; re-attaching the same reactor is a no-op.
func Attach(token Token, r reactor.Reactor) error {
	mu.Lock()
	defer mu.Unlock()

	if e, ok := slots[token]; ok {
		if e.r != r {
			return ErrAlreadyBound
		}
		return nil
	}
	slots[token] = &entry{r: r}
	return nil
}

// Detach releases token's binding. It does not touch the reactor
// itself (callers Cancel it separately if they own its lifecycle).
func Detach(token Token) {
	mu.Lock()
	defer mu.Unlock()
	delete(slots, token)
}

// Check reports whether token currently owns a reactor binding, or is
// presently inside an Enter/Leave bracket - thread_check of spec.md
// §4.5, used by debug assertions guarding descriptor mutations.
func Check(token Token) bool {
	mu.RLock()
	_, bound := slots[token]
	mu.RUnlock()
	if bound {
		return true
	}

	enterMu.Lock()
	_, inBracket := entered[token]
	enterMu.Unlock()
	return inBracket
}

// SetReuse toggles the bound reactor's record-reuse policy directly.
func SetReuse(token Token, reuse bool) {
	mu.RLock()
	e, ok := slots[token]
	mu.RUnlock()
	if !ok {
		return
	}
	e.r.SetReuseRecords(reuse)
}

// SetFallback installs the process-wide reactor served to lookups from
// tokens with no binding of their own - spec.md's "foreign thread" path.
func SetFallback(r reactor.Reactor) {
	fallbk.Store(&fallbackHolder{r: r})
}

// Enter resolves the reactor token should use (its own binding, or the
// fallback), acquires that reactor's mutex, and disables record reuse
// for the duration of the bracket - thread_enter of spec.md §4.5. ok is
// false if neither a binding nor a fallback exists, in which case no
// lock was taken and Leave must not be called. Enter is reentrant only
// across distinct tokens; entering the same token twice without an
// intervening Leave deadlocks, by design, since it mirrors a real
// mutex.
func Enter(token Token) (r reactor.Reactor, ownBinding bool, ok bool) {
	mu.RLock()
	e, bound := slots[token]
	mu.RUnlock()

	switch {
	case bound:
		r, ok = e.r, true
	case getFallback() != nil:
		r, ok = getFallback(), true
	default:
		return nil, false, false
	}

	r.Lock()
	prevReuse := r.GetReuseRecords()
	r.SetReuseRecords(false)

	enterMu.Lock()
	entered[token] = &enterState{r: r, prevReuse: prevReuse}
	enterMu.Unlock()

	return r, bound, true
}

// Leave releases the mutex and restores the record-reuse policy a
// matching Enter changed - thread_leave of spec.md §4.5. Calling Leave
// for a token with no open Enter bracket is a no-op.
func Leave(token Token) {
	enterMu.Lock()
	st, ok := entered[token]
	if ok {
		delete(entered, token)
	}
	enterMu.Unlock()
	if !ok {
		return
	}

	st.r.SetReuseRecords(st.prevReuse)
	st.r.Unlock()
}
