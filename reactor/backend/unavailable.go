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

// unavailableBackend is the non-unix stand-in for POLL/SELECT, whose
// syscalls (unix.Poll/unix.Select) have no Windows equivalent in
// golang.org/x/sys/unix. Every operation fails with ErrorBackendUnavailable
// so New() can return a Backend value instead of an error for a method
// this build never intends to drive.
type unavailableBackend struct {
	method Method
}

func (b *unavailableBackend) Method() Method { return b.method }

func (b *unavailableBackend) Attach(Interest) error {
	return ErrorBackendUnavailable.Error(nil)
}

func (b *unavailableBackend) Modify(Interest) error {
	return ErrorBackendUnavailable.Error(nil)
}

func (b *unavailableBackend) Detach(int) error {
	return ErrorBackendUnavailable.Error(nil)
}

func (b *unavailableBackend) Count() int { return 0 }

func (b *unavailableBackend) Wait(time.Duration, []Event) ([]Event, error) {
	return nil, ErrorBackendUnavailable.Error(nil)
}

func (b *unavailableBackend) Teardown() error { return nil }
