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

// Flags describes the readiness directions a caller wants notified for
// a descriptor, per spec.md §4.1. A zero Flags value is equivalent to
// detaching the descriptor from the watch set.
type Flags uint8

const (
	FlagRead Flags = 1 << iota
	FlagWrite
	FlagExcept
)

func (f Flags) Readable() bool    { return f&FlagRead != 0 }
func (f Flags) Writable() bool    { return f&FlagWrite != 0 }
func (f Flags) Exceptional() bool { return f&FlagExcept != 0 }
func (f Flags) IsZero() bool      { return f == 0 }

// Callback is invoked by the reactor loop when fd becomes ready, with
// the flags describing which directions fired and arg the value given
// at Attach time.
type Callback func(fd int, ready Flags, arg interface{})
