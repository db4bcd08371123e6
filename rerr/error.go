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

package rerr

import (
	"errors"
	"strings"
)

// Message generates the human-readable text for a CodeError. Packages
// register one of these per code range via RegisterIdFctMessage.
type Message func(code CodeError) string

// CodeError is a numeric error classification, grouped by package via the
// MinPkg* ranges declared in modules.go.
type CodeError uint16

const UNK_ERROR CodeError = 0

var idMsgFct = make(map[CodeError]Message)

// RegisterIdFctMessage associates a Message function with every code in
// the same hundred-block as id (i.e. the calling package's whole range).
func RegisterIdFctMessage(id CodeError, fct Message) {
	idMsgFct[(id/100)*100] = fct
}

// ExistInMapMessage reports whether a Message function is already
// registered for id's range, letting init() guard against double
// registration when a package is imported more than once.
func ExistInMapMessage(id CodeError) bool {
	_, ok := idMsgFct[(id/100)*100]
	return ok
}

func (c CodeError) Message() string {
	if c == UNK_ERROR {
		return "unknown error"
	}
	if f, ok := idMsgFct[(c/100)*100]; ok {
		if m := f(c); m != "" {
			return m
		}
	}
	return "unknown error"
}

// Error is the main error value of this module: a code, a message, and an
// optional chain of parent errors (the underlying cause).
type Error interface {
	error
	IsCode(code CodeError) bool
	HasCode(code CodeError) bool
	GetCode() CodeError
	HasParent() bool
	Add(parent ...error)
}

type ers struct {
	c CodeError
	m string
	p []error
}

// Error returns a fresh Error for code c. ErrorParent attaches an
// underlying cause (e.g. a stdlib os/syscall error) to the chain.
func (c CodeError) Error(parent error) Error {
	e := &ers{c: c, m: c.Message()}
	if parent != nil {
		e.p = append(e.p, parent)
	}
	return e
}

func (c CodeError) ErrorParent(parent ...error) Error {
	e := &ers{c: c, m: c.Message()}
	e.Add(parent...)
	return e
}

func (e *ers) Error() string {
	if len(e.p) == 0 {
		return e.m
	}
	parts := make([]string, 0, len(e.p)+1)
	parts = append(parts, e.m)
	for _, p := range e.p {
		if p != nil {
			parts = append(parts, p.Error())
		}
	}
	return strings.Join(parts, ": ")
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.c == code {
		return true
	}
	for _, p := range e.p {
		var sub Error
		if errors.As(p, &sub) && sub.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) GetCode() CodeError {
	return e.c
}

func (e *ers) HasParent() bool {
	return len(e.p) > 0
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.p = append(e.p, p)
		}
	}
}

func (e *ers) Unwrap() []error {
	return e.p
}

// Is reports whether e wraps an Error (for errors.As/errors.Is interop).
func Is(e error) bool {
	var err Error
	return errors.As(e, &err)
}
