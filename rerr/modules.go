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

// Package rerr provides the numeric-code error framework shared by every
// package in this module. It is a trimmed port of the teacher's error
// package: a CodeError classification plus a parent-error chain, without
// the pool/return/compat surface the teacher carries for its own
// unrelated integrations.
package rerr

// Per-package code ranges, mirroring the teacher's errors/modules.go block
// allocation so a numeric code alone identifies its owning package.
const (
	MinPkgReactor   = 100
	MinPkgBackend   = 200
	MinPkgThreadCtx = 300
	MinPkgTLSCtx    = 400
	MinPkgSession   = 500
	MinPkgCertTypes = 600
	MinPkgConfig    = 700
	MinAvailable    = 1000
)
