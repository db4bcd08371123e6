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

package tlsctx

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
)

// FingerprintAlgo selects the digest used by Fingerprint.
type FingerprintAlgo uint8

const (
	FingerprintSHA1 FingerprintAlgo = iota
	FingerprintSHA256
)

func (a FingerprintAlgo) size() int {
	if a == FingerprintSHA256 {
		return sha256.Size
	}
	return sha1.Size
}

// Fingerprint writes cert's digest into dst and returns the number of
// bytes written. dst must be at least algo.size() bytes or
// ErrorBufferTooSmall is returned and dst is left untouched.
func Fingerprint(cert *x509.Certificate, algo FingerprintAlgo, dst []byte) (int, error) {
	n := algo.size()
	if len(dst) < n {
		return 0, ErrorBufferTooSmall.Error(nil)
	}

	var sum []byte
	if algo == FingerprintSHA256 {
		s := sha256.Sum256(cert.Raw)
		sum = s[:]
	} else {
		s := sha1.Sum(cert.Raw)
		sum = s[:]
	}

	copy(dst, sum)
	return n, nil
}
