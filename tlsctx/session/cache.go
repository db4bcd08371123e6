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

// Package session implements the peer-keyed session-reuse cache of
// spec.md §4.6: TLS session state is looked up by the exact peer socket
// address rather than a server-name hint, bucketed across a
// power-of-two table near the requested size.
package session

import (
	"crypto/tls"
	"sync"
)

// Cache is the session-reuse store contract. Entries are keyed by the
// peer's exact socket address (e.g. "203.0.113.7:5061"); two peers
// behind the same server name never share a slot.
type Cache interface {
	Get(peerAddr string) (*tls.ClientSessionState, bool)
	Put(peerAddr string, state *tls.ClientSessionState)
	Remove(peerAddr string)
	Len() int
}

type bucket struct {
	mu   sync.Mutex
	ents map[string]*tls.ClientSessionState
}

type cache struct {
	buckets []*bucket
	mask    uint32
}

// NewCache returns a Cache with at least size buckets, rounded up to
// the next power of two (spec.md §4.6 calls for "power of two near
// 256" at the default size).
func NewCache(size int) Cache {
	if size <= 0 {
		size = 256
	}
	n := nextPow2(size)

	c := &cache{
		buckets: make([]*bucket, n),
		mask:    uint32(n - 1),
	}
	for i := range c.buckets {
		c.buckets[i] = &bucket{ents: make(map[string]*tls.ClientSessionState)}
	}
	return c
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func fnv32(s string) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

func (c *cache) bucketFor(peerAddr string) *bucket {
	return c.buckets[fnv32(peerAddr)&c.mask]
}

func (c *cache) Get(peerAddr string) (*tls.ClientSessionState, bool) {
	b := c.bucketFor(peerAddr)
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.ents[peerAddr]
	return s, ok
}

func (c *cache) Put(peerAddr string, state *tls.ClientSessionState) {
	if state == nil {
		c.Remove(peerAddr)
		return
	}
	b := c.bucketFor(peerAddr)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ents[peerAddr] = state
}

func (c *cache) Remove(peerAddr string) {
	b := c.bucketFor(peerAddr)
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ents, peerAddr)
}

func (c *cache) Len() int {
	n := 0
	for _, b := range c.buckets {
		b.mu.Lock()
		n += len(b.ents)
		b.mu.Unlock()
	}
	return n
}

// AsTLSCache adapts a Cache to tls.ClientSessionCache using
// serverName as the key, for callers that only have the stdlib
// session-ticket hook available (it does not see the peer socket
// address, only the hostname tls.Dial was given).
func AsTLSCache(c Cache) tls.ClientSessionCache {
	return tlsAdapter{c: c}
}

type tlsAdapter struct {
	c Cache
}

func (a tlsAdapter) Get(sessionKey string) (*tls.ClientSessionState, bool) {
	return a.c.Get(sessionKey)
}

func (a tlsAdapter) Put(sessionKey string, cs *tls.ClientSessionState) {
	a.c.Put(sessionKey, cs)
}
