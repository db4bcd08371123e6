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

// Package tlsctx implements the TLS/DTLS context manager of spec.md
// §4.6: credential lifecycle, trust store, verification policy,
// cipher/curve/version bounds, SRTP keying material export, peer
// certificate inspection, fingerprints, and a peer-keyed session-reuse
// cache (subpackage session). It deliberately stops short of a full
// PEM/DER/X.509 toolkit or a certificate-chain builder - those remain
// the job of crypto/x509 and the certs/ca subpackages it wraps.
package tlsctx

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"sync"

	"github.com/nabbar/corenet/tlsctx/auth"
	"github.com/nabbar/corenet/tlsctx/cipher"
	"github.com/nabbar/corenet/tlsctx/curves"
	"github.com/nabbar/corenet/tlsctx/session"
	"github.com/nabbar/corenet/tlsctx/tlsversion"
)

// Context is the TLS/DTLS context manager contract: it owns the
// credential, trust store, verification policy and cipher/version
// bounds a transport needs, and renders them into a *tls.Config on
// demand via Build.
type Context interface {
	RegisterRand(rand io.Reader)

	SetCredential(c Credential) error
	GetCredential() (Credential, bool)
	GenerateSelfSigned(opt SelfSignOption) error

	SetTrustStore(t *TrustStore)
	GetTrustStore() *TrustStore

	SetVerifyPolicy(p VerifyPolicy)
	GetVerifyPolicy() VerifyPolicy

	SetVersionBounds(min, max tlsversion.Version)
	GetVersionBounds() (min, max tlsversion.Version)

	SetCipherList(c []cipher.Cipher)
	SetCurveList(c []curves.Curves)

	// SessionCache returns the peer-keyed session-reuse cache backing
	// this context's *tls.Config.ClientSessionCache / session tickets.
	SessionCache() session.Cache

	// Clone returns an independent Context carrying a snapshot of the
	// current credential, trust store, policy and cipher/version bounds.
	// The clone shares the trust store and session cache with the
	// original (mutating one's TrustStore/SessionCache affects both), so
	// callers that need per-connection specialization - setting a
	// different VerifyServerHostname for one dial, say - can do so on the
	// clone without disturbing the original.
	Clone() Context

	Build(serverName string) *tls.Config
}

type ctx struct {
	mu sync.RWMutex

	rand io.Reader

	cred Credential
	hasC bool

	trust  *TrustStore
	verify VerifyPolicy

	verMin, verMax tlsversion.Version
	ciphers        []cipher.Cipher
	curveList      []curves.Curves

	cache session.Cache
}

// Option configures a Context at construction time.
type Option func(*ctx)

// WithSessionCacheSize overrides the default 256-bucket session-reuse
// cache with one sized for n entries (rounded up to the next power of
// two by session.NewCache).
func WithSessionCacheSize(n int) Option {
	return func(c *ctx) { c.cache = session.NewCache(n) }
}

// New returns a Context with the teacher's certificates.New() defaults:
// TLS 1.2 minimum, TLS 1.3 maximum, no client certificate required, a
// session cache sized per spec.md §4.6's "power of two near 256".
func New(opts ...Option) Context {
	c := &ctx{
		verMin: tlsversion.VersionTLS12,
		verMax: tlsversion.VersionTLS13,
		verify: VerifyPolicy{ClientAuth: auth.NoClientCert},
		trust:  NewTrustStore(),
		cache:  session.NewCache(256),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *ctx) RegisterRand(rand io.Reader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rand = rand
}

func (c *ctx) SetCredential(cr Credential) error {
	if err := cr.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = cr
	c.hasC = true
	return nil
}

func (c *ctx) GetCredential() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cred, c.hasC
}

func (c *ctx) SetTrustStore(t *TrustStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trust = t
}

func (c *ctx) GetTrustStore() *TrustStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trust
}

func (c *ctx) SetVerifyPolicy(p VerifyPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verify = p
}

func (c *ctx) GetVerifyPolicy() VerifyPolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verify
}

func (c *ctx) SetVersionBounds(min, max tlsversion.Version) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verMin, c.verMax = min, max
}

func (c *ctx) GetVersionBounds() (tlsversion.Version, tlsversion.Version) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verMin, c.verMax
}

func (c *ctx) SetCipherList(list []cipher.Cipher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ciphers = list
}

func (c *ctx) SetCurveList(list []curves.Curves) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curveList = list
}

func (c *ctx) SessionCache() session.Cache {
	return c.cache
}

func (c *ctx) Clone() Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := &ctx{
		rand:   c.rand,
		cred:   c.cred,
		hasC:   c.hasC,
		trust:  c.trust,
		verify: c.verify,
		verMin: c.verMin,
		verMax: c.verMax,
		cache:  c.cache,
	}
	n.ciphers = append([]cipher.Cipher(nil), c.ciphers...)
	n.curveList = append([]curves.Curves(nil), c.curveList...)
	return n
}

// Build renders the current credential/trust/policy state into a
// *tls.Config for serverName, wiring the session cache as
// ClientSessionCache so repeat dials to the same peer resume instead
// of performing a full handshake.
func (c *ctx) Build(serverName string) *tls.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := &tls.Config{
		ServerName:         serverName,
		MinVersion:         c.verMin.TLS(),
		MaxVersion:         c.verMax.TLS(),
		ClientAuth:         c.verify.ClientAuth.TLS(),
		InsecureSkipVerify: c.verify.InsecureSkipVerify,
		Rand:               c.rand,
		ClientSessionCache: session.AsTLSCache(c.cache),
	}

	if c.hasC {
		cfg.Certificates = []tls.Certificate{c.cred.tlsCertificate()}
	}

	if c.trust != nil {
		if pool := c.trust.RootPool(); pool != nil {
			cfg.RootCAs = pool
		}
		if pool := c.trust.ClientPool(); pool != nil {
			cfg.ClientCAs = pool
		}
	}

	if len(c.ciphers) > 0 {
		ids := make([]uint16, 0, len(c.ciphers))
		for _, ci := range c.ciphers {
			ids = append(ids, ci.TLS())
		}
		cfg.CipherSuites = ids
	}

	if len(c.curveList) > 0 {
		ids := make([]tls.CurveID, 0, len(c.curveList))
		for _, cv := range c.curveList {
			ids = append(ids, cv.TLS())
		}
		cfg.CurvePreferences = ids
	}

	if c.verify.VerifyServerHostname != "" {
		hostname := c.verify.VerifyServerHostname
		cfg.VerifyPeerCertificate = func(certs [][]byte, _ [][]*x509.Certificate) error {
			return verifyHostnameAmong(certs, hostname)
		}
	}

	return cfg
}
