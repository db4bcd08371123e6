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
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"

	tlscas "github.com/nabbar/corenet/tlsctx/ca"
)

// TrustStore holds the root and client CA pools plus any loaded CRLs,
// per spec.md §4.6. Root CAs verify servers; client CAs verify clients
// under RequireAndVerifyClientCert and similar auth.ClientAuth modes.
type TrustStore struct {
	mu sync.RWMutex

	root []tlscas.Cert
	clnt []tlscas.Cert
	crls []*x509.RevocationList
}

func NewTrustStore() *TrustStore {
	return &TrustStore{}
}

func (t *TrustStore) AddRootCA(c tlscas.Cert) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = append(t.root, c)
}

func (t *TrustStore) AddClientCA(c tlscas.Cert) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clnt = append(t.clnt, c)
}

// AddCRL loads a DER-encoded certificate revocation list consulted by
// IsRevoked. The *tls.Config that Context.Build renders does not check
// peer certificates against loaded CRLs.
func (t *TrustStore) AddCRL(der []byte) error {
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.crls = append(t.crls, crl)
	return nil
}

func (t *TrustStore) RootPool() *x509.CertPool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.root) == 0 {
		return nil
	}
	pool := x509.NewCertPool()
	for _, c := range t.root {
		c.AppendPool(pool)
	}
	return pool
}

func (t *TrustStore) ClientPool() *x509.CertPool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.clnt) == 0 {
		return nil
	}
	pool := x509.NewCertPool()
	for _, c := range t.clnt {
		c.AppendPool(pool)
	}
	return pool
}

// IsRevoked reports whether serial appears on any loaded CRL whose
// issuer common name equals issuer.CommonName; the other name
// attributes are not compared.
func (t *TrustStore) IsRevoked(serial *big.Int, issuer pkix.Name) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, crl := range t.crls {
		if crl.Issuer.CommonName != issuer.CommonName {
			continue
		}
		for _, rc := range crl.RevokedCertificateEntries {
			if rc.SerialNumber.Cmp(serial) == 0 {
				return true
			}
		}
	}
	return false
}
