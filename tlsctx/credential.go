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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	tlscrt "github.com/nabbar/corenet/tlsctx/certs"
)

// Credential is a loaded certificate/private-key pair. Replacing the
// credential on a Context (SetCredential) frees the prior pair; nothing
// in this package keeps a reference to it afterward.
type Credential struct {
	leaf *x509.Certificate
	pair tls.Certificate
}

func (c Credential) validate() error {
	if len(c.pair.Certificate) == 0 || c.pair.PrivateKey == nil {
		return ErrorNoCredential.Error(nil)
	}
	return nil
}

func (c Credential) tlsCertificate() tls.Certificate {
	return c.pair
}

// Leaf returns the parsed leaf certificate of this credential.
func (c Credential) Leaf() *x509.Certificate {
	return c.leaf
}

// PrivateKey returns the credential's private key, as stored by
// crypto/tls.Certificate.PrivateKey (an *ecdsa.PrivateKey or
// *rsa.PrivateKey depending on how the credential was created).
func (c Credential) PrivateKey() interface{} {
	return c.pair.PrivateKey
}

// LoadCredential builds a Credential from a PEM-encoded private key and
// certificate, via the certs subpackage so the same chain/pair parsing
// used for configuration-file-sourced certificates backs programmatic
// loading too.
func LoadCredential(keyPEM, certPEM []byte) (Credential, error) {
	c, err := tlscrt.ParsePair(string(keyPEM), string(certPEM))
	if err != nil {
		return Credential{}, err
	}

	pair := c.TLS()
	leaf := pair.Leaf
	if leaf == nil && len(pair.Certificate) > 0 {
		leaf, err = x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return Credential{}, err
		}
	}
	return Credential{leaf: leaf, pair: pair}, nil
}

// SelfSignKeyType selects the asymmetric key algorithm for
// GenerateSelfSigned, per spec.md §4.6's "RSA or EC" requirement.
type SelfSignKeyType uint8

const (
	SelfSignKeyEC SelfSignKeyType = iota
	SelfSignKeyRSA
)

// SelfSignOption configures GenerateSelfSigned. CommonName is used as
// both issuer and subject CN, per spec.md §4.6. Zero-value RSABits
// defaults to 2048.
type SelfSignOption struct {
	CommonName string
	DNSNames   []string
	KeyType    SelfSignKeyType
	RSABits    int
}

// GenerateSelfSigned creates and installs a self-signed credential: a
// 32-bit random serial number, validity from one year before to ten
// years after the current time, CN = Issuer = Subject = opt.CommonName,
// and a SHA-256 signature - grounded on the teacher's
// httpserver/testhelpers GenerateTempCert helper, generalized to cover
// both EC and RSA keys and the spec's wider validity window.
func (c *ctx) GenerateSelfSigned(opt SelfSignOption) error {
	serialLimit := new(big.Int).Lsh(big.NewInt(1), 32)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: opt.CommonName,
		},
		Issuer: pkix.Name{
			CommonName: opt.CommonName,
		},
		NotBefore:             now.AddDate(-1, 0, 0),
		NotAfter:              now.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              opt.DNSNames,
		SignatureAlgorithm:    x509.SHA256WithRSA,
	}

	var (
		der []byte
		pk  interface{}
	)

	switch opt.KeyType {
	case SelfSignKeyRSA:
		bits := opt.RSABits
		if bits == 0 {
			bits = 2048
		}
		key, e := rsa.GenerateKey(rand.Reader, bits)
		if e != nil {
			return e
		}
		der, e = x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
		if e != nil {
			return e
		}
		pk = key
	default:
		template.SignatureAlgorithm = x509.ECDSAWithSHA256
		key, e := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if e != nil {
			return e
		}
		der, e = x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
		if e != nil {
			return e
		}
		pk = key
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return err
	}

	cred := Credential{
		leaf: leaf,
		pair: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  pk,
			Leaf:        leaf,
		},
	}

	return c.SetCredential(cred)
}
