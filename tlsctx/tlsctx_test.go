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

package tlsctx_test

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/corenet/tlsctx"
	tlsaut "github.com/nabbar/corenet/tlsctx/auth"
	tlsvrs "github.com/nabbar/corenet/tlsctx/tlsversion"
)

// encodeCredentialPEM re-encodes an EC credential's key and leaf
// certificate as PEM, mirroring how a caller would have sourced them
// from disk before handing them to LoadCredential.
func encodeCredentialPEM(cred tlsctx.Credential) (keyPEM, certPEM []byte) {
	leaf := cred.Leaf()
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leaf.Raw})

	key, ok := cred.PrivateKey().(*ecdsa.PrivateKey)
	Expect(ok).To(BeTrue())
	der, err := x509.MarshalECPrivateKey(key)
	Expect(err).ToNot(HaveOccurred())
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return keyPEM, certPEM
}

// fakeExporter stubs (*tls.Conn).ExportKeyingMaterial with a
// deterministic byte stream so SRTP key-slicing can be tested without a
// live handshake.
type fakeExporter struct{}

func (fakeExporter) ExportKeyingMaterial(label string, context []byte, length int) ([]byte, error) {
	Expect(label).To(Equal("EXTRACTOR-dtls_srtp"))
	out := make([]byte, length)
	for i := range out {
		out[i] = byte(i)
	}
	return out, nil
}

var _ = Describe("Credential", func() {
	It("generates a self-signed EC credential usable to Build a tls.Config", func() {
		ctx := tlsctx.New()
		err := ctx.GenerateSelfSigned(tlsctx.SelfSignOption{
			CommonName: "corenet-test",
			DNSNames:   []string{"corenet.test"},
		})
		Expect(err).ToNot(HaveOccurred())

		cred, ok := ctx.GetCredential()
		Expect(ok).To(BeTrue())
		leaf := cred.Leaf()
		Expect(leaf).ToNot(BeNil())
		Expect(leaf.Subject.CommonName).To(Equal("corenet-test"))
		Expect(leaf.Issuer.CommonName).To(Equal("corenet-test"))
		Expect(leaf.DNSNames).To(ContainElement("corenet.test"))
		Expect(leaf.SerialNumber.BitLen()).To(BeNumerically("<=", 32))

		now := time.Now()
		Expect(leaf.NotBefore).To(BeTemporally("<", now))
		Expect(leaf.NotAfter).To(BeTemporally(">", now.AddDate(9, 0, 0)))

		cfg := ctx.Build("corenet.test")
		Expect(cfg.Certificates).To(HaveLen(1))
		Expect(cfg.MinVersion).To(Equal(uint16(tls.VersionTLS12)))
		Expect(cfg.MaxVersion).To(Equal(uint16(tls.VersionTLS13)))
	})

	It("generates an RSA credential when requested", func() {
		ctx := tlsctx.New()
		err := ctx.GenerateSelfSigned(tlsctx.SelfSignOption{
			CommonName: "corenet-rsa",
			KeyType:    tlsctx.SelfSignKeyRSA,
		})
		Expect(err).ToNot(HaveOccurred())

		cred, ok := ctx.GetCredential()
		Expect(ok).To(BeTrue())
		Expect(cred.Leaf().PublicKeyAlgorithm.String()).To(Equal("RSA"))
	})

	It("round-trips a PEM key/cert pair through LoadCredential", func() {
		src := tlsctx.New()
		Expect(src.GenerateSelfSigned(tlsctx.SelfSignOption{CommonName: "corenet-roundtrip"})).To(Succeed())
		cred, _ := src.GetCredential()

		keyPEM, certPEM := encodeCredentialPEM(cred)
		loaded, err := tlsctx.LoadCredential(keyPEM, certPEM)
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.Leaf().Subject.CommonName).To(Equal("corenet-roundtrip"))
	})
})

var _ = Describe("Context defaults and policy", func() {
	It("starts with TLS 1.2/1.3 bounds and no client cert requirement", func() {
		ctx := tlsctx.New()
		min, max := ctx.GetVersionBounds()
		Expect(min).To(Equal(tlsvrs.VersionTLS12))
		Expect(max).To(Equal(tlsvrs.VersionTLS13))
		Expect(ctx.GetVerifyPolicy().ClientAuth).To(Equal(tlsaut.NoClientCert))
	})

	It("provides a session cache by default and with WithSessionCacheSize", func() {
		ctx := tlsctx.New()
		Expect(ctx.SessionCache()).ToNot(BeNil())

		sized := tlsctx.New(tlsctx.WithSessionCacheSize(10))
		ctx2 := sized
		Expect(ctx2.SessionCache()).ToNot(BeNil())
	})
})

var _ = Describe("Fingerprint", func() {
	It("returns ErrorBufferTooSmall when dst is undersized", func() {
		ctx := tlsctx.New()
		Expect(ctx.GenerateSelfSigned(tlsctx.SelfSignOption{CommonName: "fp-test"})).To(Succeed())
		cred, _ := ctx.GetCredential()

		small := make([]byte, 4)
		_, err := tlsctx.Fingerprint(cred.Leaf(), tlsctx.FingerprintSHA256, small)
		Expect(err).To(HaveOccurred())

		big := make([]byte, 32)
		n, err := tlsctx.Fingerprint(cred.Leaf(), tlsctx.FingerprintSHA256, big)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(32))
	})
})

var _ = Describe("ExportSRTPKeys", func() {
	It("splits exported keying material per profile key/salt sizes", func() {
		km, err := tlsctx.ExportSRTPKeys(fakeExporter{}, tlsctx.SRTPProfileAEADAES128GCM)
		Expect(err).ToNot(HaveOccurred())
		Expect(km.ClientKey).To(HaveLen(16))
		Expect(km.ServerKey).To(HaveLen(16))
		Expect(km.ClientSalt).To(HaveLen(12))
		Expect(km.ServerSalt).To(HaveLen(12))

		km2, err := tlsctx.ExportSRTPKeys(fakeExporter{}, tlsctx.SRTPProfileAES128CMSHA1_80)
		Expect(err).ToNot(HaveOccurred())
		Expect(km2.ClientKey).To(HaveLen(16))
		Expect(km2.ClientSalt).To(HaveLen(14))

		km3, err := tlsctx.ExportSRTPKeys(fakeExporter{}, tlsctx.SRTPProfileAEADAES256GCM)
		Expect(err).ToNot(HaveOccurred())
		Expect(km3.ClientKey).To(HaveLen(32))
	})
})

var _ = Describe("TrustStore", func() {
	It("has no root or client pool before any CA is added", func() {
		ts := tlsctx.NewTrustStore()
		Expect(ts.RootPool()).To(BeNil())
		Expect(ts.ClientPool()).To(BeNil())
	})
})

var _ = Describe("Clone", func() {
	It("snapshots credential and policy but shares the trust store and session cache", func() {
		ctx := tlsctx.New()
		Expect(ctx.GenerateSelfSigned(tlsctx.SelfSignOption{CommonName: "clone-test"})).To(Succeed())
		ctx.SetVerifyPolicy(tlsctx.VerifyPolicy{VerifyServerHostname: "original.test"})

		clone := ctx.Clone()
		clone.SetVerifyPolicy(tlsctx.VerifyPolicy{VerifyServerHostname: "clone.test"})

		Expect(ctx.GetVerifyPolicy().VerifyServerHostname).To(Equal("original.test"))
		Expect(clone.GetVerifyPolicy().VerifyServerHostname).To(Equal("clone.test"))

		cloneCred, ok := clone.GetCredential()
		Expect(ok).To(BeTrue())
		Expect(cloneCred.Leaf().Subject.CommonName).To(Equal("clone-test"))

		Expect(ctx.GetTrustStore()).To(BeIdenticalTo(clone.GetTrustStore()))
		Expect(ctx.SessionCache()).To(BeIdenticalTo(clone.SessionCache()))
	})
})

var _ = Describe("InspectPeer", func() {
	It("renders RFC 2253 subject/issuer strings for a self-signed leaf", func() {
		ctx := tlsctx.New()
		Expect(ctx.GenerateSelfSigned(tlsctx.SelfSignOption{CommonName: "peer-test"})).To(Succeed())
		cred, _ := ctx.GetCredential()

		info := tlsctx.InspectPeer(cred.Leaf())
		Expect(info.Subject).To(ContainSubstring("CN=peer-test"))
		Expect(info.Issuer).To(ContainSubstring("CN=peer-test"))
	})
})
