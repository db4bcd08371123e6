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
	"fmt"
	"strings"

	tlsaut "github.com/nabbar/corenet/tlsctx/auth"
)

// VerifyPolicy bundles the verification knobs: whether the peer must
// present a certificate (ClientAuth), an optional hostname to match
// against the peer's SANs, and whether default verification is skipped
// (InsecureSkipVerify). It has no certificate-purpose setting.
type VerifyPolicy struct {
	ClientAuth           tlsaut.ClientAuth
	VerifyServerHostname string
	InsecureSkipVerify   bool
}

// PeerInfo is a rendering of a verified peer certificate's identity,
// using RFC 2253 distinguished-name string form for Issuer/Subject, per
// spec.md §4.6's peer inspection requirement.
type PeerInfo struct {
	Subject   string
	Issuer    string
	NotBefore string
	NotAfter  string
	DNSNames  []string
	SerialHex string
}

// InspectPeer renders cert's identity fields for logging/diagnostics.
func InspectPeer(cert *x509.Certificate) PeerInfo {
	return PeerInfo{
		Subject:   rfc2253(cert.Subject),
		Issuer:    rfc2253(cert.Issuer),
		NotBefore: cert.NotBefore.UTC().Format("2006-01-02T15:04:05Z"),
		NotAfter:  cert.NotAfter.UTC().Format("2006-01-02T15:04:05Z"),
		DNSNames:  cert.DNSNames,
		SerialHex: fmt.Sprintf("%x", cert.SerialNumber),
	}
}

// rfc2253 renders a pkix.Name in RFC 2253 order (most specific first),
// which crypto/x509/pkix.Name.String() already implements; this wrapper
// exists so the ordering choice is documented at the call site instead
// of relying on stdlib behavior implicitly.
func rfc2253(n pkix.Name) string {
	return n.String()
}

func verifyHostnameAmong(rawCerts [][]byte, hostname string) error {
	if len(rawCerts) == 0 {
		return ErrorPeerNotVerified.Error(nil)
	}
	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return err
	}
	if err := cert.VerifyHostname(hostname); err != nil {
		return ErrorPeerNotVerified.Error(err)
	}
	return nil
}

// MatchesAnyName reports whether hostname matches cert's CN or any SAN,
// case-insensitively, without the wildcard expansion x509.VerifyHostname
// already performs - used by callers that only have a bare certificate
// and no chain to run through tls.Config.VerifyPeerCertificate.
func MatchesAnyName(cert *x509.Certificate, hostname string) bool {
	hostname = strings.ToLower(hostname)
	if strings.ToLower(cert.Subject.CommonName) == hostname {
		return true
	}
	for _, n := range cert.DNSNames {
		if strings.ToLower(n) == hostname {
			return true
		}
	}
	return false
}
