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

// SRTPProfile identifies a DTLS-SRTP protection profile (RFC 5764),
// each with its own key and salt sizes per spec.md §4.6.
type SRTPProfile uint16

const (
	SRTPProfileAES128CMSHA1_80 SRTPProfile = iota
	SRTPProfileAES128CMSHA1_32
	SRTPProfileAEADAES128GCM
	SRTPProfileAEADAES256GCM
)

const srtpLabel = "EXTRACTOR-dtls_srtp"

// keySize, saltSize returns the cipher key and salt lengths for p, or
// an error if p is not one of the recognized profiles.
func (p SRTPProfile) keySize() (int, error) {
	switch p {
	case SRTPProfileAES128CMSHA1_80, SRTPProfileAES128CMSHA1_32:
		return 16, nil
	case SRTPProfileAEADAES128GCM:
		return 16, nil
	case SRTPProfileAEADAES256GCM:
		return 32, nil
	default:
		return 0, ErrorUnknownProfile.Error(nil)
	}
}

func (p SRTPProfile) saltSize() (int, error) {
	switch p {
	case SRTPProfileAES128CMSHA1_80:
		return 14, nil
	case SRTPProfileAES128CMSHA1_32:
		return 14, nil
	case SRTPProfileAEADAES128GCM, SRTPProfileAEADAES256GCM:
		return 12, nil
	default:
		return 0, ErrorUnknownProfile.Error(nil)
	}
}

// SRTPKeyingMaterial is the four components DTLS-SRTP key derivation
// splits the exported keying material into (RFC 5764 §4.2): client and
// server write keys, then client and server write salts.
type SRTPKeyingMaterial struct {
	ClientKey  []byte
	ServerKey  []byte
	ClientSalt []byte
	ServerSalt []byte
}

// Exporter matches (*tls.Conn).ExportKeyingMaterial's signature, kept
// as a narrow interface so any type with that one method (a *tls.Conn,
// or a stub in tests) can be passed to ExportSRTPKeys.
type Exporter interface {
	ExportKeyingMaterial(label string, context []byte, length int) ([]byte, error)
}

// ExportSRTPKeys derives SRTP session keys for profile from conn's TLS
// exporter, using the "EXTRACTOR-dtls_srtp" label of RFC 5764.
func ExportSRTPKeys(conn Exporter, profile SRTPProfile) (SRTPKeyingMaterial, error) {
	keyLen, err := profile.keySize()
	if err != nil {
		return SRTPKeyingMaterial{}, err
	}
	saltLen, err := profile.saltSize()
	if err != nil {
		return SRTPKeyingMaterial{}, err
	}

	total := 2*keyLen + 2*saltLen
	material, err := conn.ExportKeyingMaterial(srtpLabel, nil, total)
	if err != nil {
		return SRTPKeyingMaterial{}, err
	}

	off := 0
	next := func(n int) []byte {
		b := material[off : off+n]
		off += n
		return b
	}

	return SRTPKeyingMaterial{
		ClientKey:  next(keyLen),
		ServerKey:  next(keyLen),
		ClientSalt: next(saltLen),
		ServerSalt: next(saltLen),
	}, nil
}
