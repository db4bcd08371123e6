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

// Package config provides the viper/validator-facing configuration DTOs
// for the reactor and tlsctx packages, in the teacher's
// certificates.Config idiom: mapstructure/json/yaml/toml tagged
// structs, a validator.v10-backed Validate, and a New constructor
// that turns the DTO into the live object.
package config

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/corenet/tlsctx"
	tlsaut "github.com/nabbar/corenet/tlsctx/auth"
	tlscas "github.com/nabbar/corenet/tlsctx/ca"
	tlscpr "github.com/nabbar/corenet/tlsctx/cipher"
	tlscrv "github.com/nabbar/corenet/tlsctx/curves"
	tlsvrs "github.com/nabbar/corenet/tlsctx/tlsversion"
)

// TLSConfig is the DTO form of a tlsctx.Context: a certificate pair, CA
// trust anchors, cipher/curve/version bounds and verification policy,
// following the field layout of the teacher's certificates.Config.
type TLSConfig struct {
	KeyPEM               string            `mapstructure:"keyPEM" json:"keyPEM" yaml:"keyPEM" toml:"keyPEM"`
	CertPEM              string            `mapstructure:"certPEM" json:"certPEM" yaml:"certPEM" toml:"certPEM"`
	RootCA               []tlscas.Cert     `mapstructure:"rootCA" json:"rootCA" yaml:"rootCA" toml:"rootCA"`
	ClientCA             []tlscas.Cert     `mapstructure:"clientCA" json:"clientCA" yaml:"clientCA" toml:"clientCA"`
	CipherList           []tlscpr.Cipher   `mapstructure:"cipherList" json:"cipherList" yaml:"cipherList" toml:"cipherList"`
	CurveList            []tlscrv.Curves   `mapstructure:"curveList" json:"curveList" yaml:"curveList" toml:"curveList"`
	VersionMin           tlsvrs.Version    `mapstructure:"versionMin" json:"versionMin" yaml:"versionMin" toml:"versionMin"`
	VersionMax           tlsvrs.Version    `mapstructure:"versionMax" json:"versionMax" yaml:"versionMax" toml:"versionMax"`
	ClientAuth           tlsaut.ClientAuth `mapstructure:"clientAuth" json:"clientAuth" yaml:"clientAuth" toml:"clientAuth"`
	VerifyServerHostname string            `mapstructure:"verifyServerHostname" json:"verifyServerHostname" yaml:"verifyServerHostname" toml:"verifyServerHostname"`
	InsecureSkipVerify   bool              `mapstructure:"insecureSkipVerify" json:"insecureSkipVerify" yaml:"insecureSkipVerify" toml:"insecureSkipVerify"`
	SessionCacheSize     int               `mapstructure:"sessionCacheSize" json:"sessionCacheSize" yaml:"sessionCacheSize" toml:"sessionCacheSize" validate:"omitempty,min=1"`
	RequireCredential    bool              `mapstructure:"requireCredential" json:"requireCredential" yaml:"requireCredential" toml:"requireCredential"`
}

func (c *TLSConfig) Validate() error {
	if er := libval.New().Struct(c); er != nil {
		err := ErrorValidation.Error(nil)
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
			return err
		}
		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("field '%s' fails constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
		return err
	}
	if c.RequireCredential && (c.KeyPEM == "" || c.CertPEM == "") {
		return ErrorNoCredential.Error(nil)
	}
	return nil
}

// New renders this DTO into a live tlsctx.Context, mirroring the
// teacher's Config.New()/NewFrom(nil) two-step: build the defaults via
// tlsctx.New(), then layer every non-zero field from c on top.
func (c *TLSConfig) New() (tlsctx.Context, error) {
	var opts []tlsctx.Option
	if c.SessionCacheSize > 0 {
		opts = append(opts, tlsctx.WithSessionCacheSize(c.SessionCacheSize))
	}
	ctx := tlsctx.New(opts...)

	if c.KeyPEM != "" && c.CertPEM != "" {
		cred, err := tlsctx.LoadCredential([]byte(c.KeyPEM), []byte(c.CertPEM))
		if err != nil {
			return nil, err
		}
		if err = ctx.SetCredential(cred); err != nil {
			return nil, err
		}
	} else if c.RequireCredential {
		return nil, ErrorNoCredential.Error(nil)
	}

	trust := tlsctx.NewTrustStore()
	for _, ca := range c.RootCA {
		trust.AddRootCA(ca)
	}
	for _, ca := range c.ClientCA {
		trust.AddClientCA(ca)
	}
	ctx.SetTrustStore(trust)

	if len(c.CipherList) > 0 {
		ctx.SetCipherList(c.CipherList)
	}
	if len(c.CurveList) > 0 {
		ctx.SetCurveList(c.CurveList)
	}

	min, max := ctx.GetVersionBounds()
	if c.VersionMin != tlsvrs.VersionUnknown {
		min = c.VersionMin
	}
	if c.VersionMax != tlsvrs.VersionUnknown {
		max = c.VersionMax
	}
	ctx.SetVersionBounds(min, max)

	ctx.SetVerifyPolicy(tlsctx.VerifyPolicy{
		ClientAuth:           c.ClientAuth,
		VerifyServerHostname: c.VerifyServerHostname,
		InsecureSkipVerify:   c.InsecureSkipVerify,
	})

	return ctx, nil
}
