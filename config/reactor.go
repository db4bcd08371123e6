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

package config

import (
	"fmt"
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/corenet/logging"
	"github.com/nabbar/corenet/reactor"
	"github.com/nabbar/corenet/reactor/backend"
)

// ReactorConfig is the viper/validator-facing DTO for a Reactor, mapping
// spec.md §4.1's tunables (preferred backend method, descriptor cap,
// record-reuse policy, blocking-budget advisory) onto struct tags the
// teacher's own component configs use (mapstructure for viper, plus
// json/yaml/toml for direct unmarshal).
type ReactorConfig struct {
	Method          string `mapstructure:"method" json:"method" yaml:"method" toml:"method" validate:"omitempty,oneof=select poll epoll kqueue"`
	MaxFds          int    `mapstructure:"maxFds" json:"maxFds" yaml:"maxFds" toml:"maxFds" validate:"omitempty,min=1"`
	ReuseRecords    bool   `mapstructure:"reuseRecords" json:"reuseRecords" yaml:"reuseRecords" toml:"reuseRecords"`
	BlockWarnMillis int    `mapstructure:"blockWarnMillis" json:"blockWarnMillis" yaml:"blockWarnMillis" toml:"blockWarnMillis" validate:"omitempty,min=1"`
}

// Validate runs go-playground/validator struct tag checks, returning a
// rerr.Error carrying one parent per failed field - the same shape the
// teacher's certificates.Config.Validate uses.
func (c *ReactorConfig) Validate() error {
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
	return nil
}

// New builds a Reactor from this config, applying WithLogger only when
// log is non-nil so callers may fall back to logging.Default.
func (c *ReactorConfig) New(log logging.Logger) (reactor.Reactor, error) {
	opts := []reactor.Option{}

	if log != nil {
		opts = append(opts, reactor.WithLogger(log))
	}

	if c.Method != "" {
		m := backend.Parse(c.Method)
		if m == backend.MethodUnset {
			return nil, ErrorUnknownMethod.Error(nil)
		}
		opts = append(opts, reactor.WithMethod(m))
	}

	if c.MaxFds > 0 {
		opts = append(opts, reactor.WithMaxFds(c.MaxFds))
	}

	if c.BlockWarnMillis > 0 {
		opts = append(opts, reactor.WithBlockWarn(time.Duration(c.BlockWarnMillis)*time.Millisecond))
	}

	r, err := reactor.New(opts...)
	if err != nil {
		return nil, err
	}

	if c.ReuseRecords {
		r.SetReuseRecords(true)
	}

	return r, nil
}
