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
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Root bundles the two DTOs a process wiring a reactor and a TLS
// context typically loads from the same file, under "reactor" and
// "tls" top-level keys.
type Root struct {
	Reactor ReactorConfig `mapstructure:"reactor"`
	TLS     TLSConfig     `mapstructure:"tls"`
}

// Load reads path through viper (any format viper recognizes by
// extension: yaml, json, toml, ...) and unmarshals it onto Root's
// mapstructure tags, the same viper.Unmarshal idiom the teacher's own
// component configs use.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decodeAndValidate(v)
}

// Watch reads path once and then re-reads it on every change viper's
// fsnotify-backed watcher observes, invoking onChange with the freshly
// decoded and validated Root (or the error that prevented it), mirroring
// the teacher's config component lifecycle (config/manage.go) where a
// running component picks up an edited file without a restart.
func Watch(path string, onChange func(*Root, error)) (*Root, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	r, err := decodeAndValidate(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		onChange(decodeAndValidate(v))
	})
	v.WatchConfig()

	return r, nil
}

func decodeAndValidate(v *viper.Viper) (*Root, error) {
	r := &Root{}
	if err := v.Unmarshal(r); err != nil {
		return nil, err
	}

	if err := r.Reactor.Validate(); err != nil {
		return nil, err
	}
	if err := r.TLS.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}
