// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package config loads the shell's tunable limits from a TOML document,
// the way a go-ethereum-style node loads its configuration: a
// defaults-first struct overridden by an optional file, decoded with
// naoina/toml so struct field names double as the TOML keys verbatim.
package config

import (
	"bufio"
	"errors"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// tomlSettings keeps field and key names identical, and treats an
// unknown field as a hard error rather than silently ignoring it.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
}

// Limits carries DV codec bounds, the host-call audit tape capacity and a
// gas limit. Default() supplies this package's own defaults so a caller
// never needs a config file: MaxArrayLen and MaxMapLen equal
// dv.DefaultLimits(), while MaxDepth, MaxStringBytes and MaxEncodedBytes
// are larger than the codec's (64, 16 MiB and 64 MiB against 32, 4 MiB
// and 16 MiB). HostTapeCap equals the engine's defaultTapeCapacity.
type Limits struct {
	MaxDepth        int    `toml:",omitempty"`
	MaxArrayLen     int    `toml:",omitempty"`
	MaxMapLen       int    `toml:",omitempty"`
	MaxStringBytes  int    `toml:",omitempty"`
	MaxEncodedBytes int    `toml:",omitempty"`
	HostTapeCap     int    `toml:",omitempty"`
	GasLimit        uint64 `toml:",omitempty"`
}

// Default returns this package's default limits (see Limits).
func Default() Limits {
	return Limits{
		MaxDepth:        64,
		MaxArrayLen:     1 << 20,
		MaxMapLen:       1 << 16,
		MaxStringBytes:  1 << 24,
		MaxEncodedBytes: 1 << 26,
		HostTapeCap:     4096,
		GasLimit:        ^uint64(0),
	}
}

// Load reads a TOML document at path, overriding Default()'s fields.
// A missing file is an error; an empty file leaves every field at its
// default.
func Load(path string) (Limits, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return Limits{}, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		var lineErr *toml.LineError
		if errors.As(err, &lineErr) {
			return Limits{}, errors.New(path + ", " + err.Error())
		}
		return Limits{}, err
	}
	return cfg, nil
}
