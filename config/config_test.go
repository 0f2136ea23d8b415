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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	d := Default()
	if d.MaxDepth != 64 {
		t.Errorf("MaxDepth = %d, want 64", d.MaxDepth)
	}
	if d.HostTapeCap != 4096 {
		t.Errorf("HostTapeCap = %d, want 4096", d.HostTapeCap)
	}
	if d.GasLimit != ^uint64(0) {
		t.Errorf("GasLimit = %d, want unlimited", d.GasLimit)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "djsvm.toml")
	contents := "MaxDepth = 8\nGasLimit = 100000\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxDepth != 8 {
		t.Errorf("MaxDepth = %d, want 8", cfg.MaxDepth)
	}
	if cfg.GasLimit != 100000 {
		t.Errorf("GasLimit = %d, want 100000", cfg.GasLimit)
	}
	if cfg.HostTapeCap != Default().HostTapeCap {
		t.Errorf("HostTapeCap = %d, want default %d", cfg.HostTapeCap, Default().HostTapeCap)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
