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

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) Logger {
	return &logger{h: slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

func TestNewAppendsContext(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf).New("component", "engine")
	l.Info("started", "gas", 100)

	out := buf.String()
	if !strings.Contains(out, "component=engine") {
		t.Errorf("output %q missing bound context", out)
	}
	if !strings.Contains(out, "gas=100") {
		t.Errorf("output %q missing call-site context", out)
	}
}

func TestLevelsFilter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	l := &logger{h: slog.New(handler)}
	l.Debug("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected debug line filtered out, got %q", buf.String())
	}
	l.Warn("should appear")
	if buf.Len() == 0 {
		t.Fatal("expected warn line to appear")
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	l := NewDiscard()
	l.Error("nobody should see this")
}
