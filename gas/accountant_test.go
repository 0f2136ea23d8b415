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

package gas

import "testing"

func TestUseOpcodeChargesAndTracks(t *testing.T) {
	a := New(100)
	a.EnableTrace(true)
	if err := a.UseOpcode(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Used() != 5 {
		t.Fatalf("used = %d, want 5", a.Used())
	}
	if a.Trace().OpcodeGas != 5 || a.Trace().OpcodeCount != 5 {
		t.Fatalf("trace mismatch: %+v", a.Trace())
	}
}

func TestUseOpcodeOutOfGasIsSticky(t *testing.T) {
	a := New(3)
	if err := a.UseOpcode(4); err != ErrOutOfGas {
		t.Fatalf("err = %v, want ErrOutOfGas", err)
	}
	if a.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", a.Remaining())
	}
	if a.Used() != 3 {
		t.Fatalf("used = %d, want 3 (pinned to limit)", a.Used())
	}
}

func TestUnlimitedNeverCharges(t *testing.T) {
	a := New(Unlimited)
	for i := 0; i < 1000; i++ {
		if err := a.UseOpcode(1000000); err != nil {
			t.Fatalf("unexpected error under Unlimited: %v", err)
		}
	}
	if a.Used() != 0 {
		t.Fatalf("used = %d, want 0 under Unlimited", a.Used())
	}
	if a.Remaining() != Unlimited {
		t.Fatalf("remaining = %d, want Unlimited", a.Remaining())
	}
}

func TestAllocCostFormula(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint64
	}{
		{0, 3},
		{1, 4},
		{16, 4},
		{17, 5},
		{32, 5},
	}
	for _, c := range cases {
		if got := AllocCost(c.n); got != c.want {
			t.Errorf("AllocCost(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestUseAllocTriggersGCCheckpoint(t *testing.T) {
	a := New(Unlimited)
	if a.CheckpointGC() {
		t.Fatalf("checkpoint pending before any allocation")
	}
	if err := a.UseAlloc(512 * 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.CheckpointGC() {
		t.Fatalf("expected checkpoint pending after crossing 512KiB")
	}
	if a.CheckpointGC() {
		t.Fatalf("checkpoint flag must clear after being read")
	}
}

func TestArrayCallbackCharges(t *testing.T) {
	a := New(Unlimited)
	a.EnableTrace(true)
	if err := a.UseArrayCallbackEntry(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := a.UseArrayCallbackStep(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	tr := a.Trace()
	if tr.ArrayCbBaseGas != ArrayCallbackBase {
		t.Errorf("base gas = %d, want %d", tr.ArrayCbBaseGas, ArrayCallbackBase)
	}
	if tr.ArrayCbPerElementGas != 3*ArrayCallbackStep {
		t.Errorf("step gas = %d, want %d", tr.ArrayCbPerElementGas, 3*ArrayCallbackStep)
	}
}

func TestPreChargeFormula(t *testing.T) {
	a := New(1000)
	charged, err := a.PreCharge(10, 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint64(10 + 2*5); charged != want {
		t.Errorf("charged = %d, want %d", charged, want)
	}
}

func TestPreChargeOverflowIsCatchable(t *testing.T) {
	a := New(Unlimited)
	_, err := a.PreCharge(0, ^uint32(0), ^uint64(0))
	if err != ErrOverflow {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
	if a.Used() != 0 {
		t.Fatalf("overflow must not mutate budget, used = %d", a.Used())
	}
}

func TestPostChargeFormula(t *testing.T) {
	a := New(1000)
	charged, err := a.PostCharge(3, 4, 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint64(3*10 + 4*2); charged != want {
		t.Errorf("charged = %d, want %d", charged, want)
	}
}

func TestTraceHostGasDerivation(t *testing.T) {
	a := New(1000)
	a.EnableTrace(true)
	if err := a.UseOpcode(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.UseAlloc(16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// simulate an unattributed host charge
	if err := a.use(50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	host := a.Trace().HostGas(a.Used())
	if host != 50 {
		t.Errorf("derived host gas = %d, want 50", host)
	}
}
