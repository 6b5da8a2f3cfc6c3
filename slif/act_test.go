// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/slif/surgrad"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-6)

func TestStepUpdt(t *testing.T) {
	// constant sub-threshold drive accumulates across steps until the
	// threshold is crossed, then the subtractive reset carries the remainder
	ge := float32(0.5)
	corvmint := []float32{0.5, 0.95, 1.355, 0.8195, 1.23755}
	corspk := []float32{0, 0, 1, 0, 1}
	corvm := []float32{0.5, 0.95, 0.355, 0.8195, 0.23755}

	ac := ActParams{}
	ac.Defaults()

	nrn := &Neuron{}
	ac.InitActs(nrn)
	nrn.Beta = 0.9
	nrn.Thr = 1

	for i := range corvmint {
		nrn.Ge = ge
		ac.VmIntFmGe(nrn)
		ac.SpikeFmVm(nrn, false)
		difc := math32.Abs(nrn.VmInt - corvmint[i])
		if difc > difTol {
			t.Errorf("VmInt err: idx: %v, vmint: %v, cor: %v, dif: %v\n", i, nrn.VmInt, corvmint[i], difc)
		}
		difs := math32.Abs(nrn.Spike - corspk[i])
		if difs > difTol {
			t.Errorf("Spike err: idx: %v, spike: %v, cor: %v, dif: %v\n", i, nrn.Spike, corspk[i], difs)
		}
		difv := math32.Abs(nrn.Vm - corvm[i])
		if difv > difTol {
			t.Errorf("Vm err: idx: %v, vm: %v, cor: %v, dif: %v\n", i, nrn.Vm, corvm[i], difv)
		}
	}
}

func TestResetTypes(t *testing.T) {
	// the reset rule only governs the carried potential -- the spike itself
	// is identical across the three types
	tests := []struct {
		reset  ResetTypes
		vmint  float32
		corspk float32
		corvm  float32
	}{
		{SubReset, 1.5, 1, 0.5},
		{ZeroReset, 1.5, 1, 0},
		{NoReset, 1.5, 1, 1.5},
		{SubReset, 0.75, 0, 0.75},
		{ZeroReset, 0.75, 0, 0.75},
		{NoReset, 0.75, 0, 0.75},
	}
	for _, ts := range tests {
		ac := ActParams{}
		ac.Defaults()
		ac.Reset = ts.reset
		nrn := &Neuron{}
		ac.InitActs(nrn)
		nrn.Thr = 1
		nrn.VmInt = ts.vmint
		ac.SpikeFmVm(nrn, false)
		if math32.Abs(nrn.Spike-ts.corspk) > difTol {
			t.Errorf("%v spike err: vmint: %v, spike: %v, cor: %v\n", ts.reset, ts.vmint, nrn.Spike, ts.corspk)
		}
		if math32.Abs(nrn.Vm-ts.corvm) > difTol {
			t.Errorf("%v vm err: vmint: %v, vm: %v, cor: %v\n", ts.reset, ts.vmint, nrn.Vm, ts.corvm)
		}
	}
}

func TestSurrSpike(t *testing.T) {
	// in training mode the spike is the smooth surrogate value, and the
	// reset is correspondingly partial: exactly at threshold the sigmoid
	// gives 0.5 regardless of gain
	ac := ActParams{}
	ac.Defaults()
	nrn := &Neuron{}
	ac.InitActs(nrn)
	nrn.Thr = 1
	nrn.VmInt = 1
	ac.SpikeFmVm(nrn, true)
	CmprFloats([]float32{nrn.Spike, nrn.Vm}, []float32{0.5, 0.5}, "surr spike sub reset", t)

	ac.Reset = ZeroReset
	nrn.VmInt = 1
	ac.SpikeFmVm(nrn, true)
	CmprFloats([]float32{nrn.Spike, nrn.Vm}, []float32{0.5, 0.5}, "surr spike zero reset", t)

	ac.Reset = NoReset
	nrn.VmInt = 1
	ac.SpikeFmVm(nrn, true)
	CmprFloats([]float32{nrn.Spike, nrn.Vm}, []float32{0.5, 1}, "surr spike no reset", t)

	// test mode at threshold is a full discrete spike
	ac.Reset = SubReset
	nrn.VmInt = 1
	ac.SpikeFmVm(nrn, false)
	CmprFloats([]float32{nrn.Spike, nrn.Vm}, []float32{1, 0}, "hard spike at thr", t)
}

func TestZeroInput(t *testing.T) {
	// with no input and zero initial potential the cell stays silent forever
	ac := ActParams{}
	ac.Defaults()
	nrn := &Neuron{}
	ac.InitActs(nrn)
	nrn.Beta = 0.9
	nrn.Thr = 1
	for i := 0; i < 10; i++ {
		nrn.Ge = 0
		ac.VmIntFmGe(nrn)
		ac.SpikeFmVm(nrn, false)
		if nrn.Spike != 0 || nrn.Vm != 0 || nrn.VmInt != 0 {
			t.Errorf("zero input err: idx: %v, spike: %v, vm: %v, vmint: %v\n", i, nrn.Spike, nrn.Vm, nrn.VmInt)
		}
	}
}

func TestNoResetDecay(t *testing.T) {
	// a non-resetting cell is a pure leaky integrator: a single impulse
	// decays geometrically by Beta per step, unaffected by the spikes
	ac := ActParams{}
	ac.Defaults()
	ac.Reset = NoReset
	nrn := &Neuron{}
	ac.InitActs(nrn)
	nrn.Beta = 0.5
	nrn.Thr = 1

	ges := []float32{2, 0, 0}
	corvm := []float32{2, 1, 0.5}
	corspk := []float32{1, 1, 0}
	for i := range ges {
		nrn.Ge = ges[i]
		ac.VmIntFmGe(nrn)
		ac.SpikeFmVm(nrn, false)
		if math32.Abs(nrn.Vm-corvm[i]) > difTol {
			t.Errorf("vm err: idx: %v, vm: %v, cor: %v\n", i, nrn.Vm, corvm[i])
		}
		if math32.Abs(nrn.Spike-corspk[i]) > difTol {
			t.Errorf("spike err: idx: %v, spike: %v, cor: %v\n", i, nrn.Spike, corspk[i])
		}
	}
}

func TestSurrGainSel(t *testing.T) {
	// layer-level surrogate selection: changing Fun changes the training
	// spike but never the hard test spike
	ac := ActParams{}
	ac.Defaults()
	ac.Surr.Fun = surgrad.ATan
	ac.Update()
	nrn := &Neuron{}
	ac.InitActs(nrn)
	nrn.Thr = 1
	nrn.VmInt = 1
	ac.SpikeFmVm(nrn, true)
	CmprFloats([]float32{nrn.Spike}, []float32{0.5}, "atan at thr", t)
	nrn.VmInt = 1
	ac.SpikeFmVm(nrn, false)
	CmprFloats([]float32{nrn.Spike}, []float32{1}, "hard unaffected by fun", t)
}

func TestEnumFmString(t *testing.T) {
	// params sheets select enum values by name, so the string round trip
	// must be exact and unknown names must error
	var rt ResetTypes
	for i := SubReset; i < ResetTypesN; i++ {
		if err := rt.FromString(i.String()); err != nil {
			t.Error(err)
		}
		if rt != i {
			t.Errorf("reset round trip err: %v != %v\n", rt, i)
		}
	}
	if err := rt.FromString("HalfReset"); err == nil {
		t.Errorf("reset err: invalid name did not error\n")
	}
	var ot OptTypes
	if err := ot.FromString("Adam"); err != nil {
		t.Error(err)
	}
	if ot != Adam {
		t.Errorf("opt name err: %v != Adam\n", ot)
	}
	var fn surgrad.Funcs
	if err := fn.FromString("ATan"); err != nil {
		t.Error(err)
	}
	if fn != surgrad.ATan {
		t.Errorf("fun name err: %v != ATan\n", fn)
	}
}
