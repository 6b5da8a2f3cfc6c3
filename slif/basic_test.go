// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"bytes"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
	"github.com/emer/slif/surgrad"
)

// MakeTestNet returns the minimal deterministic network: a 1-unit input
// driving a 1-unit target output through a unit weight, with the output
// decay set to 0.5 so trajectories are easy to compute by hand.
func MakeTestNet(t *testing.T) (*Network, *Layer, *Layer, *Prjn) {
	testNet := &Network{}
	testNet.InitName(testNet, "TestNet")
	in := testNet.AddLayer2D("Input", 1, 1, emer.Input).(*Layer)
	out := testNet.AddLayer2D("Output", 1, 1, emer.Target).(*Layer)
	pj := testNet.ConnectLayers(in, out, prjn.NewFull(), emer.Forward).(*Prjn)

	testNet.Defaults()
	out.Act.Init.Beta = 0.5
	pj.WtInit.Mean = 1
	pj.WtInit.Var = 0 // identical weights for reproducibility

	err := testNet.Build()
	if err != nil {
		t.Fatal(err)
	}
	testNet.InitWts()
	return testNet, in, out, pj
}

func CmprFloats(got, trg []float32, msg string, t *testing.T) {
	for i := range got {
		dif := math32.Abs(got[i] - trg[i])
		if dif > difTol { // allow for small numerical diffs
			t.Errorf("%v err: got: %v, trg: %v, dif: %v\n", msg, got[i], trg[i], dif)
		}
	}
}

func TestChainBuild(t *testing.T) {
	net := &Network{}
	net.InitName(net, "ChainNet")
	in, hid, hid2, out := net.AddChain(5)
	net.Defaults()
	err := net.Build()
	if err != nil {
		t.Fatal(err)
	}
	if net.NLayers() != 4 {
		t.Errorf("NLayers: %v != 4", net.NLayers())
	}
	// the Target output keeps its potential as the continuous readout;
	// hidden layers get the standard subtractive reset
	if out.Act.Reset != NoReset {
		t.Errorf("out reset: %v != NoReset", out.Act.Reset)
	}
	if hid.Act.Reset != SubReset || hid2.Act.Reset != SubReset {
		t.Errorf("hid resets: %v, %v != SubReset", hid.Act.Reset, hid2.Act.Reset)
	}
	if !out.IsTarget() || in.IsTarget() {
		t.Errorf("IsTarget: out: %v, in: %v", out.IsTarget(), in.IsTarget())
	}
	if len(hid.Neurons) != 5 || len(hid2.Neurons) != 5 {
		t.Errorf("hidden sizes: %v, %v != 5", len(hid.Neurons), len(hid2.Neurons))
	}
	op, err := out.RecvPrjns().SendNameTry("Hidden2")
	if err != nil {
		t.Fatal(err)
	}
	if op.(*Prjn).Syn1DNum() != 5 {
		t.Errorf("out recv prjn syns: %v != 5", op.(*Prjn).Syn1DNum())
	}
	if in.NSendPrjns() != 1 || in.NRecvPrjns() != 0 {
		t.Errorf("in prjns: snd: %v, rcv: %v", in.NSendPrjns(), in.NRecvPrjns())
	}
}

func TestBuildErrs(t *testing.T) {
	// an out-of-range reset type must fail at build time, not at step time
	net := &Network{}
	net.InitName(net, "BadNet")
	net.AddChain(2)
	net.Defaults()
	hid := net.LayerByName("Hidden").(*Layer)
	hid.Act.Reset = ResetTypesN
	err := net.Build()
	if err == nil {
		t.Errorf("expected build error for invalid reset type")
	}

	// same for the surrogate function selection
	net = &Network{}
	net.InitName(net, "BadNet2")
	net.AddChain(2)
	net.Defaults()
	hid = net.LayerByName("Hidden").(*Layer)
	hid.Act.Surr.Fun = surgrad.FuncsN
	err = net.Build()
	if err == nil {
		t.Errorf("expected build error for invalid surrogate function")
	}

	// a projection from a later layer to an earlier one breaks the
	// same-step forward flow and must be rejected
	net = &Network{}
	net.InitName(net, "BadNet3")
	in := net.AddLayer2D("Input", 1, 1, emer.Input)
	out := net.AddLayer2D("Output", 1, 1, emer.Target)
	net.ConnectLayers(in, out, prjn.NewFull(), emer.Forward)
	net.ConnectLayers(out, in, prjn.NewFull(), emer.Back)
	net.Defaults()
	err = net.Build()
	if err == nil {
		t.Errorf("expected build error for backward projection")
	}
}

func TestRunSeq(t *testing.T) {
	testNet, in, out, _ := MakeTestNet(t)
	ltime := NewTime()

	// single impulse through a unit weight: the output potential is the
	// input decayed by Beta = 0.5 each step, never reset
	outs, err := testNet.RunSeq(ltime, []float32{2, 0, 0}, in, out)
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats(outs, []float32{2, 1, 0.5}, "impulse response", t)

	// output length always matches input length
	outs, err = testNet.RunSeq(ltime, make([]float32, 7), in, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 7 {
		t.Errorf("outs len: %v != 7", len(outs))
	}

	// state is re-initialized per sequence: same input, same output
	outs, err = testNet.RunSeq(ltime, []float32{2, 0, 0}, in, out)
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats(outs, []float32{2, 1, 0.5}, "repeat impulse response", t)
}

func TestRunSeqEmpty(t *testing.T) {
	testNet, in, out, _ := MakeTestNet(t)
	ltime := NewTime()
	outs, err := testNet.RunSeq(ltime, []float32{}, in, out)
	if err != nil {
		t.Errorf("empty sequence should not error: %v", err)
	}
	if len(outs) != 0 {
		t.Errorf("empty sequence outs len: %v != 0", len(outs))
	}
}

func TestSeqErrs(t *testing.T) {
	net := &Network{}
	net.InitName(net, "ErrNet")
	in, hid, _, out := net.AddChain(3)
	net.Defaults()
	err := net.Build()
	if err != nil {
		t.Fatal(err)
	}
	net.InitWts()
	ltime := NewTime()

	// multi-unit layers cannot serve as the scalar in/out endpoints
	_, err = net.RunSeq(ltime, []float32{1}, hid, out)
	if err == nil {
		t.Errorf("expected error for multi-unit in layer")
	}
	_, err = net.RunSeq(ltime, []float32{1}, in, hid)
	if err == nil {
		t.Errorf("expected error for multi-unit out layer")
	}
	_, _, err = net.LearnSeq(ltime, []float32{1, 2}, []float32{1}, in, out)
	if err == nil {
		t.Errorf("expected error for ins/targs length mismatch")
	}
}

func TestUnitVals(t *testing.T) {
	testNet, in, out, _ := MakeTestNet(t)
	ltime := NewTime()
	_, err := testNet.RunSeq(ltime, []float32{2, 0, 0}, in, out)
	if err != nil {
		t.Fatal(err)
	}
	var vals []float32
	err = out.UnitVals(&vals, "Vm")
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats(vals, []float32{0.5}, "out Vm after seq", t)
	err = in.UnitVals(&vals, "Spike")
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats(vals, []float32{0}, "in Spike after seq", t)
	err = out.UnitVals(&vals, "Ge")
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats(vals, []float32{0}, "out Ge after seq", t)

	vi, err := out.UnitVarIdx("Beta")
	if err != nil {
		t.Fatal(err)
	}
	if out.UnitVal1D(vi, 0) != out.Neurons[0].Beta {
		t.Errorf("UnitVal1D Beta: %v != %v", out.UnitVal1D(vi, 0), out.Neurons[0].Beta)
	}
}

func TestWtsJSON(t *testing.T) {
	testNet, _, out, pj := MakeTestNet(t)

	// distinctive values to survive the round trip
	out.Neurons[0].Beta = 0.77
	out.Neurons[0].Thr = 1.25
	out.Neurons[0].Bias = -0.1
	pj.GScale = 0.6
	err := pj.SetSynVal("Wt", 0, 0, 0.33)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	testNet.WriteWtsJSON(&buf)

	net2, _, out2, pj2 := MakeTestNet(t)
	err = net2.ReadWtsJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats([]float32{out2.Neurons[0].Beta, out2.Neurons[0].Thr, out2.Neurons[0].Bias},
		[]float32{0.77, 1.25, -0.1}, "neuron params round trip", t)
	CmprFloats([]float32{pj2.SynVal("Wt", 0, 0), pj2.GScale}, []float32{0.33, 0.6}, "wt round trip", t)
	if net2.Nm != "TestNet" {
		t.Errorf("net name: %v != TestNet", net2.Nm)
	}
}

func TestLesion(t *testing.T) {
	net := &Network{}
	net.InitName(net, "LesNet")
	net.AddChain(10)
	net.Defaults()
	err := net.Build()
	if err != nil {
		t.Fatal(err)
	}
	net.InitWts()
	hid := net.LayerByName("Hidden").(*Layer)
	nles := hid.LesionNeurons(0.5)
	if nles != 5 {
		t.Errorf("lesioned: %v != 5", nles)
	}
	noff := 0
	for ni := range hid.Neurons {
		if hid.Neurons[ni].IsOff() {
			noff++
		}
	}
	if noff != 5 {
		t.Errorf("off count: %v != 5", noff)
	}
	net.UnLesionNeurons()
	for ni := range hid.Neurons {
		if hid.Neurons[ni].IsOff() {
			t.Errorf("neuron %v still off after unlesion", ni)
		}
	}
}
