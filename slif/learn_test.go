// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
)

func TestOptUpdt(t *testing.T) {
	// single-update values for each rule from the update equations, with
	// lrate = 0.1 on a gradient of 0.5 starting from a value of 1
	op := OptParams{}
	op.Defaults()
	op.Typ = SGD
	op.Lrate = 0.1
	op.InitOpt()
	var wt, dwt, m, c float32 = 1, 0.5, 0, 0
	op.StepInc()
	op.WtFmDWt(&wt, &dwt, &m, &c)
	CmprFloats([]float32{wt, dwt}, []float32{0.95, 0}, "sgd update", t)

	op.Typ = Momentum
	op.InitOpt()
	wt, m, c = 1, 0, 0
	for i := 0; i < 2; i++ {
		dwt = 0.5
		op.StepInc()
		op.WtFmDWt(&wt, &dwt, &m, &c)
	}
	CmprFloats([]float32{wt, m}, []float32{0.855, -0.095}, "momentum update", t)

	op.Typ = RMSProp
	op.InitOpt()
	wt, dwt, m, c = 1, 0.5, 0, 0
	op.StepInc()
	op.WtFmDWt(&wt, &dwt, &m, &c)
	CmprFloats([]float32{wt}, []float32{-2.1622961}, "rmsprop update", t)

	// the bias-corrected first Adam step is a full lrate-sized step in the
	// gradient direction, independent of the gradient magnitude
	op.Typ = Adam
	op.InitOpt()
	wt, dwt, m, c = 1, 0.5, 0, 0
	op.StepInc()
	op.WtFmDWt(&wt, &dwt, &m, &c)
	CmprFloats([]float32{wt}, []float32{0.9}, "adam first update", t)
}

func TestGradClip(t *testing.T) {
	op := OptParams{}
	op.Defaults()
	op.Typ = SGD
	op.Lrate = 0.1
	op.InitOpt()
	op.StepInc()
	var wt, dwt, m, c float32 = 1, 20, 0, 0 // clipped to 5
	op.WtFmDWt(&wt, &dwt, &m, &c)
	CmprFloats([]float32{wt}, []float32{0.5}, "clipped update", t)
}

func TestParamsFmGrad(t *testing.T) {
	ln := LearnNeurParams{}
	ln.Defaults()
	ln.Opt.Typ = SGD
	ln.Opt.Lrate = 1
	ln.Opt.InitOpt()
	ln.Opt.StepInc()
	nrn := &Neuron{}
	nrn.Beta = 0.9
	nrn.Thr = 1
	nrn.Bias = 0
	nrn.DBeta = -10 // clipped to -5, then Beta clamped into BetaRange
	nrn.DThr = 0.4
	nrn.DBias = 0.25
	ln.ParamsFmGrad(nrn)
	CmprFloats([]float32{nrn.Beta, nrn.Thr, nrn.Bias}, []float32{0.999, 0.6, -0.25}, "params update", t)
	CmprFloats([]float32{nrn.DBeta, nrn.DThr, nrn.DBias}, []float32{0, 0, 0}, "grads applied and zeroed", t)

	// a disabled param keeps its value and discards its gradient
	ln.LearnThr = false
	nrn.DThr = 0.4
	ln.ParamsFmGrad(nrn)
	CmprFloats([]float32{nrn.Thr, nrn.DThr}, []float32{0.6, 0}, "thr frozen", t)
}

func TestLearnSeqGrads(t *testing.T) {
	// hand-computed gradients for the unit-weight passthrough net over a
	// two-step sequence: only the t=0 input spikes, only the t=1 output
	// misses its target
	testNet, in, out, pj := MakeTestNet(t)
	ltime := NewTime()
	outs, loss, err := testNet.LearnSeq(ltime, []float32{1, 0}, []float32{1, 0}, in, out)
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats(outs, []float32{1, 0.5}, "train outs", t)
	CmprFloats([]float32{loss}, []float32{0.125}, "seq loss", t)
	nrn := &out.Neurons[0]
	CmprFloats([]float32{nrn.DBeta, nrn.DThr, nrn.DBias}, []float32{0.5, 0, 0.75}, "neuron grads", t)
	CmprFloats([]float32{pj.SynVal("DWt", 0, 0)}, []float32{0.25}, "wt grad", t)

	// gradients accumulate across sequences until applied
	_, _, err = testNet.LearnSeq(ltime, []float32{1, 0}, []float32{1, 0}, in, out)
	if err != nil {
		t.Fatal(err)
	}
	CmprFloats([]float32{nrn.DBeta, pj.SynVal("DWt", 0, 0)}, []float32{1, 0.5}, "accumulated grads", t)

	testNet.WtFmDWt()
	CmprFloats([]float32{nrn.DBeta, pj.SynVal("DWt", 0, 0)}, []float32{0, 0}, "grads zeroed after apply", t)
	if nrn.Beta == 0.5 {
		t.Errorf("Beta unchanged by WtFmDWt: %v", nrn.Beta)
	}
}

func TestGradCheck(t *testing.T) {
	// verify the backward pass against centered finite differences of the
	// sequence loss, through a hidden layer with the subtractive reset
	net := &Network{}
	net.InitName(net, "GradNet")
	in := net.AddLayer2D("Input", 1, 1, emer.Input).(*Layer)
	hid := net.AddLayer2D("Hidden", 1, 2, emer.Hidden).(*Layer)
	out := net.AddLayer2D("Output", 1, 1, emer.Target).(*Layer)
	pji := net.ConnectLayers(in, hid, prjn.NewFull(), emer.Forward).(*Prjn)
	pjo := net.ConnectLayers(hid, out, prjn.NewFull(), emer.Forward).(*Prjn)
	net.Defaults()
	hid.Act.Surr.Gain = 2 // low gain keeps the check well-conditioned
	pji.WtInit.Mean = 0.8
	pji.WtInit.Var = 0
	pjo.WtInit.Mean = 0.9
	pjo.WtInit.Var = 0
	err := net.Build()
	if err != nil {
		t.Fatal(err)
	}

	ins := []float32{0.8, 0.2, 0.5, 0.9}
	targs := []float32{0.3, 0.1, 0.4, 0.2}
	ltime := NewTime()

	runLoss := func(perturb func()) float32 {
		net.InitWts()
		if perturb != nil {
			perturb()
		}
		_, loss, lerr := net.LearnSeq(ltime, ins, targs, in, out)
		if lerr != nil {
			t.Fatal(lerr)
		}
		return loss
	}

	runLoss(nil)
	anWi := pji.SynVal("DWt", 0, 0)
	anWo := pjo.SynVal("DWt", 0, 0)
	anBeta := hid.Neurons[0].DBeta
	anThr := hid.Neurons[0].DThr
	anBias := hid.Neurons[0].DBias
	anOBeta := out.Neurons[0].DBeta

	eps := float32(0.01)
	numGrad := func(set func(d float32)) float32 {
		lp := runLoss(func() { set(eps) })
		lm := runLoss(func() { set(-eps) })
		return (lp - lm) / (2 * eps)
	}
	chk := func(msg string, an, num float32) {
		dif := math32.Abs(an - num)
		tol := 0.02*math32.Abs(an) + 0.002
		if dif > tol {
			t.Errorf("%v grad err: analytic: %v, numerical: %v, dif: %v\n", msg, an, num, dif)
		}
	}

	chk("in->hid wt", anWi, numGrad(func(d float32) {
		pji.SetSynVal("Wt", 0, 0, pji.SynVal("Wt", 0, 0)+d)
	}))
	chk("hid->out wt", anWo, numGrad(func(d float32) {
		pjo.SetSynVal("Wt", 0, 0, pjo.SynVal("Wt", 0, 0)+d)
	}))
	chk("hid beta", anBeta, numGrad(func(d float32) { hid.Neurons[0].Beta += d }))
	chk("hid thr", anThr, numGrad(func(d float32) { hid.Neurons[0].Thr += d }))
	chk("hid bias", anBias, numGrad(func(d float32) { hid.Neurons[0].Bias += d }))
	chk("out beta", anOBeta, numGrad(func(d float32) { out.Neurons[0].Beta += d }))
}

func TestLearnSeqTrain(t *testing.T) {
	// the passthrough net can exactly match a leaky-integrator teaching
	// signal, so the loss must drop steeply under the default optimizer
	testNet, in, out, _ := MakeTestNet(t)
	ins := []float32{0.5, 1, 0.25, 0.75}
	targs := make([]float32, len(ins))
	u := float32(0)
	for i, x := range ins {
		u = 0.3*u + 0.7*x
		targs[i] = u
	}
	ltime := NewTime()
	first := float32(0)
	last := float32(0)
	for epoch := 0; epoch < 100; epoch++ {
		_, loss, err := testNet.LearnSeq(ltime, ins, targs, in, out)
		if err != nil {
			t.Fatal(err)
		}
		if epoch == 0 {
			first = loss
		}
		last = loss
		testNet.WtFmDWt()
	}
	if last >= first {
		t.Errorf("loss did not decrease: first: %v, last: %v", first, last)
	}
	if last > 0.02 {
		t.Errorf("final loss too high: %v, first: %v", last, first)
	}
	// the threshold gets no gradient from a never-reset output, so it
	// stays at its initial value
	CmprFloats([]float32{out.Neurons[0].Thr}, []float32{1}, "thr unchanged", t)
}
