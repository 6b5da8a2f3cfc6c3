// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"github.com/emer/emergent/erand"
	"github.com/emer/slif/surgrad"
	"github.com/goki/ki/kit"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the activation params and functions for slif

// slif.ActParams contains all the activation computation params and functions
// for the leaky integrate-and-fire neuron, at the neuron level.
// This is included in slif.Layer to drive the computation.
type ActParams struct {
	Init  ActInitParams  `view:"inline" desc:"initial values for cell state and learnable dynamics parameters"`
	Reset ResetTypes     `desc:"which reset rule is applied to the integrated potential after spiking, to produce the potential carried to the next step -- fixed at configuration time and validated in Build"`
	Surr  surgrad.Params `view:"inline" desc:"surrogate spike function: smooth training-time spike and its derivative, and the discrete testing-time step"`
}

func (ac *ActParams) Defaults() {
	ac.Init.Defaults()
	ac.Reset = SubReset
	ac.Surr.Defaults()
	ac.Update()
}

// Update must be called after any changes to parameters
func (ac *ActParams) Update() {
	ac.Init.Update()
	ac.Surr.Update()
}

///////////////////////////////////////////////////////////////////////
//  Init

// InitParams initializes the learnable dynamics parameters Beta, Thr, Bias
// from their configured means plus any random jitter, and zeros all gradient
// and optimizer state.  Called during InitWts but otherwise not automatically
// called -- these values persist and learn across sequences.
func (ac *ActParams) InitParams(nrn *Neuron) {
	nrn.Beta = ac.Init.Beta + float32(ac.Init.Rnd.Gen(-1))
	nrn.Thr = ac.Init.Thr + float32(ac.Init.Rnd.Gen(-1))
	nrn.Bias = ac.Init.Bias + float32(ac.Init.Rnd.Gen(-1))
	nrn.DBeta = 0
	nrn.DThr = 0
	nrn.DBias = 0
	nrn.MBeta = 0
	nrn.MThr = 0
	nrn.MBias = 0
	nrn.CBeta = 0
	nrn.CThr = 0
	nrn.CBias = 0
}

// InitActs initializes activation state in neuron -- called at the start of
// every sequence (SeqInit), so that each sequence starts from the same
// potential regardless of prior history.  Learnable parameters and their
// gradients are not touched here.
func (ac *ActParams) InitActs(nrn *Neuron) {
	nrn.Ge = 0
	nrn.VmInt = ac.Init.Vm
	nrn.Vm = ac.Init.Vm
	nrn.Spike = 0
	nrn.Ext = 0
	nrn.Targ = 0
	nrn.DSpk = 0
	nrn.DGe = 0
	nrn.DVm = 0
}

///////////////////////////////////////////////////////////////////////
//  Cycle

// VmIntFmGe computes the integrated membrane potential candidate for this
// step from the carried potential and the current input:
// VmInt = Beta * Vm + Ge.  Beta is the per-neuron learned decay factor,
// and Ge already includes the learned bias current.
func (ac *ActParams) VmIntFmGe(nrn *Neuron) {
	nrn.VmInt = nrn.Beta*nrn.Vm + nrn.Ge
}

// SpikeFmVm computes the spike output from the integrated potential relative
// to the learned threshold, then applies the reset rule to produce the
// potential carried to the next step.  During training the spike is the
// smooth surrogate value in (0,1), so the reset is correspondingly partial
// and the whole step stays differentiable; at test time the spike is the
// discrete 0 / 1 step and the reset is all-or-nothing.
func (ac *ActParams) SpikeFmVm(nrn *Neuron, train bool) {
	var spk float32
	if train {
		spk = ac.Surr.Eval(nrn.VmInt - nrn.Thr)
	} else {
		spk = ac.Surr.Hard(nrn.VmInt - nrn.Thr)
	}
	nrn.Spike = spk
	switch ac.Reset {
	case SubReset:
		nrn.Vm = nrn.VmInt - nrn.Thr*spk
	case ZeroReset:
		nrn.Vm = nrn.VmInt * (1 - spk)
	default: // NoReset
		nrn.Vm = nrn.VmInt
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  ActInitParams

// ActInitParams are initial values for the cell state and the learnable
// dynamics parameters.  Vm is re-applied at the start of every sequence;
// Beta, Thr, Bias are set during InitWts and then learn.
type ActInitParams struct {
	Vm   float32         `def:"0" desc:"initial membrane potential at the start of every sequence -- 0 so that the potential is a pure function of the input sequence"`
	Beta float32         `def:"0.9" min:"0" max:"1" desc:"mean initial membrane decay factor: fraction of the prior potential retained each step"`
	Thr  float32         `def:"1" desc:"mean initial firing threshold on the integrated potential"`
	Bias float32         `def:"0" desc:"mean initial constant bias current"`
	Rnd  erand.RndParams `view:"inline" desc:"random jitter added to Beta, Thr, Bias initial values for breaking symmetry among hidden neurons -- default Mean distribution with Mean = 0 adds nothing"`
}

func (ai *ActInitParams) Update() {
}

func (ai *ActInitParams) Defaults() {
	ai.Vm = 0
	ai.Beta = 0.9
	ai.Thr = 1
	ai.Bias = 0
	ai.Rnd.Dist = erand.Mean
	ai.Rnd.Mean = 0
}

//////////////////////////////////////////////////////////////////////////////////////
//  ResetTypes

// ResetTypes are the different rules for resetting the integrated membrane
// potential after spiking, producing the potential carried to the next step.
// The rule is fixed per layer at configuration time: Layer.Build returns an
// error for out-of-range values, so the per-step path never checks validity.
type ResetTypes int

//go:generate stringer -type=ResetTypes

var KiT_ResetTypes = kit.Enums.AddEnum(ResetTypesN, kit.NotBitFlag, nil)

func (ev ResetTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ResetTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The reset rule types
const (
	// SubReset subtracts the firing threshold in proportion to the spike
	// output, retaining any overshoot above threshold -- the default, as it
	// preserves the most information across steps.
	SubReset ResetTypes = iota

	// ZeroReset clears the integrated potential in proportion to the spike
	// output, discarding any overshoot above threshold.
	ZeroReset

	// NoReset carries the integrated potential forward unchanged -- used on
	// output layers where the continuous potential is the regression readout
	// and must not be disrupted by spiking.
	NoReset

	ResetTypesN
)
