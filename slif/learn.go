// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/minmax"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

///////////////////////////////////////////////////////////////////////
//  learn.go contains the learning params and functions for slif:
//  gradient-based updates of weights and neuron dynamics parameters,
//  from gradients accumulated by the backward pass over a sequence.

// slif.LearnNeurParams manages learning of the neuron-level dynamics
// parameters Beta, Thr, Bias from their accumulated sequence gradients.
type LearnNeurParams struct {
	Learn     bool       `def:"true" desc:"enable learning of the neuron dynamics parameters for this layer -- when off, gradients are still computed for passing to upstream layers but parameters are not changed"`
	LearnBeta bool       `def:"true" viewif:"Learn" desc:"learn the membrane decay factor Beta -- off fixes the integration timescale at its initial value"`
	LearnThr  bool       `def:"true" viewif:"Learn" desc:"learn the firing threshold Thr -- off fixes it at its initial value"`
	LearnBias bool       `def:"true" viewif:"Learn" desc:"learn the bias current -- off fixes it at its initial value"`
	BetaRange minmax.F32 `view:"inline" desc:"allowed range for Beta after each update -- must stay inside (0,1) for the potential to remain a decaying integration"`
	Opt       OptParams  `view:"inline" desc:"optimizer parameters for the dynamics-parameter updates"`
}

func (ln *LearnNeurParams) Update() {
	ln.Opt.Update()
}

func (ln *LearnNeurParams) Defaults() {
	ln.Learn = true
	ln.LearnBeta = true
	ln.LearnThr = true
	ln.LearnBias = true
	ln.BetaRange.Set(0.001, 0.999)
	ln.Opt.Defaults()
	ln.Update()
}

// ParamsFmGrad updates the learnable dynamics parameters of given neuron from
// their accumulated gradients, and clamps Beta back into its allowed range.
// Gradients of disabled parameters are discarded so they do not accumulate
// across sequences.  StepInc must have been called first for this update.
func (ln *LearnNeurParams) ParamsFmGrad(nrn *Neuron) {
	if ln.LearnBeta {
		ln.Opt.WtFmDWt(&nrn.Beta, &nrn.DBeta, &nrn.MBeta, &nrn.CBeta)
		nrn.Beta = ln.BetaRange.ClipVal(nrn.Beta)
	} else {
		nrn.DBeta = 0
	}
	if ln.LearnThr {
		ln.Opt.WtFmDWt(&nrn.Thr, &nrn.DThr, &nrn.MThr, &nrn.CThr)
	} else {
		nrn.DThr = 0
	}
	if ln.LearnBias {
		ln.Opt.WtFmDWt(&nrn.Bias, &nrn.DBias, &nrn.MBias, &nrn.CBias)
	} else {
		nrn.DBias = 0
	}
}

///////////////////////////////////////////////////////////////////////
//  LearnSynParams

// slif.LearnSynParams manages learning of the synaptic weights in a
// projection from their accumulated sequence gradients.
type LearnSynParams struct {
	Learn bool      `def:"true" desc:"enable learning for this projection -- when off, weight gradients are not accumulated and weights are not changed, but spike gradients still flow to upstream layers"`
	Opt   OptParams `view:"inline" desc:"optimizer parameters for the weight updates"`
}

func (ls *LearnSynParams) Update() {
	ls.Opt.Update()
}

func (ls *LearnSynParams) Defaults() {
	ls.Learn = true
	ls.Opt.Defaults()
	ls.Update()
}

//////////////////////////////////////////////////////////////////////////////////////
//  WtInitParams

// WtInitParams are weight initialization parameters -- the random
// distribution, plus a fan-in normalization factor
type WtInitParams struct {
	erand.RndParams
	FanIn bool `def:"true" desc:"scale generated weights by 1 / sqrt(number of receiving connections), so that the expected total input magnitude is independent of layer sizes"`
}

func (wp *WtInitParams) Defaults() {
	wp.Mean = 0
	wp.Var = 1
	wp.Dist = erand.Uniform
	wp.FanIn = true
}

//////////////////////////////////////////////////////////////////////////////////////
//  OptParams

// OptParams implements the gradient-descent weight update, with a selectable
// optimizer rule.  The same struct drives both synaptic weights and neuron
// dynamics parameters -- each learned value carries its own Moment (first
// moment) and Cache (second moment) state, used according to the rule.
// One update is applied per sequence, from gradients accumulated over all
// steps of that sequence by the backward pass.
type OptParams struct {
	Typ       OptTypes `desc:"which optimizer update rule to use"`
	Lrate     float32  `def:"0.01" min:"0" desc:"learning rate multiplying the (normalized) gradient in each update"`
	LrateInit float32  `view:"-" desc:"initial learning rate -- this is set from Lrate in UpdateParams, which is called when Params are updated, and used in LrateMult to compute a new learning rate for learning rate schedules"`
	Clip      float32  `def:"5" min:"0" desc:"per-value bound on gradient magnitude, applied before the update -- surrogate-gradient nets can produce occasional large gradients through long unrolls -- 0 disables clipping"`
	Mom       float32  `def:"0.9" min:"0" max:"1" viewif:"Typ=Momentum||Typ=Adam" desc:"first-moment (momentum) integration factor"`
	Decay     float32  `def:"0.999" min:"0" max:"1" viewif:"Typ=RMSProp||Typ=Adam" desc:"second-moment (squared gradient cache) decay factor"`
	Eps       float32  `def:"1e-08" min:"0" viewif:"Typ=RMSProp||Typ=Adam" desc:"constant added to the normalization denominator for numerical stability"`
	Nupdt     int      `inactive:"+" desc:"number of updates applied since initialization -- drives the Adam bias correction"`

	BcM float32 `view:"-" json:"-" xml:"-" desc:"first-moment bias correction factor 1 / (1 - Mom^Nupdt) for the current update"`
	BcC float32 `view:"-" json:"-" xml:"-" desc:"second-moment bias correction factor 1 / (1 - Decay^Nupdt) for the current update"`
}

func (op *OptParams) Update() {
}

func (op *OptParams) Defaults() {
	op.Typ = Adam
	op.Lrate = 0.01
	op.Clip = 5
	op.Mom = 0.9
	op.Decay = 0.999
	op.Eps = 1e-8
	op.Update()
}

// InitOpt initializes the update counter -- per-value Moment and Cache state
// is zeroed where the values live (synapses, neurons)
func (op *OptParams) InitOpt() {
	op.Nupdt = 0
	op.BcM = 1
	op.BcC = 1
}

// StepInc increments the update counter and computes the Adam bias
// correction factors for the upcoming update.  Must be called once before
// each sweep of WtFmDWt calls.
func (op *OptParams) StepInc() {
	op.Nupdt++
	if op.Typ == Adam {
		op.BcM = 1 / (1 - math32.Pow(op.Mom, float32(op.Nupdt)))
		op.BcC = 1 / (1 - math32.Pow(op.Decay, float32(op.Nupdt)))
	} else {
		op.BcM = 1
		op.BcC = 1
	}
}

// WtFmDWt updates one learned value from its accumulated gradient, updating
// the per-value moment and cache state according to the optimizer rule, and
// zeroing the gradient accumulator for the next sequence.
func (op *OptParams) WtFmDWt(wt, dwt, moment, cache *float32) {
	g := *dwt
	if op.Clip > 0 {
		g = mat32.Clamp(g, -op.Clip, op.Clip)
	}
	switch op.Typ {
	case SGD:
		*wt -= op.Lrate * g
	case Momentum:
		*moment = op.Mom**moment - op.Lrate*g
		*wt += *moment
	case RMSProp:
		*cache = op.Decay**cache + (1-op.Decay)*g*g
		*wt -= op.Lrate * g / (math32.Sqrt(*cache) + op.Eps)
	case Adam:
		*moment = op.Mom**moment + (1-op.Mom)*g
		*cache = op.Decay**cache + (1-op.Decay)*g*g
		*wt -= op.Lrate * (*moment * op.BcM) / (math32.Sqrt(*cache*op.BcC) + op.Eps)
	}
	*dwt = 0
}

//////////////////////////////////////////////////////////////////////////////////////
//  OptTypes

// OptTypes are the different gradient-descent optimizer update rules
type OptTypes int

//go:generate stringer -type=OptTypes

var KiT_OptTypes = kit.Enums.AddEnum(OptTypesN, kit.NotBitFlag, nil)

func (ev OptTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *OptTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The optimizer types
const (
	// SGD is plain stochastic gradient descent: value -= lrate * gradient
	SGD OptTypes = iota

	// Momentum integrates gradients over updates in the Moment state,
	// accumulating a consistent direction of change and canceling out
	// dithering contradictory changes
	Momentum

	// RMSProp normalizes each update by a decaying average of the squared
	// gradient magnitude (Cache state), equalizing the effective step size
	// across parameters with very different gradient scales
	RMSProp

	// Adam combines Momentum and RMSProp with bias-corrected moment
	// estimates -- the default, and typically the most robust for
	// surrogate-gradient training
	Adam

	OptTypesN
)
