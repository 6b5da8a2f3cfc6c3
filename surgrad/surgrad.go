// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package surgrad provides surrogate-gradient spike activation functions for
training spiking networks with error backpropagation.

The discrete spike function (1 if integrated membrane potential exceeds the
firing threshold, else 0) has a derivative that is zero almost everywhere,
so no error gradient can flow back through it.  The surrogate approach
substitutes a smooth, monotonic, sigmoid-like function of the distance to
threshold during training, whose slope near threshold carries the gradient,
while the discrete step is retained for testing.  All functions here are
bounded in [0,1] and converge on the discrete step as Gain increases.
*/
package surgrad

import (
	"github.com/chewxy/math32"
	"github.com/goki/ki/kit"
)

// Funcs are the different surrogate spike function families.
// All are centered on the firing threshold (argument = vm - thr),
// monotonically increasing, and bounded in [0,1].
type Funcs int

//go:generate stringer -type=Funcs

var KiT_Funcs = kit.Enums.AddEnum(FuncsN, kit.NotBitFlag, nil)

func (ev Funcs) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Funcs) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Sigmoid is the logistic sigmoid 1 / (1 + e^(-gain*x)) -- the standard
	// differentiable relaxation of the step function, with derivative
	// gain * s * (1-s) peaking at gain/4 at threshold.
	Sigmoid Funcs = iota

	// FastSigmoid is x / (1 + |x|) based -- avoids the exponential so it is
	// cheaper per step, with heavier tails than Sigmoid (gradient decays
	// quadratically instead of exponentially away from threshold).
	FastSigmoid

	// ATan is the arctangent-based surrogate -- even heavier tails, useful
	// when gradients must survive far from threshold.
	ATan

	FuncsN
)

// Params are the surrogate spike function parameters, used for computing the
// smooth training-time spike output and its derivative from the difference
// between the integrated potential and the firing threshold.
// Hard computes the discrete testing-time spike from the same difference.
type Params struct {
	Fun  Funcs   `desc:"which surrogate function family to use for the smooth training-time spike"`
	Gain float32 `def:"25" min:"0" desc:"multiplier on the distance to threshold -- steepness of the surrogate -- as gain increases the surrogate converges on the discrete step function, at the cost of a narrower gradient window around threshold"`
}

func (sp *Params) Update() {
}

func (sp *Params) Defaults() {
	sp.Fun = Sigmoid
	sp.Gain = 25
	sp.Update()
}

// Hard computes the discrete spike value for x = vm - thr:
// 1 if at or above threshold, else 0.  Used at test time.
func (sp *Params) Hard(x float32) float32 {
	if x >= 0 {
		return 1
	}
	return 0
}

// Eval computes the smooth surrogate spike value for x = vm - thr,
// in (0,1), increasing in x, crossing 0.5 at threshold.  Used at
// training time so that downstream computation is differentiable.
func (sp *Params) Eval(x float32) float32 {
	gx := sp.Gain * x
	switch sp.Fun {
	case FastSigmoid:
		return 0.5 * (1 + gx/(1+math32.Abs(gx)))
	case ATan:
		return 0.5 + math32.Atan(gx)/math32.Pi
	default:
		return 1 / (1 + math32.Exp(-gx))
	}
}

// Deriv computes the analytic derivative of Eval with respect to x,
// for x = vm - thr.  Always positive, peaked at threshold.
func (sp *Params) Deriv(x float32) float32 {
	gx := sp.Gain * x
	switch sp.Fun {
	case FastSigmoid:
		den := 1 + math32.Abs(gx)
		return sp.Gain / (2 * den * den)
	case ATan:
		return sp.Gain / (math32.Pi * (1 + gx*gx))
	default:
		s := 1 / (1 + math32.Exp(-gx))
		return sp.Gain * s * (1 - s)
	}
}
