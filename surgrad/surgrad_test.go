// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surgrad

import (
	"testing"

	"github.com/chewxy/math32"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-5)

var tstx = []float32{-0.2, -0.1, -0.05, -0.02, 0, 0.02, 0.05, 0.1, 0.2}

func cmprFuns(t *testing.T, fun Funcs, corEval, corDeriv []float32) {
	sp := Params{}
	sp.Defaults()
	sp.Fun = fun
	for i := range tstx {
		ev := sp.Eval(tstx[i])
		dif := math32.Abs(ev - corEval[i])
		if dif > difTol {
			t.Errorf("%v Eval err: idx: %v, x: %v, val: %v, cor val: %v, dif: %v\n", fun, i, tstx[i], ev, corEval[i], dif)
		}
		dv := sp.Deriv(tstx[i])
		dif = math32.Abs(dv - corDeriv[i])
		if dif > difTol {
			t.Errorf("%v Deriv err: idx: %v, x: %v, val: %v, cor val: %v, dif: %v\n", fun, i, tstx[i], dv, corDeriv[i], dif)
		}
	}
}

func TestSigmoid(t *testing.T) {
	corEval := []float32{0.0066928510, 0.075858176, 0.22270013, 0.37754068, 0.5, 0.62245935, 0.7772999, 0.92414182, 0.99330717}
	corDeriv := []float32{0.16620143, 1.7525928, 4.3276196, 5.8750925, 6.25, 5.8750925, 4.3276196, 1.7525929, 0.16620082}
	cmprFuns(t, Sigmoid, corEval, corDeriv)
}

func TestFastSigmoid(t *testing.T) {
	corEval := []float32{0.083333343, 0.14285713, 0.22222221, 0.33333331, 0.5, 0.66666669, 0.77777779, 0.85714287, 0.91666663}
	corDeriv := []float32{0.34722221, 1.0204082, 2.4691358, 5.5555553, 12.5, 5.5555553, 2.4691358, 1.0204082, 0.34722221}
	cmprFuns(t, FastSigmoid, corEval, corDeriv)
}

func TestATan(t *testing.T) {
	corEval := []float32{0.062832952, 0.12111893, 0.21477672, 0.35241640, 0.5, 0.64758360, 0.78522325, 0.87888110, 0.93716705}
	corDeriv := []float32{0.30606720, 1.0976204, 3.1054623, 6.3661976, 7.9577470, 6.3661976, 3.1054623, 1.0976204, 0.30606720}
	cmprFuns(t, ATan, corEval, corDeriv)
}

func TestHard(t *testing.T) {
	sp := Params{}
	sp.Defaults()
	for i := range tstx {
		hv := sp.Hard(tstx[i])
		if tstx[i] >= 0 && hv != 1 {
			t.Errorf("Hard err: idx: %v, x: %v, val: %v, cor val: 1\n", i, tstx[i], hv)
		}
		if tstx[i] < 0 && hv != 0 {
			t.Errorf("Hard err: idx: %v, x: %v, val: %v, cor val: 0\n", i, tstx[i], hv)
		}
	}
}

// TestBounds checks that all surrogate functions are monotonic, bounded in
// [0,1], cross 0.5 at threshold, and saturate far from threshold.
func TestBounds(t *testing.T) {
	for fn := Sigmoid; fn < FuncsN; fn++ {
		sp := Params{}
		sp.Defaults()
		sp.Fun = fn
		last := float32(-1)
		for x := float32(-2); x <= 2; x += 0.05 {
			ev := sp.Eval(x)
			if ev < 0 || ev > 1 {
				t.Errorf("%v out of bounds: x: %v, val: %v\n", fn, x, ev)
			}
			if ev < last {
				t.Errorf("%v not monotonic: x: %v, val: %v, prior: %v\n", fn, x, ev, last)
			}
			if sp.Deriv(x) <= 0 {
				t.Errorf("%v deriv not positive: x: %v, val: %v\n", fn, x, sp.Deriv(x))
			}
			last = ev
		}
		mid := sp.Eval(0)
		if math32.Abs(mid-0.5) > difTol {
			t.Errorf("%v not 0.5 at threshold: %v\n", fn, mid)
		}
		if sp.Eval(-1000) > 0.01 {
			t.Errorf("%v does not saturate low: %v\n", fn, sp.Eval(-1000))
		}
		if sp.Eval(1000) < 0.99 {
			t.Errorf("%v does not saturate high: %v\n", fn, sp.Eval(1000))
		}
	}
}

// TestGainSharpens checks that higher gain moves the surrogate closer to the
// discrete step on both sides of threshold.
func TestGainSharpens(t *testing.T) {
	for fn := Sigmoid; fn < FuncsN; fn++ {
		lo := Params{Fun: fn, Gain: 5}
		hi := Params{Fun: fn, Gain: 100}
		if hi.Eval(0.1) <= lo.Eval(0.1) {
			t.Errorf("%v gain did not sharpen above thr: hi: %v, lo: %v\n", fn, hi.Eval(0.1), lo.Eval(0.1))
		}
		if hi.Eval(-0.1) >= lo.Eval(-0.1) {
			t.Errorf("%v gain did not sharpen below thr: hi: %v, lo: %v\n", fn, hi.Eval(-0.1), lo.Eval(-0.1))
		}
	}
}

// TestDerivFiniteDif checks the analytic derivative against a central finite
// difference of Eval -- tolerance is loose due to float32 differencing noise.
func TestDerivFiniteDif(t *testing.T) {
	const h = float32(1.0e-3)
	const fdTol = float32(5.0e-2)
	for fn := Sigmoid; fn < FuncsN; fn++ {
		sp := Params{}
		sp.Defaults()
		sp.Fun = fn
		for _, x := range tstx {
			fd := (sp.Eval(x+h) - sp.Eval(x-h)) / (2 * h)
			an := sp.Deriv(x)
			dif := math32.Abs(fd - an)
			if dif > fdTol {
				t.Errorf("%v deriv vs finite dif err: x: %v, analytic: %v, fd: %v, dif: %v\n", fn, x, an, fd, dif)
			}
		}
	}
}
