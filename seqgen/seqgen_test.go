// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqgen

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

const difTol = float32(1.0e-5)

// rowMinMax returns the min / max over the [SeqLen,1] cells of given row
func rowMinMax(col *etensor.Float32, row, seqLen int) (mn, mx float32) {
	mn = col.Value([]int{row, 0, 0})
	mx = mn
	for t := 0; t < seqLen; t++ {
		v := col.Value([]int{row, t, 0})
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return
}

func TestGenTable(t *testing.T) {
	rand.Seed(10)
	sp := SeqParams{}
	sp.Defaults()
	sp.SeqLen = 20
	sp.NSeqs = 4
	dt := &etable.Table{}
	sp.Gen(dt)

	if dt.Rows != 4 {
		t.Errorf("rows: %v != 4", dt.Rows)
	}
	icol := dt.Cols[InputCol].(*etensor.Float32)
	tcol := dt.Cols[TargetCol].(*etensor.Float32)
	if len(icol.Values) != 4*20 || len(tcol.Values) != 4*20 {
		t.Errorf("col sizes: %v, %v != 80", len(icol.Values), len(tcol.Values))
	}

	// PulseInput: exactly InRate * SeqLen pulses per sequence
	for row := 0; row < 4; row++ {
		non := 0
		for s := 0; s < 20; s++ {
			v := icol.Value([]int{row, s, 0})
			if v == 1 {
				non++
			} else if v != 0 {
				t.Errorf("input not binary: row: %v, step: %v, val: %v", row, s, v)
			}
		}
		if non != 4 {
			t.Errorf("pulse count: row: %v, %v != 4", row, non)
		}
	}

	// targets normalized into Range, spanning it exactly
	for row := 0; row < 4; row++ {
		mn, mx := rowMinMax(tcol, row, 20)
		if math32.Abs(mn-0.2) > difTol || math32.Abs(mx-0.8) > difTol {
			t.Errorf("target range: row: %v, min: %v, max: %v", row, mn, mx)
		}
	}
}

func TestCurveFamilies(t *testing.T) {
	for cv := SineCurve; cv < CurvesN; cv++ {
		sp := SeqParams{}
		sp.Defaults()
		sp.SeqLen = 32
		sp.NSeqs = 1
		sp.Curve = cv
		sp.FreqVar = 0
		sp.PhaseVar = 0
		dt := &etable.Table{}
		sp.Gen(dt)
		tcol := dt.Cols[TargetCol].(*etensor.Float32)
		mn, mx := rowMinMax(tcol, 0, 32)
		if math32.Abs(mn-0.2) > difTol || math32.Abs(mx-0.8) > difTol {
			t.Errorf("%v range: min: %v, max: %v", cv, mn, mx)
		}
		if cv == StepCurve {
			// square wave only ever takes the two extreme values
			for s := 0; s < 32; s++ {
				v := tcol.Value([]int{0, s, 0})
				if math32.Abs(v-0.2) > difTol && math32.Abs(v-0.8) > difTol {
					t.Errorf("step curve mid value: step: %v, val: %v", s, v)
				}
			}
		}
		nm := dt.CellString("Name", 0)
		if nm != cv.String()+"_000" {
			t.Errorf("name: %v != %v_000", nm, cv)
		}
	}
}

func TestInputTypes(t *testing.T) {
	sp := SeqParams{}
	sp.Defaults()
	sp.SeqLen = 16
	sp.NSeqs = 2
	sp.Input = FlatInput
	sp.InAmp = 0.5
	dt := &etable.Table{}
	sp.Gen(dt)
	icol := dt.Cols[InputCol].(*etensor.Float32)
	for i, v := range icol.Values {
		if v != 0.5 {
			t.Errorf("flat input: idx: %v, val: %v != 0.5", i, v)
		}
	}

	sp.Input = CurveInput
	sp.FreqVar = 0
	sp.PhaseVar = 0
	sp.InAmp = 2
	sp.Gen(dt)
	icol = dt.Cols[InputCol].(*etensor.Float32)
	mn, mx := rowMinMax(icol, 0, 16)
	if math32.Abs(mn) > difTol || math32.Abs(mx-2) > difTol {
		t.Errorf("curve input range: min: %v, max: %v", mn, mx)
	}
}

func TestNoiseClip(t *testing.T) {
	sp := SeqParams{}
	sp.Defaults()
	sp.SeqLen = 40
	sp.NSeqs = 3
	sp.Noise.Dist = erand.Uniform
	sp.Noise.Mean = 0
	sp.Noise.Var = 1
	dt := &etable.Table{}
	sp.Gen(dt)
	tcol := dt.Cols[TargetCol].(*etensor.Float32)
	for i, v := range tcol.Values {
		if v < 0.2-difTol || v > 0.8+difTol {
			t.Errorf("noisy target outside range: idx: %v, val: %v", i, v)
		}
	}
}
