// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package seqgen generates scalar sequence datasets for training and testing
spiking regression networks: a table of sequences, each with a per-step
input drive and a per-step target value drawn from a parameterized curve
family.

Each row of the generated table is one sequence, with an Input and a Target
column of shape [SeqLen, 1], ready for consumption through env.FixedTable.
Target curves are normalized to their own min / max and projected into the
configured Range, so every sequence spans the same value interval regardless
of curve family, frequency, or phase.
*/
package seqgen

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/emergent/patgen"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"github.com/goki/ki/kit"
)

// table column indexes
const (
	NameCol = iota
	InputCol
	TargetCol
)

// SeqParams are all the parameters for generating a sequence dataset.
type SeqParams struct {
	SeqLen   int             `def:"100" min:"1" desc:"number of time steps per sequence"`
	NSeqs    int             `def:"25" min:"1" desc:"number of sequences (table rows) to generate"`
	Curve    Curves          `desc:"target curve family"`
	Freq     float32         `def:"2" desc:"curve frequency: cycles (or events) per sequence"`
	FreqVar  float32         `def:"0.5" desc:"random variation range around Freq, drawn once per sequence"`
	PhaseVar float32         `def:"1" desc:"random phase offset range in cycles, drawn once per sequence"`
	Amp      float32         `def:"1" min:"0" max:"1" desc:"amplitude of the normalized curve within Range -- 1 spans the full range"`
	Range    minmax.F32      `view:"inline" desc:"target value range the normalized curve is projected into"`
	Noise    erand.RndParams `view:"inline" desc:"additive noise on each target value -- default Mean distribution with Mean = 0 adds nothing"`
	Input    Inputs          `desc:"input drive type"`
	InRate   float32         `def:"0.2" min:"0" max:"1" desc:"for PulseInput: proportion of steps carrying a pulse -- exact count per sequence"`
	InAmp    float32         `def:"1" desc:"amplitude of the input drive"`
}

func (sp *SeqParams) Update() {
}

func (sp *SeqParams) Defaults() {
	sp.SeqLen = 100
	sp.NSeqs = 25
	sp.Curve = SineCurve
	sp.Freq = 2
	sp.FreqVar = 0.5
	sp.PhaseVar = 1
	sp.Amp = 1
	sp.Range.Set(0.2, 0.8)
	sp.Noise.Dist = erand.Mean
	sp.Noise.Mean = 0
	sp.Input = PulseInput
	sp.InRate = 0.2
	sp.InAmp = 1
}

// ConfigTable configures the table with the sequence dataset schema
// (Name, Input [SeqLen,1], Target [SeqLen,1]) and NSeqs rows.
func (sp *SeqParams) ConfigTable(dt *etable.Table) {
	dt.SetMetaData("name", "SeqGen")
	dt.SetMetaData("desc", fmt.Sprintf("%v sequences, %v input", sp.Curve, sp.Input))
	sch := etable.Schema{
		{"Name", etensor.STRING, nil, nil},
		{"Input", etensor.FLOAT32, []int{sp.SeqLen, 1}, []string{"Step", "Unit"}},
		{"Target", etensor.FLOAT32, []int{sp.SeqLen, 1}, []string{"Step", "Unit"}},
	}
	dt.SetFromSchema(sch, sp.NSeqs)
}

// curveVal returns the raw curve value at unit time t in [0,1),
// for given frequency and phase (both in cycles per sequence).
func (sp *SeqParams) curveVal(t, freq, phase float32) float32 {
	cyc := freq*t + phase
	switch sp.Curve {
	case DampedCurve:
		return math32.Exp(-3*t) * math32.Sin(2*math32.Pi*cyc)
	case RampCurve:
		return cyc - math32.Floor(cyc)
	case StepCurve:
		if cyc-math32.Floor(cyc) < 0.5 {
			return 1
		}
		return 0
	default: // SineCurve
		return math32.Sin(2 * math32.Pi * cyc)
	}
}

// curveSeq fills seq with the curve normalized to its own min / max,
// so the values span exactly [0,1] for any family, frequency, and phase.
func (sp *SeqParams) curveSeq(seq []float32, freq, phase float32) {
	n := len(seq)
	for t := range seq {
		seq[t] = sp.curveVal(float32(t)/float32(n), freq, phase)
	}
	mn := seq[0]
	mx := seq[0]
	for _, v := range seq {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	rng := mx - mn
	for t, v := range seq {
		uv := float32(0.5) // constant curve sits mid-range
		if rng > 0 {
			uv = (v - mn) / rng
		}
		seq[t] = uv
	}
}

// drawFreqPhase draws the per-sequence frequency and phase values
func (sp *SeqParams) drawFreqPhase() (freq, phase float32) {
	freq = sp.Freq + sp.FreqVar*2*(rand.Float32()-0.5)
	phase = sp.PhaseVar * rand.Float32()
	return
}

// TargetSeqs fills the Target column and sequence names: one curve draw per
// row, normalized, scaled by Amp, projected into Range, plus Noise, and
// finally clipped so targets always stay inside Range.
func (sp *SeqParams) TargetSeqs(dt *etable.Table) {
	col := dt.Cols[TargetCol].(*etensor.Float32)
	seq := make([]float32, sp.SeqLen)
	for row := 0; row < dt.Rows; row++ {
		dt.SetCellString("Name", row, fmt.Sprintf("%v_%03d", sp.Curve, row))
		freq, phase := sp.drawFreqPhase()
		sp.curveSeq(seq, freq, phase)
		for t, uv := range seq {
			tv := sp.Range.ProjVal(sp.Amp*uv) + float32(sp.Noise.Gen(-1))
			col.Set([]int{row, t, 0}, sp.Range.ClipVal(tv))
		}
	}
}

// InputSeqs fills the Input column according to the Input drive type.
func (sp *SeqParams) InputSeqs(dt *etable.Table) {
	col := dt.Cols[InputCol].(*etensor.Float32)
	switch sp.Input {
	case FlatInput:
		for i := range col.Values {
			col.Values[i] = sp.InAmp
		}
	case CurveInput:
		seq := make([]float32, sp.SeqLen)
		for row := 0; row < dt.Rows; row++ {
			freq, phase := sp.drawFreqPhase()
			sp.curveSeq(seq, freq, phase)
			for t, uv := range seq {
				col.Set([]int{row, t, 0}, sp.InAmp*uv)
			}
		}
	default: // PulseInput
		nOn := patgen.NFmPct(sp.InRate, sp.SeqLen)
		patgen.PermutedBinaryRows(col, nOn, sp.InAmp, 0)
	}
}

// Gen generates the complete dataset into the given table:
// schema, names, inputs, and targets.
func (sp *SeqParams) Gen(dt *etable.Table) {
	sp.ConfigTable(dt)
	sp.InputSeqs(dt)
	sp.TargetSeqs(dt)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Curves

// Curves are the target curve families.
type Curves int

//go:generate stringer -type=Curves

var KiT_Curves = kit.Enums.AddEnum(CurvesN, kit.NotBitFlag, nil)

func (ev Curves) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Curves) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// SineCurve is a pure sinusoid
	SineCurve Curves = iota

	// DampedCurve is a sinusoid with exponentially decaying amplitude
	DampedCurve

	// RampCurve is a repeating linear rise (sawtooth)
	RampCurve

	// StepCurve is a square wave alternating between the range extremes
	StepCurve

	CurvesN
)

//////////////////////////////////////////////////////////////////////////////////////
//  Inputs

// Inputs are the input drive types.
type Inputs int

//go:generate stringer -type=Inputs

var KiT_Inputs = kit.Enums.AddEnum(InputsN, kit.NotBitFlag, nil)

func (ev Inputs) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Inputs) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// FlatInput drives every step with the same InAmp value
	FlatInput Inputs = iota

	// PulseInput drives an exact InRate proportion of steps with InAmp
	// pulses at permuted random positions, the rest with 0
	PulseInput

	// CurveInput drives each step with an independent normalized curve
	// draw scaled by InAmp
	CurveInput

	InputsN
)
