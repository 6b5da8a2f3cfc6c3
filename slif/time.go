// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"github.com/goki/ki/kit"
)

// slif.Time contains all the timing state and parameter information for running a model
type Time struct {
	Time        float32 `desc:"accumulated amount of time the network has been running, in simulation-time (not real world time), in seconds"`
	Step        int     `desc:"step counter within the current sequence: one step = one pass of the current input value through all layers of the network, counting sequentially from 0 to SeqLen-1"`
	StepTot     int     `desc:"total step count -- increments continuously from whenever it was last reset"`
	SeqLen      int     `desc:"number of steps in the current sequence -- the length of the time unroll, set by SeqStart"`
	Train       bool    `desc:"true if the network is running in training mode: spikes take their smooth surrogate values, and per-step state histories are recorded for the backward pass"`
	TimePerStep float32 `def:"0.001" desc:"amount of simulated time to increment per step"`
}

// NewTime returns a new Time struct with default parameters
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values
func (tm *Time) Defaults() {
	tm.TimePerStep = 0.001
}

// Reset resets the counters all back to zero
func (tm *Time) Reset() {
	tm.Time = 0
	tm.Step = 0
	tm.StepTot = 0
	tm.SeqLen = 0
	if tm.TimePerStep == 0 {
		tm.Defaults()
	}
}

// SeqStart starts a new sequence of given length: resets the step counter
// -- the total step counter and accumulated time keep running.
func (tm *Time) SeqStart(seqLen int) {
	tm.Step = 0
	tm.SeqLen = seqLen
}

// StepInc increments at the step level
func (tm *Time) StepInc() {
	tm.Step++
	tm.StepTot++
	tm.Time += tm.TimePerStep
}

//////////////////////////////////////////////////////////////////////////////////////
//  TimeScales

// TimeScales are the different time scales associated with overall simulation
// running, and can be used to parameterize the updating and control flow of
// simulations at different scales.  The definitions become increasingly
// subjective at longer scales.
type TimeScales int

//go:generate stringer -type=TimeScales

var KiT_TimeScales = kit.Enums.AddEnum(TimeScalesN, kit.NotBitFlag, nil)

func (ev TimeScales) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *TimeScales) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The time scales
const (
	// Step is the finest time scale -- one pass of an input value through
	// all layers of the network, with one decay-and-integrate update per
	// neuron.
	Step TimeScales = iota

	// Seq is one complete sequence of steps -- the full time unroll over
	// which one input series is presented and one output series collected.
	Seq

	// Epoch is used in two different contexts.  In machine learning, it
	// represents a complete pass through a dataset.  In biological
	// simulations, it can represent a set of sequences between
	// performance statistics.
	Epoch

	// Run is a complete run of a model / subject, from training to testing,
	// etc.  Often multiple runs are done in an Expt to obtain statistics
	// over initial random weights etc.
	Run

	TimeScalesN
)
