// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"fmt"
	"unsafe"

	"github.com/goki/ki/bitflag"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// NeuronVarStart is the byte offset of fields in the Neuron structure
// where the float32 named variables start.
// Note: all non-float32 infrastructure variables must be at the start!
const NeuronVarStart = 4

// slif.Neuron holds all of the neuron (unit) level variables for a leaky
// integrate-and-fire neuron trained by backprop through time.
// Unlike rate-coded models, the dynamics parameters Beta, Thr and the input
// Bias are per-neuron learnable state, so they live here along with their
// gradients and per-parameter optimizer state.
// All variables accessible via Unit interface must be float32 and start at
// the top, in contiguous order.
type Neuron struct {
	Flags NeurFlags `desc:"bit flags for binary state variables"`

	Ge    float32 `desc:"total excitatory input current for the current step: bias + weighted sum of sender spikes"`
	VmInt float32 `desc:"integrated membrane potential candidate for the current step: Beta * prior Vm + Ge, before any reset is applied -- this is the value compared against Thr for spiking, and the regression readout on output layers"`
	Vm    float32 `desc:"membrane potential carried to the next step: VmInt after the layer's reset rule has been applied"`
	Spike float32 `desc:"spike output communicated to receiving neurons: discrete 0 / 1 at test time, smooth surrogate value in (0,1) during training so that gradients can flow"`
	Ext   float32 `desc:"external input: clamped input-sequence value on input layers, which pass it through as their output directly"`
	Targ  float32 `desc:"target value for the current step: drives the squared-error learning signal on output layers"`

	Beta float32 `desc:"learned membrane decay factor in (0,1): fraction of the prior potential retained each step -- higher values integrate over longer input history"`
	Thr  float32 `desc:"learned firing threshold on the integrated potential"`
	Bias float32 `desc:"learned constant input current, added to Ge every step"`

	DBeta float32 `desc:"accumulated error gradient for Beta over the current sequence"`
	DThr  float32 `desc:"accumulated error gradient for Thr over the current sequence"`
	DBias float32 `desc:"accumulated error gradient for Bias over the current sequence"`
	DSpk  float32 `desc:"error gradient with respect to this neuron's spike output at the step currently being processed in the backward pass -- accumulated from receiving projections"`
	DGe   float32 `desc:"error gradient with respect to Ge at the step currently being processed in the backward pass -- scattered to sending neurons and synapses by receiving projections"`
	DVm   float32 `desc:"error gradient with respect to the carried potential, flowing backwards across steps through the Beta decay path"`

	MBeta float32 `desc:"optimizer first-moment (momentum) state for Beta"`
	MThr  float32 `desc:"optimizer first-moment (momentum) state for Thr"`
	MBias float32 `desc:"optimizer first-moment (momentum) state for Bias"`
	CBeta float32 `desc:"optimizer second-moment (squared gradient cache) state for Beta"`
	CThr  float32 `desc:"optimizer second-moment (squared gradient cache) state for Thr"`
	CBias float32 `desc:"optimizer second-moment (squared gradient cache) state for Bias"`
}

var NeuronVars = []string{"Ge", "VmInt", "Vm", "Spike", "Ext", "Targ",
	"Beta", "Thr", "Bias",
	"DBeta", "DThr", "DBias", "DSpk", "DGe", "DVm",
	"MBeta", "MThr", "MBias", "CBeta", "CThr", "CBias"}

var NeuronVarsMap map[string]int

var NeuronVarProps = map[string]string{
	"Vm":    `auto-scale:"+"`,
	"VmInt": `auto-scale:"+"`,
	"Targ":  `auto-scale:"+"`,
	"Beta":  `min:"0" max:"1"`,
	"DBeta": `auto-scale:"+"`,
	"DThr":  `auto-scale:"+"`,
	"DBias": `auto-scale:"+"`,
	"DSpk":  `auto-scale:"+"`,
	"DGe":   `auto-scale:"+"`,
	"DVm":   `auto-scale:"+"`,
}

func init() {
	NeuronVarsMap = make(map[string]int, len(NeuronVars))
	for i, v := range NeuronVars {
		NeuronVarsMap[v] = i
	}
}

func (nrn *Neuron) VarNames() []string {
	return NeuronVars
}

// NeuronVarIdxByName returns the index of the variable in the Neuron, or error
func NeuronVarIdxByName(varNm string) (int, error) {
	i, ok := NeuronVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(NeuronVarStart+4*idx)))
	return *fv
}

// SetVarByIndex sets variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) SetVarByIndex(idx int, val float32) {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(NeuronVarStart+4*idx)))
	*fv = val
}

// VarByName returns variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	i, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return mat32.NaN(), err
	}
	return nrn.VarByIndex(i), nil
}

func (nrn *Neuron) HasFlag(flag NeurFlags) bool {
	return bitflag.Has32(int32(nrn.Flags), int(flag))
}

func (nrn *Neuron) SetFlag(flag NeurFlags) {
	bitflag.Set32((*int32)(&nrn.Flags), int(flag))
}

func (nrn *Neuron) ClearFlag(flag NeurFlags) {
	bitflag.Clear32((*int32)(&nrn.Flags), int(flag))
}

func (nrn *Neuron) SetMask(mask int32) {
	bitflag.SetMask32((*int32)(&nrn.Flags), mask)
}

func (nrn *Neuron) ClearMask(mask int32) {
	bitflag.ClearMask32((*int32)(&nrn.Flags), mask)
}

// IsOff returns true if the neuron has been turned off (lesioned)
func (nrn *Neuron) IsOff() bool {
	return nrn.HasFlag(NeurOff)
}

// NeurFlags are bit-flags encoding relevant binary state for neurons
type NeurFlags int32

//go:generate stringer -type=NeurFlags

var KiT_NeurFlags = kit.Enums.AddEnum(NeurFlagsN, kit.BitFlag, nil)

// The neuron flags
const (
	// NeurOff flag indicates that this neuron has been turned off (i.e., lesioned)
	NeurOff NeurFlags = iota

	// NeurHasExt means the neuron has external input in its Ext field
	NeurHasExt

	// NeurHasTarg means the neuron has external target input in its Targ field
	NeurHasTarg

	NeurFlagsN
)
