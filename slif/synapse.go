// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"fmt"
	"reflect"
)

// slif.Synapse holds state for the synaptic connection between neurons:
// the weight, its accumulated error gradient, and per-weight optimizer state.
type Synapse struct {
	Wt     float32 `desc:"synaptic weight value -- the affine map coefficient from sender spike to receiver input current"`
	DWt    float32 `desc:"error gradient for the weight, accumulated over the steps of the current sequence by the backward pass, and consumed (then zeroed) by the weight update"`
	Moment float32 `desc:"optimizer first-moment (momentum) state: time-integrated DWt changes, to accumulate a consistent direction of weight change and cancel out dithering contradictory changes"`
	Cache  float32 `desc:"optimizer second-moment state: decaying average of squared gradients, used by RMSProp and Adam to normalize the update magnitude per weight"`
}

var SynapseVars = []string{"Wt", "DWt", "Moment", "Cache"}

var SynapseVarProps = map[string]string{
	"DWt":    `auto-scale:"+"`,
	"Moment": `auto-scale:"+"`,
	"Cache":  `auto-scale:"+"`,
}

var SynapseVarsMap map[string]int

func init() {
	SynapseVarsMap = make(map[string]int, len(SynapseVars))
	for i, v := range SynapseVars {
		SynapseVarsMap[v] = i
	}
}

func (sy *Synapse) VarNames() []string {
	return SynapseVars
}

// SynapseVarByName returns the index of the variable in the Synapse, or error
func SynapseVarByName(varNm string) (int, error) {
	i, ok := SynapseVarsMap[varNm]
	if !ok {
		return 0, fmt.Errorf("Synapse VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in SynapseVars list)
func (sy *Synapse) VarByIndex(idx int) float32 {
	// todo: would be ideal to avoid having to use reflect here..
	v := reflect.ValueOf(*sy)
	return v.Field(idx).Interface().(float32)
}

// VarByName returns variable by name, or error
func (sy *Synapse) VarByName(varNm string) (float32, error) {
	i, err := SynapseVarByName(varNm)
	if err != nil {
		return 0, err
	}
	return sy.VarByIndex(i), nil
}

func (sy *Synapse) SetVarByIndex(idx int, val float32) {
	// todo: would be ideal to avoid having to use reflect here..
	v := reflect.ValueOf(sy)
	v.Elem().Field(idx).SetFloat(float64(val))
}

// SetVarByName sets synapse variable to given value
func (sy *Synapse) SetVarByName(varNm string, val float32) error {
	i, err := SynapseVarByName(varNm)
	if err != nil {
		return err
	}
	sy.SetVarByIndex(i, val)
	return nil
}
