// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/indent"
	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// slif.Prjn is a basic spiking projection with a full set of synapses
// between two layers.  Each sending spike deposits GScale * Wt into the
// receiving unit's input accumulator, and the backward pass over a sequence
// accumulates the weight gradients from the recorded spike history.
type Prjn struct {
	PrjnStru
	WtInit WtInitParams   `view:"inline" desc:"initial random weight distribution, with optional fan-in normalization"`
	Learn  LearnSynParams `view:"add-fields" desc:"synaptic-level learning parameters"`
	GScale float32        `def:"1" desc:"multiplier on the total synaptic input from this projection -- strengthens or weakens an entire pathway without changing the learned weights -- saved in the MetaData of weight files"`
	Syns   []Synapse      `desc:"synaptic state values, ordered by the sending layer units which owns them and have a full set of all connections -- one-to-one with SConIdx array"`
	GInc   []float32      `desc:"per receiving unit accumulator for spike input sent in the current step -- transferred into the unit's Ge by GeFmInc and then zeroed"`
}

var KiT_Prjn = kit.Types.AddType(&Prjn{}, PrjnProps)

var PrjnProps = ki.Props{}

// AsSlif returns this prjn as a slif.Prjn -- all derived prjns must redefine
// this to return the base Prjn type, so that the SlifPrjn interface does not
// need to include accessors to all the basic stuff.
func (pj *Prjn) AsSlif() *Prjn {
	return pj
}

func (pj *Prjn) Defaults() {
	pj.WtInit.Defaults()
	pj.Learn.Defaults()
	pj.GScale = 1
}

// UpdateParams updates all params given any changes that might have been made to individual values
func (pj *Prjn) UpdateParams() {
	pj.Learn.Update()
	pj.Learn.Opt.LrateInit = pj.Learn.Opt.Lrate
}

// AllParams returns a listing of all parameters in the Projection
func (pj *Prjn) AllParams() string {
	str := "///////////////////////////////////////////////////\nPrjn: " + pj.Name() + "\n"
	b, _ := json.MarshalIndent(&pj.WtInit, "", " ")
	str += "WtInit: {\n " + JsonToParams(b)
	b, _ = json.MarshalIndent(&pj.Learn, "", " ")
	str += "Learn: {\n " + JsonToParams(b)
	return str
}

// SynVarNames returns the names of all the variables on the synapse
func (pj *Prjn) SynVarNames() []string {
	return SynapseVars
}

// SynVarProps returns properties for variables
func (pj *Prjn) SynVarProps() map[string]string {
	return SynapseVarProps
}

// SynIdx returns the index of the synapse between given send, recv unit indexes
// (1D, flat indexes). Returns -1 if synapse not found between these two neurons.
// Requires searching within connections for receiving unit.
func (pj *Prjn) SynIdx(sidx, ridx int) int {
	nc := int(pj.RConN[ridx])
	st := int(pj.RConIdxSt[ridx])
	for ci := 0; ci < nc; ci++ {
		si := int(pj.RConIdx[st+ci])
		if si != sidx {
			continue
		}
		return int(pj.RSynIdx[st+ci])
	}
	return -1
}

// SynVarIdx returns the index of given variable within the synapse,
// according to *this prjn's* SynVarNames() list (using a map to lookup index),
// or -1 and error message if not found.
func (pj *Prjn) SynVarIdx(varNm string) (int, error) {
	return SynapseVarByName(varNm)
}

// SynVarNum returns the number of synapse-level variables
// for this prjn.  This is needed for extending indexes in derived types.
func (pj *Prjn) SynVarNum() int {
	return len(SynapseVars)
}

// Syn1DNum returns the number of synapses for this prjn as a 1D array.
// This is the max idx for SynVal1D and the number of vals set by SynVals.
func (pj *Prjn) Syn1DNum() int {
	return len(pj.Syns)
}

// SynVal1D returns value of given variable index (from SynVarIdx) on given SynIdx.
// Returns NaN on invalid index.
// This is the core synapse var access method used by other methods,
// so it is the only one that needs to be updated for derived prjn types.
func (pj *Prjn) SynVal1D(varIdx int, synIdx int) float32 {
	if synIdx < 0 || synIdx >= len(pj.Syns) {
		return mat32.NaN()
	}
	if varIdx < 0 || varIdx >= pj.SlifPrj.SynVarNum() {
		return mat32.NaN()
	}
	sy := &pj.Syns[synIdx]
	return sy.VarByIndex(varIdx)
}

// SynVals sets values of given variable name for each synapse, using the natural ordering
// of the synapses (sender based), into given float32 slice (only resized if not big enough).
// Returns error on invalid var name.
func (pj *Prjn) SynVals(vals *[]float32, varNm string) error {
	vidx, err := pj.SlifPrj.SynVarIdx(varNm)
	if err != nil {
		return err
	}
	ns := len(pj.Syns)
	if *vals == nil || cap(*vals) < ns {
		*vals = make([]float32, ns)
	} else if len(*vals) < ns {
		*vals = (*vals)[0:ns]
	}
	for i := range pj.Syns {
		(*vals)[i] = pj.SlifPrj.SynVal1D(vidx, i)
	}
	return nil
}

// SynVal returns value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes).
// Returns NaN for access errors (see SynValTry for error message)
func (pj *Prjn) SynVal(varNm string, sidx, ridx int) float32 {
	vidx, err := pj.SlifPrj.SynVarIdx(varNm)
	if err != nil {
		return mat32.NaN()
	}
	synIdx := pj.SlifPrj.SynIdx(sidx, ridx)
	return pj.SlifPrj.SynVal1D(vidx, synIdx)
}

// SetSynVal sets value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes).
// Typically only supports base synapse variables and is not extended
// for derived types.
// Returns error for access errors.
func (pj *Prjn) SetSynVal(varNm string, sidx, ridx int, val float32) error {
	vidx, err := pj.SlifPrj.SynVarIdx(varNm)
	if err != nil {
		return err
	}
	synIdx := pj.SlifPrj.SynIdx(sidx, ridx)
	if synIdx < 0 || synIdx >= len(pj.Syns) {
		return fmt.Errorf("Prjn.SetSynVal: no synapse between send unit: %v and recv unit: %v", sidx, ridx)
	}
	sy := &pj.Syns[synIdx]
	sy.SetVarByIndex(vidx, val)
	return nil
}

///////////////////////////////////////////////////////////////////////
//  Weights File

// WriteWtsJSON writes the weights from this projection from the receiver-side perspective
// in a JSON text format.  We build in the indentation logic to make it much faster and
// more efficient.
func (pj *Prjn) WriteWtsJSON(w io.Writer, depth int) {
	slay := pj.Send.Name()
	nr := len(pj.Recv.(SlifLayer).AsSlif().Neurons)
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"From\": %q,\n", slay)))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"MetaData\": {\n")))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"GScale\": \"%g\"\n", pj.GScale)))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Rs\": [\n")))
	depth++
	for ri := 0; ri < nr; ri++ {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("{\n"))
		depth++
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"Ri\": %v,\n", ri)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"N\": %v,\n", nc)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Si\": [ "))
		for ci := 0; ci < nc; ci++ {
			si := pj.RConIdx[st+ci]
			w.Write([]byte(fmt.Sprintf("%v", si)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("],\n"))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Wt\": [ "))
		for ci := 0; ci < nc; ci++ {
			rsi := pj.RSynIdx[st+ci]
			sy := &pj.Syns[rsi]
			w.Write([]byte(strconv.FormatFloat(float64(sy.Wt), 'g', weights.Prec, 32)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("]\n"))
		depth--
		w.Write(indent.TabBytes(depth))
		if ri == nr-1 {
			w.Write([]byte("}\n"))
		} else {
			w.Write([]byte("},\n"))
		}
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("]\n"))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads the weights from this projection from the receiver-side perspective
// in a JSON text format.  This is for a set of weights that were saved *for one prjn only*
// and is not used for the network-level ReadWtsJSON, which reads into a separate
// structure -- see SetWts method.
func (pj *Prjn) ReadWtsJSON(r io.Reader) error {
	pw, err := weights.PrjnReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	return pj.SetWts(pw)
}

// SetWts sets the weights for this projection from weights.Prjn decoded values
func (pj *Prjn) SetWts(pw *weights.Prjn) error {
	if pw.MetaData != nil {
		if gs, ok := pw.MetaData["GScale"]; ok {
			pv, _ := strconv.ParseFloat(gs, 32)
			pj.GScale = float32(pv)
		}
	}
	var err error
	for i := range pw.Rs {
		pr := &pw.Rs[i]
		for si := range pr.Si {
			er := pj.SetSynVal("Wt", pr.Si[si], pr.Ri, pr.Wt[si])
			if er != nil {
				err = er
			}
		}
	}
	return err
}

// Build constructs the full connectivity among the layers as specified,
// configuring the synapse and input accumulator arrays
func (pj *Prjn) Build() error {
	if err := pj.BuildStru(); err != nil {
		return err
	}
	pj.Syns = make([]Synapse, len(pj.SConIdx))
	rsh := pj.Recv.Shape()
	rlen := rsh.Len()
	pj.GInc = make([]float32, rlen)
	return nil
}

///////////////////////////////////////////////////////////////////////
//  Init methods

// SetWtsFunc initializes synaptic Wt value using given function
// based on receiving and sending unit indexes.
func (pj *Prjn) SetWtsFunc(wtFun func(si, ri int, send, recv *etensor.Shape) float32) {
	rsh := pj.Recv.Shape()
	rn := rsh.Len()
	ssh := pj.Send.Shape()

	for ri := 0; ri < rn; ri++ {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pj.RConIdx[st+ci])
			wt := wtFun(si, ri, ssh, rsh)
			rsi := pj.RSynIdx[st+ci]
			sy := &pj.Syns[rsi]
			sy.Wt = wt
		}
	}
}

// InitWtsSyn initializes weight values based on WtInit randomness parameters
// for given synapse, with given number of connections received by its unit
// for the fan-in normalization.  Zeros the gradient and optimizer state.
func (pj *Prjn) InitWtsSyn(syn *Synapse, nrecv float32) {
	syn.Wt = float32(pj.WtInit.Gen(-1))
	if pj.WtInit.FanIn && nrecv > 0 {
		syn.Wt /= mat32.Sqrt(nrecv)
	}
	syn.DWt = 0
	syn.Moment = 0
	syn.Cache = 0
}

// InitWts initializes weight values according to WtInit params, and resets
// the optimizer state and input accumulators.  Iterates receiver-side so
// each synapse sees the fan-in of its receiving unit.
func (pj *Prjn) InitWts() {
	rlay := pj.Recv.(SlifLayer).AsSlif()
	for ri := range rlay.Neurons {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		for ci := 0; ci < nc; ci++ {
			rsi := pj.RSynIdx[st+ci]
			sy := &pj.Syns[rsi]
			pj.InitWtsSyn(sy, float32(nc))
		}
	}
	pj.Learn.Opt.InitOpt()
	pj.SlifPrj.InitGInc()
}

// InitGInc initializes the per-projection spike input accumulator
func (pj *Prjn) InitGInc() {
	for ri := range pj.GInc {
		pj.GInc[ri] = 0
	}
}

///////////////////////////////////////////////////////////////////////
//  Act methods

// SendSpike sends the spike output of given sending neuron index through
// all of its connections, depositing GScale * spike * Wt into each
// receiving unit's GInc accumulator.  Zero spikes send nothing.
func (pj *Prjn) SendSpike(si int, spk float32) {
	if spk == 0 {
		return
	}
	scdel := spk * pj.GScale
	nc := pj.SConN[si]
	st := pj.SConIdxSt[si]
	syns := pj.Syns[st : st+nc]
	scons := pj.SConIdx[st : st+nc]
	for ci := range syns {
		ri := scons[ci]
		pj.GInc[ri] += scdel * syns[ci].Wt
	}
}

// RecvGInc transfers the accumulated spike input into the receiving layer's
// Ge values, and zeros the accumulator for the next step
func (pj *Prjn) RecvGInc() {
	rlay := pj.Recv.(SlifLayer).AsSlif()
	for ri := range rlay.Neurons {
		rn := &rlay.Neurons[ri]
		rn.Ge += pj.GInc[ri]
		pj.GInc[ri] = 0
	}
}

///////////////////////////////////////////////////////////////////////
//  Learn methods

// BackStep propagates gradients backward through this projection for given
// step of the unrolled sequence.  Each receiving unit's input gradient DGe
// accumulates into the weight gradients, scaled by the sender's recorded
// spike at that step, and into the sending units' spike gradients DSpk.
// Spike gradients flow even when learning is off for this projection, so
// that upstream layers still receive their gradient signal.
func (pj *Prjn) BackStep(step int) {
	slay := pj.Send.(SlifLayer).AsSlif()
	rlay := pj.Recv.(SlifLayer).AsSlif()
	sn := len(slay.Neurons)
	lrn := pj.Learn.Learn
	for ri := range rlay.Neurons {
		rn := &rlay.Neurons[ri]
		dge := rn.DGe * pj.GScale
		if dge == 0 {
			continue
		}
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pj.RConIdx[st+ci])
			sy := &pj.Syns[pj.RSynIdx[st+ci]]
			if lrn {
				sy.DWt += dge * slay.SpikeH[step*sn+si]
			}
			slay.Neurons[si].DSpk += sy.Wt * dge
		}
	}
}

// WtFmDWt updates the synaptic weights from accumulated gradients, applying
// one optimizer step and zeroing the gradients for the next sequence
func (pj *Prjn) WtFmDWt() {
	if !pj.Learn.Learn {
		return
	}
	pj.Learn.Opt.StepInc()
	for si := range pj.Syns {
		sy := &pj.Syns[si]
		pj.Learn.Opt.WtFmDWt(&sy.Wt, &sy.DWt, &sy.Moment, &sy.Cache)
	}
}

// LrateMult sets the new Lrate parameter for Prjns to LrateInit * mult.
// useful for implementing learning rate schedules.
func (pj *Prjn) LrateMult(mult float32) {
	pj.Learn.Opt.Lrate = pj.Learn.Opt.LrateInit * mult
}
