// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"strings"

	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/emer/slif/surgrad"
	"github.com/goki/ki/bitflag"
	"github.com/goki/ki/indent"
	"github.com/goki/ki/ints"
	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// slif.Layer implements one stage of discrete-time leaky integrate-and-fire
// neurons: each step the integrated potential is Beta * Vm + Ge, a spike is
// emitted against the threshold (smooth surrogate during training, hard step
// otherwise), and the reset rule produces the carried potential.  Input
// layers pass their clamped external values through as their spike output;
// Target layers additionally hold clamped target values, and their carried
// potential is the continuous regression output of the network.
type Layer struct {
	LayerStru
	Act     ActParams       `view:"add-fields" desc:"spiking dynamics parameters: initial values, reset rule, and surrogate spike function"`
	Learn   LearnNeurParams `view:"add-fields" desc:"learning parameters for the neuron dynamics (Beta, Thr, Bias)"`
	Neurons []Neuron        `desc:"slice of neuron state for this layer -- flat list of len = Shape.Len()"`
	SpikeH  []float32       `view:"-" desc:"spike outputs recorded over the current training sequence, step-major: [step * len(Neurons) + ni] -- allocated by SeqInit when training"`
	VmIntH  []float32       `view:"-" desc:"integrated (pre-reset) potentials recorded over the current training sequence, step-major"`
	VmH     []float32       `view:"-" desc:"carried (post-reset) potentials recorded over the current training sequence, step-major"`
	TargH   []float32       `view:"-" desc:"clamped target values recorded over the current training sequence, step-major -- Target layers only"`
}

var KiT_Layer = kit.Types.AddType(&Layer{}, LayerProps)

// AsSlif returns this layer as a slif.Layer -- all derived layers must redefine
// this to return the base Layer type, so that the SlifLayer interface does not
// need to include accessors to all the basic stuff
func (ly *Layer) AsSlif() *Layer {
	return ly
}

func (ly *Layer) Defaults() {
	ly.Act.Defaults()
	ly.Learn.Defaults()
	if ly.Typ == emer.Target {
		// target potential is the continuous output -- never reset it
		ly.Act.Reset = NoReset
	}
	for _, p := range ly.RcvPrjns {
		p.Defaults()
	}
}

// UpdateParams updates all params given any changes that might have been made to individual values
// including those in the receiving projections of this layer
func (ly *Layer) UpdateParams() {
	ly.Act.Update()
	ly.Learn.Update()
	ly.Learn.Opt.LrateInit = ly.Learn.Opt.Lrate
	for _, p := range ly.RcvPrjns {
		p.UpdateParams()
	}
}

// JsonToParams reformates json output to suitable params display output
func JsonToParams(b []byte) string {
	br := strings.Replace(string(b), `"`, ``, -1)
	br = strings.Replace(br, ",\n", "", -1)
	br = strings.Replace(br, "{\n", "{", -1)
	br = strings.Replace(br, "} ", "},\n  ", -1)
	br = strings.Replace(br, "\n }", " }", -1)
	return br[1:] + "\n"
}

// AllParams returns a listing of all parameters in the Layer
func (ly *Layer) AllParams() string {
	str := "/////////////////////////////////////////////////\nLayer: " + ly.Nm + "\n"
	b, _ := json.MarshalIndent(&ly.Act, "", " ")
	str += "Act: {\n " + JsonToParams(b)
	b, _ = json.MarshalIndent(&ly.Learn, "", " ")
	str += "Learn: {\n " + JsonToParams(b)
	for _, p := range ly.RcvPrjns {
		pstr := p.AllParams()
		str += pstr
	}
	return str
}

// UnitVarNames returns a list of variable names available on the units in this layer
func (ly *Layer) UnitVarNames() []string {
	return NeuronVars
}

// UnitVarProps returns properties for variables
func (ly *Layer) UnitVarProps() map[string]string {
	return NeuronVarProps
}

// UnitVarIdx returns the index of given variable within the Neuron,
// according to UnitVarNames() list (using a map to lookup index),
// or -1 and error message if not found.
func (ly *Layer) UnitVarIdx(varNm string) (int, error) {
	return NeuronVarIdxByName(varNm)
}

// UnitVarNum returns the number of Neuron-level variables
// for this layer.  This is needed for extending indexes in derived types.
func (ly *Layer) UnitVarNum() int {
	return len(NeuronVars)
}

// UnitVal1D returns value of given variable index on given unit, using 1-dimensional index.
// returns NaN on invalid index.
// This is the core unit var access method used by other methods,
// so it is the only one that needs to be updated for derived layer types.
func (ly *Layer) UnitVal1D(varIdx int, idx int) float32 {
	if idx < 0 || idx >= len(ly.Neurons) {
		return mat32.NaN()
	}
	if varIdx < 0 || varIdx >= ly.SlifLay.UnitVarNum() {
		return mat32.NaN()
	}
	nrn := &ly.Neurons[idx]
	return nrn.VarByIndex(varIdx)
}

// UnitVals fills in values of given variable name on unit,
// for each unit in the layer, into given float32 slice (only resized if not big enough).
// Returns error on invalid var name.
func (ly *Layer) UnitVals(vals *[]float32, varNm string) error {
	nn := len(ly.Neurons)
	if *vals == nil || cap(*vals) < nn {
		*vals = make([]float32, nn)
	} else if len(*vals) < nn {
		*vals = (*vals)[0:nn]
	}
	vidx, err := ly.SlifLay.UnitVarIdx(varNm)
	if err != nil {
		nan := mat32.NaN()
		for i := range ly.Neurons {
			(*vals)[i] = nan
		}
		return err
	}
	for i := range ly.Neurons {
		(*vals)[i] = ly.SlifLay.UnitVal1D(vidx, i)
	}
	return nil
}

// UnitValsTensor returns values of given variable name on unit
// for each unit in the layer, as a float32 tensor in same shape as layer units.
func (ly *Layer) UnitValsTensor(tsr etensor.Tensor, varNm string) error {
	if tsr == nil {
		err := fmt.Errorf("slif.UnitValsTensor: Tensor is nil")
		log.Println(err)
		return err
	}
	tsr.SetShape(ly.Shp.Shp, ly.Shp.Strd, ly.Shp.Nms)
	vidx, err := ly.SlifLay.UnitVarIdx(varNm)
	if err != nil {
		nan := math.NaN()
		for i := range ly.Neurons {
			tsr.SetFloat1D(i, nan)
		}
		return err
	}
	for i := range ly.Neurons {
		v := ly.SlifLay.UnitVal1D(vidx, i)
		if mat32.IsNaN(v) {
			tsr.SetFloat1D(i, math.NaN())
		} else {
			tsr.SetFloat1D(i, float64(v))
		}
	}
	return nil
}

// UnitValsRepTensor fills in values of given variable name on unit
// for a smaller subset of representative units in the layer, into given tensor.
// This is used for computationally intensive stats or displays that work
// much better with a smaller number of units.
// The set of representative units are defined by SetRepIdxs -- all units
// are used if no such subset has been defined.
// Returns error on invalid var name.
func (ly *Layer) UnitValsRepTensor(tsr etensor.Tensor, varNm string) error {
	nu := len(ly.RepIxs)
	if nu == 0 {
		return ly.UnitValsTensor(tsr, varNm)
	}
	if tsr == nil {
		err := fmt.Errorf("slif.UnitValsRepTensor: Tensor is nil")
		log.Println(err)
		return err
	}
	if tsr.Len() != nu {
		rs := ly.RepShape()
		tsr.SetShape(rs.Shp, rs.Strd, rs.Nms)
	}
	vidx, err := ly.SlifLay.UnitVarIdx(varNm)
	if err != nil {
		nan := math.NaN()
		for i := range ly.RepIxs {
			tsr.SetFloat1D(i, nan)
		}
		return err
	}
	for i, ui := range ly.RepIxs {
		v := ly.SlifLay.UnitVal1D(vidx, ui)
		if mat32.IsNaN(v) {
			tsr.SetFloat1D(i, math.NaN())
		} else {
			tsr.SetFloat1D(i, float64(v))
		}
	}
	return nil
}

// UnitVal returns value of given variable name on given unit,
// using shape-based dimensional index
func (ly *Layer) UnitVal(varNm string, idx []int) float32 {
	vidx, err := ly.SlifLay.UnitVarIdx(varNm)
	if err != nil {
		return mat32.NaN()
	}
	fidx := ly.Shp.Offset(idx)
	return ly.SlifLay.UnitVal1D(vidx, fidx)
}

// VarRange returns the min / max values for given variable
// todo: support r. s. projection values
func (ly *Layer) VarRange(varNm string) (min, max float32, err error) {
	sz := len(ly.Neurons)
	if sz == 0 {
		return
	}
	vidx := 0
	vidx, err = NeuronVarIdxByName(varNm)
	if err != nil {
		return
	}
	v0 := ly.Neurons[0].VarByIndex(vidx)
	min = v0
	max = v0
	for i := 1; i < sz; i++ {
		vl := ly.Neurons[i].VarByIndex(vidx)
		if vl < min {
			min = vl
		}
		if vl > max {
			max = vl
		}
	}
	return
}

//////////////////////////////////////////////////////////////////////////////////////
//  Build

// BuildPrjns builds the projections, recv-side
func (ly *Layer) BuildPrjns() error {
	emsg := ""
	for _, p := range ly.RcvPrjns {
		if p.IsOff() {
			continue
		}
		err := p.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
	}
	if emsg != "" {
		return errors.New(emsg)
	}
	return nil
}

// Build constructs the layer's neuron state and its receiving projections.
// Validates the dynamics configuration here so that an invalid reset rule or
// surrogate function fails at construction, never during stepping.
func (ly *Layer) Build() error {
	nu := ly.Shp.Len()
	if nu == 0 {
		return fmt.Errorf("build Layer %v: no units specified in Shape", ly.Nm)
	}
	if ly.Act.Reset < 0 || ly.Act.Reset >= ResetTypesN {
		return fmt.Errorf("build Layer %v: invalid Act.Reset type: %d", ly.Nm, ly.Act.Reset)
	}
	if ly.Act.Surr.Fun < 0 || ly.Act.Surr.Fun >= surgrad.FuncsN {
		return fmt.Errorf("build Layer %v: invalid Act.Surr.Fun surrogate function: %d", ly.Nm, ly.Act.Surr.Fun)
	}
	ly.Neurons = make([]Neuron, nu)
	err := ly.BuildPrjns()
	return err
}

//////////////////////////////////////////////////////////////////////////////////////
//  Weights File

// WriteWtsJSON writes the weights from this layer from the receiver-side perspective
// in a JSON text format.  We build in the indentation logic to make it much faster and
// more efficient.  The learned neuron dynamics parameters are saved as unit-level
// values alongside the projection weights.
func (ly *Layer) WriteWtsJSON(w io.Writer, depth int) {
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Layer\": %q,\n", ly.Nm)))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Units\": {\n")))
	depth++
	unvr := []string{"Beta", "Thr", "Bias"}
	for vi, vnm := range unvr {
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("%q: [ ", vnm)))
		nn := len(ly.Neurons)
		for ni := range ly.Neurons {
			nrn := &ly.Neurons[ni]
			vl, _ := nrn.VarByName(vnm)
			w.Write([]byte(fmt.Sprintf("%g", vl)))
			if ni < nn-1 {
				w.Write([]byte(", "))
			}
		}
		if vi < len(unvr)-1 {
			w.Write([]byte(" ],\n"))
		} else {
			w.Write([]byte(" ]\n"))
		}
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	onps := make(emer.Prjns, 0, len(ly.RcvPrjns))
	for _, p := range ly.RcvPrjns {
		if !p.IsOff() {
			onps = append(onps, p)
		}
	}
	np := len(onps)
	if np == 0 {
		w.Write([]byte(fmt.Sprintf("\"Prjns\": null\n")))
	} else {
		w.Write([]byte(fmt.Sprintf("\"Prjns\": [\n")))
		depth++
		for pi, p := range onps {
			p.WriteWtsJSON(w, depth) // this leaves prjn unterminated
			if pi == np-1 {
				w.Write([]byte("\n"))
			} else {
				w.Write([]byte(",\n"))
			}
		}
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("]\n"))
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads the weights from this layer from the receiver-side perspective
// in a JSON text format.  This is for a set of weights that were saved *for one layer only*
// and is not used for the network-level ReadWtsJSON, which reads into a separate
// structure -- see SetWts method.
func (ly *Layer) ReadWtsJSON(r io.Reader) error {
	lw, err := weights.LayReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	return ly.SetWts(lw)
}

// SetWts sets the weights for this layer from weights.Layer decoded values,
// including the learned neuron dynamics parameters from the unit-level values
func (ly *Layer) SetWts(lw *weights.Layer) error {
	if ly.IsOff() {
		return nil
	}
	if lw.Units != nil {
		for vnm, vls := range lw.Units {
			vidx, err := NeuronVarIdxByName(vnm)
			if err != nil {
				continue
			}
			mx := ints.MinInt(len(vls), len(ly.Neurons))
			for ni := 0; ni < mx; ni++ {
				nrn := &ly.Neurons[ni]
				nrn.SetVarByIndex(vidx, vls[ni])
			}
		}
	}
	var err error
	rpjs := ly.RecvPrjns()
	if len(lw.Prjns) == len(*rpjs) { // this is essential if multiple prjns from same layer
		for pi := range lw.Prjns {
			pw := &lw.Prjns[pi]
			pj := (*rpjs)[pi]
			er := pj.SetWts(pw)
			if er != nil {
				err = er
			}
		}
	} else {
		for pi := range lw.Prjns {
			pw := &lw.Prjns[pi]
			pj, _ := rpjs.SendNameTry(pw.From)
			if pj != nil {
				er := pj.SetWts(pw)
				if er != nil {
					err = er
				}
			}
		}
	}
	return err
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init methods

// InitWts initializes the weight values in the network, i.e., resetting learning:
// the synaptic weights of all sending projections, the learnable neuron dynamics
// parameters, and all gradient and optimizer state.  Also calls InitActs.
func (ly *Layer) InitWts() {
	ly.SlifLay.UpdateParams()
	for _, p := range ly.SndPrjns {
		if p.IsOff() {
			continue
		}
		p.(SlifPrjn).InitWts()
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		ly.Act.InitParams(nrn)
	}
	ly.Learn.Opt.InitOpt()
	ly.SlifLay.InitActs()
}

// InitActs fully initializes activation state -- only called automatically during InitWts
func (ly *Layer) InitActs() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		ly.Act.InitActs(nrn)
	}
}

// InitExt initializes external input state -- call prior to applying external inputs to layers
func (ly *Layer) InitExt() {
	msk := bitflag.Mask32(int(NeurHasExt), int(NeurHasTarg))
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ext = 0
		nrn.Targ = 0
		nrn.ClearMask(msk)
	}
}

// InitGInc initializes the Ge input accumulation state, including the GInc
// accumulators on the receiving projections -- called at start of sequence,
// and can be called whenever the accumulated inputs need to be discarded
func (ly *Layer) InitGInc() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ge = 0
	}
	for _, p := range ly.RcvPrjns {
		if p.IsOff() {
			continue
		}
		p.(SlifPrjn).InitGInc()
	}
}

// ApplyExtFlags gets the clear mask and set mask for updating neuron flags
// based on layer type, and whether input should be applied to Targ (else Ext)
func (ly *Layer) ApplyExtFlags() (clrmsk, setmsk int32, toTarg bool) {
	clrmsk = bitflag.Mask32(int(NeurHasExt), int(NeurHasTarg))
	toTarg = false
	if ly.Typ == emer.Target {
		setmsk = bitflag.Mask32(int(NeurHasTarg))
		toTarg = true
	} else {
		setmsk = bitflag.Mask32(int(NeurHasExt))
	}
	return
}

// ApplyExt applies external input in the form of an etensor.Float32.  If
// dimensionality of tensor matches that of layer, and is 2D, then each dimension
// is iterated separately, so any mismatch preserves dimensional structure.
// Otherwise, the flat 1D view of the tensor is used.
// If the layer is a Target layer type, then it goes in Targ
// otherwise it goes in Ext
func (ly *Layer) ApplyExt(ext etensor.Tensor) {
	if ext.NumDims() == 2 && ly.Shp.NumDims() == 2 {
		ly.ApplyExt2D(ext)
	} else {
		ly.ApplyExt1DTsr(ext)
	}
}

// ApplyExt2D applies 2D tensor external input
func (ly *Layer) ApplyExt2D(ext etensor.Tensor) {
	clrmsk, setmsk, toTarg := ly.ApplyExtFlags()
	ymx := ints.MinInt(ext.Dim(0), ly.Shp.Dim(0))
	xmx := ints.MinInt(ext.Dim(1), ly.Shp.Dim(1))
	for y := 0; y < ymx; y++ {
		for x := 0; x < xmx; x++ {
			idx := []int{y, x}
			vl := float32(ext.FloatVal(idx))
			i := ly.Shp.Offset(idx)
			ly.ApplyExtVal(i, vl, clrmsk, setmsk, toTarg)
		}
	}
}

// ApplyExt1DTsr applies external input using 1D flat interface into tensor
func (ly *Layer) ApplyExt1DTsr(ext etensor.Tensor) {
	clrmsk, setmsk, toTarg := ly.ApplyExtFlags()
	mx := ints.MinInt(ext.Len(), len(ly.Neurons))
	for i := 0; i < mx; i++ {
		vl := float32(ext.FloatVal1D(i))
		ly.ApplyExtVal(i, vl, clrmsk, setmsk, toTarg)
	}
}

// ApplyExt1D applies external input in the form of a flat 1-dimensional slice of floats
// If the layer is a Target layer type, then it goes in Targ
// otherwise it goes in Ext
func (ly *Layer) ApplyExt1D(ext []float64) {
	clrmsk, setmsk, toTarg := ly.ApplyExtFlags()
	mx := ints.MinInt(len(ext), len(ly.Neurons))
	for i := 0; i < mx; i++ {
		vl := float32(ext[i])
		ly.ApplyExtVal(i, vl, clrmsk, setmsk, toTarg)
	}
}

// ApplyExt1D32 applies external input in the form of a flat 1-dimensional slice of float32s.
// If the layer is a Target layer type, then it goes in Targ
// otherwise it goes in Ext
func (ly *Layer) ApplyExt1D32(ext []float32) {
	clrmsk, setmsk, toTarg := ly.ApplyExtFlags()
	mx := ints.MinInt(len(ext), len(ly.Neurons))
	for i := 0; i < mx; i++ {
		vl := ext[i]
		ly.ApplyExtVal(i, vl, clrmsk, setmsk, toTarg)
	}
}

// ApplyExtVal applies given external value to given neuron index,
// setting flags from the masks
func (ly *Layer) ApplyExtVal(ni int, val float32, clrmsk, setmsk int32, toTarg bool) {
	nrn := &ly.Neurons[ni]
	if nrn.IsOff() {
		return
	}
	if toTarg {
		nrn.Targ = val
	} else {
		nrn.Ext = val
	}
	nrn.ClearMask(clrmsk)
	nrn.SetMask(setmsk)
}

// UpdateExtFlags updates the neuron flags for external input based on current
// layer Type field -- call this if the Type has changed since the last
// ApplyExt* method call.
func (ly *Layer) UpdateExtFlags() {
	clrmsk, setmsk, _ := ly.ApplyExtFlags()
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		if nrn.HasFlag(NeurHasExt) || nrn.HasFlag(NeurHasTarg) {
			nrn.ClearMask(clrmsk)
			nrn.SetMask(setmsk)
		}
	}
}

// SeqInit prepares the layer for a new unrolled sequence: initializes the
// activation state and input accumulators and, when training, allocates and
// zeros the step histories consumed by the backward pass.  The history
// buffers are reused across sequences of the same length.
func (ly *Layer) SeqInit(ltime *Time) {
	ly.SlifLay.InitActs()
	ly.SlifLay.InitGInc()
	nh := 0
	if ltime.Train {
		nh = ltime.SeqLen * len(ly.Neurons)
	}
	ly.SpikeH = histAlloc(ly.SpikeH, nh)
	ly.VmIntH = histAlloc(ly.VmIntH, nh)
	ly.VmH = histAlloc(ly.VmH, nh)
	if ly.Typ == emer.Target {
		ly.TargH = histAlloc(ly.TargH, nh)
	} else {
		ly.TargH = nil
	}
}

// histAlloc returns a zeroed history slice of given size, reusing the
// existing capacity where possible.  size 0 returns nil.
func histAlloc(h []float32, sz int) []float32 {
	if sz == 0 {
		return nil
	}
	if cap(h) < sz {
		return make([]float32, sz)
	}
	h = h[:sz]
	for i := range h {
		h[i] = 0
	}
	return h
}

//////////////////////////////////////////////////////////////////////////////////////
//  Act methods

// GeFmInc integrates the total input current Ge for this step from the bias
// current plus the spike inputs accumulated on each receiving projection.
// Input layers have no synaptic drive and are skipped.
func (ly *Layer) GeFmInc(ltime *Time) {
	if ly.Typ == emer.Input {
		return
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ge = nrn.Bias
	}
	for _, p := range ly.RcvPrjns {
		if p.IsOff() {
			continue
		}
		p.(SlifPrjn).RecvGInc()
	}
}

// StepFmGe advances the integrate-and-fire dynamics by one step from the
// integrated input: candidate potential, spike (surrogate during training,
// hard threshold otherwise), and the reset rule producing the carried
// potential.  Input layers instead clamp Spike directly from the applied
// external value, passing the raw input downstream.
func (ly *Layer) StepFmGe(ltime *Time) {
	if ly.Typ == emer.Input {
		for ni := range ly.Neurons {
			nrn := &ly.Neurons[ni]
			if nrn.IsOff() {
				continue
			}
			nrn.Spike = nrn.Ext
		}
		return
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		ly.Act.VmIntFmGe(nrn)
		ly.Act.SpikeFmVm(nrn, ltime.Train)
	}
}

// SendSpike sends the spike output of this layer's neurons through all
// sending projections, accumulating into the receiving layers' input
// buffers -- consumed by downstream layers' GeFmInc within the same step
func (ly *Layer) SendSpike(ltime *Time) {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		for _, sp := range ly.SndPrjns {
			if sp.IsOff() {
				continue
			}
			sp.(SlifPrjn).SendSpike(ni, nrn.Spike)
		}
	}
}

// RecordStep records the current per-neuron state into the sequence
// histories consumed by the backward pass.  No-op unless training histories
// were allocated by SeqInit.
func (ly *Layer) RecordStep(ltime *Time) {
	nn := len(ly.Neurons)
	st := ltime.Step * nn
	if len(ly.SpikeH) < st+nn {
		return
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		ly.SpikeH[st+ni] = nrn.Spike
		ly.VmIntH[st+ni] = nrn.VmInt
		ly.VmH[st+ni] = nrn.Vm
	}
	if ly.TargH != nil {
		for ni := range ly.Neurons {
			ly.TargH[st+ni] = ly.Neurons[ni].Targ
		}
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Learn methods

// BackStep computes the backward pass through this layer for given step of
// the unrolled sequence -- called with step = SeqLen-1 down to 0.  Within
// each step, layers must be processed in reverse depth order, so that
// downstream layers have already deposited this layer's spike gradients
// (DSpk) through the projections before they are consumed here.
// The incoming gradients per neuron are DSpk, the carried potential gradient
// DVm from step+1, and for Target layers the squared-error derivative on the
// recorded potential.  These combine through the surrogate derivative and
// the reset rule partials into the candidate-potential gradient, which
// accumulates DBeta / DThr / DBias and propagates as DGe through the
// receiving projections (weight gradients plus upstream spike gradients).
func (ly *Layer) BackStep(ltime *Time, step int) {
	nn := len(ly.Neurons)
	if nn == 0 {
		return
	}
	if ly.Typ == emer.Input {
		for ni := range ly.Neurons {
			nrn := &ly.Neurons[ni]
			nrn.DSpk = 0
			nrn.DGe = 0
			nrn.DVm = 0
		}
		return
	}
	st := step * nn
	if len(ly.VmIntH) < st+nn {
		return
	}
	nsteps := float32(ltime.SeqLen)
	isTarg := ly.Typ == emer.Target && ly.TargH != nil
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		dvm := nrn.DVm
		if isTarg {
			dvm += 2 * (ly.VmH[st+ni] - ly.TargH[st+ni]) / nsteps
		}
		spk := ly.SpikeH[st+ni]
		vmInt := ly.VmIntH[st+ni]
		sd := ly.Act.Surr.Deriv(vmInt - nrn.Thr)
		var dvmDc, dvmDthr float32
		switch ly.Act.Reset {
		case SubReset: // vm = c - thr * s(c - thr)
			dvmDc = 1 - nrn.Thr*sd
			dvmDthr = nrn.Thr*sd - spk
		case ZeroReset: // vm = c * (1 - s(c - thr))
			dvmDc = (1 - spk) - vmInt*sd
			dvmDthr = vmInt * sd
		default: // NoReset: vm = c
			dvmDc = 1
			dvmDthr = 0
		}
		dc := nrn.DSpk*sd + dvm*dvmDc
		nrn.DThr += -nrn.DSpk*sd + dvm*dvmDthr
		vmPrev := ly.Act.Init.Vm
		if step > 0 {
			vmPrev = ly.VmH[st-nn+ni]
		}
		nrn.DBeta += dc * vmPrev
		nrn.DBias += dc
		nrn.DGe = dc
		nrn.DVm = dc * nrn.Beta // carried to step-1
		nrn.DSpk = 0
	}
	for _, p := range ly.RcvPrjns {
		if p.IsOff() {
			continue
		}
		p.(SlifPrjn).BackStep(step)
	}
}

// SeqLoss returns the squared error between the recorded potentials and
// targets, summed over units and steps and normalized by the number of
// steps.  Returns 0 for non-target layers or when no histories exist.
func (ly *Layer) SeqLoss(ltime *Time) float32 {
	if ly.Typ != emer.Target || ly.TargH == nil {
		return 0
	}
	nn := len(ly.Neurons)
	nsteps := ltime.SeqLen
	if nn == 0 || nsteps == 0 || len(ly.VmH) < nsteps*nn {
		return 0
	}
	loss := float32(0)
	for t := 0; t < nsteps; t++ {
		st := t * nn
		for ni := 0; ni < nn; ni++ {
			d := ly.VmH[st+ni] - ly.TargH[st+ni]
			loss += d * d
		}
	}
	return loss / float32(nsteps)
}

// WtFmDWt applies one optimizer update to all learnable parameters from
// their accumulated sequence gradients: the neuron dynamics parameters of
// this layer, and the synaptic weights of its receiving projections.
// Gradients are zeroed as they are applied.
func (ly *Layer) WtFmDWt() {
	if ly.Typ != emer.Input {
		if ly.Learn.Learn {
			ly.Learn.Opt.StepInc()
			for ni := range ly.Neurons {
				nrn := &ly.Neurons[ni]
				if nrn.IsOff() {
					continue
				}
				ly.Learn.ParamsFmGrad(nrn)
			}
		} else {
			for ni := range ly.Neurons {
				nrn := &ly.Neurons[ni]
				nrn.DBeta = 0
				nrn.DThr = 0
				nrn.DBias = 0
			}
		}
	}
	for _, p := range ly.RcvPrjns {
		if p.IsOff() {
			continue
		}
		p.(SlifPrjn).WtFmDWt()
	}
}

// LrateMult sets the new Lrate parameter for Prjns to LrateInit * mult.
// Useful for implementing learning rate schedules.  Also applies to the
// layer's own dynamics-parameter learning rate.
func (ly *Layer) LrateMult(mult float32) {
	ly.Learn.Opt.Lrate = ly.Learn.Opt.LrateInit * mult
	for _, p := range ly.RcvPrjns {
		// keep all sync'd, even if off
		p.(SlifPrjn).AsSlif().LrateMult(mult)
	}
}

// IsTarget returns true if this layer is a Target layer -- its carried
// potential is compared against clamped Targ values to drive learning
func (ly *Layer) IsTarget() bool {
	return ly.Typ == emer.Target
}

//////////////////////////////////////////////////////////////////////////////////////
//  Lesion methods

// UnLesionNeurons unlesions (clears the Off flag) for all neurons in the layer
func (ly *Layer) UnLesionNeurons() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.ClearFlag(NeurOff)
	}
}

// LesionNeurons lesions (sets the Off flag) for given proportion (0-1) of neurons in layer
// returns number of neurons lesioned.  Emits error if prop > 1 as indication that percent
// might have been passed
func (ly *Layer) LesionNeurons(prop float32) int {
	ly.UnLesionNeurons()
	if prop > 1 {
		log.Printf("LesionNeurons got a proportion > 1 -- must be 0-1 as *proportion* (not percent) of neurons to lesion: %v\n", prop)
		return 0
	}
	nn := len(ly.Neurons)
	if nn == 0 {
		return 0
	}
	p := rand.Perm(nn)
	nl := int(prop * float32(nn))
	for i := 0; i < nl; i++ {
		nrn := &ly.Neurons[p[i]]
		nrn.SetFlag(NeurOff)
	}
	return nl
}

//////////////////////////////////////////////////////////////////////////////////////
//  Layer props for gui

var LayerProps = ki.Props{
	"ToolBar": ki.PropSlice{
		{"Defaults", ki.Props{
			"icon": "reset",
			"desc": "return all parameters to their intial default values",
		}},
		{"InitWts", ki.Props{
			"icon": "update",
			"desc": "initialize the layer's weight values according to prjn parameters, for all *sending* projections out of this layer",
		}},
		{"InitActs", ki.Props{
			"icon": "update",
			"desc": "initialize the layer's activation values",
		}},
		{"sep-act", ki.BlankProp{}},
		{"LesionNeurons", ki.Props{
			"icon": "close",
			"desc": "Lesion (set the Off flag) for given proportion of neurons in the layer (number must be 0 -- 1, NOT percent!)",
			"Args": ki.PropSlice{
				{"Proportion", ki.Props{
					"desc": "proportion (0 -- 1) of neurons to lesion",
				}},
			},
		}},
		{"UnLesionNeurons", ki.Props{
			"icon": "reset",
			"desc": "Un-Lesion (reset the Off flag) for all neurons in the layer",
		}},
	},
}
