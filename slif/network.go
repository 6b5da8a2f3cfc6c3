// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
	"github.com/goki/ki/ki"
	"github.com/goki/ki/kit"
)

// slif.Network runs a feed-forward network of discrete-time leaky
// integrate-and-fire layers over an input sequence, one step per input,
// and learns by backpropagating through the recorded sequence using
// surrogate spike gradients.
type Network struct {
	NetworkStru
}

var KiT_Network = kit.Types.AddType(&Network{}, NetworkProps)

func (nt *Network) AsSlif() *Network {
	return nt
}

// NewLayer returns new layer of proper type
func (nt *Network) NewLayer() emer.Layer {
	return &Layer{}
}

// NewPrjn returns new prjn of proper type
func (nt *Network) NewPrjn() emer.Prjn {
	return &Prjn{}
}

// Defaults sets all the default parameters for all layers and projections
func (nt *Network) Defaults() {
	for li, ly := range nt.Layers {
		ly.Defaults()
		ly.SetIndex(li)
	}
}

// UpdateParams updates all the derived parameters if any have changed, for all layers
// and projections
func (nt *Network) UpdateParams() {
	for _, ly := range nt.Layers {
		ly.UpdateParams()
	}
}

// UnitVarNames returns a list of variable names available on the units in this network.
// Not all layers need to support all variables, but must safely return 0's for
// unsupported ones.  The order of this list determines NetView variable display order.
// This is typically a global list so do not modify!
func (nt *Network) UnitVarNames() []string {
	return NeuronVars
}

// UnitVarProps returns properties for variables
func (nt *Network) UnitVarProps() map[string]string {
	return NeuronVarProps
}

// SynVarNames returns the names of all the variables on the synapses in this network.
// Not all projections need to support all variables, but must safely return 0's for
// unsupported ones.  The order of this list determines NetView variable display order.
// This is typically a global list so do not modify!
func (nt *Network) SynVarNames() []string {
	return SynapseVars
}

// SynVarProps returns properties for variables
func (nt *Network) SynVarProps() map[string]string {
	return SynapseVarProps
}

// KeyLayerParams returns a listing for all layers in the network,
// of the most important layer-level params (specific to each algorithm).
func (nt *Network) KeyLayerParams() string {
	var b strings.Builder
	for _, lyi := range nt.Layers {
		ly := lyi.(SlifLayer).AsSlif()
		fmt.Fprintf(&b, "%14s: \t Reset: %s \t Surr: %s \t Gain: %g \t Opt: %s \t Lrate: %g\n", ly.Nm, ly.Act.Reset, ly.Act.Surr.Fun, ly.Act.Surr.Gain, ly.Learn.Opt.Typ, ly.Learn.Opt.Lrate)
	}
	return b.String()
}

// KeyPrjnParams returns a listing for all Recv projections in the network,
// of the most important projection-level params (specific to each algorithm).
func (nt *Network) KeyPrjnParams() string {
	var b strings.Builder
	for _, lyi := range nt.Layers {
		ly := lyi.(SlifLayer).AsSlif()
		for _, pji := range ly.RcvPrjns {
			pj := pji.(SlifPrjn).AsSlif()
			fmt.Fprintf(&b, "%14s: \t GScale: %g \t Learn: %v \t Lrate: %g\n", pj.Name(), pj.GScale, pj.Learn.Learn, pj.Learn.Opt.Lrate)
		}
	}
	return b.String()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Primary Algorithmic interface.
//
//  The following methods constitute the primary user-called API to run a network
//  over an input sequence and learn from it.
//
//  They just call the corresponding Impl method using the SlifNetwork interface
//  so that other network types can specialize any of these entry points.

// SeqInit initializes the network for running a new input sequence: zeros all
// activation state and input accumulators and, in training mode, allocates
// and zeros the per-step state histories needed for the backward pass.
// ltime.SeqStart must have been called first to set the sequence length.
func (nt *Network) SeqInit(ltime *Time) {
	nt.EmerNet.(SlifNetwork).SeqInitImpl(ltime)
}

// Cycle runs one step of activation updating, propagating the currently
// applied external input through all layers within the same step.
func (nt *Network) Cycle(ltime *Time) {
	nt.EmerNet.(SlifNetwork).CycleImpl(ltime)
}

// BackSeq runs the backward pass over the just-completed sequence,
// accumulating all parameter gradients, and returns the sequence loss.
// Requires that the sequence was run in training mode (ltime.Train), so that
// the per-step histories were recorded.
func (nt *Network) BackSeq(ltime *Time) float32 {
	return nt.EmerNet.(SlifNetwork).BackSeqImpl(ltime)
}

// WtFmDWt updates all learnable parameters from the accumulated gradients:
// synaptic weights and the per-neuron dynamics parameters (Beta, Thr, Bias).
// Gradients accumulate across sequences until this is called, so multiple
// sequences can be batched into one update.
func (nt *Network) WtFmDWt() {
	nt.EmerNet.(SlifNetwork).WtFmDWtImpl()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init methods

// InitWts initializes synaptic weights and the learnable neuron dynamics
// parameters, and resets all gradient and optimizer state, i.e., resetting learning
func (nt *Network) InitWts() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.(SlifLayer).InitWts()
	}
}

// InitActs fully initializes activation state -- not automatically called
func (nt *Network) InitActs() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.(SlifLayer).InitActs()
	}
}

// InitExt initializes external input state -- call prior to applying external inputs to layers
func (nt *Network) InitExt() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.(SlifLayer).InitExt()
	}
}

// UpdateExtFlags updates the neuron flags for external input based on current
// layer Type field -- call this if the Type has changed since the last
// ApplyExt* method call.
func (nt *Network) UpdateExtFlags() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.(SlifLayer).UpdateExtFlags()
	}
}

// InitGInc initializes the synaptic input accumulation state, at the layer and
// projection level.  Called at start of a sequence (at layer level), and can be
// called whenever the accumulated inputs need to be discarded (e.g., weights
// might have changed strength).
func (nt *Network) InitGInc() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.(SlifLayer).InitGInc()
	}
}

// SeqInitImpl initializes all layers for running a new input sequence
func (nt *Network) SeqInitImpl(ltime *Time) {
	nt.LayFun(func(ly SlifLayer) { ly.SeqInit(ltime) }, "SeqInit ")
}

//////////////////////////////////////////////////////////////////////////////////////
//  Act methods

// CycleImpl runs one step of activation updating, layer-by-layer in the
// feed-forward processing order:
// * GeFmInc integrates the synaptic inputs accumulated on each projection
// * StepFmGe runs the potential integration, spike, and reset dynamics
// * SendSpike sends the new spikes to the receiving projections
// * RecordStep records state into the sequence histories (when training)
// Each layer completes all phases before the next layer starts, so an input
// applied at a given step reaches the output layer within that same step.
func (nt *Network) CycleImpl(ltime *Time) {
	nt.LayFun(func(ly SlifLayer) {
		ly.GeFmInc(ltime)
		ly.StepFmGe(ltime)
		ly.SendSpike(ltime)
		if ltime.Train {
			ly.RecordStep(ltime)
		}
	}, "Cycle   ")
}

//////////////////////////////////////////////////////////////////////////////////////
//  Learn methods

// BackSeqImpl runs the backward pass over the just-completed sequence:
// zeros the carried gradient state, then walks the recorded steps in reverse
// order, processing layers in reverse order within each step, accumulating
// all parameter gradients.  Returns the total sequence loss over target layers.
func (nt *Network) BackSeqImpl(ltime *Time) float32 {
	nt.LayFun(func(ly SlifLayer) {
		lly := ly.AsSlif()
		for ni := range lly.Neurons {
			nrn := &lly.Neurons[ni]
			nrn.DSpk = 0
			nrn.DGe = 0
			nrn.DVm = 0
		}
	}, "BackInit")
	for step := ltime.SeqLen - 1; step >= 0; step-- {
		nt.BackLayFun(func(ly SlifLayer) { ly.BackStep(ltime, step) }, "BackStep")
	}
	loss := float32(0)
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		loss += ly.(SlifLayer).SeqLoss(ltime)
	}
	return loss
}

// WtFmDWtImpl updates the weights and neuron dynamics parameters from the
// accumulated gradients.
func (nt *Network) WtFmDWtImpl() {
	nt.LayFun(func(ly SlifLayer) { ly.WtFmDWt() }, "WtFmDWt ")
}

// LrateMult sets the new Lrate parameter for Prjns to LrateInit * mult.
// Useful for implementing learning rate schedules.
func (nt *Network) LrateMult(mult float32) {
	for _, ly := range nt.Layers {
		// if ly.IsOff() { // keep all sync'd
		// 	continue
		// }
		ly.(SlifLayer).AsSlif().LrateMult(mult)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Sequence drivers

// RunSeq runs the network forward in test mode over a sequence of scalar
// input values: initializes all state, then for each step clamps ins[step]
// onto the in layer, runs Cycle, and collects the out layer's carried
// potential Vm.  Spikes are the discrete 0 / 1 kind and no step histories
// are recorded.  The in and out layers must each have exactly 1 unit --
// returns an error otherwise.  An empty input sequence returns an empty
// output, no error.
func (nt *Network) RunSeq(ltime *Time, ins []float32, in, out *Layer) ([]float32, error) {
	if len(in.Neurons) != 1 {
		return nil, fmt.Errorf("RunSeq: in layer %v must have exactly 1 unit, has: %d", in.Nm, len(in.Neurons))
	}
	if len(out.Neurons) != 1 {
		return nil, fmt.Errorf("RunSeq: out layer %v must have exactly 1 unit, has: %d", out.Nm, len(out.Neurons))
	}
	ltime.Train = false
	ltime.SeqStart(len(ins))
	nt.SeqInit(ltime)
	outs := make([]float32, 0, len(ins))
	ext := make([]float32, 1)
	for _, v := range ins {
		ext[0] = v
		in.ApplyExt1D32(ext)
		nt.Cycle(ltime)
		outs = append(outs, out.Neurons[0].Vm)
		ltime.StepInc()
	}
	return outs, nil
}

// LearnSeq runs the network over a sequence of scalar inputs in training
// mode, clamping targs[step] onto the out layer at each step, then runs the
// backward pass to accumulate gradients.  Returns the collected output
// potentials and the sequence loss.  Call WtFmDWt after one or more
// LearnSeq calls to apply the accumulated gradients.
// ins and targs must be the same length, and the in and out layers must
// each have exactly 1 unit -- returns an error otherwise.
func (nt *Network) LearnSeq(ltime *Time, ins, targs []float32, in, out *Layer) ([]float32, float32, error) {
	if len(ins) != len(targs) {
		return nil, 0, fmt.Errorf("LearnSeq: ins len: %d != targs len: %d", len(ins), len(targs))
	}
	if len(in.Neurons) != 1 {
		return nil, 0, fmt.Errorf("LearnSeq: in layer %v must have exactly 1 unit, has: %d", in.Nm, len(in.Neurons))
	}
	if len(out.Neurons) != 1 {
		return nil, 0, fmt.Errorf("LearnSeq: out layer %v must have exactly 1 unit, has: %d", out.Nm, len(out.Neurons))
	}
	ltime.Train = true
	ltime.SeqStart(len(ins))
	nt.SeqInit(ltime)
	outs := make([]float32, 0, len(ins))
	ext := make([]float32, 1)
	tg := make([]float32, 1)
	for t, v := range ins {
		ext[0] = v
		in.ApplyExt1D32(ext)
		tg[0] = targs[t]
		out.ApplyExt1D32(tg)
		nt.Cycle(ltime)
		outs = append(outs, out.Neurons[0].Vm)
		ltime.StepInc()
	}
	loss := nt.BackSeq(ltime)
	return outs, loss, nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Builders

// AddChain builds the standard scalar-sequence network: a 1-unit Input layer,
// two nHid-unit Hidden layers, and a 1-unit Target output layer, connected
// in order with full projections.  The output layer gets the NoReset rule
// from its Target type defaults, so its carried potential is the continuous
// regression output that RunSeq collects.
// Call Defaults, Build, and InitWts after this, per the usual sequence.
func (nt *Network) AddChain(nHid int) (in, hid, hid2, out *Layer) {
	in = nt.AddLayer2D("Input", 1, 1, emer.Input).(*Layer)
	hid = nt.AddLayer2D("Hidden", 1, nHid, emer.Hidden).(*Layer)
	hid2 = nt.AddLayer2D("Hidden2", 1, nHid, emer.Hidden).(*Layer)
	out = nt.AddLayer2D("Output", 1, 1, emer.Target).(*Layer)
	full := prjn.NewFull()
	nt.ConnectLayers(in, hid, full, emer.Forward)
	nt.ConnectLayers(hid, hid2, full, emer.Forward)
	nt.ConnectLayers(hid2, out, full, emer.Forward)
	return
}

//////////////////////////////////////////////////////////////////////////////////////
//  Lesion methods

// LayersSetOff sets the Off flag for all layers to given setting
func (nt *Network) LayersSetOff(off bool) {
	for _, ly := range nt.Layers {
		ly.SetOff(off)
	}
}

// UnLesionNeurons unlesions neurons in all layers in the network.
// Provides a clean starting point for subsequent lesion experiments.
func (nt *Network) UnLesionNeurons() {
	for _, ly := range nt.Layers {
		// if ly.IsOff() { // keep all sync'd
		// 	continue
		// }
		ly.(SlifLayer).AsSlif().UnLesionNeurons()
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Misc Reports

// SizeReport returns a string reporting the size of each layer and projection
// in the network, and total memory footprint.
func (nt *Network) SizeReport() string {
	var b strings.Builder
	neur := 0
	neurMem := 0
	syn := 0
	synMem := 0
	for _, lyi := range nt.Layers {
		ly := lyi.(SlifLayer).AsSlif()
		nn := len(ly.Neurons)
		nmem := nn*int(unsafe.Sizeof(Neuron{})) + (len(ly.SpikeH)+len(ly.VmIntH)+len(ly.VmH)+len(ly.TargH))*4
		neur += nn
		neurMem += nmem
		fmt.Fprintf(&b, "%14s:\t Neurons: %d\t NeurMem: %v \t Sends To:\n", ly.Nm, nn, (datasize.ByteSize)(nmem).HumanReadable())
		for _, pji := range ly.SndPrjns {
			pj := pji.(SlifPrjn).AsSlif()
			ns := len(pj.Syns)
			syn += ns
			pmem := ns*int(unsafe.Sizeof(Synapse{})) + len(pj.GInc)*4
			synMem += pmem
			fmt.Fprintf(&b, "\t%14s:\t Syns: %d\t SynnMem: %v\n", pj.Recv.Name(), ns, (datasize.ByteSize)(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n\n%14s:\t Neurons: %d\t NeurMem: %v \t Syns: %d \t SynMem: %v\n", nt.Nm, neur, (datasize.ByteSize)(neurMem).HumanReadable(), syn, (datasize.ByteSize)(synMem).HumanReadable())
	return b.String()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Network props for gui

var NetworkProps = ki.Props{
	"ToolBar": ki.PropSlice{
		{"SaveWtsJSON", ki.Props{
			"label": "Save Wts...",
			"icon":  "file-save",
			"desc":  "Save json-formatted weights",
			"Args": ki.PropSlice{
				{"Weights File Name", ki.Props{
					"default-field": "WtsFile",
					"ext":           ".wts,.wts.gz",
				}},
			},
		}},
		{"OpenWtsJSON", ki.Props{
			"label": "Open Wts...",
			"icon":  "file-open",
			"desc":  "Open json-formatted weights",
			"Args": ki.PropSlice{
				{"Weights File Name", ki.Props{
					"default-field": "WtsFile",
					"ext":           ".wts,.wts.gz",
				}},
			},
		}},
		{"sep-file", ki.BlankProp{}},
		{"Build", ki.Props{
			"icon": "update",
			"desc": "build the network's neurons and synapses according to current params",
		}},
		{"InitWts", ki.Props{
			"icon": "update",
			"desc": "initialize the network weight values according to prjn parameters",
		}},
		{"InitActs", ki.Props{
			"icon": "update",
			"desc": "initialize the network activation values",
		}},
		{"sep-act", ki.BlankProp{}},
		{"AddLayer", ki.Props{
			"label": "Add Layer...",
			"icon":  "new",
			"desc":  "add a new layer to network",
			"Args": ki.PropSlice{
				{"Layer Name", ki.Props{}},
				{"Layer Shape", ki.Props{
					"desc": "shape of layer, typically 2D (Y, X)",
				}},
				{"Layer Type", ki.Props{
					"desc": "type of layer -- used for determining how inputs are applied",
				}},
			},
		}},
		{"ConnectLayerNames", ki.Props{
			"label": "Connect Layers...",
			"icon":  "new",
			"desc":  "add a new connection between layers in the network",
			"Args": ki.PropSlice{
				{"Send Layer Name", ki.Props{}},
				{"Recv Layer Name", ki.Props{}},
				{"Pattern", ki.Props{
					"desc": "pattern to connect with",
				}},
				{"Prjn Type", ki.Props{
					"desc": "type of projection -- direction, or other more specialized factors",
				}},
			},
		}},
		{"KeyLayerParams", ki.Props{
			"icon":        "file-sheet",
			"desc":        "returns a listing of the most important dynamics and learning parameters for each layer in the network",
			"show-return": true,
		}},
	},
}
