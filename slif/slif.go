// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slif

import (
	"github.com/emer/emergent/emer"
)

// SlifNetwork defines the essential algorithmic API for slif, at the network level.
// These are the methods that the user calls in their Sim code:
// * SeqInit, Cycle, RunSeq, BackSeq, WtFmDWt
// Because we don't want to have to force the user to use the interface cast in calling
// these methods, we provide Impl versions here that are the implementations
// which the basic method calls through the interface cast.
// Specialized algorithms should thus only change the Impl version, which is what
// is exposed here in this interface.
//
// There is now a strong constraint that all Cycle level computation takes place
// in one pass at the Layer level, which greatly improves threading efficiency.
//
// All of the structural API is in emer.Network, which this interface also inherits for
// convenience.
type SlifNetwork interface {
	emer.Network

	// AsSlif returns this network as a slif.Network -- so that the
	// SlifNetwork interface does not need to include accessors
	// to all the basic stuff
	AsSlif() *Network

	// NewLayer creates a new concrete layer of appropriate type for this network
	NewLayer() emer.Layer

	// NewPrjn creates a new concrete projection of appropriate type for this network
	NewPrjn() emer.Prjn

	// SeqInitImpl initializes the network for running a new input sequence:
	// zeros all activation state and, in training mode, allocates and zeros
	// the per-step state histories needed for the backward pass.
	SeqInitImpl(ltime *Time)

	// CycleImpl runs one step of activation updating, propagating the current
	// input through all layers in depth order within the same step.
	CycleImpl(ltime *Time)

	// BackSeqImpl runs the backward pass over the just-completed sequence,
	// accumulating all parameter gradients, and returns the sequence loss.
	BackSeqImpl(ltime *Time) float32

	// WtFmDWtImpl updates all learnable parameters from accumulated gradients.
	WtFmDWtImpl()
}

// SlifLayer defines the essential algorithmic API for slif, at the layer level.
// These are the methods that the slif.Network calls on its layers at each step
// of processing.  Other Layer types can selectively re-implement (override) these methods
// to modify the computation, while inheriting the basic behavior for non-overridden methods.
//
// All of the structural API is in emer.Layer, which this interface also inherits for
// convenience.
type SlifLayer interface {
	emer.Layer

	// AsSlif returns this layer as a slif.Layer -- so that the SlifLayer
	// interface does not need to include accessors to all the basic stuff
	AsSlif() *Layer

	// InitWts initializes the weight values in the network, i.e., resetting learning
	// Also initializes the learnable neuron dynamics parameters (Beta, Thr, Bias)
	// and all gradient and optimizer state.
	InitWts()

	// InitActs fully initializes activation state -- only called automatically during InitWts
	InitActs()

	// InitExt initializes external input state -- called prior to apply ext
	InitExt()

	// InitGInc initializes the per-projection synaptic input accumulators
	InitGInc()

	// SeqInit initializes the layer for running a new input sequence: zeros
	// activation state and, in training mode, allocates and zeros the
	// per-step state histories needed for the backward pass.
	SeqInit(ltime *Time)

	// GeFmInc computes the total input current Ge for this step from the
	// layer's bias currents plus the accumulated projection inputs.
	GeFmInc(ltime *Time)

	// StepFmGe runs the integrate-and-fire dynamics for this step: potential
	// integration, spike, and reset.  Input layers instead pass their clamped
	// external value through as their output.
	StepFmGe(ltime *Time)

	// SendSpike sends the current spike output to receiving layers,
	// accumulating into their projection-level input buffers, for consumption
	// by downstream layers within the same step.
	SendSpike(ltime *Time)

	// RecordStep records the current per-neuron state into the sequence
	// histories, in training mode -- must be called after StepFmGe.
	RecordStep(ltime *Time)

	// BackStep runs one step of the backward pass, for the given step index,
	// in reverse step order: converts the gradients arriving at this layer's
	// outputs into gradients for its dynamics parameters, its projections,
	// and its senders.
	BackStep(ltime *Time, step int)

	// SeqLoss returns the accumulated squared-error loss for target layers
	// over the recorded sequence, normalized by sequence length -- 0 for
	// non-target layers.
	SeqLoss(ltime *Time) float32

	// WtFmDWt updates the learnable parameters from accumulated gradients:
	// the neuron dynamics parameters of this layer, and the weights of its
	// receiving projections.
	WtFmDWt()
}

// SlifPrjn defines the essential algorithmic API for slif, at the projection level.
// These are the methods that the slif.Layer calls on its projections at each step
// of processing.  Other Prjn types can selectively re-implement (override) these methods
// to modify the computation, while inheriting the basic behavior for non-overridden methods.
//
// All of the structural API is in emer.Prjn, which this interface also inherits for
// convenience.
type SlifPrjn interface {
	emer.Prjn

	// AsSlif returns this prjn as a slif.Prjn -- so that the SlifPrjn
	// interface does not need to include accessors to all the basic stuff
	AsSlif() *Prjn

	// InitWts initializes weight values according to Learn.WtInit params
	InitWts()

	// InitGInc initializes the per-projection synaptic input accumulators
	InitGInc()

	// SendSpike sends the given spike value from sending neuron index si,
	// scattering Wt * spk into the receiver-indexed input accumulators
	SendSpike(si int, spk float32)

	// RecvGInc increments the receiver's Ge from that of all the projections
	RecvGInc()

	// BackStep runs one step of the backward pass for the given step index:
	// accumulates weight gradients from the receivers' input-current
	// gradients and the senders' recorded spikes, and scatters spike-output
	// gradients back to the sending neurons.
	BackStep(step int)

	// WtFmDWt updates the weight values from accumulated gradients
	WtFmDWt()
}
