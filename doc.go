// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package slif is the overall repository for the surrogate-gradient leaky
integrate-and-fire spiking network code implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is organized
into the following sub-repositories:

* slif: the core implementation: layers of discrete-time leaky integrate-and-fire
cells with learnable decay, threshold, and bias parameters, connected in a
feed-forward chain, trained by backpropagation through time using a smooth
surrogate in place of the non-differentiable spike.

* surgrad: the surrogate spike functions (sigmoid, fast sigmoid, arctangent)
with their derivatives, and the discrete step they stand in for at test time.

* seqgen: generation of input / target sequence pairs drawn from parameterized
curve families, for training and testing the regression models.

* examples: these actually compile into runnable programs and provide the starting
point for your own simulations.  examples/vmfit is the place to start for the
standard template of a model that learns to reproduce a target membrane-potential
trace from a scalar input sequence.
*/
package slif
