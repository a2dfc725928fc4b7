// Package neural provides the feedforward network behind the standing
// controller: ReLU hidden layers with light dropout, a tanh output layer so
// motor commands stay in [-1,1], and plain SGD training against a
// mean-squared-error objective.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNumerical is returned when training produces non-finite weights.
var ErrNumerical = errors.New("training diverged to non-finite values")

// Layer holds one dense layer's weights (row-major, [out][in]) and biases.
type Layer struct {
	W [][]float32
	B []float32
}

// Network is a fully-connected feedforward network.
type Network struct {
	// Sizes lists layer widths including input and output,
	// e.g. [26, 24, 6].
	Sizes   []int
	Layers  []Layer
	LR      float32
	Dropout float32 // hidden dropout probability, training only
}

// New creates a randomly initialized network. Weights use He
// initialization scaled by fan-in; biases start at zero.
func New(sizes []int, lr, dropout float32, rng *rand.Rand) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("network needs at least input and output sizes, got %d", len(sizes))
	}
	for _, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("invalid layer size %d", s)
		}
	}

	n := &Network{
		Sizes:   append([]int(nil), sizes...),
		Layers:  make([]Layer, len(sizes)-1),
		LR:      lr,
		Dropout: dropout,
	}
	for l := range n.Layers {
		in, out := sizes[l], sizes[l+1]
		scale := float32(math.Sqrt(2.0 / float64(in)))
		w := make([][]float32, out)
		for i := range w {
			w[i] = make([]float32, in)
			for j := range w[i] {
				w[i][j] = float32(rng.NormFloat64()) * scale
			}
		}
		n.Layers[l] = Layer{W: w, B: make([]float32, out)}
	}
	return n, nil
}

// InputSize returns the width of the input layer.
func (n *Network) InputSize() int { return n.Sizes[0] }

// OutputSize returns the width of the output layer.
func (n *Network) OutputSize() int { return n.Sizes[len(n.Sizes)-1] }

// Forward computes the network output for one input vector. Hidden layers
// use ReLU, the output layer tanh, so every output is in [-1,1].
// Dropout is not applied at inference.
func (n *Network) Forward(inputs []float32) []float32 {
	act := inputs
	for l := range n.Layers {
		layer := &n.Layers[l]
		out := make([]float32, len(layer.B))
		last := l == len(n.Layers)-1
		for i := range layer.W {
			sum := layer.B[i]
			row := layer.W[i]
			for j := 0; j < len(row) && j < len(act); j++ {
				sum += row[j] * act[j]
			}
			if last {
				out[i] = tanh(sum)
			} else {
				out[i] = relu(sum)
			}
		}
		act = out
	}
	return act
}

// Train runs epochs of per-sample SGD over (inputs, targets) with
// shuffling and hidden dropout, and returns the mean squared error of the
// final epoch.
func (n *Network) Train(inputs, targets [][]float32, epochs int, rng *rand.Rand) (float64, error) {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return 0, fmt.Errorf("bad training set: %d inputs, %d targets", len(inputs), len(targets))
	}
	if epochs < 1 {
		epochs = 1
	}

	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}

	var lastLoss float64
	for e := 0; e < epochs; e++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		var sum float64
		for _, idx := range order {
			sum += n.step(inputs[idx], targets[idx], rng)
		}
		lastLoss = sum / float64(len(order))
	}

	if math.IsNaN(lastLoss) || math.IsInf(lastLoss, 0) {
		return lastLoss, ErrNumerical
	}
	return lastLoss, nil
}

// step runs one forward/backward pass and returns the sample's squared
// error.
func (n *Network) step(input, target []float32, rng *rand.Rand) float64 {
	nl := len(n.Layers)

	// Forward pass, keeping activations and dropout masks.
	acts := make([][]float32, nl+1)
	in := make([]float32, n.Sizes[0])
	copy(in, input) // pads or truncates to the input width
	acts[0] = in
	masks := make([][]bool, nl)

	for l := 0; l < nl; l++ {
		layer := &n.Layers[l]
		out := make([]float32, len(layer.B))
		last := l == nl-1
		var mask []bool
		if !last && n.Dropout > 0 {
			mask = make([]bool, len(layer.B))
		}
		keep := 1 - n.Dropout
		for i := range layer.W {
			sum := layer.B[i]
			row := layer.W[i]
			prev := acts[l]
			for j := range row {
				sum += row[j] * prev[j]
			}
			if last {
				out[i] = tanh(sum)
			} else {
				v := relu(sum)
				if mask != nil && rng.Float32() < n.Dropout {
					mask[i] = true
					v = 0
				} else if mask != nil {
					v /= keep // inverted dropout keeps activation scale
				}
				out[i] = v
			}
		}
		masks[l] = mask
		acts[l+1] = out
	}

	// Output error and loss.
	outAct := acts[nl]
	delta := make([]float32, len(outAct))
	var loss float64
	for i := range outAct {
		var t float32
		if i < len(target) {
			t = target[i]
		}
		diff := outAct[i] - t
		loss += float64(diff * diff)
		// MSE gradient through tanh: dE/dz = 2*diff * (1 - y^2)
		delta[i] = 2 * diff * (1 - outAct[i]*outAct[i])
	}
	loss /= float64(len(outAct))

	// Backward pass.
	for l := nl - 1; l >= 0; l-- {
		layer := &n.Layers[l]
		prev := acts[l]
		var nextDelta []float32
		if l > 0 {
			nextDelta = make([]float32, len(prev))
		}
		for i := range layer.W {
			d := delta[i]
			if d == 0 {
				continue
			}
			row := layer.W[i]
			for j := range row {
				if nextDelta != nil {
					nextDelta[j] += d * row[j]
				}
				row[j] -= n.LR * d * prev[j]
			}
			layer.B[i] -= n.LR * d
		}
		if l > 0 {
			// Propagate through the previous layer's ReLU and dropout.
			for j := range nextDelta {
				if prev[j] <= 0 {
					nextDelta[j] = 0
				}
				if masks[l-1] != nil && masks[l-1][j] {
					nextDelta[j] = 0
				}
			}
			delta = nextDelta
		}
	}

	return loss
}

// Clone creates a deep copy of the network.
func (n *Network) Clone() *Network {
	c := &Network{
		Sizes:   append([]int(nil), n.Sizes...),
		Layers:  make([]Layer, len(n.Layers)),
		LR:      n.LR,
		Dropout: n.Dropout,
	}
	for l := range n.Layers {
		src := &n.Layers[l]
		w := make([][]float32, len(src.W))
		for i := range src.W {
			w[i] = append([]float32(nil), src.W[i]...)
		}
		c.Layers[l] = Layer{W: w, B: append([]float32(nil), src.B...)}
	}
	return c
}

// FlattenWeights returns a layer's weight matrix as a row-major flat slice.
func (l *Layer) FlattenWeights() []float32 {
	if len(l.W) == 0 {
		return nil
	}
	in := len(l.W[0])
	flat := make([]float32, len(l.W)*in)
	for i := range l.W {
		copy(flat[i*in:], l.W[i])
	}
	return flat
}

// SetWeightsFlat restores a layer's weight matrix from a row-major flat
// slice. The slice length must match the layer shape.
func (l *Layer) SetWeightsFlat(flat []float32) error {
	if len(l.W) == 0 {
		return nil
	}
	in := len(l.W[0])
	if len(flat) != len(l.W)*in {
		return fmt.Errorf("flat weights have %d values, layer needs %d", len(flat), len(l.W)*in)
	}
	for i := range l.W {
		copy(l.W[i], flat[i*in:(i+1)*in])
	}
	return nil
}

// relu is the hidden-layer activation.
func relu(x float32) float32 {
	if x < 0 {
		return 0
	}
	return x
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}
