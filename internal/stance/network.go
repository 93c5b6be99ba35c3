// Package stance labels boxing stance from recent motion features and
// maintains the per-player stance preference summary.
package stance

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// DefaultLayerWidths is the default feed-forward topology: 6 input
// features, two hidden layers, 2 output scores (orthodox, southpaw).
var DefaultLayerWidths = []int{6, 12, 8, 2}

// FeedForward is a small fully-connected network with sigmoid activations.
//
// The weights are randomly initialised from a seeded source and no training
// loop exists — the network is a fixed random projection carried over from
// the original design, kept for ensemble input and external training hooks.
// Do not treat its output as meaningfully predictive; the majority-vote path
// in Classifier is the authoritative stance signal.
type FeedForward struct {
	weights []*mat.Dense // weights[l] is widths[l+1] × widths[l]
	biases  []*mat.VecDense
	widths  []int
}

// NewFeedForward builds a network with the given layer widths and seeds the
// weight initialisation. The same seed always yields the same network.
func NewFeedForward(widths []int, seed int64) (*FeedForward, error) {
	if len(widths) < 2 {
		return nil, fmt.Errorf("feed-forward network needs at least input and output widths, got %v", widths)
	}
	for _, w := range widths {
		if w < 1 {
			return nil, fmt.Errorf("layer widths must be positive, got %v", widths)
		}
	}

	rng := rand.New(rand.NewSource(seed))

	n := &FeedForward{widths: widths}
	for l := 0; l+1 < len(widths); l++ {
		in, out := widths[l], widths[l+1]
		w := make([]float64, in*out)
		for i := range w {
			w[i] = rng.Float64()*2 - 1
		}
		b := make([]float64, out)
		for i := range b {
			b[i] = rng.Float64()*2 - 1
		}
		n.weights = append(n.weights, mat.NewDense(out, in, w))
		n.biases = append(n.biases, mat.NewVecDense(out, b))
	}
	return n, nil
}

// InputWidth returns the expected feature vector length.
func (n *FeedForward) InputWidth() int { return n.widths[0] }

// OutputWidth returns the number of output scores.
func (n *FeedForward) OutputWidth() int { return n.widths[len(n.widths)-1] }

// Forward runs the network on a feature vector and returns the output
// scores, each in (0,1).
func (n *FeedForward) Forward(features []float64) ([]float64, error) {
	if len(features) != n.widths[0] {
		return nil, fmt.Errorf("expected %d features, got %d", n.widths[0], len(features))
	}

	x := mat.NewVecDense(len(features), append([]float64(nil), features...))
	for l, w := range n.weights {
		var y mat.VecDense
		y.MulVec(w, x)
		y.AddVec(&y, n.biases[l])
		for i := 0; i < y.Len(); i++ {
			y.SetVec(i, sigmoid(y.AtVec(i)))
		}
		x = &y
	}

	out := make([]float64, x.Len())
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
