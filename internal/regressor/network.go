package regressor

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"PricePulse/internal/model"
)

const (
	DefaultEpochs         = 1000
	DefaultLearningRate   = 0.3
	DefaultMomentum       = 0.1
	DefaultErrorThreshold = 0.005
)

// DefaultHiddenLayers is the width of each hidden layer.
var DefaultHiddenLayers = []int{5, 5}

// Config holds network hyper-parameters. Zero values fall back to the defaults above.
type Config struct {
	HiddenLayers   []int
	LearningRate   float64
	Momentum       float64
	ErrorThreshold float64
	Seed           int64
	// OnEpoch, when set, observes the mean error after every epoch.
	OnEpoch func(epoch int, meanError float64)
}

func (c Config) withDefaults() Config {
	if len(c.HiddenLayers) == 0 {
		c.HiddenLayers = DefaultHiddenLayers
	}
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.Momentum < 0 {
		c.Momentum = 0
	}
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = DefaultErrorThreshold
	}
	return c
}

// MLP is a Regressor producing sigmoid feed-forward networks trained with
// per-sample gradient descent on squared error.
type MLP struct {
	cfg Config
}

// NewMLP creates a trainer. Training is deterministic for a given Config.Seed.
func NewMLP(cfg Config) *MLP {
	return &MLP{cfg: cfg.withDefaults()}
}

var _ Regressor = (*MLP)(nil)

// Network is a trained model.
type Network struct {
	sizes   []int
	weights [][][]float64 // weights[l][j][i]: layer l-1 neuron i -> layer l neuron j
	biases  [][]float64
	report  TrainingReport
}

var _ Predictor = (*Network)(nil)

// Train fits a fresh network to samples. Epochs <= 0 uses DefaultEpochs.
// Training stops early once the mean error falls below the configured threshold.
func (m *MLP) Train(ctx context.Context, samples []model.WindowSample, epochs int) (Predictor, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("train: no samples: %w", model.ErrInsufficientData)
	}
	width := len(samples[0].Input)
	if width == 0 {
		return nil, fmt.Errorf("train: empty input window")
	}
	for i, s := range samples {
		if len(s.Input) != width {
			return nil, fmt.Errorf("train: sample %d has %d inputs, want %d", i, len(s.Input), width)
		}
	}
	if epochs <= 0 {
		epochs = DefaultEpochs
	}

	sizes := append([]int{width}, m.cfg.HiddenLayers...)
	sizes = append(sizes, 1)
	net := newNetwork(sizes, rand.New(rand.NewSource(m.cfg.Seed)))

	changes := make([][][]float64, len(sizes))
	for l := 1; l < len(sizes); l++ {
		changes[l] = make([][]float64, sizes[l])
		for j := range changes[l] {
			changes[l][j] = make([]float64, sizes[l-1])
		}
	}

	net.report = TrainingReport{Samples: len(samples)}
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("train: epoch %d: %w", epoch, err)
		}
		sum := 0.0
		for _, s := range samples {
			sum += net.step(s, changes, m.cfg.LearningRate, m.cfg.Momentum)
		}
		meanErr := sum / float64(len(samples))
		if epoch == 0 {
			net.report.InitialError = meanErr
		}
		net.report.Epochs = epoch + 1
		net.report.FinalError = meanErr
		if m.cfg.OnEpoch != nil {
			m.cfg.OnEpoch(epoch, meanErr)
		}
		if meanErr < m.cfg.ErrorThreshold {
			break
		}
	}
	return net, nil
}

func newNetwork(sizes []int, rng *rand.Rand) *Network {
	n := &Network{
		sizes:   sizes,
		weights: make([][][]float64, len(sizes)),
		biases:  make([][]float64, len(sizes)),
	}
	for l := 1; l < len(sizes); l++ {
		n.weights[l] = make([][]float64, sizes[l])
		n.biases[l] = make([]float64, sizes[l])
		for j := 0; j < sizes[l]; j++ {
			n.biases[l][j] = rng.Float64()*0.4 - 0.2
			n.weights[l][j] = make([]float64, sizes[l-1])
			for i := range n.weights[l][j] {
				n.weights[l][j][i] = rng.Float64()*0.4 - 0.2
			}
		}
	}
	return n
}

// Report returns the training summary.
func (n *Network) Report() TrainingReport { return n.report }

// Predict runs the network forward on one input window.
func (n *Network) Predict(input []float64) (float64, error) {
	if len(input) != n.sizes[0] {
		return 0, fmt.Errorf("predict: got %d inputs, want %d", len(input), n.sizes[0])
	}
	for i, v := range input {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("predict: input[%d]=%v: %w", i, v, model.ErrInvalidValue)
		}
	}
	outs := n.forward(input)
	return outs[len(outs)-1][0], nil
}

func (n *Network) forward(input []float64) [][]float64 {
	outs := make([][]float64, len(n.sizes))
	outs[0] = input
	for l := 1; l < len(n.sizes); l++ {
		outs[l] = make([]float64, n.sizes[l])
		for j := range outs[l] {
			sum := n.biases[l][j]
			for i, w := range n.weights[l][j] {
				sum += w * outs[l-1][i]
			}
			outs[l][j] = sigmoid(sum)
		}
	}
	return outs
}

// step runs one forward/backward pass and returns the squared error of the sample.
func (n *Network) step(s model.WindowSample, changes [][][]float64, rate, momentum float64) float64 {
	outs := n.forward(s.Input)
	last := len(n.sizes) - 1

	deltas := make([][]float64, len(n.sizes))
	deltas[last] = make([]float64, n.sizes[last])
	out := outs[last][0]
	diff := s.Target - out
	deltas[last][0] = diff * out * (1 - out)

	for l := last - 1; l >= 1; l-- {
		deltas[l] = make([]float64, n.sizes[l])
		for j := range deltas[l] {
			e := 0.0
			for k, d := range deltas[l+1] {
				e += d * n.weights[l+1][k][j]
			}
			o := outs[l][j]
			deltas[l][j] = e * o * (1 - o)
		}
	}

	for l := 1; l <= last; l++ {
		for j, d := range deltas[l] {
			for i := range n.weights[l][j] {
				c := rate*d*outs[l-1][i] + momentum*changes[l][j][i]
				changes[l][j][i] = c
				n.weights[l][j][i] += c
			}
			n.biases[l][j] += rate * d
		}
	}
	return diff * diff
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
