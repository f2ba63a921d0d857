package workload

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/LynnColeArt/kernelbench"
)

// Suite is a named baseline/optimized pair measured on a shared input.
type Suite struct {
	Name        string
	Description string
	Baseline    kernelbench.Unit
	Optimized   kernelbench.Unit
	Input       *kernelbench.Tensor
}

// Shapes of the built-in suites. The convolution input matches the 4x64x64
// latent of a 512x512 diffusion image; the softmax input is one attention
// score matrix.
var (
	LatentConv = ConvParams{
		BatchSize: 1, InChannels: 4, InHeight: 64, InWidth: 64,
		OutChannels: 32, KernelHeight: 3, KernelWidth: 3,
		StrideH: 1, StrideW: 1, PadH: 1, PadW: 1, DilationH: 1, DilationW: 1,
	}
	AttentionRows = 64
	AttentionCols = 4096
)

type suiteBuilder func(rng *rand.Rand) (Suite, error)

var builders = map[string]suiteBuilder{
	"fused-conv":   buildFusedConv,
	"softmax":      buildSoftmax,
	"softmax-fp16": buildHalfSoftmax,
	"winograd":     buildWinograd,
}

// SuiteNames lists the built-in suites in a stable order.
func SuiteNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSuites builds the named suites, or all of them when names is empty.
// Inputs and weights are drawn from a source seeded with seed so the same
// seed always yields the same tensors.
func NewSuites(seed int64, names ...string) ([]Suite, error) {
	if len(names) == 0 {
		names = SuiteNames()
	}
	suites := make([]Suite, 0, len(names))
	for _, name := range names {
		build, ok := builders[name]
		if !ok {
			return nil, kernelbench.NewInvalidArgError("NewSuites", fmt.Sprintf("unknown suite %q", name))
		}
		// Per-suite source so a suite's data does not depend on which
		// other suites were requested.
		s, err := build(rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, fmt.Errorf("building suite %s: %w", name, err)
		}
		s.Name = name
		suites = append(suites, s)
	}
	return suites, nil
}

func randomSlice(rng *rand.Rand, n int, scale float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = (rng.Float32()*2 - 1) * scale
	}
	return s
}

func convOperands(rng *rand.Rand, p ConvParams) (*kernelbench.Tensor, []float32, []float32, error) {
	input, err := kernelbench.RandomTensor(p.InputShape(), rng)
	if err != nil {
		return nil, nil, nil, err
	}
	weights := randomSlice(rng, p.WeightsLen(), 0.1)
	bias := randomSlice(rng, p.OutChannels, 0.1)
	return input, weights, bias, nil
}

func buildFusedConv(rng *rand.Rand) (Suite, error) {
	input, weights, bias, err := convOperands(rng, LatentConv)
	if err != nil {
		return Suite{}, err
	}
	baseline, err := NewConvBiasReLU(LatentConv, weights, bias)
	if err != nil {
		return Suite{}, err
	}
	optimized, err := NewFusedConvBiasReLU(LatentConv, weights, bias)
	if err != nil {
		return Suite{}, err
	}
	return Suite{
		Description: "conv3x3 + bias + ReLU: three passes vs one fused pass",
		Baseline:    baseline,
		Optimized:   optimized,
		Input:       input,
	}, nil
}

func buildWinograd(rng *rand.Rand) (Suite, error) {
	input, weights, bias, err := convOperands(rng, LatentConv)
	if err != nil {
		return Suite{}, err
	}
	baseline, err := NewDirectConv(LatentConv, weights, bias)
	if err != nil {
		return Suite{}, err
	}
	optimized, err := NewWinogradConv(LatentConv, weights, bias)
	if err != nil {
		return Suite{}, err
	}
	return Suite{
		Description: "conv3x3: direct vs 2x2-tiled (simulated Winograd)",
		Baseline:    baseline,
		Optimized:   optimized,
		Input:       input,
	}, nil
}

func buildSoftmax(rng *rand.Rand) (Suite, error) {
	input, err := kernelbench.RandomTensor(kernelbench.Shape{AttentionRows, AttentionCols}, rng)
	if err != nil {
		return Suite{}, err
	}
	baseline, err := NewManualSoftmax(AttentionRows, AttentionCols)
	if err != nil {
		return Suite{}, err
	}
	optimized, err := NewFusedSoftmax(AttentionRows, AttentionCols)
	if err != nil {
		return Suite{}, err
	}
	return Suite{
		Description: "softmax: manual exp/sum formula vs fused stable pass",
		Baseline:    baseline,
		Optimized:   optimized,
		Input:       input,
	}, nil
}

func buildHalfSoftmax(rng *rand.Rand) (Suite, error) {
	input, err := kernelbench.RandomTensor(kernelbench.Shape{AttentionRows, AttentionCols}, rng)
	if err != nil {
		return Suite{}, err
	}
	baseline, err := NewFusedSoftmax(AttentionRows, AttentionCols)
	if err != nil {
		return Suite{}, err
	}
	optimized, err := NewHalfSoftmax(AttentionRows, AttentionCols)
	if err != nil {
		return Suite{}, err
	}
	return Suite{
		Description: "softmax: float32 input vs half-precision input",
		Baseline:    baseline,
		Optimized:   optimized,
		Input:       input,
	}, nil
}

// Run measures both units of the suite with the same counts and returns
// their comparison.
func (s Suite) Run(h *kernelbench.Harness, iterations, warmup, runs int) (kernelbench.Comparison, error) {
	baseline, err := h.MeasureRepeated(s.Baseline, s.Input, iterations, warmup, runs)
	if err != nil {
		return kernelbench.Comparison{}, err
	}
	optimized, err := h.MeasureRepeated(s.Optimized, s.Input, iterations, warmup, runs)
	if err != nil {
		return kernelbench.Comparison{}, err
	}
	return kernelbench.CompareSeries(s.Name, baseline, optimized)
}
