package workload

import (
	"fmt"

	"github.com/LynnColeArt/kernelbench"
)

// convUnit holds what every convolution unit shares.
type convUnit struct {
	name    string
	params  ConvParams
	weights []float32
	bias    []float32
}

func newConvUnit(name string, params ConvParams, weights, bias []float32) (convUnit, error) {
	params.UseBias = true
	if err := params.checkOperands(weights, bias); err != nil {
		return convUnit{}, err
	}
	return convUnit{name: name, params: params, weights: weights, bias: bias}, nil
}

func (u *convUnit) Name() string {
	return u.name
}

func (u *convUnit) InputShape() kernelbench.Shape {
	return u.params.InputShape()
}

// checkInput rejects inputs the unit was not built for; Run indexes the
// data by the unit's own shape.
func checkInput(u kernelbench.Unit, in *kernelbench.Tensor) error {
	if in == nil {
		return kernelbench.NewInvalidArgError("Run", fmt.Sprintf("%s: nil input", u.Name()))
	}
	if want := u.InputShape(); !in.Shape().Equal(want) {
		return kernelbench.NewInvalidArgError("Run",
			fmt.Sprintf("%s expects input %v, got %v", u.Name(), want, in.Shape()))
	}
	return nil
}

// ConvBiasReLU is the unfused baseline: convolution, bias and activation
// run as three separate passes, each producing a freshly allocated
// intermediate.
type ConvBiasReLU struct {
	convUnit
}

// NewConvBiasReLU creates the unfused conv+bias+ReLU unit.
func NewConvBiasReLU(params ConvParams, weights, bias []float32) (*ConvBiasReLU, error) {
	cu, err := newConvUnit("conv-bias-relu", params, weights, bias)
	if err != nil {
		return nil, err
	}
	return &ConvBiasReLU{convUnit: cu}, nil
}

// Run executes the three passes.
func (u *ConvBiasReLU) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	p := &u.params
	shape := p.OutputShape()
	n := shape.Size()

	conv := make([]float32, n)
	convolve(in.Data(), u.weights, nil, conv, p, epilogueNone)

	biased := make([]float32, n)
	BiasAdd(conv, u.bias, biased, p.BatchSize, p.OutChannels, p.OutputHeight()*p.OutputWidth())

	out := make([]float32, n)
	ReLU(biased, out)

	return kernelbench.NewTensor(shape, out)
}

// FusedConvBiasReLU applies bias and activation while each convolution
// output is still in a register, writing into a recycled buffer.
type FusedConvBiasReLU struct {
	convUnit
	pool *kernelbench.BufferPool
}

// NewFusedConvBiasReLU creates the fused conv+bias+ReLU unit.
func NewFusedConvBiasReLU(params ConvParams, weights, bias []float32) (*FusedConvBiasReLU, error) {
	cu, err := newConvUnit("fused-conv-bias-relu", params, weights, bias)
	if err != nil {
		return nil, err
	}
	return &FusedConvBiasReLU{convUnit: cu, pool: kernelbench.NewBufferPool()}, nil
}

// Run executes the single fused pass.
func (u *FusedConvBiasReLU) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	shape := u.params.OutputShape()
	out := u.pool.Get(shape.Size())
	convolve(in.Data(), u.weights, u.bias, out, &u.params, epilogueBiasReLU)
	return kernelbench.NewTensor(shape, out)
}

// Release recycles an output returned by Run.
func (u *FusedConvBiasReLU) Release(out *kernelbench.Tensor) {
	u.pool.Put(out.Data())
}

// Pool exposes the output pool for inspection.
func (u *FusedConvBiasReLU) Pool() *kernelbench.BufferPool {
	return u.pool
}
