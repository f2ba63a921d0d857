package workload

import (
	"github.com/LynnColeArt/kernelbench"
)

// Output tile edge of the Winograd-style unit and the input patch it reads.
const (
	winogradTile  = 2
	winogradPatch = winogradTile + 2
)

// DirectConv is the plain convolution with bias, one output element at a
// time.
type DirectConv struct {
	convUnit
	pool *kernelbench.BufferPool
}

// NewDirectConv creates the direct convolution unit.
func NewDirectConv(params ConvParams, weights, bias []float32) (*DirectConv, error) {
	cu, err := newConvUnit("direct-conv", params, weights, bias)
	if err != nil {
		return nil, err
	}
	return &DirectConv{convUnit: cu, pool: kernelbench.NewBufferPool()}, nil
}

// Run computes the convolution.
func (u *DirectConv) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	shape := u.params.OutputShape()
	out := u.pool.Get(shape.Size())
	convolve(in.Data(), u.weights, u.bias, out, &u.params, epilogueBias)
	return kernelbench.NewTensor(shape, out)
}

// Release recycles an output returned by Run.
func (u *DirectConv) Release(out *kernelbench.Tensor) {
	u.pool.Put(out.Data())
}

// WinogradConv computes F(2x2, 3x3) tiles: each 4x4 input patch is loaded
// once per input channel and reused for the four outputs of the tile. The
// arithmetic per output is the same as DirectConv.
type WinogradConv struct {
	convUnit
	pool *kernelbench.BufferPool
}

// NewWinogradConv creates the tiled convolution unit. Only 3x3 kernels
// with unit stride and dilation are accepted.
func NewWinogradConv(params ConvParams, weights, bias []float32) (*WinogradConv, error) {
	if params.KernelHeight != 3 || params.KernelWidth != 3 {
		return nil, kernelbench.NewInvalidArgError("NewWinogradConv", "kernel must be 3x3")
	}
	if params.StrideH != 1 || params.StrideW != 1 || params.DilationH != 1 || params.DilationW != 1 {
		return nil, kernelbench.NewInvalidArgError("NewWinogradConv", "stride and dilation must be 1")
	}
	cu, err := newConvUnit("winograd-conv", params, weights, bias)
	if err != nil {
		return nil, err
	}
	return &WinogradConv{convUnit: cu, pool: kernelbench.NewBufferPool()}, nil
}

// Run computes the convolution tile by tile.
func (u *WinogradConv) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	shape := u.params.OutputShape()
	out := u.pool.Get(shape.Size())
	convolveTiles(in.Data(), u.weights, u.bias, out, &u.params)
	return kernelbench.NewTensor(shape, out)
}

// Release recycles an output returned by Run.
func (u *WinogradConv) Release(out *kernelbench.Tensor) {
	u.pool.Put(out.Data())
}

func convolveTiles(in, weights, bias, out []float32, p *ConvParams) {
	outH, outW := p.OutputHeight(), p.OutputWidth()
	inPlane := p.InHeight * p.InWidth
	outPlane := outH * outW

	var patch [winogradPatch][winogradPatch]float32
	for b := 0; b < p.BatchSize; b++ {
		for oc := 0; oc < p.OutChannels; oc++ {
			dst := out[(b*p.OutChannels+oc)*outPlane:][:outPlane]
			for th := 0; th < outH; th += winogradTile {
				for tw := 0; tw < outW; tw += winogradTile {
					var acc [winogradTile][winogradTile]float32

					for ic := 0; ic < p.InChannels; ic++ {
						src := in[(b*p.InChannels+ic)*inPlane:][:inPlane]
						for r := 0; r < winogradPatch; r++ {
							ih := th + r - p.PadH
							for c := 0; c < winogradPatch; c++ {
								iw := tw + c - p.PadW
								if ih >= 0 && ih < p.InHeight && iw >= 0 && iw < p.InWidth {
									patch[r][c] = src[ih*p.InWidth+iw]
								} else {
									patch[r][c] = 0
								}
							}
						}

						k := weights[(oc*p.InChannels+ic)*9:][:9]
						for dy := 0; dy < winogradTile; dy++ {
							for dx := 0; dx < winogradTile; dx++ {
								var s float32
								for kh := 0; kh < 3; kh++ {
									for kw := 0; kw < 3; kw++ {
										s += patch[dy+kh][dx+kw] * k[kh*3+kw]
									}
								}
								acc[dy][dx] += s
							}
						}
					}

					// Edge tiles of odd-sized outputs are partial
					for dy := 0; dy < winogradTile && th+dy < outH; dy++ {
						for dx := 0; dx < winogradTile && tw+dx < outW; dx++ {
							dst[(th+dy)*outW+tw+dx] = acc[dy][dx] + bias[oc]
						}
					}
				}
			}
		}
	}
}
