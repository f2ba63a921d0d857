package workload

import (
	"fmt"

	"github.com/LynnColeArt/kernelbench"
)

// ConvParams defines parameters for convolution operations
type ConvParams struct {
	// Input dimensions: [batch, channels, height, width]
	BatchSize  int
	InChannels int
	InHeight   int
	InWidth    int

	// Kernel dimensions: [out_channels, in_channels, kernel_height, kernel_width]
	OutChannels  int
	KernelHeight int
	KernelWidth  int

	StrideH   int
	StrideW   int
	PadH      int
	PadW      int
	DilationH int
	DilationW int

	// Optional bias: [out_channels]
	UseBias bool
}

// Validate checks if convolution parameters are valid
func (p *ConvParams) Validate() error {
	if p.BatchSize <= 0 || p.InChannels <= 0 || p.InHeight <= 0 || p.InWidth <= 0 {
		return kernelbench.NewInvalidArgError("Conv2D", "invalid input dimensions")
	}
	if p.OutChannels <= 0 || p.KernelHeight <= 0 || p.KernelWidth <= 0 {
		return kernelbench.NewInvalidArgError("Conv2D", "invalid kernel dimensions")
	}
	if p.StrideH <= 0 || p.StrideW <= 0 {
		return kernelbench.NewInvalidArgError("Conv2D", "invalid stride")
	}
	if p.DilationH <= 0 || p.DilationW <= 0 {
		return kernelbench.NewInvalidArgError("Conv2D", "invalid dilation")
	}
	if p.PadH < 0 || p.PadW < 0 {
		return kernelbench.NewInvalidArgError("Conv2D", "invalid padding")
	}
	if p.OutputHeight() <= 0 || p.OutputWidth() <= 0 {
		return kernelbench.NewInvalidArgError("Conv2D", "kernel larger than padded input")
	}
	return nil
}

// OutputHeight computes the output height after convolution
func (p *ConvParams) OutputHeight() int {
	effectiveKH := (p.KernelHeight-1)*p.DilationH + 1
	return (p.InHeight+2*p.PadH-effectiveKH)/p.StrideH + 1
}

// OutputWidth computes the output width after convolution
func (p *ConvParams) OutputWidth() int {
	effectiveKW := (p.KernelWidth-1)*p.DilationW + 1
	return (p.InWidth+2*p.PadW-effectiveKW)/p.StrideW + 1
}

// InputShape is the NCHW shape of the convolution input.
func (p *ConvParams) InputShape() kernelbench.Shape {
	return kernelbench.Shape{p.BatchSize, p.InChannels, p.InHeight, p.InWidth}
}

// OutputShape is the NCHW shape of the convolution output.
func (p *ConvParams) OutputShape() kernelbench.Shape {
	return kernelbench.Shape{p.BatchSize, p.OutChannels, p.OutputHeight(), p.OutputWidth()}
}

// WeightsLen is the number of weights the kernel holds.
func (p *ConvParams) WeightsLen() int {
	return p.OutChannels * p.InChannels * p.KernelHeight * p.KernelWidth
}

func (p *ConvParams) checkOperands(weights, bias []float32) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(weights) != p.WeightsLen() {
		return kernelbench.NewInvalidArgError("Conv2D",
			fmt.Sprintf("need %d weights, got %d", p.WeightsLen(), len(weights)))
	}
	if p.UseBias && len(bias) != p.OutChannels {
		return kernelbench.NewInvalidArgError("Conv2D",
			fmt.Sprintf("need %d bias values, got %d", p.OutChannels, len(bias)))
	}
	return nil
}

// epilogue is applied to each output element before it is stored.
type epilogue int

const (
	epilogueNone epilogue = iota
	epilogueBias
	epilogueBiasReLU
)

// Conv2D performs direct 2D convolution: output = conv(input, kernel) + bias
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_height, kernel_width]
// Output shape: [batch, out_channels, out_height, out_width]
func Conv2D(input, kernel, bias, output []float32, params *ConvParams) error {
	if err := params.checkOperands(kernel, bias); err != nil {
		return err
	}
	if len(input) != params.InputShape().Size() || len(output) != params.OutputShape().Size() {
		return kernelbench.NewInvalidArgError("Conv2D", "input or output length does not match params")
	}
	ep := epilogueNone
	if params.UseBias {
		ep = epilogueBias
	}
	convolve(input, kernel, bias, output, params, ep)
	return nil
}

// convolve is the direct convolution loop nest. Lengths are checked by
// the callers.
func convolve(inputData, kernelData, bias, outputData []float32, params *ConvParams, ep epilogue) {
	outH := params.OutputHeight()
	outW := params.OutputWidth()

	for b := 0; b < params.BatchSize; b++ {
		for oc := 0; oc < params.OutChannels; oc++ {
			biasVal := float32(0)
			if ep != epilogueNone {
				biasVal = bias[oc]
			}
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					sum := float32(0)

					for ic := 0; ic < params.InChannels; ic++ {
						for kh := 0; kh < params.KernelHeight; kh++ {
							ih := oh*params.StrideH - params.PadH + kh*params.DilationH
							if ih < 0 || ih >= params.InHeight {
								continue
							}
							for kw := 0; kw < params.KernelWidth; kw++ {
								iw := ow*params.StrideW - params.PadW + kw*params.DilationW
								if iw < 0 || iw >= params.InWidth {
									continue
								}
								inputIdx := b*params.InChannels*params.InHeight*params.InWidth +
									ic*params.InHeight*params.InWidth +
									ih*params.InWidth + iw

								kernelIdx := oc*params.InChannels*params.KernelHeight*params.KernelWidth +
									ic*params.KernelHeight*params.KernelWidth +
									kh*params.KernelWidth + kw

								sum += inputData[inputIdx] * kernelData[kernelIdx]
							}
						}
					}

					sum += biasVal
					if ep == epilogueBiasReLU && sum < 0 {
						sum = 0
					}

					outputIdx := b*params.OutChannels*outH*outW +
						oc*outH*outW +
						oh*outW + ow
					outputData[outputIdx] = sum
				}
			}
		}
	}
}

// BiasAdd adds a per-channel bias to an NCHW tensor into out.
func BiasAdd(x, bias, out []float32, batch, channels, plane int) {
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			offset := (b*channels + c) * plane
			bv := bias[c]
			for i := 0; i < plane; i++ {
				out[offset+i] = x[offset+i] + bv
			}
		}
	}
}

// ReLU writes max(x, 0) into out.
func ReLU(x, out []float32) {
	for i, v := range x {
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
}
