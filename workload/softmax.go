package workload

import (
	"fmt"
	"math"
	"sync"

	"github.com/x448/float16"

	"github.com/LynnColeArt/kernelbench"
)

// softmaxUnit holds the row layout shared by the softmax units. Softmax is
// taken along the last dimension of a [rows, cols] input.
type softmaxUnit struct {
	name string
	rows int
	cols int
}

func newSoftmaxUnit(name string, rows, cols int) (softmaxUnit, error) {
	if rows <= 0 || cols <= 0 {
		return softmaxUnit{}, kernelbench.NewInvalidArgError("Softmax",
			fmt.Sprintf("invalid shape %dx%d", rows, cols))
	}
	return softmaxUnit{name: name, rows: rows, cols: cols}, nil
}

func (u *softmaxUnit) Name() string {
	return u.name
}

func (u *softmaxUnit) InputShape() kernelbench.Shape {
	return kernelbench.Shape{u.rows, u.cols}
}

// ManualSoftmax is the textbook exp(x)/sum(exp(x)) written as separate
// passes over fresh buffers, without subtracting the row maximum. Inputs
// above ~88 overflow float32 and produce NaN.
type ManualSoftmax struct {
	softmaxUnit
}

// NewManualSoftmax creates the baseline softmax over rows of cols values.
func NewManualSoftmax(rows, cols int) (*ManualSoftmax, error) {
	su, err := newSoftmaxUnit("manual-softmax", rows, cols)
	if err != nil {
		return nil, err
	}
	return &ManualSoftmax{softmaxUnit: su}, nil
}

// Run computes the softmax of every row.
func (u *ManualSoftmax) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	x := in.Data()

	exps := make([]float32, len(x))
	for i, v := range x {
		exps[i] = float32(math.Exp(float64(v)))
	}

	sums := make([]float32, u.rows)
	for r := 0; r < u.rows; r++ {
		for _, v := range exps[r*u.cols : (r+1)*u.cols] {
			sums[r] += v
		}
	}

	out := make([]float32, len(x))
	for i, v := range exps {
		out[i] = v / sums[i/u.cols]
	}
	return kernelbench.NewTensor(u.InputShape(), out)
}

// FusedSoftmax computes each row in one sweep for the maximum and one for
// exponentiate-and-sum, then scales in place. Subtracting the maximum keeps
// it finite for any input.
type FusedSoftmax struct {
	softmaxUnit
	pool *kernelbench.BufferPool
}

// NewFusedSoftmax creates the fused softmax over rows of cols values.
func NewFusedSoftmax(rows, cols int) (*FusedSoftmax, error) {
	su, err := newSoftmaxUnit("fused-softmax", rows, cols)
	if err != nil {
		return nil, err
	}
	return &FusedSoftmax{softmaxUnit: su, pool: kernelbench.NewBufferPool()}, nil
}

// Run computes the softmax of every row.
func (u *FusedSoftmax) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	x := in.Data()
	out := u.pool.Get(len(x))
	for r := 0; r < u.rows; r++ {
		softmaxRow(x[r*u.cols:(r+1)*u.cols], out[r*u.cols:(r+1)*u.cols])
	}
	return kernelbench.NewTensor(u.InputShape(), out)
}

// Release recycles an output returned by Run.
func (u *FusedSoftmax) Release(out *kernelbench.Tensor) {
	u.pool.Put(out.Data())
}

func softmaxRow(x, out []float32) {
	maxVal := x[0]
	for _, v := range x[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i, v := range x {
		e := float32(math.Exp(float64(v - maxVal)))
		out[i] = e
		sum += e
	}
	inv := 1 / sum
	for i := range out {
		out[i] *= inv
	}
}

// HalfSoftmax keeps a half-precision copy of its input and computes the
// fused softmax from it. The copy is made on the first call for a given
// input, which makes that call noticeably more expensive than the rest.
type HalfSoftmax struct {
	softmaxUnit
	pool *kernelbench.BufferPool

	mu     sync.Mutex
	source *kernelbench.Tensor
	packed []float16.Float16
	row    []float32
}

// NewHalfSoftmax creates the half-precision softmax over rows of cols values.
func NewHalfSoftmax(rows, cols int) (*HalfSoftmax, error) {
	su, err := newSoftmaxUnit("fp16-softmax", rows, cols)
	if err != nil {
		return nil, err
	}
	return &HalfSoftmax{
		softmaxUnit: su,
		pool:        kernelbench.NewBufferPool(),
		row:         make([]float32, cols),
	}, nil
}

// Run computes the softmax of every row.
func (u *HalfSoftmax) Run(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
	if err := checkInput(u, in); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.source != in {
		u.pack(in)
	}

	out := u.pool.Get(in.Len())
	for r := 0; r < u.rows; r++ {
		for i, h := range u.packed[r*u.cols : (r+1)*u.cols] {
			u.row[i] = h.Float32()
		}
		softmaxRow(u.row, out[r*u.cols:(r+1)*u.cols])
	}
	return kernelbench.NewTensor(u.InputShape(), out)
}

func (u *HalfSoftmax) pack(in *kernelbench.Tensor) {
	x := in.Data()
	if cap(u.packed) < len(x) {
		u.packed = make([]float16.Float16, len(x))
	}
	u.packed = u.packed[:len(x)]
	for i, v := range x {
		u.packed[i] = float16.Fromfloat32(v)
	}
	u.source = in
}

// Release recycles an output returned by Run.
func (u *HalfSoftmax) Release(out *kernelbench.Tensor) {
	u.pool.Put(out.Data())
}
