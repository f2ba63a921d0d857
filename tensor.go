package kernelbench

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Shape lists tensor dimensions, outermost first.
type Shape []int

// Size returns the number of elements a tensor of this shape holds.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return NewInvalidArgError("Shape", "shape has no dimensions")
	}
	for i, d := range s {
		if d <= 0 {
			return NewInvalidArgError("Shape", fmt.Sprintf("dimension %d is %d", i, d))
		}
	}
	return nil
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, "x") + "]"
}

// Tensor is a dense float32 array with a fixed shape. Inputs handed to
// the harness are treated as read-only for the duration of a measurement.
type Tensor struct {
	shape Shape
	data  []float32
}

// NewTensor wraps data in a tensor of the given shape. The slice is not
// copied.
func NewTensor(shape Shape, data []float32) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.Size() {
		return nil, NewInvalidArgError("NewTensor",
			fmt.Sprintf("shape %v needs %d elements, got %d", shape, shape.Size(), len(data)))
	}
	return &Tensor{shape: append(Shape(nil), shape...), data: data}, nil
}

// Zeros allocates a zero-filled tensor.
func Zeros(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Tensor{shape: append(Shape(nil), shape...), data: make([]float32, shape.Size())}, nil
}

// RandomTensor fills a tensor with values uniform in [-1, 1) drawn from rng.
func RandomTensor(shape Shape, rng *rand.Rand) (*Tensor, error) {
	t, err := Zeros(shape)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = rng.Float32()*2 - 1
	}
	return t, nil
}

// Shape returns the tensor dimensions.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the backing slice. Callers must not modify it while the
// tensor is in use as a benchmark input.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}
