package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/LynnColeArt/kernelbench"
)

func randomMatrix(t *testing.T, rows, cols int, seed int64) *kernelbench.Tensor {
	t.Helper()
	in, err := kernelbench.RandomTensor(kernelbench.Shape{rows, cols}, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func checkRowsSumToOne(t *testing.T, out *kernelbench.Tensor, rows, cols int) {
	t.Helper()
	data := out.Data()
	for r := 0; r < rows; r++ {
		var sum float64
		for _, v := range data[r*cols : (r+1)*cols] {
			if v < 0 || v > 1 {
				t.Fatalf("row %d has probability %v", r, v)
			}
			sum += float64(v)
		}
		if math.Abs(sum-1) > 1e-4 {
			t.Errorf("row %d sums to %v", r, sum)
		}
	}
}

func TestSoftmaxVariantsAgree(t *testing.T) {
	const rows, cols = 8, 257
	in := randomMatrix(t, rows, cols, 11)

	manual, _ := NewManualSoftmax(rows, cols)
	fused, _ := NewFusedSoftmax(rows, cols)
	half, _ := NewHalfSoftmax(rows, cols)

	want, err := manual.Run(in)
	if err != nil {
		t.Fatal(err)
	}
	checkRowsSumToOne(t, want, rows, cols)

	got, err := fused.Run(in)
	if err != nil {
		t.Fatal(err)
	}
	checkRowsSumToOne(t, got, rows, cols)
	assertClose(t, "fused", got.Data(), want.Data(), 1e-6)

	// Half precision keeps ~3 significant digits of the inputs
	got, err = half.Run(in)
	if err != nil {
		t.Fatal(err)
	}
	checkRowsSumToOne(t, got, rows, cols)
	assertClose(t, "fp16", got.Data(), want.Data(), 1e-4)
}

func TestManualSoftmaxOverflows(t *testing.T) {
	in, _ := kernelbench.NewTensor(kernelbench.Shape{1, 3}, []float32{100, 200, 300})

	manual, _ := NewManualSoftmax(1, 3)
	out, _ := manual.Run(in)
	nan := false
	for _, v := range out.Data() {
		if math.IsNaN(float64(v)) {
			nan = true
		}
	}
	if !nan {
		t.Errorf("manual softmax of large inputs = %v, expected NaN from overflow", out.Data())
	}

	fused, _ := NewFusedSoftmax(1, 3)
	out, _ = fused.Run(in)
	checkRowsSumToOne(t, out, 1, 3)
	if out.Data()[2] < 0.99 {
		t.Errorf("fused softmax largest probability = %v", out.Data()[2])
	}
}

func TestHalfSoftmaxRepacksNewInput(t *testing.T) {
	half, _ := NewHalfSoftmax(1, 2)
	a, _ := kernelbench.NewTensor(kernelbench.Shape{1, 2}, []float32{0, 0})
	b, _ := kernelbench.NewTensor(kernelbench.Shape{1, 2}, []float32{0, 10})

	out, _ := half.Run(a)
	if out.Data()[0] != 0.5 {
		t.Errorf("softmax(0,0)[0] = %v", out.Data()[0])
	}
	half.Release(out)

	out, _ = half.Run(b)
	if out.Data()[1] < 0.99 {
		t.Errorf("second input was not repacked: %v", out.Data())
	}
}

func TestSoftmaxInvalidShape(t *testing.T) {
	if _, err := NewManualSoftmax(0, 4); !kernelbench.IsInvalidArgError(err) {
		t.Errorf("NewManualSoftmax(0, 4) = %v", err)
	}
	if _, err := NewFusedSoftmax(4, -1); !kernelbench.IsInvalidArgError(err) {
		t.Errorf("NewFusedSoftmax(4, -1) = %v", err)
	}
	if _, err := NewHalfSoftmax(0, 0); !kernelbench.IsInvalidArgError(err) {
		t.Errorf("NewHalfSoftmax(0, 0) = %v", err)
	}
}
