package kernelbench

// Unit is a computation whose per-call cost is measured. It maps one input
// tensor of InputShape to one output tensor. Run must not modify its
// input, and its cost must not depend on the input values.
type Unit interface {
	Name() string
	InputShape() Shape
	Run(in *Tensor) (*Tensor, error)
}

// OutputReleaser is implemented by units that recycle output buffers. The
// harness hands every discarded output back through Release.
type OutputReleaser interface {
	Release(out *Tensor)
}

// UnitFunc adapts a function to the Unit interface.
type UnitFunc struct {
	UnitName string
	Shape    Shape
	Fn       func(in *Tensor) (*Tensor, error)
}

// Name returns the unit name.
func (u UnitFunc) Name() string {
	return u.UnitName
}

// InputShape returns the accepted input shape.
func (u UnitFunc) InputShape() Shape {
	return u.Shape
}

// Run calls Fn.
func (u UnitFunc) Run(in *Tensor) (*Tensor, error) {
	return u.Fn(in)
}
