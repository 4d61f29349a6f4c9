package nvp

import (
	"fmt"

	"gorgonia.org/tensor"
)

// ShapeError indicates that a mask length, subnetwork output or input tensor
// disagrees with the declared feature dimensionality. It is raised at
// construction or at the first Forward/Inverse call and is never recovered
// internally.
type ShapeError struct {
	Op   string
	Want tensor.Shape
	Got  tensor.Shape
}

func (err ShapeError) Error() string {
	return fmt.Sprintf("%s: expected shape %v, got %v", err.Op, err.Want, err.Got)
}

// ValidationError indicates that a component handed to a Stack or Generator
// does not satisfy the required contract. It is raised at construction time,
// before any data is processed.
type ValidationError struct {
	Component string
	Reason    string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Component, err.Reason)
}

func shapeErr(op string, want, got tensor.Shape) error {
	return ShapeError{Op: op, Want: want.Clone(), Got: got.Clone()}
}

func validationErr(component, format string, args ...interface{}) error {
	return ValidationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}
