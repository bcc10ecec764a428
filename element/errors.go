package element

import "errors"

// Sentinel errors shared by the quadrature, integration and fracture packages.
// They are returned wrapped with context; match them with errors.Is.
var (
	// ErrDegenerateElement is returned when the reference to physical map has
	// a non-positive (or vanishing) Jacobian determinant.
	ErrDegenerateElement = errors.New("element: degenerate element")

	// ErrUnsupportedOrder is returned when no quadrature rule exists for the
	// requested family and order.
	ErrUnsupportedOrder = errors.New("element: unsupported quadrature order")

	// ErrIndexOutOfRange is returned when a node or bond index is outside the
	// allocated bounds.
	ErrIndexOutOfRange = errors.New("element: index out of range")

	// ErrDimensionMismatch is returned when the sizes of paired inputs disagree,
	// e.g. vertex count vs. family, or node array vs. neighbor list.
	ErrDimensionMismatch = errors.New("element: dimension mismatch")
)
