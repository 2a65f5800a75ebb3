package interp

import (
	"fmt"
	"strings"
)

// Kind selects one of the fixed interpolation strategies.
type Kind int

const (
	// BundledBilinear fits both output axes from a single bilinear model over
	// the four cell corners. This is the default strategy.
	BundledBilinear Kind = iota
	// LeastSquaresPlane fits z = a + b*x + c*y to the four cell corners.
	LeastSquaresPlane
	// BiPolynomial fits z = a + b*x + c*y + d*x*y to the four cell corners.
	BiPolynomial
	// BiLinear is the separable bilinear kernel over the four cell corners.
	BiLinear
	// BiCubic fits a 16-term bicubic polynomial through a 4x4 neighbourhood.
	BiCubic
	// BiCubicSpline runs natural cubic splines along rows and then along the
	// column of row results over a 4x4 neighbourhood.
	BiCubicSpline
)

// Kinds lists every strategy in declaration order.
var Kinds = []Kind{BundledBilinear, LeastSquaresPlane, BiPolynomial, BiLinear, BiCubic, BiCubicSpline}

var kindNames = map[Kind]string{
	BundledBilinear:   "bundled-bilinear",
	LeastSquaresPlane: "least-squares-plane",
	BiPolynomial:      "bi-polynomial",
	BiLinear:          "bi-linear",
	BiCubic:           "bi-cubic",
	BiCubicSpline:     "bi-cubic-spline",
}

// String returns the canonical name, e.g. "bi-cubic-spline".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the declared strategies.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves a strategy name. Matching ignores case, and underscores
// are accepted in place of hyphens.
func ParseKind(name string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, k := range Kinds {
		if kindNames[k] == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Bundled reports whether one fit yields both output axes.
func (k Kind) Bundled() bool {
	return k == BundledBilinear
}

// Passes is the number of independent fits per query: 1 for the bundled
// kernel, 2 for the separable ones.
func (k Kind) Passes() int {
	if k.Bundled() {
		return 1
	}
	return 2
}

// NeighborhoodSize is the side length N of the N x N block of grid nodes the
// kernel is fitted from.
func (k Kind) NeighborhoodSize() int {
	switch k {
	case BiCubic, BiCubicSpline:
		return 4
	default:
		return 2
	}
}

// Samples is the number of grid nodes per fit.
func (k Kind) Samples() int {
	n := k.NeighborhoodSize()
	return n * n
}

// New returns a fresh separable kernel for k.
func New(k Kind) (Interpolator, error) {
	switch k {
	case LeastSquaresPlane:
		return &Plane{}, nil
	case BiPolynomial:
		return NewPolynomial(1), nil
	case BiLinear:
		return &Bilinear{}, nil
	case BiCubic:
		return NewPolynomial(3), nil
	case BiCubicSpline:
		return &Spline{}, nil
	case BundledBilinear:
		return nil, fmt.Errorf("%s is bundled: use NewPair", k)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
}

// NewPair returns a fresh bundled kernel for k.
func NewPair(k Kind) (PairInterpolator, error) {
	if k == BundledBilinear {
		return &PairBilinear{}, nil
	}
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return nil, fmt.Errorf("%s is separable: use New", k)
}
