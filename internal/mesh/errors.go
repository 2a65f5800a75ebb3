package mesh

import "fmt"

// ErrorKind classifies structural mesh failures.
type ErrorKind int

const (
	// OutOfBounds is a node address outside the grid.
	OutOfBounds ErrorKind = iota + 1
	// NotBuilt is a request that needs a grid or build that does not exist yet.
	NotBuilt
	// Allocation is a resolution the grid cannot be allocated for.
	Allocation
	// Unknown covers transform failures during a build or bounding rectangle
	// recovery, and any other unexpected condition.
	Unknown
)

func (k ErrorKind) String() string {
	switch k {
	case OutOfBounds:
		return "out of bounds"
	case NotBuilt:
		return "not built"
	case Allocation:
		return "allocation failure"
	case Unknown:
		return "unknown error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a structural failure of a mesh operation. Per-point misses are
// reported as a false ok value instead.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrOutOfBounds = &Error{Kind: OutOfBounds}
	ErrNotBuilt    = &Error{Kind: NotBuilt}
	ErrAllocation  = &Error{Kind: Allocation}
	ErrUnknown     = &Error{Kind: Unknown}
)

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := "mesh: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
