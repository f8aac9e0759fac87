package domain

import "errors"

// Shipping error taxonomy. Callers wrap these with fmt.Errorf("%w: ...") for
// context and match with errors.Is.
var (
	ErrInvalidCoordinate        = errors.New("invalid coordinate")
	ErrMissingParameter         = errors.New("missing parameter")
	ErrInvalidOrderAmount       = errors.New("invalid order amount")
	ErrBranchNotFound           = errors.New("branch not found")
	ErrBranchCoordinatesMissing = errors.New("branch coordinates missing")
	ErrNoBranchAvailable        = errors.New("no branch available")
	ErrRepositoryFailure        = errors.New("repository failure")

	// ErrLoggingFailure is only ever reported to logs/metrics, never returned to callers.
	ErrLoggingFailure = errors.New("calculation logging failure")
)

// ErrorCode returns a stable machine-readable code for API responses.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCoordinate):
		return "INVALID_COORDINATE"
	case errors.Is(err, ErrMissingParameter):
		return "MISSING_PARAMETER"
	case errors.Is(err, ErrInvalidOrderAmount):
		return "INVALID_ORDER_AMOUNT"
	case errors.Is(err, ErrBranchNotFound):
		return "BRANCH_NOT_FOUND"
	case errors.Is(err, ErrBranchCoordinatesMissing):
		return "BRANCH_COORDINATES_MISSING"
	case errors.Is(err, ErrNoBranchAvailable):
		return "NO_BRANCH_AVAILABLE"
	case errors.Is(err, ErrRepositoryFailure):
		return "REPOSITORY_FAILURE"
	default:
		return "INTERNAL_ERROR"
	}
}
