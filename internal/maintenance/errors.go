package maintenance

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects a request before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrReportNotFound means no routine report exists for the (workstation, quarter).
	ErrReportNotFound = errors.New("maintenance report not found")

	// ErrWorkstationNotFound means the workstation reference does not exist.
	ErrWorkstationNotFound = errors.New("workstation not found")

	// ErrAssetNotFound means an asset named by an action does not exist.
	ErrAssetNotFound = errors.New("inventory asset not found")

	// ErrStorageConflict is a serialization failure at commit or statement
	// time. The transaction was rolled back; resubmitting is safe.
	ErrStorageConflict = errors.New("storage conflict: nothing was committed, retry the operation")

	// ErrOutcomeUnknown means the commit itself failed in a way that does not
	// prove a rollback (e.g. the connection dropped). The caller must check
	// before resubmitting.
	ErrOutcomeUnknown = errors.New("commit outcome unknown")
)

func NewValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
