package cerrors

import (
	"fmt"

	"github.com/palantir/stacktrace"
)

// Error is the common typed error carried across the control plane.
// Phase names the lifecycle stage, Target the resource the operation acted on.
type Error struct {
	ErrorCode ErrorType
	Phase     string
	Target    string
	Reason    string
}

func (e Error) Error() string {
	switch {
	case e.Phase != "" && e.Target != "":
		return fmt.Sprintf("[%s]: target '%s', %s", e.Phase, e.Target, e.Reason)
	case e.Phase != "":
		return fmt.Sprintf("[%s]: %s", e.Phase, e.Reason)
	case e.Target != "":
		return fmt.Sprintf("target '%s': %s", e.Target, e.Reason)
	}
	return e.Reason
}

func (e Error) UserFriendly() bool {
	return true
}

func (e Error) ErrorType() ErrorType {
	if e.ErrorCode == "" {
		return ErrorTypeGeneric
	}
	return e.ErrorCode
}

// PolicyViolation marks an admission-time denial, non-retryable and user-correctable
func PolicyViolation(reason string) error {
	return Error{ErrorCode: ErrorTypePolicyViolation, Phase: "Admission", Reason: reason}
}

// NotFound marks a lookup for an unknown experiment or run id
func NotFound(kind, id string) error {
	return Error{ErrorCode: ErrorTypeNotFound, Target: id, Reason: fmt.Sprintf("%s not found", kind)}
}

// InvalidState marks an operation requested against a run in an incompatible state
func InvalidState(runID, reason string) error {
	return Error{ErrorCode: ErrorTypeInvalidState, Target: runID, Reason: reason}
}

// Is reports whether err, or its root cause, carries the given error code
func Is(err error, code ErrorType) bool {
	if err == nil {
		return false
	}
	if GetErrorType(err) == code {
		return true
	}
	return GetErrorType(stacktrace.RootCause(err)) == code
}
