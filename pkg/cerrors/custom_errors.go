package cerrors

import "github.com/palantir/stacktrace"

type ErrorType string

const (
	ErrorTypeNonUserFriendly ErrorType = "NON_USER_FRIENDLY_ERROR"
	ErrorTypeGeneric         ErrorType = "GENERIC_ERROR"
	ErrorTypePolicyViolation ErrorType = "POLICY_VIOLATION"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeInvalidState    ErrorType = "INVALID_STATE"
	ErrorTypeMetricsQuery    ErrorType = "METRICS_QUERY_ERROR"
	ErrorTypeSloEvaluation   ErrorType = "SLO_EVALUATION_ERROR"
	ErrorTypeFaultInjection  ErrorType = "FAULT_INJECTION_ERROR"
	ErrorTypeRepository      ErrorType = "REPOSITORY_ERROR"
	ErrorTypeTimeout         ErrorType = "TIMEOUT"
)

type userFriendly interface {
	UserFriendly() bool
	ErrorType() ErrorType
}

// IsUserFriendly returns true if err is marked as safe to present to callers
func IsUserFriendly(err error) bool {
	ufe, ok := err.(userFriendly)
	return ok && ufe.UserFriendly()
}

// GetErrorType returns the type of error if the error is user-friendly
func GetErrorType(err error) ErrorType {
	if ufe, ok := err.(userFriendly); ok {
		return ufe.ErrorType()
	}
	return ErrorTypeNonUserFriendly
}

func GetRootCauseAndErrorCode(err error) (string, ErrorType) {
	rootCause := stacktrace.RootCause(err)
	errorType := GetErrorType(rootCause)
	if !IsUserFriendly(rootCause) {
		return err.Error(), errorType
	}
	return rootCause.Error(), errorType
}
