package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter ErrorCode = 100
	ErrCodeInvalidConfig    ErrorCode = 101

	// Input data errors (200-299)
	ErrCodeMalformedInput        ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201

	// Pipeline errors (300-399)
	ErrCodePipelineBroken     ErrorCode = 300
	ErrCodeTickOrderViolation ErrorCode = 301

	// Trading errors (400-499)
	ErrCodeUnexpectedSignal ErrorCode = 400

	// Result errors (500-599)
	ErrCodeResultStoreFailed ErrorCode = 500
	ErrCodeResultWriteFailed ErrorCode = 501
)
