package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation/configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidSymbol        ErrorCode = 103
	ErrCodeInvalidTimeframe     ErrorCode = 104
	ErrCodeUnsupportedStrategy  ErrorCode = 105

	// Connectivity errors (200-299)
	ErrCodeNotConnected       ErrorCode = 200
	ErrCodeSubscriptionFailed ErrorCode = 201
	ErrCodeReconcileFailed    ErrorCode = 202

	// Market data errors (300-399)
	ErrCodeRateLimited        ErrorCode = 300
	ErrCodePartialData        ErrorCode = 301
	ErrCodeDataUnavailable    ErrorCode = 302
	ErrCodeQuoteUnavailable   ErrorCode = 303
	ErrCodeHistoryFetchFailed ErrorCode = 304

	// Trading errors (400-499)
	ErrCodeOrderRejected ErrorCode = 400
	ErrCodeOrderFailed   ErrorCode = 401
	ErrCodeSizingFailed  ErrorCode = 402
	ErrCodeModifyFailed  ErrorCode = 403

	// Engine lifecycle errors (500-599)
	ErrCodeEngineNotRunning ErrorCode = 500
	ErrCodeStartAborted     ErrorCode = 501
	ErrCodeStrategyFailed   ErrorCode = 502
	ErrCodeRiskInitFailed   ErrorCode = 503
	// ErrCodeEngineAlreadyRunning is reserved for status reporting; a
	// start on a running engine is a no-op, not a failure.
	ErrCodeEngineAlreadyRunning ErrorCode = 504
)
