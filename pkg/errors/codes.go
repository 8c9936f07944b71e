package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "COMMON_000"

	CodeInternal       ErrorCode = "COMMON_001"
	CodeInvalidParam   ErrorCode = "COMMON_002"
	CodeNotFound       ErrorCode = "COMMON_003"
	CodeConflict       ErrorCode = "COMMON_004"
	CodeValidation     ErrorCode = "COMMON_005"
	CodeSerialization  ErrorCode = "COMMON_006"
	CodeConfigInvalid  ErrorCode = "COMMON_007"
	CodeNotImplemented ErrorCode = "COMMON_008"
)

// Infrastructure error codes.
const (
	CodeDBConnectionError ErrorCode = "INFRA_001"
	CodeCacheError        ErrorCode = "INFRA_002"
	CodeMessagingError    ErrorCode = "INFRA_003"
	CodeLockNotAcquired   ErrorCode = "INFRA_004"
	CodeMigrationFailed   ErrorCode = "INFRA_005"
	CodeDBQueryError      ErrorCode = "INFRA_006"
)

// Resolution pipeline error codes.
const (
	// CodeMalformedInput marks a raw record missing every field needed for
	// normalization.  Such records are skipped and counted, never silently
	// dropped.
	CodeMalformedInput ErrorCode = "RES_001"

	// CodeRunAborted marks a stage failure that invalidates the whole batch.
	// Partial clustering results must never be exported, so any stage error
	// after candidate generation carries this code.
	CodeRunAborted ErrorCode = "RES_002"

	CodeEmptyBatch ErrorCode = "RES_003"
)

// Anonymization error codes.
const (
	// CodeMappingStoreUnavailable is fatal for the anonymization stage only:
	// resolution output can still be produced, but no de-identified export is
	// written until the mapping store is reachable again.
	CodeMappingStoreUnavailable ErrorCode = "ANON_001"

	CodeMappingNotFound  ErrorCode = "ANON_002"
	CodePseudonymFailed  ErrorCode = "ANON_003"
	CodeExportFailed     ErrorCode = "ANON_004"
)
