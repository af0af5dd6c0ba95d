package errors

import "net/http"

// ErrorCode identifies a specific failure category.  Codes are stable strings
// so they can be emitted as metric labels and matched by API clients.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"

	// CodeOK is returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"

	// CodeUnknown is returned by GetCode when no *AppError is in the chain.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Grant module error codes.
const (
	ErrCodeGrantNotFound      ErrorCode = "GRT_001"
	ErrCodeGrantAlreadyExists ErrorCode = "GRT_002"
	ErrCodeGrantInvalidAmount ErrorCode = "GRT_003"
	ErrCodeGrantParseFailed   ErrorCode = "GRT_004"
	ErrCodeGrantSourceFailed  ErrorCode = "GRT_005"
	ErrCodeGrantIndexFailed   ErrorCode = "GRT_006"
)

// Organization module error codes.
const (
	ErrCodeOrgNotFound      ErrorCode = "ORG_001"
	ErrCodeOrgAlreadyExists ErrorCode = "ORG_002"
	ErrCodeOrgInvalidBudget ErrorCode = "ORG_003"
)

// Prediction module error codes.
const (
	ErrCodeModelNotTrained      ErrorCode = "PRED_001"
	ErrCodeModelLoadFailed      ErrorCode = "PRED_002"
	ErrCodeModelSaveFailed      ErrorCode = "PRED_003"
	ErrCodeTrainingDataTooSmall ErrorCode = "PRED_004"
	ErrCodeFeatureExtraction    ErrorCode = "PRED_005"
)

// Analytics module error codes.
const (
	ErrCodeAnalysisFailed       ErrorCode = "ANA_001"
	ErrCodeMarketDataEmpty      ErrorCode = "ANA_002"
	ErrCodeReportGeneration     ErrorCode = "ANA_003"
	ErrCodeReportExportFailed   ErrorCode = "ANA_004"
	ErrCodeMonitoringSourceDown ErrorCode = "ANA_005"
)

// httpStatusByCode maps error codes to HTTP status codes for the API layer.
var httpStatusByCode = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeGrantNotFound:      http.StatusNotFound,
	ErrCodeGrantAlreadyExists: http.StatusConflict,
	ErrCodeGrantInvalidAmount: http.StatusBadRequest,
	ErrCodeGrantParseFailed:   http.StatusUnprocessableEntity,
	ErrCodeGrantSourceFailed:  http.StatusBadGateway,
	ErrCodeGrantIndexFailed:   http.StatusInternalServerError,

	ErrCodeOrgNotFound:      http.StatusNotFound,
	ErrCodeOrgAlreadyExists: http.StatusConflict,
	ErrCodeOrgInvalidBudget: http.StatusBadRequest,

	ErrCodeModelNotTrained:      http.StatusConflict,
	ErrCodeModelLoadFailed:      http.StatusInternalServerError,
	ErrCodeModelSaveFailed:      http.StatusInternalServerError,
	ErrCodeTrainingDataTooSmall: http.StatusBadRequest,
	ErrCodeFeatureExtraction:    http.StatusInternalServerError,

	ErrCodeAnalysisFailed:       http.StatusInternalServerError,
	ErrCodeMarketDataEmpty:      http.StatusBadRequest,
	ErrCodeReportGeneration:     http.StatusInternalServerError,
	ErrCodeReportExportFailed:   http.StatusInternalServerError,
	ErrCodeMonitoringSourceDown: http.StatusBadGateway,
}

// HTTPStatus returns the HTTP status code associated with c.
// Unmapped codes default to 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := httpStatusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
