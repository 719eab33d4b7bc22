package apperror

import "net/http"

// Code is a stable, machine-readable error identifier. The set is closed:
// every code is registered below with its category, status, and flags.
type Code string

// Category groups codes by the failure domain they describe.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryNotFound       Category = "not_found"
	CategoryConflict       Category = "conflict"
	CategoryFileProcessing Category = "file_processing"
	CategoryTranslation    Category = "translation"
	CategoryDatabase       Category = "database"
	CategoryExternal       Category = "external_service"
	CategoryNetwork        Category = "network"
	CategoryTimeout        Category = "timeout"
	CategoryRateLimit      Category = "rate_limit"
	CategoryInternal       Category = "internal"
)

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeUnsupportedLanguage Code = "UNSUPPORTED_LANGUAGE"

	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeInvalidCredentials     Code = "INVALID_CREDENTIALS"
	CodeSessionExpired         Code = "SESSION_EXPIRED"

	CodeForbidden Code = "FORBIDDEN"

	CodeNotFound     Code = "NOT_FOUND"
	CodeFileNotFound Code = "FILE_NOT_FOUND"
	CodeJobNotFound  Code = "JOB_NOT_FOUND"

	CodeConflict               Code = "CONFLICT"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeOutputNotReady         Code = "OUTPUT_NOT_READY"

	CodeFileTooLarge          Code = "FILE_TOO_LARGE"
	CodeUnsupportedFileType   Code = "UNSUPPORTED_FILE_TYPE"
	CodeFileProcessingFailed  Code = "FILE_PROCESSING_FAILED"
	CodeFileProcessingTimeout Code = "FILE_PROCESSING_TIMEOUT"

	CodeTranslationFailed      Code = "TRANSLATION_FAILED"
	CodeTranslationUnavailable Code = "TRANSLATION_UNAVAILABLE"

	CodeDatabase         Code = "DATABASE_ERROR"
	CodeDatabaseDeadlock Code = "DATABASE_DEADLOCK"

	CodeExternalService Code = "EXTERNAL_SERVICE_ERROR"
	CodeNetwork         Code = "NETWORK_ERROR"
	CodeTimeout         Code = "TIMEOUT"

	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	CodeOperationCancelled Code = "OPERATION_CANCELLED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

type definition struct {
	category        Category
	status          int
	retryable       bool
	userRecoverable bool
	message         string
}

var registry = map[Code]definition{
	CodeValidation:          {CategoryValidation, http.StatusBadRequest, false, true, "The request contains invalid data."},
	CodeInvalidInput:        {CategoryValidation, http.StatusBadRequest, false, true, "One or more values are invalid."},
	CodeUnsupportedLanguage: {CategoryValidation, http.StatusBadRequest, false, true, "The requested target language is not supported."},

	CodeAuthenticationRequired: {CategoryAuthentication, http.StatusUnauthorized, false, true, "Please sign in to continue."},
	CodeInvalidCredentials:     {CategoryAuthentication, http.StatusUnauthorized, false, true, "The credentials provided are not valid."},
	CodeSessionExpired:         {CategoryAuthentication, http.StatusUnauthorized, false, true, "Your session has expired. Please sign in again."},

	CodeForbidden: {CategoryAuthorization, http.StatusForbidden, false, false, "You do not have access to this resource."},

	CodeNotFound:     {CategoryNotFound, http.StatusNotFound, false, false, "The requested resource was not found."},
	CodeFileNotFound: {CategoryNotFound, http.StatusNotFound, false, false, "The requested file was not found."},
	CodeJobNotFound:  {CategoryNotFound, http.StatusNotFound, false, false, "The requested translation job was not found."},

	CodeConflict:               {CategoryConflict, http.StatusConflict, false, false, "The request conflicts with the current state of the resource."},
	CodeInvalidStateTransition: {CategoryConflict, http.StatusConflict, false, false, "The job cannot move to the requested state."},
	CodeOutputNotReady:         {CategoryConflict, http.StatusConflict, false, true, "The translated file is not ready yet."},

	CodeFileTooLarge:          {CategoryFileProcessing, http.StatusRequestEntityTooLarge, false, true, "The file is too large."},
	CodeUnsupportedFileType:   {CategoryFileProcessing, http.StatusUnsupportedMediaType, false, true, "This file type is not supported."},
	CodeFileProcessingFailed:  {CategoryFileProcessing, http.StatusUnprocessableEntity, false, true, "The file could not be processed. Please check that it is a valid presentation."},
	CodeFileProcessingTimeout: {CategoryFileProcessing, http.StatusGatewayTimeout, true, true, "Processing the file took too long. Please try again."},

	CodeTranslationFailed:      {CategoryTranslation, http.StatusBadGateway, false, true, "Translation failed. Please try again."},
	CodeTranslationUnavailable: {CategoryTranslation, http.StatusServiceUnavailable, true, true, "The translation service is temporarily unavailable."},

	CodeDatabase:         {CategoryDatabase, http.StatusInternalServerError, false, false, "A storage error occurred."},
	CodeDatabaseDeadlock: {CategoryDatabase, http.StatusServiceUnavailable, true, true, "The service is busy. Please try again."},

	CodeExternalService: {CategoryExternal, http.StatusBadGateway, true, true, "An upstream service failed. Please try again."},
	CodeNetwork:         {CategoryNetwork, http.StatusServiceUnavailable, true, true, "A network error occurred. Please try again."},
	CodeTimeout:         {CategoryTimeout, http.StatusGatewayTimeout, true, true, "The operation timed out. Please try again."},

	CodeRateLimitExceeded: {CategoryRateLimit, http.StatusTooManyRequests, false, true, "Too many requests. Please wait before trying again."},

	CodeOperationCancelled: {CategoryInternal, http.StatusConflict, false, true, "The operation was cancelled."},
	CodeInternal:           {CategoryInternal, http.StatusInternalServerError, false, false, "An unexpected error occurred."},
	CodeUnknown:            {CategoryInternal, http.StatusInternalServerError, false, false, "An unexpected error occurred."},
}

func lookup(code Code) definition {
	if def, ok := registry[code]; ok {
		return def
	}
	return registry[CodeUnknown]
}

// Codes returns every registered code.
func Codes() []Code {
	codes := make([]Code, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Known reports whether code is part of the registered set.
func Known(code Code) bool {
	_, ok := registry[code]
	return ok
}

// Category returns the category the code belongs to.
func (c Code) Category() Category { return lookup(c).category }

// HTTPStatus returns the status code responses for this code carry.
func (c Code) HTTPStatus() int { return lookup(c).status }

// Retryable reports whether an automatic retry of the failed operation may succeed.
func (c Code) Retryable() bool { return lookup(c).retryable }

// UserRecoverable reports whether the user can resolve the failure themselves.
func (c Code) UserRecoverable() bool { return lookup(c).userRecoverable }

// UserMessage returns the default user-facing message.
func (c Code) UserMessage() string { return lookup(c).message }
