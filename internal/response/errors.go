package response

import "github.com/railji/railji-backend/internal/apperror"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrBadRequest     ErrCode = "BAD_REQUEST"

	// ─── Access ────────────────────────────────────────────────────────
	ErrUnauthorized ErrCode = "UNAUTHORIZED"
	ErrForbidden    ErrCode = "FORBIDDEN"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrBadRequest:
		return "Bad request."
	case ErrUnauthorized:
		return "Authentication is required."
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "Internal server error."
	default:
		return "Something went wrong."
	}
}

// CodeFor maps an error kind to its API code.
func CodeFor(kind apperror.Kind) ErrCode {
	switch kind {
	case apperror.KindNotFound:
		return ErrNotFound
	case apperror.KindBadRequest:
		return ErrBadRequest
	case apperror.KindConflict:
		return ErrConflict
	case apperror.KindUnauthorized:
		return ErrUnauthorized
	case apperror.KindForbidden:
		return ErrForbidden
	default:
		return ErrInternal
	}
}
