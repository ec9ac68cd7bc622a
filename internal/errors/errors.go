package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error independently of the transport.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// DomainError is the error type returned by services.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so errors built with a
// custom message still compare equal to the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// New creates a domain error.
func New(kind Kind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// Validation creates a validation error.
func Validation(code, message string) *DomainError {
	return New(KindValidation, code, message)
}

// Validationf creates a validation error with a formatted message.
func Validationf(code, format string, args ...interface{}) *DomainError {
	return New(KindValidation, code, fmt.Sprintf(format, args...))
}

// NotFound creates a not-found error.
func NotFound(code, message string) *DomainError {
	return New(KindNotFound, code, message)
}

// Conflict creates a conflict error.
func Conflict(code, message string) *DomainError {
	return New(KindConflict, code, message)
}

// Internal wraps an unexpected failure. The message is for logs only.
func Internal(message string, err error) *DomainError {
	return &DomainError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// KindOf reports the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = New(KindUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	// ErrUserAlreadyExists is returned when registering an email that is taken.
	ErrUserAlreadyExists = Conflict("USER_ALREADY_EXISTS", "user already exists")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = NotFound("USER_NOT_FOUND", "user not found")
	// ErrNoSession is returned by logout when there is nothing to destroy.
	ErrNoSession = Validation("NO_SESSION", "no session found")
	// ErrUnauthorized is returned when a request carries no live session.
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "not authorized, please log in")
	// ErrForbidden is returned when the session role is not allowed.
	ErrForbidden = New(KindForbidden, "FORBIDDEN", "forbidden: insufficient role")
	// ErrInvalidRole is returned when a role outside the configured set is requested.
	ErrInvalidRole = Validation("INVALID_ROLE", "invalid role")

	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = NotFound("CATEGORY_NOT_FOUND", "category not found")
	// ErrParentCategoryNotFound is returned when a referenced parent category does not exist.
	ErrParentCategoryNotFound = NotFound("PARENT_CATEGORY_NOT_FOUND", "parent category not found")
	// ErrCategoryExists is returned when a category name is taken.
	ErrCategoryExists = Conflict("CATEGORY_EXISTS", "category already exists")
	// ErrCategoryCycle is returned when a parent assignment would create a loop.
	ErrCategoryCycle = Validation("CATEGORY_CYCLE", "category cannot be its own ancestor")
	// ErrCategoryInUse is returned when deleting a category that still has children or products.
	ErrCategoryInUse = Conflict("CATEGORY_IN_USE", "category has subcategories or products")

	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = NotFound("PRODUCT_NOT_FOUND", "product not found")
	// ErrParentProductNotFound is returned when a referenced bulk parent does not exist.
	ErrParentProductNotFound = NotFound("PARENT_PRODUCT_NOT_FOUND", "parent product not found")
	// ErrDuplicateCode is returned when a product code is taken.
	ErrDuplicateCode = Conflict("DUPLICATE_CODE", "product code already exists")
	// ErrProductCycle is returned when a parent product assignment would create a loop.
	ErrProductCycle = Validation("PRODUCT_CYCLE", "product cannot be its own ancestor")
	// ErrProductInUse is returned when deleting a product that still has variants.
	ErrProductInUse = Conflict("PRODUCT_IN_USE", "product has variants")

	// ErrDocumentNotFound is returned when a document is not found.
	ErrDocumentNotFound = NotFound("DOCUMENT_NOT_FOUND", "document not found")
	// ErrDuplicateDocumentNumber is returned when a document number is taken.
	ErrDuplicateDocumentNumber = Conflict("DUPLICATE_DOCUMENT_NUMBER", "document number already exists")
	// ErrInvalidDiscount is returned when a discount percentage is outside 0..100
	// or has more than four decimal places.
	ErrInvalidDiscount = Validation("INVALID_DISCOUNT", "discount percent must be between 0 and 100 with at most 4 decimal places")
)

// DuplicateCode builds the conflict error for a specific product code.
func DuplicateCode(code string) *DomainError {
	return Conflict(ErrDuplicateCode.Code, fmt.Sprintf("product with code '%s' already exists", code))
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// StatusOf maps a kind to its HTTP status.
func StatusOf(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal failures never
// leak their message.
func MapErrorToHTTP(err error) *HTTPError {
	var de *DomainError
	if !errors.As(err, &de) || de.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	return NewHTTPError(StatusOf(de.Kind), de.Message, de.Code)
}
