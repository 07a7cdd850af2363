package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string            `json:"error"`
	Message       string            `json:"message"`
	Fields        map[string]string `json:"fields,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

// ErrorKind classifies a domain error for callers that translate it into
// a transport status.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidTransition
	KindUnauthorised
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindUnauthorised:
		return "unauthorised"
	default:
		return "internal"
	}
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON              = "INVALID_JSON"
	ErrCodeValidation               = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity          = "INVALID_QUANTITY"
	ErrCodeInvalidRating            = "INVALID_RATING"
	ErrCodeNegativePrice            = "NEGATIVE_PRICE"
	ErrCodeProductNotFound          = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound         = "CATEGORY_NOT_FOUND"
	ErrCodeUserNotFound             = "USER_NOT_FOUND"
	ErrCodeAdminNotFound            = "ADMIN_NOT_FOUND"
	ErrCodeOrderNotFound            = "ORDER_NOT_FOUND"
	ErrCodeReviewNotFound           = "REVIEW_NOT_FOUND"
	ErrCodeMessageNotFound          = "MESSAGE_NOT_FOUND"
	ErrCodeCartItemNotFound         = "CART_ITEM_NOT_FOUND"
	ErrCodeInsufficientStock        = "INSUFFICIENT_STOCK"
	ErrCodeDuplicateReview          = "DUPLICATE_REVIEW"
	ErrCodeDuplicateWishlistItem    = "DUPLICATE_WISHLIST_ITEM"
	ErrCodeEmailTaken               = "EMAIL_TAKEN"
	ErrCodeProductInUse             = "PRODUCT_IN_USE"
	ErrCodeUserHasOrders            = "USER_HAS_ORDERS"
	ErrCodeInvalidStatusTransition  = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidPaymentTransition = "INVALID_PAYMENT_TRANSITION"
	ErrCodeInvalidCredentials       = "INVALID_CREDENTIALS"
	ErrCodeReviewNotOwned           = "REVIEW_NOT_OWNED"
	ErrCodeOrderCreationFailed      = "ORDER_CREATION_FAILED"
	ErrCodeUnauthorised             = "UNAUTHORIZED"
	ErrCodeInternalError            = "INTERNAL_ERROR"
)

// DomainError is a business rule failure. Two domain errors are equal
// under errors.Is when their codes match, so a sentinel stays matchable
// after WithMessage or WithField produce a more specific copy.
type DomainError struct {
	Code    string
	Message string
	Kind    ErrorKind
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message.
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	cp := e.clone()
	cp.Message = fmt.Sprintf(format, args...)
	return cp
}

// WithField returns a copy of the error annotated with field-level detail.
func (e *DomainError) WithField(field, detail string) *DomainError {
	cp := e.clone()
	cp.Fields[field] = detail
	return cp
}

// WithFields returns a copy of the error carrying all the given field details.
func (e *DomainError) WithFields(fields map[string]string) *DomainError {
	cp := e.clone()
	for k, v := range fields {
		cp.Fields[k] = v
	}
	return cp
}

func (e *DomainError) clone() *DomainError {
	fields := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Kind: e.Kind, Fields: fields}
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Common domain errors
var (
	ErrValidation               = NewDomainError(KindValidation, ErrCodeValidation, "Request validation failed")
	ErrInvalidQuantity          = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be at least one")
	ErrInvalidRating            = NewDomainError(KindValidation, ErrCodeInvalidRating, "Rating must be between 1 and 5")
	ErrNegativePrice            = NewDomainError(KindValidation, ErrCodeNegativePrice, "Price must not be negative")
	ErrProductNotFound          = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrCategoryNotFound         = NewDomainError(KindNotFound, ErrCodeCategoryNotFound, "Category not found")
	ErrUserNotFound             = NewDomainError(KindNotFound, ErrCodeUserNotFound, "User not found")
	ErrAdminNotFound            = NewDomainError(KindNotFound, ErrCodeAdminNotFound, "Admin not found")
	ErrOrderNotFound            = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrReviewNotFound           = NewDomainError(KindNotFound, ErrCodeReviewNotFound, "Review not found")
	ErrMessageNotFound          = NewDomainError(KindNotFound, ErrCodeMessageNotFound, "Message not found")
	ErrCartItemNotFound         = NewDomainError(KindNotFound, ErrCodeCartItemNotFound, "Cart item not found")
	ErrInsufficientStock        = NewDomainError(KindConflict, ErrCodeInsufficientStock, "Insufficient stock")
	ErrDuplicateReview          = NewDomainError(KindConflict, ErrCodeDuplicateReview, "User has already reviewed this product")
	ErrDuplicateWishlistItem    = NewDomainError(KindConflict, ErrCodeDuplicateWishlistItem, "Product is already in the wishlist")
	ErrEmailTaken               = NewDomainError(KindConflict, ErrCodeEmailTaken, "Email address is already registered")
	ErrProductInUse             = NewDomainError(KindConflict, ErrCodeProductInUse, "Product is referenced by existing orders")
	ErrUserHasOrders            = NewDomainError(KindConflict, ErrCodeUserHasOrders, "User has existing orders")
	ErrInvalidStatusTransition  = NewDomainError(KindInvalidTransition, ErrCodeInvalidStatusTransition, "Invalid order status transition")
	ErrInvalidPaymentTransition = NewDomainError(KindInvalidTransition, ErrCodeInvalidPaymentTransition, "Invalid payment status transition")
	ErrInvalidCredentials       = NewDomainError(KindUnauthorised, ErrCodeInvalidCredentials, "Invalid email or password")
	ErrReviewNotOwned           = NewDomainError(KindUnauthorised, ErrCodeReviewNotOwned, "Review belongs to another user")
	ErrOrderCreationFailed      = NewDomainError(KindInternal, ErrCodeOrderCreationFailed, "Order creation failed")
)

// OrderCreationError wraps the cause of a rolled back order creation.
// errors.Is matches both ErrOrderCreationFailed and the underlying cause.
type OrderCreationError struct {
	Cause error
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("order creation failed: %v", e.Cause)
}

func (e *OrderCreationError) Unwrap() error {
	return e.Cause
}

func (e *OrderCreationError) Is(target error) bool {
	return target == ErrOrderCreationFailed
}
