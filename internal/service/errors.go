// Package service holds the business rules of the inventory server. It
// validates input and delegates persistence to repository interfaces.
package service

import "errors"

// Errors returned by AuthService. Their text is the wire error code.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrPendingApproval    = errors.New("account_pending_approval")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrPasswordHash       = errors.New("password_hash_failed")
	ErrTokenIssue         = errors.New("token_issue_failed")
)

// ValidationError rejects a request because of its content. Code is sent to
// the client as is.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	return e.Code
}

func invalid(code string) error {
	return &ValidationError{Code: code}
}

// Validation codes.
const (
	CodeInvalidJSON              = "invalid_json"
	CodeInvalidID                = "invalid_id"
	CodeUsernameRequired         = "username_required"
	CodeUsernameLengthInvalid    = "username_length_invalid"
	CodePasswordLengthInvalid    = "password_length_invalid"
	CodeUsernamePasswordRequired = "username_and_password_required"
	CodeNameRequired             = "name_required"
	CodeVendorRequired           = "vendor_required"
	CodeVendorNotFound           = "vendor_not_found"
	CodeModelRequired            = "model_required"
	CodeReferenceNotFound        = "reference_not_found"
	CodeInvalidInstalledAt       = "invalid_installed_at"
	CodeCannotDisableAdmin       = "cannot_disable_admin"
	CodeCannotDeleteSelf         = "cannot_delete_self"
	CodeCannotDeleteAdmin        = "cannot_delete_admin"
)
