// Package errors defines the error kinds surfaced by the identity SDK.
//
// Every failure returned by the verification and revocation packages wraps one
// of the Kind sentinels below, so callers can branch with errors.Is:
//
//	if errors.Is(err, sdkerrors.ErrSignatureInvalid) { ... }
//
// A SignatureInvalid error is a trust violation, while NotFound and
// ResolutionFailed mean the data was unavailable. Callers must keep the two apart.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error. Kind values are themselves errors and act as sentinels.
type Kind string

// Error kinds.
const (
	// ErrDecode is returned for malformed JWT or JSON input.
	ErrDecode Kind = "decode"
	// ErrGuard is returned when a required field is missing from otherwise decodable input.
	ErrGuard Kind = "guard"
	// ErrInvalidFormat is returned when an identifier cannot be parsed.
	ErrInvalidFormat Kind = "invalidFormat"
	// ErrNotFound is returned when a verification method, service or document is missing.
	ErrNotFound Kind = "notFound"
	// ErrFormat is returned for data URI or compression failures.
	ErrFormat Kind = "format"
	// ErrCapacityMismatch is returned when a decoded bitstring does not match the expected capacity.
	ErrCapacityMismatch Kind = "capacityMismatch"
	// ErrOutOfRange is returned for a bit index outside the bitstring capacity.
	ErrOutOfRange Kind = "outOfRange"
	// ErrSignatureInvalid is returned when cryptographic verification fails.
	ErrSignatureInvalid Kind = "signatureInvalid"
	// ErrResolutionFailed is returned when a DID could not be resolved for a reason other than absence.
	ErrResolutionFailed Kind = "resolutionFailed"
	// ErrRevocationStatusUnavailable is returned when a credential declares a status that the issuer does not publish.
	ErrRevocationStatusUnavailable Kind = "revocationStatusUnavailable"
	// ErrSchemaInvalid is returned when a credential does not satisfy its declared JSON schema.
	ErrSchemaInvalid Kind = "schemaInvalid"
	// ErrConflict is returned by stores when a compare-and-swap write loses against a concurrent update.
	ErrConflict Kind = "conflict"
)

// Well known error codes.
const (
	CodeVerificationMethodNotFound    = "verificationMethodNotFound"
	CodeVerificationMethodJWKNotFound = "verificationMethodJwkNotFound"
	CodeServiceNotFound               = "serviceNotFound"
	CodeRevocationServiceNotFound     = "revocationServiceNotFound"
	CodeDocumentNotFound              = "documentNotFound"
)

func (k Kind) Error() string {
	return string(k)
}

// Error is an SDK error carrying its kind, an optional machine readable code and
// the identifier the failure relates to.
type Error struct {
	Kind Kind
	Code string
	ID   string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += ": " + e.Code
	}

	if e.ID != "" {
		msg += " [" + e.ID + "]"
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of this error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)

	return ok && k == e.Kind
}

// New returns an error of the given kind. code and id may be empty.
func New(kind Kind, code, id string) error {
	return &Error{Kind: kind, Code: code, ID: id}
}

// Newf returns an error of the given kind with a formatted cause.
func Newf(kind Kind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, a...)}
}

// Wrap returns an error of the given kind wrapping err.
func Wrap(kind Kind, code, id string, err error) error {
	return &Error{Kind: kind, Code: code, ID: id, Err: err}
}

// CodeOf returns the code of the outermost SDK error in err's chain, or an empty string.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}

// IDOf returns the identifier of the outermost SDK error in err's chain, or an empty string.
func IDOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ID
	}

	return ""
}

// IsNotFound returns true if err is a NotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSignatureInvalid returns true if err is a SignatureInvalid error.
func IsSignatureInvalid(err error) bool {
	return errors.Is(err, ErrSignatureInvalid)
}

// IsResolutionFailed returns true if err is a ResolutionFailed error.
func IsResolutionFailed(err error) bool {
	return errors.Is(err, ErrResolutionFailed)
}

// IsConflict returns true if err is a Conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
