package services

import (
	"errors"
	"fmt"
	"strings"
)

// Domain rejections. These are distinct from field validation failures so the
// HTTP layer can tell "you already have a record" apart from "your input was
// malformed".
var (
	ErrAlreadySubmitted = errors.New("KYC already submitted. Contact support if changes are needed.")
	ErrRoleMismatch     = errors.New("Your role does not allow this KYC submission.")
	ErrKYCNotFound      = errors.New("KYC record not found.")
	ErrUnknownAction    = errors.New("Unknown verification action.")
)

// Authorization denials. Each failed precondition gets its own error so the
// caller can render actionable guidance instead of a generic forbidden.
var (
	ErrNotAuthenticated = errors.New("Authentication required.")
	ErrNoProfile        = errors.New("User profile not found. Please complete your profile first.")
	ErrWrongRole        = errors.New("Your role does not allow this action.")
	ErrKYCMissing       = errors.New("KYC verification required. Please complete your KYC submission first.")
	ErrKYCUnverified    = errors.New("Your KYC is not yet verified. Please wait for admin approval.")
	ErrNDARequired      = errors.New("A signed NDA is required before viewing proposals.")
	ErrNotOwner         = errors.New("You can only modify your own projects.")
)

// Project lifecycle rejections.
var (
	ErrProjectNotFound = errors.New("Project not found.")
	ErrNoProposal      = errors.New("No watermarked proposal is available for this project.")
)

// ImmutableError reports an attempt to change write-once KYC fields.
type ImmutableError struct {
	Fields []string
}

func (e *ImmutableError) Error() string {
	return "KYC data is immutable. Cannot update field(s): " + strings.Join(e.Fields, ", ")
}

// InvalidTransitionError reports a project status change outside the
// transition table.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move project from %q to %q", e.From, e.To)
}
