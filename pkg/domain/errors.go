package domain

import "errors"

// Kind classifies a rejected operation.
type Kind string

const (
	// KindAuthorization rejections are fixed by retrying with the right identity or approval.
	KindAuthorization Kind = "authorization"
	// KindState rejections reflect a precondition the caller can re-check later.
	KindState Kind = "state"
	// KindValue rejections require different inputs.
	KindValue Kind = "value"
	// KindUnknown is reported for errors outside the taxonomy.
	KindUnknown Kind = "unknown"
)

// Error is a typed ledger rejection. Sentinels are compared by identity, so
// wrapped errors match with errors.Is.
type Error struct {
	Code string
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Code: code, Kind: kind, msg: msg}
}

// Authorization failures.
var (
	ErrUnauthorized          = newError(KindAuthorization, "Unauthorized", "caller is not authorized")
	ErrNotOwner              = newError(KindAuthorization, "NotOwner", "caller does not own the asset")
	ErrNoOperatorApproval    = newError(KindAuthorization, "NoOperatorApproval", "marketplace needs operator approval from the asset owner")
	ErrNotOwnerOfBothParents = newError(KindAuthorization, "NotOwnerOfBothParents", "caller must own both parents")
)

// State failures.
var (
	ErrPaused             = newError(KindState, "Paused", "domain is paused")
	ErrAlreadyPaused      = newError(KindState, "AlreadyPaused", "domain is already paused")
	ErrAlreadyUnpaused    = newError(KindState, "AlreadyUnpaused", "domain is not paused")
	ErrNoActiveOffer      = newError(KindState, "NoActiveOffer", "no active offer for this asset")
	ErrOfferAlreadyActive = newError(KindState, "OfferAlreadyActive", "asset already has an active offer")
	ErrStillListed        = newError(KindState, "StillListed", "asset is listed for sale; remove the offer first")
	ErrAssetNotFound      = newError(KindState, "AssetNotFound", "asset does not exist")
	ErrOfferNotFound      = newError(KindState, "OfferNotFound", "offer index out of range")
)

// Value failures.
var (
	ErrWrongAmount        = newError(KindValue, "WrongAmount", "payment does not match the offer price")
	ErrInsufficientFunds  = newError(KindValue, "InsufficientFunds", "insufficient balance")
	ErrAllowanceExceeded  = newError(KindValue, "AllowanceExceeded", "amount exceeds allowance")
	ErrImpossibleOverflow = newError(KindValue, "ImpossibleOverflow", "balance overflow")
	ErrFounderCapReached  = newError(KindValue, "FounderCapReached", "founder cap reached")
	ErrCapacityExceeded   = newError(KindValue, "CapacityExceeded", "no more asset ids available")
	ErrNullRecipient      = newError(KindValue, "NullRecipient", "recipient is the null identity")
	ErrSameParent         = newError(KindValue, "SameParent", "an asset cannot be bred with itself")
	ErrInvalidDomain      = newError(KindValue, "InvalidDomain", "unknown control domain")
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var rv RuleViolationError
	if errors.As(err, &rv) {
		return KindState
	}
	return KindUnknown
}

// CodeOf returns the stable code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
