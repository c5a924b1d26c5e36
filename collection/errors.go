////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package collection

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
)

// Kind classifies why an operation was refused.
type Kind uint8

const (
	Unknown Kind = iota
	Authorization
	State
	Validation
	Temporal
	Cryptographic
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "AUTHORIZATION"
	case State:
		return "STATE"
	case Validation:
		return "VALIDATION"
	case Temporal:
		return "TEMPORAL"
	case Cryptographic:
		return "CRYPTOGRAPHIC"
	default:
		return "UNKNOWN"
	}
}

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func newError(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Authorization errors
var (
	ErrNotOwner = newError(Authorization, "caller is not the owner")
)

// State errors
var (
	ErrExists           = newError(State, "collection id is already in use")
	ErrNotFound         = newError(State, "collection does not exist")
	ErrFinalized        = newError(State, "collection has already been finalized")
	ErrNotFinalized     = newError(State, "collection has not been finalized")
	ErrAlreadySubmitted = newError(State, "participant has already submitted")
)

// Validation errors
var (
	ErrEmptyMembers    = newError(Validation, "member list is empty")
	ErrDuplicateMember = newError(Validation, "member list contains a duplicate")
	ErrIncompleteVotes = newError(Validation, "incomplete votes")
	ErrDuplicateVote   = newError(Validation, "duplicate vote")
	ErrUnknownMember   = newError(Validation, "vote for an unknown member")
	ErrKeyMismatch     = newError(Validation, "public key differs from the one already in use")
)

// Temporal errors
var (
	ErrPeriodEnded = newError(Temporal, "voting period ended")
)

// KindOf reports the Kind of err, looking through any wrapping. Errors from
// the cipher layer count as validation errors when the input was malformed
// and as cryptographic errors otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}

	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}

	switch {
	case errors.Is(err, paillier.ErrMalformed):
		return Validation
	case errors.Is(err, paillier.ErrNotInvertible),
		errors.Is(err, paillier.ErrQuotientMismatch):
		return Cryptographic
	}
	return Unknown
}
