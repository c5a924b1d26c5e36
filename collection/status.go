////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package collection holds what the room and group protocols share: the
// lifecycle of a collection id, the error taxonomy, per-id serialization,
// the trusted clock and event notification.
//
// A collection id moves through
//
//	ABSENT --create--> ACTIVE --finalize--> FINALIZED
//
// and submissions are only legal while ACTIVE. FINALIZED is terminal, the id
// can never be created again.
package collection

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is where a collection id is in its lifecycle
type Status uint8

const (
	Absent Status = iota
	Active
	Finalized
	NumStatuses
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "ABSENT"
	case Active:
		return "ACTIVE"
	case Finalized:
		return "FINALIZED"
	default:
		return fmt.Sprintf("UNKNOWN STATUS: %d", s)
	}
}

// Operation is a mutating call on a collection
type Operation uint8

const (
	Create Operation = iota
	Submit
	Finalize
	NumOperations
)

func (o Operation) String() string {
	switch o {
	case Create:
		return "CREATE"
	case Submit:
		return "SUBMIT"
	case Finalize:
		return "FINALIZE"
	default:
		return fmt.Sprintf("UNKNOWN OPERATION: %d", o)
	}
}

// refusals[op][status] is the error returned when op is attempted on a
// collection in status. A nil entry means the operation is allowed.
var refusals [NumOperations][NumStatuses]error

func init() {
	addRefusal(Create, Active, ErrExists)
	addRefusal(Create, Finalized, ErrExists)

	addRefusal(Submit, Absent, ErrNotFound)
	addRefusal(Submit, Finalized, ErrFinalized)

	addRefusal(Finalize, Absent, ErrNotFound)
	addRefusal(Finalize, Finalized, ErrFinalized)
}

func addRefusal(op Operation, from Status, err error) {
	refusals[op][from] = err
}

// Check returns nil when op may run on a collection in status s, otherwise
// the state error explaining why not.
func Check(op Operation, s Status) error {
	if op >= NumOperations || s >= NumStatuses {
		return errors.Errorf("invalid operation %s on status %s", op, s)
	}
	return refusals[op][s]
}
