////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package collection

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/crypto/hash"
	"gitlab.com/xx_network/primitives/id"
)

// NewID derives an id of the given type by hashing name.
func NewID(name string, idType id.Type) (*id.ID, error) {
	h, err := hash.NewCMixHash()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create hash for id")
	}
	h.Write([]byte(name))

	newID := &id.ID{}
	copy(newID[:], h.Sum(nil))
	newID.SetType(idType)
	return newID, nil
}

// ParseID accepts either the base64 encoding of a marshalled id or any other
// string, which is hashed into an id of the given type with NewID.
func ParseID(s string, idType id.Type) (*id.ID, error) {
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil &&
		len(raw) == id.ArrIDLen {
		return id.Unmarshal(raw)
	}
	return NewID(s, idType)
}
