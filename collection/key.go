////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package collection

import (
	"bytes"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
)

// BindKey checks pk against the fingerprint a collection is bound to and
// returns the fingerprint to store. An empty bound fingerprint accepts any
// key and binds the collection to it.
func BindKey(bound []byte, pk *paillier.PublicKey) ([]byte, error) {
	if pk == nil {
		return nil, errors.Wrap(paillier.ErrMalformed, "nil public key")
	}
	fp := pk.Fingerprint()
	if len(bound) != 0 && !bytes.Equal(bound, fp) {
		return nil, ErrKeyMismatch
	}
	return fp, nil
}
