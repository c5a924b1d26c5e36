////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package paillier

import (
	"io"

	"github.com/pkg/errors"
	"gitlab.com/xx_network/crypto/large"
)

// maxCoprimeAttempts bounds the rejection sampling in RandomCoprime
const maxCoprimeAttempts = 128

// EncryptPrototype is the function type for Encrypt
type EncryptPrototype func(pk *PublicKey, m, r *large.Int) (*large.Int, error)

// Encrypt computes g^m · r^n mod n². The randomness r must be coprime to n;
// this is not checked, a non-coprime r produces a ciphertext that cannot be
// decrypted.
var Encrypt EncryptPrototype = func(pk *PublicKey, m, r *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	k, err := pk.reduceConstant(m)
	if err != nil {
		return nil, err
	}
	if r == nil || r.Cmp(zero) <= 0 {
		return nil, errors.Wrap(ErrMalformed, "randomness must be positive")
	}

	rn := large.NewInt(0).Exp(r, pk.n, pk.nSquared)
	return pk.shift(rn, k), nil
}

// GetName returns the name of the operation for debugging.
func (EncryptPrototype) GetName() string {
	return "PaillierEncrypt"
}

// EncryptZeroPrototype is the function type for EncryptZero
type EncryptZeroPrototype func(pk *PublicKey, r *large.Int) (*large.Int, error)

// EncryptZero computes r^n mod n², a fresh encryption of zero. Combining it
// with a ciphertext rerandomizes that ciphertext without changing its
// plaintext.
var EncryptZero EncryptZeroPrototype = func(pk *PublicKey, r *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if r == nil || r.Cmp(zero) <= 0 {
		return nil, errors.Wrap(ErrMalformed, "randomness must be positive")
	}

	return large.NewInt(0).Exp(r, pk.n, pk.nSquared), nil
}

// GetName returns the name of the operation for debugging.
func (EncryptZeroPrototype) GetName() string {
	return "PaillierEncryptZero"
}

// TrivialZero returns the ciphertext 1, the encryption of zero with
// randomness 1. It is the identity of Add.
func TrivialZero() *large.Int {
	return large.NewInt(1)
}

// RandomCoprime draws a value in [1, n) that is coprime to n, reading
// entropy from rng.
func RandomCoprime(rng io.Reader, n *large.Int) (*large.Int, error) {
	if n == nil || n.Cmp(one) <= 0 {
		return nil, errors.Wrap(ErrMalformed, "modulus is too small")
	}

	bitLen := n.BitLen()
	buf := make([]byte, (bitLen+7)/8)
	// Mask off the bits above the modulus so most draws are in range
	topMask := byte(0xff >> uint(len(buf)*8-bitLen))

	for i := 0; i < maxCoprimeAttempts; i++ {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return nil, errors.Wrap(err, "failed to read randomness")
		}
		buf[0] &= topMask

		r := large.NewIntFromBytes(buf)
		if r.Cmp(zero) > 0 && r.Cmp(n) < 0 && r.IsCoprime(n) {
			return r, nil
		}
	}

	return nil, errors.Errorf("no value coprime to the modulus found "+
		"after %d attempts", maxCoprimeAttempts)
}
