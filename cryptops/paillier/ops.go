////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package paillier

import (
	"github.com/pkg/errors"
	"gitlab.com/xx_network/crypto/large"
)

// AddPrototype is the function type for Add
type AddPrototype func(pk *PublicKey, a, b *large.Int) (*large.Int, error)

// Add combines two ciphertexts. The result decrypts to the sum of the
// plaintexts modulo n.
var Add AddPrototype = func(pk *PublicKey, a, b *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(a); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(b); err != nil {
		return nil, err
	}

	result := large.NewInt(0).Mul(a, b)
	return result.Mod(result, pk.nSquared), nil
}

// GetName returns the name of the operation for debugging.
func (AddPrototype) GetName() string {
	return "PaillierAdd"
}

// AddConstPrototype is the function type for AddConst
type AddConstPrototype func(pk *PublicKey, a, c *large.Int) (*large.Int, error)

// AddConst adds a known plaintext constant to an encrypted value by
// computing a·g^c mod n².
var AddConst AddConstPrototype = func(pk *PublicKey, a, c *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(a); err != nil {
		return nil, err
	}
	k, err := pk.reduceConstant(c)
	if err != nil {
		return nil, err
	}

	return pk.shift(a, k), nil
}

// GetName returns the name of the operation for debugging.
func (AddConstPrototype) GetName() string {
	return "PaillierAddConst"
}

// SubPrototype is the function type for Sub
type SubPrototype func(pk *PublicKey, a, b *large.Int) (*large.Int, error)

// Sub subtracts the plaintext of b from the plaintext of a by computing
// a·b^(n-1) mod n². Raising b to n-1 encrypts -m for b = Enc(m).
var Sub SubPrototype = func(pk *PublicKey, a, b *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(a); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(b); err != nil {
		return nil, err
	}

	nMinusOne := large.NewInt(0).Sub(pk.n, one)
	negB := large.NewInt(0).Exp(b, nMinusOne, pk.nSquared)

	result := large.NewInt(0).Mul(a, negB)
	return result.Mod(result, pk.nSquared), nil
}

// GetName returns the name of the operation for debugging.
func (SubPrototype) GetName() string {
	return "PaillierSub"
}

// SubConstPrototype is the function type for SubConst
type SubConstPrototype func(pk *PublicKey, a, c *large.Int) (*large.Int, error)

// SubConst subtracts a known plaintext constant by computing a·g^(n-c) mod n².
var SubConst SubConstPrototype = func(pk *PublicKey, a, c *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(a); err != nil {
		return nil, err
	}
	k, err := pk.reduceConstant(c)
	if err != nil {
		return nil, err
	}

	return pk.shift(a, large.NewInt(0).Sub(pk.n, k)), nil
}

// GetName returns the name of the operation for debugging.
func (SubConstPrototype) GetName() string {
	return "PaillierSubConst"
}

// MulPrototype is the function type for Mul
type MulPrototype func(pk *PublicKey, a, c *large.Int) (*large.Int, error)

// Mul scales the encrypted value by a known constant by computing
// a^c mod n².
var Mul MulPrototype = func(pk *PublicKey, a, c *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(a); err != nil {
		return nil, err
	}
	k, err := pk.reduceConstant(c)
	if err != nil {
		return nil, err
	}

	return large.NewInt(0).Exp(a, k, pk.nSquared), nil
}

// GetName returns the name of the operation for debugging.
func (MulPrototype) GetName() string {
	return "PaillierMul"
}

// DivPrototype is the function type for Div
type DivPrototype func(pk *PublicKey, a, c *large.Int) (*large.Int, error)

// Div multiplies the encrypted value by the inverse of c modulo n. It fails
// with ErrNotInvertible when c shares a factor with n, including c ≡ 0.
var Div DivPrototype = func(pk *PublicKey, a, c *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if err := pk.checkCiphertext(a); err != nil {
		return nil, err
	}
	k, err := pk.reduceConstant(c)
	if err != nil {
		return nil, err
	}

	inverse, err := pk.invert(k)
	if err != nil {
		return nil, err
	}

	return large.NewInt(0).Exp(a, inverse, pk.nSquared), nil
}

// GetName returns the name of the operation for debugging.
func (DivPrototype) GetName() string {
	return "PaillierDiv"
}

// shift computes a·g^k mod n².
func (pk *PublicKey) shift(a, k *large.Int) *large.Int {
	gk := large.NewInt(0).Exp(pk.g, k, pk.nSquared)
	result := large.NewInt(0).Mul(a, gk)
	return result.Mod(result, pk.nSquared)
}

// invert returns k⁻¹ mod n, where k is already reduced. The inverse is
// checked before it is returned so a non-invertible k can never produce a
// silently wrong result.
func (pk *PublicKey) invert(k *large.Int) (*large.Int, error) {
	if k.Cmp(zero) == 0 || !k.IsCoprime(pk.n) {
		return nil, errors.Wrapf(ErrNotInvertible, "constant %s", k.Text(10))
	}

	inverse := large.NewInt(0).ModInverse(k, pk.n)
	if inverse == nil {
		return nil, errors.Wrapf(ErrNotInvertible, "constant %s", k.Text(10))
	}

	check := large.NewInt(0).Mul(k, inverse)
	if check.Mod(check, pk.n).Cmp(one) != 0 {
		return nil, errors.Wrapf(ErrNotInvertible,
			"inverse of %s failed verification", k.Text(10))
	}
	return inverse, nil
}
