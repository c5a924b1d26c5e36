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

// DecryptWithQuotient decrypts c using a quotient computed by the caller.
// With alpha = c^lambda mod n², q must satisfy alpha - 1 = q·n exactly. The
// quotient is verified, never trusted, and the result is q·mu mod n.
func DecryptWithQuotient(pk *PublicKey, sk *PrivateKey, c, q *large.Int) (*large.Int, error) {
	alpha, err := decryptionValue(pk, sk, c)
	if err != nil {
		return nil, err
	}
	return finishDecrypt(pk, sk, alpha, q)
}

// Decrypt decrypts c, computing the quotient itself. The quotient still goes
// through the same verification as DecryptWithQuotient.
func Decrypt(pk *PublicKey, sk *PrivateKey, c *large.Int) (*large.Int, error) {
	alpha, err := decryptionValue(pk, sk, c)
	if err != nil {
		return nil, err
	}

	q := large.NewInt(0).Sub(alpha, one)
	q.Div(q, pk.n)
	return finishDecrypt(pk, sk, alpha, q)
}

// Quotient returns the value DecryptWithQuotient expects for c. It is what
// an off-system decrypting party precomputes.
func Quotient(pk *PublicKey, sk *PrivateKey, c *large.Int) (*large.Int, error) {
	alpha, err := decryptionValue(pk, sk, c)
	if err != nil {
		return nil, err
	}
	q := large.NewInt(0).Sub(alpha, one)
	return q.Div(q, pk.n), nil
}

// VerifyQuotient checks that quotient·divisor equals dividend without
// performing the division.
func VerifyQuotient(dividend, divisor, quotient *large.Int) error {
	if dividend == nil || divisor == nil || quotient == nil {
		return errors.Wrap(ErrMalformed, "nil operand in quotient verification")
	}
	if divisor.Cmp(zero) <= 0 || quotient.Cmp(zero) < 0 {
		return errors.Wrap(ErrQuotientMismatch, "operands must be non-negative")
	}

	product := large.NewInt(0).Mul(quotient, divisor)
	if product.Cmp(dividend) != 0 {
		return errors.WithStack(ErrQuotientMismatch)
	}
	return nil
}

func decryptionValue(pk *PublicKey, sk *PrivateKey, c *large.Int) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if sk == nil || sk.lambda == nil || sk.mu == nil {
		return nil, errors.Wrap(ErrMalformed, "private key is not initialized")
	}
	if err := pk.checkCiphertext(c); err != nil {
		return nil, err
	}
	return large.NewInt(0).Exp(c, sk.lambda, pk.nSquared), nil
}

func finishDecrypt(pk *PublicKey, sk *PrivateKey, alpha, q *large.Int) (*large.Int, error) {
	dividend := large.NewInt(0).Sub(alpha, one)
	if err := VerifyQuotient(dividend, pk.n, q); err != nil {
		return nil, err
	}

	m := large.NewInt(0).Mul(q, sk.mu)
	return m.Mod(m, pk.n), nil
}
