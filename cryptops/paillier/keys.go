////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package paillier implements the additively homomorphic operations used to
// aggregate encrypted submissions. Every operation is stateless: it receives
// the ciphertexts, plaintext constants and the public key it works on and
// returns a freshly allocated result. Inputs are never modified.
//
// All ciphertext arithmetic is done modulo n². Plaintexts live in ℤ/nℤ, so
// constants are reduced modulo n before they are applied.
package paillier

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"gitlab.com/xx_network/crypto/large"
	"golang.org/x/crypto/blake2b"
)

// Error sentinels returned (wrapped) by this package.
var (
	// ErrMalformed is returned when a key component, ciphertext or constant
	// is missing, has the wrong declared length or is out of range.
	ErrMalformed = errors.New("malformed paillier input")

	// ErrNotInvertible is returned by Div when the constant shares a factor
	// with n.
	ErrNotInvertible = errors.New("constant is not invertible modulo n")

	// ErrQuotientMismatch is returned when a supplied decryption quotient
	// does not divide the decryption value exactly.
	ErrQuotientMismatch = errors.New("quotient does not verify against the decryption value")
)

var (
	zero = large.NewInt(0)
	one  = large.NewInt(1)
)

// PublicKey holds the public parameters (n, g). n² is cached on
// construction.
type PublicKey struct {
	n        *large.Int
	g        *large.Int
	nSquared *large.Int
}

// NewPublicKey builds a public key from the modulus n and the generator g.
// n must be greater than one and g must lie in (0, n²).
func NewPublicKey(n, g *large.Int) (*PublicKey, error) {
	if n == nil || g == nil {
		return nil, errors.Wrap(ErrMalformed, "public key component is nil")
	}
	if n.Cmp(one) <= 0 {
		return nil, errors.Wrapf(ErrMalformed, "modulus %s is too small",
			n.Text(10))
	}

	nSquared := large.NewInt(0).Mul(n, n)
	if g.Cmp(zero) <= 0 || g.Cmp(nSquared) >= 0 {
		return nil, errors.Wrap(ErrMalformed, "generator is outside (0, n²)")
	}

	return &PublicKey{
		n:        large.NewInt(0).Set(n),
		g:        large.NewInt(0).Set(g),
		nSquared: nSquared,
	}, nil
}

// GetN returns a copy of the modulus.
func (pk *PublicKey) GetN() *large.Int {
	return large.NewInt(0).Set(pk.n)
}

// GetG returns a copy of the generator.
func (pk *PublicKey) GetG() *large.Int {
	return large.NewInt(0).Set(pk.g)
}

// GetNSquared returns a copy of n².
func (pk *PublicKey) GetNSquared() *large.Int {
	return large.NewInt(0).Set(pk.nSquared)
}

// Fingerprint is the blake2b-256 digest of the length prefixed encodings of
// n and g. It identifies a key without carrying it.
func (pk *PublicKey) Fingerprint() []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for oversized MAC keys
		panic(err)
	}

	lenBuf := make([]byte, 4)
	for _, x := range []*large.Int{pk.n, pk.g} {
		b := x.Bytes()
		binary.BigEndian.PutUint32(lenBuf, uint32(len(b)))
		h.Write(lenBuf)
		h.Write(b)
	}

	return h.Sum(nil)
}

// PrivateKey holds lambda and mu. It is only ever handled by the party that
// decrypts published aggregates and is never persisted by the aggregator.
type PrivateKey struct {
	lambda *large.Int
	mu     *large.Int
}

// NewPrivateKey builds a private key. Both components must be positive.
func NewPrivateKey(lambda, mu *large.Int) (*PrivateKey, error) {
	if lambda == nil || mu == nil {
		return nil, errors.Wrap(ErrMalformed, "private key component is nil")
	}
	if lambda.Cmp(zero) <= 0 || mu.Cmp(zero) <= 0 {
		return nil, errors.Wrap(ErrMalformed,
			"private key components must be positive")
	}

	return &PrivateKey{
		lambda: large.NewInt(0).Set(lambda),
		mu:     large.NewInt(0).Set(mu),
	}, nil
}

// GetLambda returns a copy of lambda.
func (sk *PrivateKey) GetLambda() *large.Int {
	return large.NewInt(0).Set(sk.lambda)
}

// GetMu returns a copy of mu.
func (sk *PrivateKey) GetMu() *large.Int {
	return large.NewInt(0).Set(sk.mu)
}

// checkCiphertext verifies that c is a usable ciphertext in (0, n²).
func (pk *PublicKey) checkCiphertext(c *large.Int) error {
	if c == nil {
		return errors.Wrap(ErrMalformed, "ciphertext is nil")
	}
	if c.Cmp(zero) <= 0 || c.Cmp(pk.nSquared) >= 0 {
		return errors.Wrap(ErrMalformed, "ciphertext is outside (0, n²)")
	}
	return nil
}

// reduceConstant checks that the plaintext constant is non-negative and
// returns it reduced modulo n.
func (pk *PublicKey) reduceConstant(c *large.Int) (*large.Int, error) {
	if c == nil {
		return nil, errors.Wrap(ErrMalformed, "constant is nil")
	}
	if c.Cmp(zero) < 0 {
		return nil, errors.Wrapf(ErrMalformed, "constant %s is negative",
			c.Text(10))
	}
	return large.NewInt(0).Mod(c, pk.n), nil
}

func checkPublicKey(pk *PublicKey) error {
	if pk == nil || pk.n == nil || pk.g == nil || pk.nSquared == nil {
		return errors.Wrap(ErrMalformed, "public key is not initialized")
	}
	return nil
}
