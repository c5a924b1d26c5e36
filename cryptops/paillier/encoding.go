////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package paillier

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"gitlab.com/xx_network/crypto/large"
)

// EncodedInt is the wire form of a non-negative integer: its big-endian
// magnitude together with the bit length the sender claims it has.
type EncodedInt struct {
	Bytes []byte
	Bits  uint32
}

// yamlInt is how an EncodedInt appears in key files.
type yamlInt struct {
	Hex  string `yaml:"hex"`
	Bits uint32 `yaml:"bits"`
}

// EncodeInt returns the wire form of x.
func EncodeInt(x *large.Int) EncodedInt {
	return EncodedInt{
		Bytes: x.Bytes(),
		Bits:  uint32(x.BitLen()),
	}
}

// Decode returns the integer, failing on zero-length input or when the
// declared bit length disagrees with the value.
func (e EncodedInt) Decode() (*large.Int, error) {
	if len(e.Bytes) == 0 {
		return nil, errors.Wrap(ErrMalformed, "zero-length integer")
	}

	x := large.NewIntFromBytes(e.Bytes)
	if uint32(x.BitLen()) != e.Bits {
		return nil, errors.Wrapf(ErrMalformed, "declared bit length %d "+
			"does not match actual bit length %d", e.Bits, x.BitLen())
	}
	return x, nil
}

// MarshalYAML writes the integer as hex so key files stay readable.
func (e EncodedInt) MarshalYAML() (interface{}, error) {
	return yamlInt{Hex: hex.EncodeToString(e.Bytes), Bits: e.Bits}, nil
}

// UnmarshalYAML reads the hex form written by MarshalYAML.
func (e *EncodedInt) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var y yamlInt
	if err := unmarshal(&y); err != nil {
		return err
	}

	b, err := hex.DecodeString(y.Hex)
	if err != nil {
		return errors.Wrapf(ErrMalformed, "invalid hex: %v", err)
	}

	e.Bytes = b
	e.Bits = y.Bits
	return nil
}

// EncodedPublicKey is the wire form of a PublicKey.
type EncodedPublicKey struct {
	N EncodedInt `yaml:"n"`
	G EncodedInt `yaml:"g"`
}

// EncodedPrivateKey is the wire form of a PrivateKey.
type EncodedPrivateKey struct {
	Lambda EncodedInt `yaml:"lambda"`
	Mu     EncodedInt `yaml:"mu"`
}

// Encode returns the wire form of the public key.
func (pk *PublicKey) Encode() EncodedPublicKey {
	return EncodedPublicKey{N: EncodeInt(pk.n), G: EncodeInt(pk.g)}
}

// Decode validates and builds the public key.
func (e EncodedPublicKey) Decode() (*PublicKey, error) {
	n, err := e.N.Decode()
	if err != nil {
		return nil, errors.WithMessage(err, "public key n")
	}
	g, err := e.G.Decode()
	if err != nil {
		return nil, errors.WithMessage(err, "public key g")
	}
	return NewPublicKey(n, g)
}

// Encode returns the wire form of the private key.
func (sk *PrivateKey) Encode() EncodedPrivateKey {
	return EncodedPrivateKey{Lambda: EncodeInt(sk.lambda), Mu: EncodeInt(sk.mu)}
}

// Decode validates and builds the private key.
func (e EncodedPrivateKey) Decode() (*PrivateKey, error) {
	lambda, err := e.Lambda.Decode()
	if err != nil {
		return nil, errors.WithMessage(err, "private key lambda")
	}
	mu, err := e.Mu.Decode()
	if err != nil {
		return nil, errors.WithMessage(err, "private key mu")
	}
	return NewPrivateKey(lambda, mu)
}

// DecodeCiphertext parses an untrusted ciphertext. Besides the range check
// every operation performs, it requires the value to be a unit modulo n²,
// which is the case for every honestly produced ciphertext.
func DecodeCiphertext(pk *PublicKey, b []byte) (*large.Int, error) {
	if err := checkPublicKey(pk); err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.Wrap(ErrMalformed, "zero-length ciphertext")
	}

	c := large.NewIntFromBytes(b)
	if err := pk.checkCiphertext(c); err != nil {
		return nil, err
	}
	if !c.IsCoprime(pk.n) {
		return nil, errors.Wrap(ErrMalformed, "ciphertext is not invertible mod n²")
	}
	return c, nil
}

// EncodeCiphertext returns the opaque byte form of a ciphertext.
func EncodeCiphertext(c *large.Int) []byte {
	return c.Bytes()
}
