////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles reading and writing Paillier key files and hex ciphertexts

package cmd

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
	"gitlab.com/xx_network/crypto/large"
	"gitlab.com/xx_network/primitives/utils"
	"gopkg.in/yaml.v2"
)

// loadPublicKey reads a yaml encoded public key from path
func loadPublicKey(path string) (*paillier.PublicKey, error) {
	if path == "" {
		return nil, errors.New("no public key file given")
	}
	data, err := utils.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to read public key %s",
			path)
	}
	encoded := paillier.EncodedPublicKey{}
	if err = yaml.Unmarshal(data, &encoded); err != nil {
		return nil, errors.WithMessagef(err, "Failed to parse public key %s",
			path)
	}
	return encoded.Decode()
}

// loadPrivateKey reads a yaml encoded private key from path
func loadPrivateKey(path string) (*paillier.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("no private key file given")
	}
	data, err := utils.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to read private key %s",
			path)
	}
	encoded := paillier.EncodedPrivateKey{}
	if err = yaml.Unmarshal(data, &encoded); err != nil {
		return nil, errors.WithMessagef(err, "Failed to parse private key %s",
			path)
	}
	return encoded.Decode()
}

// writeYaml marshals v into path, creating parent directories as needed
func writeYaml(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.WithMessagef(err, "Failed to marshal %s", path)
	}
	if err = utils.WriteFile(path, data, utils.FilePerms, utils.DirPerms); err != nil {
		return errors.WithMessagef(err, "Failed to write %s", path)
	}
	jww.INFO.Printf("Wrote %s", path)
	return nil
}

// keysFromPrimes derives the key pair with g = n+1 from the primes p and q
func keysFromPrimes(p, q *large.Int) (*paillier.PublicKey, *paillier.PrivateKey,
	error) {
	one := large.NewInt(1)
	if p.Cmp(one) <= 0 || q.Cmp(one) <= 0 || p.Cmp(q) == 0 {
		return nil, nil, errors.New("primes must be distinct and greater than 1")
	}

	n := large.NewInt(0).Mul(p, q)
	g := large.NewInt(0).Add(n, one)
	lambda := large.NewInt(0).Mul(large.NewInt(0).Sub(p, one),
		large.NewInt(0).Sub(q, one))
	if !lambda.IsCoprime(n) {
		return nil, nil, errors.New("(p-1)(q-1) is not coprime to pq")
	}
	mu := large.NewInt(0).ModInverse(lambda, n)

	pk, err := paillier.NewPublicKey(n, g)
	if err != nil {
		return nil, nil, err
	}
	sk, err := paillier.NewPrivateKey(lambda, mu)
	if err != nil {
		return nil, nil, err
	}
	return pk, sk, nil
}

// parseDecimal parses a non-negative base 10 integer argument
func parseDecimal(s, what string) (*large.Int, error) {
	x := large.NewIntFromString(strings.TrimSpace(s), 10)
	if x == nil || x.Cmp(large.NewInt(0)) < 0 {
		return nil, errors.Errorf("%s must be a non-negative integer, got %q",
			what, s)
	}
	return x, nil
}

// parseCiphertext decodes a hex ciphertext argument
func parseCiphertext(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrapf(err, "ciphertext %q is not hex", s)
	}
	return b, nil
}
