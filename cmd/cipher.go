////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// cipher.go holds the client side commands that work on keys and
// ciphertexts without touching the aggregator's storage.

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
)

var publicKeyPath string
var privateKeyPath string
var averageCount uint64

// keys writes where the other commands read, so it has its own paths
var publicKeyOut string
var privateKeyOut string

var keysCmd = &cobra.Command{
	Use:   "keys <p> <q>",
	Short: "Writes the Paillier key pair built from two primes",
	Long: `Writes the Paillier key pair with n = pq and g = n+1 to the files
given by --public and --private. The primes are given in base 10.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseDecimal(args[0], "p")
		if err != nil {
			return err
		}
		q, err := parseDecimal(args[1], "q")
		if err != nil {
			return err
		}
		pk, sk, err := keysFromPrimes(p, q)
		if err != nil {
			return err
		}
		if err = writeYaml(publicKeyOut, pk.Encode()); err != nil {
			return err
		}
		return writeYaml(privateKeyOut, sk.Encode())
	},
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <value>",
	Short: "Encrypts a value under a public key and prints the hex ciphertext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := loadPublicKey(publicKeyPath)
		if err != nil {
			return err
		}
		m, err := parseDecimal(args[0], "value")
		if err != nil {
			return err
		}
		r, err := paillier.RandomCoprime(csprng.NewSystemRNG(), pk.GetN())
		if err != nil {
			return err
		}
		c, err := paillier.Encrypt(pk, m, r)
		if err != nil {
			return errors.WithMessage(err, "Failed to encrypt")
		}
		fmt.Println(hex.EncodeToString(paillier.EncodeCiphertext(c)))
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <ciphertext>",
	Short: "Decrypts a hex ciphertext with a key pair",
	Long: `Decrypts a hex ciphertext. With --count the plaintext is treated as
a group sum and the integer average and remainder are printed too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := loadPublicKey(publicKeyPath)
		if err != nil {
			return err
		}
		sk, err := loadPrivateKey(privateKeyPath)
		if err != nil {
			return err
		}
		b, err := parseCiphertext(args[0])
		if err != nil {
			return err
		}
		c, err := paillier.DecodeCiphertext(pk, b)
		if err != nil {
			return classify(err)
		}
		m, err := paillier.Decrypt(pk, sk, c)
		if err != nil {
			return classify(err)
		}
		fmt.Printf("plaintext: %s\n", m.Text(10))

		if averageCount > 0 {
			count := large.NewIntFromUInt(averageCount)
			avg := large.NewInt(0).Div(m, count)
			rem := large.NewInt(0).Mod(m, count)
			fmt.Printf("average: %s remainder: %s over %d\n", avg.Text(10),
				rem.Text(10), averageCount)
		}
		return nil
	},
}

func init() {
	keysCmd.Flags().StringVar(&publicKeyOut, "public", "paillier.pub.yaml",
		"Output file for the public key")
	keysCmd.Flags().StringVar(&privateKeyOut, "private", "paillier.yaml",
		"Output file for the private key")

	encryptCmd.Flags().StringVarP(&publicKeyPath, "key", "k", "",
		"Public key file")

	decryptCmd.Flags().StringVarP(&publicKeyPath, "key", "k", "",
		"Public key file")
	decryptCmd.Flags().StringVar(&privateKeyPath, "private", "",
		"Private key file")
	decryptCmd.Flags().Uint64Var(&averageCount, "count", 0,
		"Number of scores the ciphertext sums")

	rootCmd.AddCommand(keysCmd, encryptCmd, decryptCmd)
}
