////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package testUtil holds fixtures shared by the tests of several packages: a
// fixed Paillier key pair, encryption helpers, a manual clock and a notifier
// that records events.
package testUtil

import (
	"sync"
	"testing"
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
)

// Mersenne primes 2^31-1 and 2^61-1. Far too small for real use.
const (
	primeP = "2147483647"
	primeQ = "2305843009213693951"
)

func checkTesting(face interface{}, name string) {
	switch face.(type) {
	case *testing.T, *testing.M, *testing.B, *testing.PB:
		break
	default:
		jww.FATAL.Panicf("%s is restricted to testing only. Got %T", name, face)
	}
}

// NewPaillierKeys returns the fixed test key pair with g = n+1,
// lambda = (p-1)(q-1) and mu = lambda^-1 mod n.
func NewPaillierKeys(face interface{}) (*paillier.PublicKey, *paillier.PrivateKey) {
	checkTesting(face, "NewPaillierKeys")

	one := large.NewInt(1)
	p := large.NewIntFromString(primeP, 10)
	q := large.NewIntFromString(primeQ, 10)
	n := large.NewInt(0).Mul(p, q)
	g := large.NewInt(0).Add(n, one)

	lambda := large.NewInt(0).Mul(large.NewInt(0).Sub(p, one),
		large.NewInt(0).Sub(q, one))
	mu := large.NewInt(0).ModInverse(lambda, n)

	pk, err := paillier.NewPublicKey(n, g)
	if err != nil {
		jww.FATAL.Panicf("Failed to build test public key: %+v", err)
	}
	sk, err := paillier.NewPrivateKey(lambda, mu)
	if err != nil {
		jww.FATAL.Panicf("Failed to build test private key: %+v", err)
	}
	return pk, sk
}

// Encrypt encrypts m under pk with fresh randomness and returns the wire
// form of the ciphertext.
func Encrypt(face interface{}, pk *paillier.PublicKey, m int64) []byte {
	checkTesting(face, "Encrypt")

	r, err := paillier.RandomCoprime(csprng.NewSystemRNG(), pk.GetN())
	if err != nil {
		jww.FATAL.Panicf("Failed to draw randomness: %+v", err)
	}
	c, err := paillier.Encrypt(pk, large.NewInt(m), r)
	if err != nil {
		jww.FATAL.Panicf("Failed to encrypt %d: %+v", m, err)
	}
	return paillier.EncodeCiphertext(c)
}

// EncryptAll encrypts every value in ms.
func EncryptAll(face interface{}, pk *paillier.PublicKey, ms ...int64) [][]byte {
	out := make([][]byte, len(ms))
	for i, m := range ms {
		out[i] = Encrypt(face, pk, m)
	}
	return out
}

// Decrypt decodes and decrypts a wire ciphertext.
func Decrypt(face interface{}, pk *paillier.PublicKey, sk *paillier.PrivateKey,
	b []byte) int64 {
	checkTesting(face, "Decrypt")

	c, err := paillier.DecodeCiphertext(pk, b)
	if err != nil {
		jww.FATAL.Panicf("Failed to decode ciphertext: %+v", err)
	}
	m, err := paillier.Decrypt(pk, sk, c)
	if err != nil {
		jww.FATAL.Panicf("Failed to decrypt: %+v", err)
	}
	return m.Int64()
}

// ManualClock is a collection.Clock that only moves when told to.
type ManualClock struct {
	mux sync.Mutex
	now time.Time
}

// NewManualClock starts a ManualClock at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (mc *ManualClock) Now() time.Time {
	mc.mux.Lock()
	defer mc.mux.Unlock()
	return mc.now
}

// Advance moves the clock forward by d.
func (mc *ManualClock) Advance(d time.Duration) {
	mc.mux.Lock()
	defer mc.mux.Unlock()
	mc.now = mc.now.Add(d)
}

// RecordingNotifier keeps every event it is notified of.
type RecordingNotifier struct {
	mux    sync.Mutex
	events []collection.Event
}

func (rn *RecordingNotifier) Notify(e collection.Event) {
	rn.mux.Lock()
	defer rn.mux.Unlock()
	rn.events = append(rn.events, e)
}

// Events returns the recorded events in arrival order.
func (rn *RecordingNotifier) Events() []collection.Event {
	rn.mux.Lock()
	defer rn.mux.Unlock()
	return append([]collection.Event(nil), rn.events...)
}

// Count returns how many recorded events have type et.
func (rn *RecordingNotifier) Count(et collection.EventType) int {
	rn.mux.Lock()
	defer rn.mux.Unlock()
	n := 0
	for _, e := range rn.events {
		if e.Type == et {
			n++
		}
	}
	return n
}
