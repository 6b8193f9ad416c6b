// demo.go builds the meet-in-the-middle double-encryption problem
// used for the engine's claw-search demonstration scenario: recover
// a two-key double encryption E_k2(E_k1(plaintext)) == ciphertext by
// finding a claw between "encrypt forward under every k1" and
// "decrypt backward under every k2". The cipher is Speck64/128,
// restricted to a small key space so a demo run actually terminates.
package speck

import (
	"encoding/binary"

	"github.com/kargakis/vowmitm/pkg/problem"
)

// expandKey maps a keyBits-wide subkey into the 16-byte key speck
// expects by placing it in the low bytes and zero-padding the rest,
// a truncated-key-space trick that keeps brute-forcing a cipher's
// full key schedule out of scope.
func expandKey(k uint64, keyBits uint8) []byte {
	var key [keySize]byte
	binary.LittleEndian.PutUint64(key[0:8], k)
	return key[:]
}

// DoubleEncryptionProblem describes the claw search that recovers
// (k1, k2) such that E_k2(E_k1(plaintext)) == ciphertext. A second,
// independent plaintext/ciphertext pair is required so IsGoodPair has
// something to check that isn't already guaranteed by the claw
// condition itself: every f(k1) == g(k2) collision reproduces
// Ciphertext from Plaintext by construction, so only a second pair
// under the same two keys can tell the planted keys apart from the
// many incidental collisions a narrow key space produces.
type DoubleEncryptionProblem struct {
	Plaintext, Ciphertext   uint64
	Plaintext2, Ciphertext2 uint64
	KeyBits                 uint8
}

// Problem builds the problem.Problem this scenario reduces to: f
// encrypts Plaintext forward under every candidate k1, g decrypts
// Ciphertext backward under every candidate k2, and a claw
// f(k1) == g(k2) is a candidate meet-in-the-middle point. IsGoodPair
// replays the double encryption against Plaintext2/Ciphertext2, a
// pair the claw condition says nothing about, to reject the
// candidates that only collided because Plaintext/Ciphertext's
// 64-bit intermediate value was not enough to pin the keys down.
func (d DoubleEncryptionProblem) Problem() *problem.Problem {
	pt, ct, keyBits := d.Plaintext, d.Ciphertext, d.KeyBits
	pt2, ct2 := d.Plaintext2, d.Ciphertext2

	f := func(k1 uint64) uint64 {
		v, err := EncryptBlock64(expandKey(k1, keyBits), pt)
		if err != nil {
			panic(err) // expandKey always returns a valid 16-byte key
		}
		return v
	}
	g := func(k2 uint64) uint64 {
		v, err := DecryptBlock64(expandKey(k2, keyBits), ct)
		if err != nil {
			panic(err)
		}
		return v
	}
	isGoodPair := func(k1, k2 uint64) bool {
		mid, err := EncryptBlock64(expandKey(k1, keyBits), pt2)
		if err != nil {
			return false
		}
		out, err := EncryptBlock64(expandKey(k2, keyBits), mid)
		if err != nil {
			return false
		}
		return out == ct2
	}

	return &problem.Problem{
		N:          keyBits,
		M:          64,
		F:          f,
		G:          g,
		IsGoodPair: isGoodPair,
	}
}
