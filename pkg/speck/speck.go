// Package speck implements the Speck64/128 block cipher as a
// crypto/cipher.Block: a small keyed permutation wrapped behind the
// standard Block interface so the rest of the module can treat it
// like any other cipher.
//
// Speck64/128 operates on 64-bit blocks (two 32-bit words) under a
// 128-bit key, using the ARX round function from the original Speck
// paper: a rotate, an add, and an XOR, repeated 27 times.
package speck

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

const (
	blockSize = 8
	keySize   = 16
	rounds    = 27
	alpha     = 8
	beta      = 3
)

type block struct {
	roundKeys [rounds]uint32
}

// NewCipher builds a Speck64/128 cipher.Block from a 16-byte key.
func NewCipher(key []byte) (cipher.Block, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("speck: key must be %d bytes, got %d", keySize, len(key))
	}
	b := &block{}
	b.scheduleKey(key)
	return b, nil
}

func (b *block) BlockSize() int { return blockSize }

func (b *block) scheduleKey(key []byte) {
	k0 := binary.LittleEndian.Uint32(key[0:4])
	l := [rounds + 2]uint32{}
	l[0] = binary.LittleEndian.Uint32(key[4:8])
	l[1] = binary.LittleEndian.Uint32(key[8:12])
	l[2] = binary.LittleEndian.Uint32(key[12:16])

	k := k0
	for i := 0; i < rounds-1; i++ {
		b.roundKeys[i] = k
		var nl uint32
		nl, k = round(l[i], k, uint32(i))
		l[i+3] = nl
	}
	b.roundKeys[rounds-1] = k
}

func round(x, y, rk uint32) (uint32, uint32) {
	x = rotr32(x, alpha)
	x += y
	x ^= rk
	y = rotl32(y, beta)
	y ^= x
	return x, y
}

func invRound(x, y, rk uint32) (uint32, uint32) {
	y ^= x
	y = rotr32(y, beta)
	x ^= rk
	x -= y
	x = rotl32(x, alpha)
	return x, y
}

func rotl32(x uint32, n uint) uint32 { return (x << n) | (x >> (32 - n)) }
func rotr32(x uint32, n uint) uint32 { return (x >> n) | (x << (32 - n)) }

func (b *block) Encrypt(dst, src []byte) {
	if len(src) < blockSize || len(dst) < blockSize {
		panic("speck: input/output buffer too small")
	}
	x := binary.LittleEndian.Uint32(src[0:4])
	y := binary.LittleEndian.Uint32(src[4:8])

	for _, rk := range b.roundKeys {
		x, y = round(x, y, rk)
	}

	binary.LittleEndian.PutUint32(dst[0:4], x)
	binary.LittleEndian.PutUint32(dst[4:8], y)
}

func (b *block) Decrypt(dst, src []byte) {
	if len(src) < blockSize || len(dst) < blockSize {
		panic("speck: input/output buffer too small")
	}
	x := binary.LittleEndian.Uint32(src[0:4])
	y := binary.LittleEndian.Uint32(src[4:8])

	for i := rounds - 1; i >= 0; i-- {
		x, y = invRound(x, y, b.roundKeys[i])
	}

	binary.LittleEndian.PutUint32(dst[0:4], x)
	binary.LittleEndian.PutUint32(dst[4:8], y)
}

// EncryptBlock64 is a convenience wrapper for callers that would
// rather pass a packed uint64 block than an 8-byte slice, which is
// every caller in pkg/speck's own double-encryption demo.
func EncryptBlock64(key []byte, plaintext uint64) (uint64, error) {
	c, err := NewCipher(key)
	if err != nil {
		return 0, err
	}
	var src, dst [8]byte
	binary.LittleEndian.PutUint64(src[:], plaintext)
	c.Encrypt(dst[:], src[:])
	return binary.LittleEndian.Uint64(dst[:]), nil
}

// DecryptBlock64 is Decrypt's counterpart to EncryptBlock64.
func DecryptBlock64(key []byte, ciphertext uint64) (uint64, error) {
	c, err := NewCipher(key)
	if err != nil {
		return 0, err
	}
	var src, dst [8]byte
	binary.LittleEndian.PutUint64(src[:], ciphertext)
	c.Decrypt(dst[:], src[:])
	return binary.LittleEndian.Uint64(dst[:]), nil
}
