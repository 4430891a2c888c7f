//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package dealer

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/xerrors"
)

// SeedSize defines the PRG seed size in bytes.
const SeedSize = chacha20.KeySize

// PRG implements a ChaCha20-based pseudorandom generator. The dealer
// and a party holding the same seed produce the same stream.
type PRG struct {
	cipher *chacha20.Cipher
	buf    [4096]byte
	pos    int
}

// NewPRG creates a new PRG from the seed.
func NewPRG(seed []byte) (*PRG, error) {
	if len(seed) != SeedSize {
		return nil, xerrors.Errorf("invalid seed size %d", len(seed))
	}
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(seed, nonce)
	if err != nil {
		return nil, err
	}
	prg := &PRG{
		cipher: c,
	}
	prg.pos = len(prg.buf)
	return prg, nil
}

// Uint64 returns the next 64 pseudorandom bits.
func (prg *PRG) Uint64() uint64 {
	if prg.pos+8 > len(prg.buf) {
		clear(prg.buf[:])
		prg.cipher.XORKeyStream(prg.buf[:], prg.buf[:])
		prg.pos = 0
	}
	v := binary.LittleEndian.Uint64(prg.buf[prg.pos:])
	prg.pos += 8
	return v
}
