// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"encoding/binary"
	"fmt"
)

// xteaBlockSize is the cipher block width in bytes.
const xteaBlockSize = 8

// Cipher transforms a payload in place.
// Implementations hold only immutable configuration and are safe for concurrent use.
type Cipher interface {
	Encrypt(buf []byte) error
	Decrypt(buf []byte) error
}

// XTEAConfig is the immutable key schedule of the package block cipher.
type XTEAConfig struct {
	Key    [4]uint32 `json:"key" yaml:"key"`
	Rounds uint32    `json:"rounds" yaml:"rounds"`
	Delta  uint32    `json:"delta" yaml:"delta"`
}

// Well-known cipher configurations used by the engine tool chain.
var (
	// DefaultXTEAConfig is used for package payloads and text resources.
	DefaultXTEAConfig = XTEAConfig{
		Key:    [4]uint32{0x30f95282, 0x1f48c419, 0x295f8548, 0x2a78366d},
		Rounds: 32,
		Delta:  0x61C88647,
	}
	// LocalizationXTEAConfig is used for localization tables.
	LocalizationXTEAConfig = XTEAConfig{
		Key:    [4]uint32{0x53527737, 0x7506499E, 0xBD39AEE3, 0xA59E7268},
		Rounds: 32,
		Delta:  0x61C88647,
	}
)

// EncryptedTextHeader prefixes enciphered text resources.
var EncryptedTextHeader = [16]byte{
	0x22, 0x3d, 0x6f, 0x9a, 0xb3, 0xf8, 0xfe, 0xb6,
	0x61, 0xd9, 0xcc, 0x1c, 0x62, 0xde, 0x83, 0x41,
}

// XTEA is the package block cipher. The running sum walks down by Delta
// for the first half of the rounds and back up for the second half.
// Whole 8-byte little-endian blocks are processed; a trailing partial block is left as is.
type XTEA struct {
	cfg XTEAConfig
	// final is the sum after all encryption rounds.
	final uint32
}

// NewXTEA validates cfg and returns a cipher bound to it.
func NewXTEA(cfg XTEAConfig) (*XTEA, error) {
	if cfg.Rounds == 0 || cfg.Rounds%2 != 0 {
		return nil, fmt.Errorf("%w: xtea rounds must be even and positive, got %d", ErrCipher, cfg.Rounds)
	}

	if cfg.Delta == 0 {
		return nil, fmt.Errorf("%w: xtea delta is zero", ErrCipher)
	}

	var sum uint32
	half := cfg.Rounds / 2
	for i := uint32(0); i < cfg.Rounds; i++ {
		sum = xteaStep(sum, cfg.Delta, i < half)
	}

	return &XTEA{cfg: cfg, final: sum}, nil
}

// Config returns the key schedule.
func (c *XTEA) Config() XTEAConfig {
	return c.cfg
}

// Encrypt enciphers buf in place.
func (c *XTEA) Encrypt(buf []byte) error {
	for off := 0; off+xteaBlockSize <= len(buf); off += xteaBlockSize {
		v0 := binary.LittleEndian.Uint32(buf[off:])
		v1 := binary.LittleEndian.Uint32(buf[off+4:])
		v0, v1 = c.encryptBlock(v0, v1)
		binary.LittleEndian.PutUint32(buf[off:], v0)
		binary.LittleEndian.PutUint32(buf[off+4:], v1)
	}

	return nil
}

// Decrypt deciphers buf in place.
func (c *XTEA) Decrypt(buf []byte) error {
	for off := 0; off+xteaBlockSize <= len(buf); off += xteaBlockSize {
		v0 := binary.LittleEndian.Uint32(buf[off:])
		v1 := binary.LittleEndian.Uint32(buf[off+4:])
		v0, v1 = c.decryptBlock(v0, v1)
		binary.LittleEndian.PutUint32(buf[off:], v0)
		binary.LittleEndian.PutUint32(buf[off+4:], v1)
	}

	return nil
}

// DecryptText strips EncryptedTextHeader and deciphers the rest.
// The word after the header is a checksum slot and is dropped.
func (c *XTEA) DecryptText(data []byte) ([]byte, error) {
	const prefix = len(EncryptedTextHeader) + 4
	if len(data) < prefix || [16]byte(data[:16]) != EncryptedTextHeader {
		return nil, fmt.Errorf("%w: missing encrypted text header", ErrCipher)
	}

	out := append([]byte(nil), data[prefix:]...)
	if err := c.Decrypt(out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *XTEA) encryptBlock(v0, v1 uint32) (uint32, uint32) {
	k := &c.cfg.Key
	half := c.cfg.Rounds / 2
	var sum uint32
	for i := uint32(0); i < c.cfg.Rounds; i++ {
		v0 += xteaMix(v1) ^ (sum + k[sum&3])
		sum = xteaStep(sum, c.cfg.Delta, i < half)
		v1 += xteaMix(v0) ^ (sum + k[(sum>>11)&3])
	}

	return v0, v1
}

func (c *XTEA) decryptBlock(v0, v1 uint32) (uint32, uint32) {
	k := &c.cfg.Key
	half := c.cfg.Rounds / 2
	sum := c.final
	for i := c.cfg.Rounds; i > 0; i-- {
		v1 -= xteaMix(v0) ^ (sum + k[(sum>>11)&3])
		sum = xteaUnstep(sum, c.cfg.Delta, i-1 < half)
		v0 -= xteaMix(v1) ^ (sum + k[sum&3])
	}

	return v0, v1
}

// xteaMix is the Feistel round function.
func xteaMix(v uint32) uint32 {
	return ((v << 4) ^ (v >> 5)) + v
}

// xteaStep advances the running sum for one encryption round.
func xteaStep(sum, delta uint32, firstHalf bool) uint32 {
	if firstHalf {
		return sum - delta
	}

	return sum + delta
}

// xteaUnstep reverts xteaStep.
func xteaUnstep(sum, delta uint32, firstHalf bool) uint32 {
	if firstHalf {
		return sum + delta
	}

	return sum - delta
}

// scrambleKey is the repeating XOR key of shipped packages.
var scrambleKey = [8]byte{0xdc, 0x45, 0xa6, 0x9c, 0xd3, 0x72, 0x4c, 0xab}

// Scrambler is the repeating-key XOR obfuscation. It is its own inverse.
type Scrambler struct{}

// Encrypt scrambles buf in place.
func (Scrambler) Encrypt(buf []byte) error {
	for i := range buf {
		buf[i] ^= scrambleKey[i%len(scrambleKey)]
	}

	return nil
}

// Decrypt unscrambles buf in place.
func (s Scrambler) Decrypt(buf []byte) error {
	return s.Encrypt(buf)
}

// newCipher resolves a cipher by kind.
func newCipher(kind CipherKind, cfg XTEAConfig) (Cipher, error) {
	switch kind {
	case CipherXTEA, "":
		return NewXTEA(cfg)
	case CipherScramble:
		return Scrambler{}, nil
	case CipherNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown cipher %q", ErrCipher, kind)
	}
}
