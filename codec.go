// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
	"github.com/woozymasta/lzss"
)

// Codec decodes one entry payload: decipher first, then decompress.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	cipher      Cipher
	compression Compression
}

// NewCodec builds a codec from options.
func NewCodec(opts CodecOptions) (*Codec, error) {
	opts.applyDefaults()

	cipher, err := newCipher(opts.Cipher, opts.XTEA)
	if err != nil {
		return nil, err
	}

	switch opts.Compression {
	case CompressionLZ4, CompressionLZSS:
	default:
		return nil, fmt.Errorf("%w: unknown compression %q", ErrDecompress, opts.Compression)
	}

	return &Codec{cipher: cipher, compression: opts.Compression}, nil
}

// Decode returns an owned copy of the decoded payload of rec.
// raw is never modified, so it may point into read-only mapped memory.
func (c *Codec) Decode(rec EntryRecord, raw []byte) ([]byte, error) {
	if uint64(len(raw)) != uint64(rec.StoredSize) {
		return nil, &CodecError{
			ID:   rec.ID,
			Kind: ErrSizeMismatch,
			Err:  fmt.Errorf("stored %d bytes, record declares %d", len(raw), rec.StoredSize),
		}
	}

	buf := raw
	if rec.Encrypted {
		if c.cipher == nil {
			return nil, &CodecError{ID: rec.ID, Kind: ErrCipher, Err: errors.New("no cipher configured")}
		}

		buf = bytes.Clone(raw)
		if err := c.cipher.Decrypt(buf); err != nil {
			return nil, &CodecError{ID: rec.ID, Kind: ErrCipher, Err: err}
		}
	}

	if !rec.Compressed {
		if uint64(len(buf)) < uint64(rec.DecodedSize) {
			return nil, &CodecError{
				ID:   rec.ID,
				Kind: ErrSizeMismatch,
				Err:  fmt.Errorf("have %d bytes, want %d", len(buf), rec.DecodedSize),
			}
		}

		out := buf[:rec.DecodedSize]
		if !rec.Encrypted {
			out = bytes.Clone(out)
		}

		if out == nil {
			out = []byte{}
		}

		return out, nil
	}

	if rec.DecodedSize == 0 {
		return []byte{}, nil
	}

	out, err := c.decompress(buf, int(rec.DecodedSize))
	if err != nil {
		return nil, &CodecError{ID: rec.ID, Kind: kindOf(err), Err: err}
	}

	return out, nil
}

// Encode is the inverse of Decode: compress, then encipher.
func (c *Codec) Encode(payload []byte, compressed bool, encrypted bool) ([]byte, error) {
	stored := bytes.Clone(payload)
	if stored == nil {
		stored = []byte{}
	}

	if compressed && len(payload) > 0 {
		var err error
		stored, err = c.compress(payload)
		if err != nil {
			return nil, err
		}
	}

	if encrypted {
		if c.cipher == nil {
			return nil, fmt.Errorf("%w: no cipher configured", ErrCipher)
		}

		if err := c.cipher.Encrypt(stored); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCipher, err)
		}
	}

	return stored, nil
}

// decompress decodes one block into exactly size bytes.
func (c *Codec) decompress(src []byte, size int) ([]byte, error) {
	switch c.compression {
	case CompressionLZSS:
		var out bytes.Buffer
		out.Grow(size)
		if _, err := lzss.DecompressToWriter(&out, bytes.NewReader(src), size, nil); err != nil {
			return nil, fmt.Errorf("%w: lzss: %w", ErrDecompress, err)
		}

		if out.Len() != size {
			return nil, fmt.Errorf("%w: lzss produced %d bytes, want %d", ErrSizeMismatch, out.Len(), size)
		}

		return out.Bytes(), nil
	default:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(src, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrDecompress, err)
		}

		if n != size {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, want %d", ErrSizeMismatch, n, size)
		}

		return out, nil
	}
}

// compress encodes one block with the configured codec.
func (c *Codec) compress(src []byte) ([]byte, error) {
	switch c.compression {
	case CompressionLZSS:
		out, err := lzss.Compress(src, lzss.DefaultCompressOptions())
		if err != nil {
			return nil, fmt.Errorf("%w: lzss: %w", ErrDecompress, err)
		}

		return out, nil
	default:
		dst := make([]byte, lz4.CompressBlockBound(len(src)))
		n, err := lz4.CompressBlock(src, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrDecompress, err)
		}

		if n == 0 {
			return nil, fmt.Errorf("%w: lz4 block did not fit %d bytes", ErrDecompress, len(dst))
		}

		return dst[:n], nil
	}
}

// kindOf picks the sentinel a codec failure is reported under.
func kindOf(err error) error {
	if errors.Is(err, ErrSizeMismatch) {
		return ErrSizeMismatch
	}

	return ErrDecompress
}
