// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEntry is one resource written by testPackage.
type testEntry struct {
	typ     string
	stored  []byte
	refs    []Reference
	id      ResourceID
	decoded uint32
	// offsetDelta shifts the written data offset to craft out-of-range rows.
	offsetDelta int64
	compressed  bool
	encrypted   bool
	oldRefs     bool
}

// testPackage describes a package to serialize byte by byte.
type testPackage struct {
	entries   []testEntry
	deletions []ResourceID
	chunk     ChunkInfo
	format    Format
	patch     bool
}

// rawEntry builds an uncompressed, unencrypted entry.
func rawEntry(id ResourceID, typ string, payload []byte) testEntry {
	return testEntry{id: id, typ: typ, stored: payload, decoded: uint32(len(payload))}
}

// encodedEntry encodes payload with codec and returns a matching entry.
func encodedEntry(t testing.TB, codec *Codec, id ResourceID, payload []byte, compressed, encrypted bool) testEntry {
	t.Helper()

	stored, err := codec.Encode(payload, compressed, encrypted)
	require.NoError(t, err)

	return testEntry{
		id:         id,
		typ:        "TEMP",
		stored:     stored,
		decoded:    uint32(len(payload)),
		compressed: compressed && len(payload) > 0,
		encrypted:  encrypted,
	}
}

// headerSize returns bytes before the deletion list.
func (p testPackage) headerSize() int {
	return layouts[p.format].headerAt + headerFieldsSize
}

// bytes serializes the package. Data follows the tables in entry order.
func (p testPackage) bytes() []byte {
	l := layouts[p.format]

	var out []byte
	switch p.format {
	case FormatV2:
		out = append(out, magicV2...)
		out = binary.LittleEndian.AppendUint32(out, p.chunk.Unknown)
		out = append(out, p.chunk.ChunkID, byte(p.chunk.Type), p.chunk.PatchID)
		lang := [2]byte{}
		copy(lang[:], p.chunk.Language)
		out = append(out, lang[:]...)
	case FormatLegacy:
		out = append(out, magicV1...)
		out = append(out, make([]byte, legacyReservedSize)...)
	default:
		out = append(out, magicV1...)
	}

	meta := make([][]byte, len(p.entries))
	metaSize := 0
	for i, e := range p.entries {
		meta[i] = encodeTestMetadata(e)
		metaSize += len(meta[i])
	}

	out = binary.LittleEndian.AppendUint32(out, uint32(len(p.entries)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(p.entries)*l.entrySize))
	out = binary.LittleEndian.AppendUint32(out, uint32(metaSize))

	if p.patch && p.format != FormatLegacy {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(p.deletions)))
		for _, id := range p.deletions {
			out = binary.LittleEndian.AppendUint64(out, uint64(id))
		}
	}

	dataOffset := uint64(len(out) + len(p.entries)*l.entrySize + metaSize)
	for _, e := range p.entries {
		out = binary.LittleEndian.AppendUint64(out, uint64(e.id))
		out = binary.LittleEndian.AppendUint64(out, uint64(int64(dataOffset)+e.offsetDelta))
		if l.decodeFlags != nil {
			var size uint32
			if e.compressed {
				size = uint32(len(e.stored))
			}

			out = append(out, encodePackedFlags(size, e.encrypted)...)
		}

		dataOffset += uint64(len(e.stored))
	}

	for _, m := range meta {
		out = append(out, m...)
	}

	for _, e := range p.entries {
		out = append(out, e.stored...)
	}

	return out
}

// encodeTestMetadata writes one metadata row with its reference chunk.
func encodeTestMetadata(e testEntry) []byte {
	var refs []byte
	if len(e.refs) > 0 {
		refs = encodeReferences(e.refs, e.oldRefs)
	}

	tag := make([]byte, 4)
	copy(tag, e.typ)

	row := make([]byte, 0, metadataEntrySize+len(refs))
	row = append(row, tag[3], tag[2], tag[1], tag[0])
	row = binary.LittleEndian.AppendUint32(row, uint32(len(refs)))
	row = binary.LittleEndian.AppendUint32(row, 0)
	row = binary.LittleEndian.AppendUint32(row, e.decoded)
	row = binary.LittleEndian.AppendUint32(row, e.decoded)
	row = binary.LittleEndian.AppendUint32(row, 0)
	return append(row, refs...)
}

// encodeReferences writes a reference chunk in the new or old layout.
func encodeReferences(refs []Reference, old bool) []byte {
	word := uint32(len(refs)) | 1<<31
	if !old {
		word |= 1 << 30
	}

	out := binary.LittleEndian.AppendUint32(nil, word)
	if old {
		for _, ref := range refs {
			out = binary.LittleEndian.AppendUint64(out, uint64(ref.ID))
		}

		for _, ref := range refs {
			out = append(out, encodeReferenceFlagsV1(ref))
		}

		return out
	}

	for _, ref := range refs {
		out = append(out, encodeReferenceFlagsV2(ref))
	}

	for _, ref := range refs {
		out = binary.LittleEndian.AppendUint64(out, uint64(ref.ID))
	}

	return out
}

// encodePackedFlags packs compressed size and encrypted bit.
func encodePackedFlags(compressedSize uint32, encrypted bool) []byte {
	v := compressedSize & 0x7FFFFFFF
	if encrypted {
		v |= 0x80000000
	}

	return binary.LittleEndian.AppendUint32(nil, v)
}

// encodeReferenceFlagsV2 packs a new-layout reference flag byte.
func encodeReferenceFlagsV2(ref Reference) byte {
	b := ref.Language&0x1F | byte(ref.Type)<<6
	if ref.Acquired {
		b |= 0x20
	}

	return b
}

// encodeReferenceFlagsV1 packs an old-layout reference flag byte.
func encodeReferenceFlagsV1(ref Reference) byte {
	var b byte
	if ref.Acquired {
		b |= 0x02
	}

	switch ref.Type {
	case ReferenceInstall:
		b |= 0x80
	case ReferenceWeak:
		b |= 0x04
	}

	return b
}

// writePackage writes pkg into dir and returns its path.
func writePackage(t testing.TB, dir string, name string, pkg testPackage) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pkg.bytes(), 0o600))
	return path
}

// parseTestPackage parses pkg from memory.
func parseTestPackage(t testing.TB, pkg testPackage, opts ArchiveOptions) *Archive {
	t.Helper()

	a, err := Parse(pkg.bytes(), opts)
	require.NoError(t, err)
	return a
}
