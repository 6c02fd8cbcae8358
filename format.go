// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"bytes"
	"encoding/binary"
)

// packedFlags is the decoded size/flag word of one offset table row.
type packedFlags struct {
	compressedSize uint32
	encrypted      bool
}

// layout describes field placement of one package format.
type layout struct {
	// decodeFlags reads the packed word that trails id and offset; nil when the format has none.
	decodeFlags func(b []byte) packedFlags
	format      Format
	// headerAt is the offset of the file count field.
	headerAt int
	// entrySize is one offset table row.
	entrySize int
}

// layouts holds one decoder per discriminator.
var layouts = map[Format]layout{
	FormatLegacy: {
		format:    FormatLegacy,
		headerAt:  magicSize + legacyReservedSize,
		entrySize: legacyOffsetSize,
	},
	FormatV1: {
		format:      FormatV1,
		headerAt:    magicSize,
		entrySize:   offsetEntrySize,
		decodeFlags: decodePackedFlags,
	},
	FormatV2: {
		format:      FormatV2,
		headerAt:    magicSize + chunkInfoSize,
		entrySize:   offsetEntrySize,
		decodeFlags: decodePackedFlags,
	},
}

// decodePackedFlags splits bits 0-30 compressed size and bit 31 encrypted.
func decodePackedFlags(b []byte) packedFlags {
	v := binary.LittleEndian.Uint32(b)
	return packedFlags{
		compressedSize: v & 0x7FFFFFFF,
		encrypted:      v&0x80000000 != 0,
	}
}

// detectFormat picks a layout from magic and header consistency.
// The newest discriminator is tried first.
func detectFormat(data []byte) (layout, error) {
	if len(data) < magicSize {
		return layout{}, newParseError(ErrTruncated, "file has %d bytes, magic needs %d", len(data), magicSize)
	}

	switch string(data[:magicSize]) {
	case magicV2:
		return layouts[FormatV2], nil
	case magicV1:
	default:
		return layout{}, newParseError(ErrUnsupportedFormat, "unknown magic %q", data[:magicSize])
	}

	v1 := layouts[FormatV1]
	legacy := layouts[FormatLegacy]

	// legacy padding reads as an empty v1 header, so legacy is checked first
	if headerMatches(data, legacy) &&
		bytes.Count(data[magicSize:legacy.headerAt], []byte{0}) == legacyReservedSize &&
		binary.LittleEndian.Uint32(data[legacy.headerAt:]) > 0 {
		return legacy, nil
	}

	if headerMatches(data, v1) {
		return v1, nil
	}

	return layout{}, newParseError(ErrUnsupportedFormat, "GKPR header fits no known layout")
}

// headerMatches reports whether the declared offset table size agrees with the file count.
func headerMatches(data []byte, l layout) bool {
	if len(data) < l.headerAt+headerFieldsSize {
		return false
	}

	count := uint64(binary.LittleEndian.Uint32(data[l.headerAt:]))
	tableSize := uint64(binary.LittleEndian.Uint32(data[l.headerAt+4:]))
	return tableSize == count*uint64(l.entrySize)
}

// resolveLayout returns the forced layout or detects one.
func resolveLayout(data []byte, forced Format) (layout, error) {
	if forced == FormatUnknown {
		return detectFormat(data)
	}

	l, ok := layouts[forced]
	if !ok {
		return layout{}, newParseError(ErrUnsupportedFormat, "unknown format %d", forced)
	}

	if len(data) < magicSize {
		return layout{}, newParseError(ErrTruncated, "file has %d bytes, magic needs %d", len(data), magicSize)
	}

	want := magicV1
	if forced == FormatV2 {
		want = magicV2
	}

	if string(data[:magicSize]) != want {
		return layout{}, newParseError(ErrUnsupportedFormat, "magic %q does not match %s", data[:magicSize], forced)
	}

	return l, nil
}

// decodeReferenceFlagsV2 reads the new-layout reference flag byte.
func decodeReferenceFlagsV2(b byte) Reference {
	t := ReferenceType(b >> 6)
	if t > ReferenceWeak {
		t = ReferenceNormal
	}

	return Reference{
		Language: b & 0x1F,
		Acquired: b&0x20 != 0,
		Type:     t,
	}
}

// decodeReferenceFlagsV1 reads the old-layout reference flag byte.
func decodeReferenceFlagsV1(b byte) Reference {
	ref := Reference{
		Language: neutralLanguage,
		Acquired: b&0x02 != 0,
		Type:     ReferenceNormal,
	}

	switch {
	case b&0x80 != 0:
		ref.Type = ReferenceInstall
	case b&0x04 != 0:
		ref.Type = ReferenceWeak
	}

	return ref
}
