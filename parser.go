// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// referenceCountMask keeps the 30-bit reference count.
const referenceCountMask = 0x3FFFFFFF

// parsedPackage is the immutable result of one table parse.
type parsedPackage struct {
	entries  map[ResourceID]EntryRecord
	order    []ResourceID
	warnings []Warning
	chunk    ChunkInfo
	format   Format
	patch    int
	isPatch  bool
}

// cursor is a bounds-checked little-endian reader over a byte slice.
type cursor struct {
	data []byte
	off  int
}

// take returns the next n bytes or false when fewer remain.
func (c *cursor) take(n int) ([]byte, bool) {
	if n < 0 || n > len(c.data)-c.off {
		return nil, false
	}

	b := c.data[c.off : c.off+n]
	c.off += n
	return b, true
}

func (c *cursor) u32() (uint32, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}

	return binary.LittleEndian.Uint32(b), true
}

func (c *cursor) u64() (uint64, bool) {
	b, ok := c.take(8)
	if !ok {
		return 0, false
	}

	return binary.LittleEndian.Uint64(b), true
}

// parsePackage reads header, deletion list, offset table and metadata table.
// Every payload range is validated against len(data) before it is exposed.
func parsePackage(data []byte, opts ArchiveOptions) (*parsedPackage, error) {
	l, err := resolveLayout(data, opts.Format)
	if err != nil {
		return nil, err
	}

	p := &parsedPackage{format: l.format, isPatch: opts.Patch, patch: opts.PatchLevel}
	c := &cursor{data: data, off: magicSize}

	if l.format == FormatV2 {
		raw, ok := c.take(chunkInfoSize)
		if !ok {
			return nil, newParseError(ErrTruncated, "chunk descriptor")
		}

		p.chunk = ChunkInfo{
			Unknown:  binary.LittleEndian.Uint32(raw[0:4]),
			ChunkID:  raw[4],
			Type:     ChunkType(raw[5]),
			PatchID:  raw[6],
			Language: strings.TrimRight(string(raw[7:9]), "\x00"),
		}

		if p.patch == 0 && p.isPatch {
			p.patch = int(p.chunk.PatchID)
		}
	}

	c.off = l.headerAt
	header, ok := c.take(headerFieldsSize)
	if !ok {
		return nil, newParseError(ErrTruncated, "header needs %d bytes at offset %d", headerFieldsSize, l.headerAt)
	}

	fileCount := binary.LittleEndian.Uint32(header[0:4])
	offsetTableSize := binary.LittleEndian.Uint32(header[4:8])
	metadataTableSize := binary.LittleEndian.Uint32(header[8:12])

	if uint64(offsetTableSize) != uint64(fileCount)*uint64(l.entrySize) {
		return nil, newParseError(ErrMalformedHeader,
			"offset table size %d does not match %d entries of %d bytes", offsetTableSize, fileCount, l.entrySize)
	}

	if uint64(metadataTableSize) < uint64(fileCount)*metadataEntrySize {
		return nil, newParseError(ErrMalformedHeader,
			"metadata table size %d too small for %d entries", metadataTableSize, fileCount)
	}

	// Legacy packages carry no deletion list even when they patch a partition.
	var deletions []ResourceID
	if p.isPatch && l.format != FormatLegacy {
		deletions, err = parseDeletions(c)
		if err != nil {
			return nil, err
		}
	}

	offsetTable, ok := c.take(int(offsetTableSize))
	if !ok {
		return nil, newParseError(ErrTruncated, "offset table of %d bytes at offset %d", offsetTableSize, c.off)
	}

	metadataTable, ok := c.take(int(metadataTableSize))
	if !ok {
		return nil, newParseError(ErrTruncated, "metadata table of %d bytes at offset %d", metadataTableSize, c.off)
	}

	records, err := parseRecords(data, l, int(fileCount), offsetTable, metadataTable)
	if err != nil {
		return nil, err
	}

	p.index(records, deletions, opts.Logger)
	return p, nil
}

// parseDeletions reads the patch deletion list.
func parseDeletions(c *cursor) ([]ResourceID, error) {
	count, ok := c.u32()
	if !ok {
		return nil, newParseError(ErrTruncated, "deletion count")
	}

	if uint64(count)*resourceIDSize > uint64(len(c.data)-c.off) {
		return nil, newParseError(ErrTruncated, "deletion list of %d ids", count)
	}

	out := make([]ResourceID, count)
	for i := range out {
		v, _ := c.u64()
		out[i] = ResourceID(v)
	}

	return out, nil
}

// parseRecords decodes offset and metadata rows pairwise.
func parseRecords(data []byte, l layout, count int, offsetTable, metadataTable []byte) ([]EntryRecord, error) {
	records := make([]EntryRecord, count)
	meta := &cursor{data: metadataTable}
	fileSize := uint64(len(data))

	for i := range records {
		row := offsetTable[i*l.entrySize : (i+1)*l.entrySize]
		rec := EntryRecord{
			ID:         ResourceID(binary.LittleEndian.Uint64(row[0:8])),
			DataOffset: binary.LittleEndian.Uint64(row[8:16]),
			Index:      i,
		}

		var flags packedFlags
		if l.decodeFlags != nil {
			flags = l.decodeFlags(row[16:])
		}

		fixed, ok := meta.take(metadataEntrySize)
		if !ok {
			return nil, newEntryError(i, ErrMalformedEntry, "metadata row past end of metadata table")
		}

		rec.Type = reverseTag(fixed[0:4])
		refsSize := binary.LittleEndian.Uint32(fixed[4:8])
		rec.DecodedSize = binary.LittleEndian.Uint32(fixed[12:16])
		rec.SystemMemory = binary.LittleEndian.Uint32(fixed[16:20])
		rec.VideoMemory = binary.LittleEndian.Uint32(fixed[20:24])

		if refsSize > 0 {
			chunk, ok := meta.take(int(refsSize))
			if !ok {
				return nil, newEntryError(i, ErrMalformedEntry, "reference chunk of %d bytes past end of metadata table", refsSize)
			}

			refs, err := parseReferences(chunk)
			if err != nil {
				return nil, newEntryError(i, ErrMalformedEntry, "%v", err)
			}

			rec.References = refs
		}

		rec.Encrypted = flags.encrypted
		rec.StoredSize = rec.DecodedSize
		if flags.compressedSize != 0 {
			rec.Compressed = true
			rec.StoredSize = flags.compressedSize
		}

		if rec.DataOffset > fileSize || uint64(rec.StoredSize) > fileSize-rec.DataOffset {
			return nil, newEntryError(i, ErrMalformedEntry,
				"payload [%d, +%d) exceeds file size %d", rec.DataOffset, rec.StoredSize, fileSize)
		}

		records[i] = rec
	}

	if meta.off != len(metadataTable) {
		return nil, newParseError(ErrMalformedHeader,
			"metadata table declares %d bytes, rows use %d", len(metadataTable), meta.off)
	}

	return records, nil
}

// parseReferences decodes one reference chunk.
func parseReferences(chunk []byte) ([]Reference, error) {
	if len(chunk) < 4 {
		return nil, errors.New("reference chunk shorter than count word")
	}

	word := binary.LittleEndian.Uint32(chunk)
	count := int(word & referenceCountMask)
	newLayout := word&(1<<30) != 0

	if uint64(len(chunk)) != 4+uint64(count)*(resourceIDSize+1) {
		return nil, errors.New("reference chunk size does not match reference count")
	}

	body := chunk[4:]
	refs := make([]Reference, count)
	if newLayout {
		ids := body[count:]
		for i := range refs {
			refs[i] = decodeReferenceFlagsV2(body[i])
			refs[i].ID = ResourceID(binary.LittleEndian.Uint64(ids[i*resourceIDSize:]))
		}

		return refs, nil
	}

	flags := body[count*resourceIDSize:]
	for i := range refs {
		refs[i] = decodeReferenceFlagsV1(flags[i])
		refs[i].ID = ResourceID(binary.LittleEndian.Uint64(body[i*resourceIDSize:]))
	}

	return refs, nil
}

// reverseTag converts the stored byte-reversed type tag to text.
func reverseTag(b []byte) string {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}

	return strings.TrimRight(string(out), "\x00")
}

// index builds the id lookup: tombstones first, then table rows.
// A row overrides a tombstone of the same package; a later row overrides an earlier one.
func (p *parsedPackage) index(records []EntryRecord, deletions []ResourceID, logger *slog.Logger) {
	p.entries = make(map[ResourceID]EntryRecord, len(records)+len(deletions))
	p.order = make([]ResourceID, 0, len(records)+len(deletions))

	for _, id := range deletions {
		if _, seen := p.entries[id]; seen {
			continue
		}

		p.entries[id] = EntryRecord{ID: id, Deleted: true, Index: -1}
	}

	seen := make(map[ResourceID]int, len(records))
	tombstones := make(map[ResourceID]struct{}, len(deletions))
	for _, rec := range records {
		if prev, dup := seen[rec.ID]; dup {
			w := Warning{
				ID:      rec.ID,
				Index:   rec.Index,
				Message: "duplicate resource id, overrides entry " + strconv.Itoa(prev),
			}

			p.warnings = append(p.warnings, w)
			logger.Warn("duplicate resource id in package table",
				slog.String("id", rec.ID.String()),
				slog.Int("index", rec.Index),
				slog.Int("previous", prev))
		} else {
			p.order = append(p.order, rec.ID)
		}

		seen[rec.ID] = rec.Index
		p.entries[rec.ID] = rec
	}

	for _, id := range deletions {
		if _, overridden := seen[id]; overridden {
			continue
		}

		if _, listed := tombstones[id]; listed {
			continue
		}

		tombstones[id] = struct{}{}
		p.order = append(p.order, id)
	}
}
