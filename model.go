// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"log/slog"
	"runtime"

	"github.com/woozymasta/pathrules"
)

// Binary layout sizes shared by all package formats.
const (
	magicSize          = 4  // "GKPR" or "2KPR"
	chunkInfoSize      = 9  // v2 chunk descriptor after magic
	legacyReservedSize = 24 // zero padding before legacy header
	headerFieldsSize   = 12 // file count + offset table size + metadata table size
	offsetEntrySize    = 20 // id + data offset + packed flags
	legacyOffsetSize   = 16 // id + data offset
	metadataEntrySize  = 24 // type tag + five u32 fields
)

// Package magics as stored on disk.
const (
	magicV1 = "GKPR"
	magicV2 = "2KPR"
)

// Format identifies one on-disk package layout.
type Format uint8

// Supported package layouts.
const (
	// FormatUnknown requests auto detection.
	FormatUnknown Format = iota
	// FormatLegacy is the pre-release layout with reserved header padding and no packed flags.
	FormatLegacy
	// FormatV1 is the "GKPR" layout.
	FormatV1
	// FormatV2 is the "2KPR" layout with chunk descriptor.
	FormatV2
)

// String returns format name.
func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatV1:
		return "v1"
	case FormatV2:
		return "v2"
	default:
		return "unknown"
	}
}

// ChunkType is the v2 chunk kind.
type ChunkType uint8

// Chunk kinds.
const (
	ChunkStandard ChunkType = 0
	ChunkAddon    ChunkType = 1
)

// ChunkInfo is the v2 chunk descriptor following the magic.
type ChunkInfo struct {
	// Language is the two-byte language tag, empty for neutral chunks.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	// Unknown is the leading reserved word.
	Unknown uint32 `json:"unknown,omitempty" yaml:"unknown,omitempty"`
	// ChunkID is the numeric chunk index.
	ChunkID uint8 `json:"chunk_id" yaml:"chunk_id"`
	// Type is the chunk kind.
	Type ChunkType `json:"type" yaml:"type"`
	// PatchID is the patch level recorded by the tool chain.
	PatchID uint8 `json:"patch_id" yaml:"patch_id"`
}

// ReferenceType classifies a dependency edge.
type ReferenceType uint8

// Reference kinds.
const (
	ReferenceInstall ReferenceType = 0
	ReferenceNormal  ReferenceType = 1
	ReferenceWeak    ReferenceType = 2
)

// String returns reference kind name.
func (t ReferenceType) String() string {
	switch t {
	case ReferenceInstall:
		return "install"
	case ReferenceWeak:
		return "weak"
	default:
		return "normal"
	}
}

// neutralLanguage is the language code for references without locale.
const neutralLanguage = 0x1F

// Reference is one dependency of a resource.
type Reference struct {
	// ID is the referenced resource.
	ID ResourceID `json:"id" yaml:"id"`
	// Type is the dependency kind.
	Type ReferenceType `json:"type" yaml:"type"`
	// Language is the 5-bit locale code, 0x1F when neutral.
	Language uint8 `json:"language" yaml:"language"`
	// Acquired marks references resolved at runtime.
	Acquired bool `json:"acquired,omitempty" yaml:"acquired,omitempty"`
}

// EntryRecord is one parsed table row. It is immutable after parse.
type EntryRecord struct {
	// Type is the 4-character resource type, e.g. "TEMP".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// References lists dependencies in stored order.
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`
	// ID is the resource identifier.
	ID ResourceID `json:"id" yaml:"id"`
	// DataOffset is the absolute payload offset.
	DataOffset uint64 `json:"data_offset,omitempty" yaml:"data_offset,omitempty"`
	// Index is the offset table position, or -1 for tombstones.
	Index int `json:"index" yaml:"index"`
	// StoredSize is payload length on disk.
	StoredSize uint32 `json:"stored_size,omitempty" yaml:"stored_size,omitempty"`
	// DecodedSize is payload length after decode.
	DecodedSize uint32 `json:"decoded_size,omitempty" yaml:"decoded_size,omitempty"`
	// SystemMemory is the engine's system memory budget hint.
	SystemMemory uint32 `json:"system_memory,omitempty" yaml:"system_memory,omitempty"`
	// VideoMemory is the engine's video memory budget hint.
	VideoMemory uint32 `json:"video_memory,omitempty" yaml:"video_memory,omitempty"`
	// Compressed reports a compressed payload.
	Compressed bool `json:"compressed,omitempty" yaml:"compressed,omitempty"`
	// Encrypted reports an enciphered payload.
	Encrypted bool `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	// Deleted marks a tombstone hiding the resource from earlier layers.
	Deleted bool `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// Dependencies returns referenced resource ids in stored order.
func (e EntryRecord) Dependencies() []ResourceID {
	if len(e.References) == 0 {
		return nil
	}

	out := make([]ResourceID, len(e.References))
	for i := range e.References {
		out[i] = e.References[i].ID
	}

	return out
}

// Warning is a non-fatal parser finding.
type Warning struct {
	Message string     `json:"message" yaml:"message"`
	ID      ResourceID `json:"id" yaml:"id"`
	Index   int        `json:"index" yaml:"index"`
}

// CipherKind selects the payload cipher.
type CipherKind string

// Payload ciphers.
const (
	// CipherXTEA is the block cipher with midpoint delta inversion.
	CipherXTEA CipherKind = "xtea"
	// CipherScramble is the repeating 8-byte XOR used by shipped packages.
	CipherScramble CipherKind = "scramble"
	// CipherNone rejects encrypted entries.
	CipherNone CipherKind = "none"
)

// Compression selects the block codec for compressed entries.
type Compression string

// Block codecs.
const (
	// CompressionLZ4 is raw LZ4 block format.
	CompressionLZ4 Compression = "lz4"
	// CompressionLZSS is raw LZSS block format.
	CompressionLZSS Compression = "lzss"
)

// CodecOptions configures the frame codec.
type CodecOptions struct {
	// Cipher selects payload cipher (default xtea).
	Cipher CipherKind `json:"cipher,omitempty" yaml:"cipher,omitempty"`
	// Compression selects block codec (default lz4).
	Compression Compression `json:"compression,omitempty" yaml:"compression,omitempty"`
	// XTEA configures the block cipher; zero value means DefaultXTEAConfig.
	XTEA XTEAConfig `json:"xtea,omitzero" yaml:"xtea,omitzero"`
}

// ArchiveOptions configures parsing of one package.
type ArchiveOptions struct {
	// Logger receives parser warnings; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Codec configures entry decoding.
	Codec CodecOptions `json:"codec,omitzero" yaml:"codec,omitzero"`
	// Format forces a layout; FormatUnknown detects it.
	Format Format `json:"format,omitempty" yaml:"format,omitempty"`
	// PatchLevel is the position in the partition chain; zero falls back to the v2 header.
	PatchLevel int `json:"patch_level,omitempty" yaml:"patch_level,omitempty"`
	// Patch reports that the header carries a deletion list.
	Patch bool `json:"patch,omitempty" yaml:"patch,omitempty"`
}

// PartitionDefinition declares one partition to mount.
type PartitionDefinition struct {
	// Name is the partition identifier, e.g. "chunk0" or "dlc3".
	Name string `json:"name" yaml:"name"`
	// Parent is the partition this one layers over.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
	// Files lists member packages base first; empty means discover in game root.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
	// DependsOn lists declared partition dependencies.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	// MaxPatchLevel bounds discovered patches; zero means unbounded.
	MaxPatchLevel int `json:"max_patch_level,omitempty" yaml:"max_patch_level,omitempty"`
}

// MountOptions configures Mount.
type MountOptions struct {
	// Logger receives mount progress; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Definitions lists partitions in load order; nil discovers from file names.
	Definitions []PartitionDefinition `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	// Partitions filters partition names by ordered path rules.
	Partitions []pathrules.Rule `json:"partitions,omitempty" yaml:"partitions,omitempty"`
	// Codec configures entry decoding of every package.
	Codec CodecOptions `json:"codec,omitzero" yaml:"codec,omitzero"`
	// Workers bounds concurrent package parsing (zero means GOMAXPROCS).
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// HashDirectoryOptions configures BuildHashDirectory.
type HashDirectoryOptions struct {
	// Logger receives sweep statistics; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Expand turns one candidate template into concrete paths; nil means ExpandBraces.
	Expand func(candidate string) []string `json:"-" yaml:"-"`
	// Rules filters candidates by inner-most path before hashing.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control rule matching.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
	// Workers is number of hashing workers (zero means GOMAXPROCS).
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// ExtractOptions configures Partition.Extract.
type ExtractOptions struct {
	// OnEntryDone is called after one resource is fully written to disk.
	OnEntryDone func(entry EntryRecord, written int64, outputPath string) `json:"-" yaml:"-"`
	// Names maps ids to resource paths used as output names.
	Names map[ResourceID]string `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// PathPrefix limits extraction to output names under this folder.
	PathPrefix string `json:"path_prefix,omitempty" yaml:"path_prefix,omitempty"`
	// Types limits extraction to listed resource types; empty means all.
	Types []string `json:"types,omitempty" yaml:"types,omitempty"`
	// MinDecodedSize skips resources smaller than this many decoded bytes.
	MinDecodedSize uint32 `json:"min_decoded_size,omitempty" yaml:"min_decoded_size,omitempty"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// applyDefaults fills zero-valued codec options with defaults.
func (opts *CodecOptions) applyDefaults() {
	if opts.Cipher == "" {
		opts.Cipher = CipherXTEA
	}

	if opts.Compression == "" {
		opts.Compression = CompressionLZ4
	}

	if opts.XTEA == (XTEAConfig{}) {
		opts.XTEA = DefaultXTEAConfig
	}
}

// applyDefaults fills zero-valued archive options with defaults.
func (opts *ArchiveOptions) applyDefaults() {
	opts.Codec.applyDefaults()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	if opts.PatchLevel < 0 {
		opts.PatchLevel = 0
	}
}

// applyDefaults fills zero-valued mount options with defaults.
func (opts *MountOptions) applyDefaults() {
	opts.Codec.applyDefaults()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	opts.Workers = workerCount(opts.Workers)
}

// applyDefaults fills zero-valued hash directory options with defaults.
func (opts *HashDirectoryOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	if opts.Expand == nil {
		opts.Expand = ExpandBraces
	}

	opts.MatcherOptions = defaultMatcherOptions(opts.Rules, opts.MatcherOptions)
	opts.Workers = workerCount(opts.Workers)
}

// workerCount returns n, or GOMAXPROCS when n is not positive.
func workerCount(n int) int {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	return max(n, 1)
}

// discardLogger returns a logger that drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
