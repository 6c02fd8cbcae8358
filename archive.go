// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
)

// patchFileRe matches the patch suffix of a package file name.
var patchFileRe = regexp.MustCompile(`(?i)patch(\d+)\.rpkg$`)

// Archive is one parsed resource package backed by a read-only mapping.
// Concurrent reads share the mapping without copying; Close waits for them.
type Archive struct {
	// data is the mapped package; never written.
	data []byte
	// unmap releases data; nil for caller-owned memory.
	unmap  func() error
	codec  *Codec
	pkg    *parsedPackage
	logger *slog.Logger
	path   string
	// mu orders Close against in-flight borrows of data.
	mu     sync.RWMutex
	closed bool
}

// Open maps and parses the package at path.
func Open(path string) (*Archive, error) {
	return OpenWithOptions(path, ArchiveOptions{})
}

// OpenWithOptions maps and parses the package at path using explicit options.
// A "…patchN.rpkg" file name marks the package as patch N unless opts says otherwise.
func OpenWithOptions(path string, opts ArchiveOptions) (*Archive, error) {
	if level, ok := PatchLevelFromName(path); ok && !opts.Patch {
		opts.Patch = true
		if opts.PatchLevel == 0 {
			opts.PatchLevel = level
		}
	}

	data, unmap, err := mapFile(path)
	if err != nil {
		return nil, err
	}

	a, err := newArchive(data, opts)
	if err != nil {
		_ = unmap()
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}

		return nil, err
	}

	a.path = path
	a.unmap = unmap
	a.logger.Debug("package opened",
		slog.String("path", path),
		slog.String("format", a.pkg.format.String()),
		slog.Int("entries", len(a.pkg.entries)),
		slog.Int("patch", a.pkg.patch))

	return a, nil
}

// Parse parses a package held in memory. data must stay unchanged while the archive is used.
func Parse(data []byte, opts ArchiveOptions) (*Archive, error) {
	return newArchive(data, opts)
}

// newArchive parses data and builds the entry index.
func newArchive(data []byte, opts ArchiveOptions) (*Archive, error) {
	opts.applyDefaults()

	codec, err := NewCodec(opts.Codec)
	if err != nil {
		return nil, err
	}

	pkg, err := parsePackage(data, opts)
	if err != nil {
		return nil, err
	}

	return &Archive{data: data, codec: codec, pkg: pkg, logger: opts.Logger}, nil
}

// PatchLevelFromName extracts N from a "…patchN.rpkg" file name.
func PatchLevelFromName(path string) (int, bool) {
	m := patchFileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return n, true
}

// Path returns the file path, empty for in-memory packages.
func (a *Archive) Path() string {
	return a.path
}

// Format returns the detected or forced layout.
func (a *Archive) Format() Format {
	return a.pkg.format
}

// Chunk returns the v2 chunk descriptor; zero for other formats.
func (a *Archive) Chunk() ChunkInfo {
	return a.pkg.chunk
}

// PatchLevel returns the position in the partition chain; zero for base packages.
func (a *Archive) PatchLevel() int {
	return a.pkg.patch
}

// IsPatch reports whether the package carries a deletion list.
func (a *Archive) IsPatch() bool {
	return a.pkg.isPatch
}

// Len returns the number of indexed ids, tombstones included.
func (a *Archive) Len() int {
	return len(a.pkg.entries)
}

// Entry returns the record for id, tombstones included.
func (a *Archive) Entry(id ResourceID) (EntryRecord, bool) {
	rec, ok := a.pkg.entries[id]
	return rec, ok
}

// Entries returns records in table order followed by tombstones not overridden by a row.
func (a *Archive) Entries() []EntryRecord {
	out := make([]EntryRecord, len(a.pkg.order))
	for i, id := range a.pkg.order {
		out[i] = a.pkg.entries[id]
	}

	return out
}

// Warnings returns non-fatal parser findings.
func (a *Archive) Warnings() []Warning {
	out := make([]Warning, len(a.pkg.warnings))
	copy(out, a.pkg.warnings)
	return out
}

// View lends the stored bytes of id to fn. The slice is valid only while fn runs
// and must not be modified or retained.
func (a *Archive) View(id ResourceID, fn func(rec EntryRecord, raw []byte) error) error {
	if a == nil {
		return ErrNilArchive
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	rec, ok := a.pkg.entries[id]
	if !ok || rec.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// bounds were validated at parse time
	raw := a.data[rec.DataOffset : rec.DataOffset+uint64(rec.StoredSize)]
	return fn(rec, raw)
}

// Read returns the decoded payload of id as an owned buffer.
func (a *Archive) Read(id ResourceID) ([]byte, error) {
	var out []byte
	err := a.View(id, func(rec EntryRecord, raw []byte) error {
		decoded, err := a.codec.Decode(rec, raw)
		if err != nil {
			return err
		}

		out = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ReadRaw returns an owned copy of the stored, still encoded payload of id.
func (a *Archive) ReadRaw(id ResourceID) ([]byte, error) {
	var out []byte
	err := a.View(id, func(_ EntryRecord, raw []byte) error {
		out = append([]byte{}, raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Close releases the mapping after in-flight reads finish.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.closed = true
	a.data = nil
	if a.unmap != nil {
		return a.unmap()
	}

	return nil
}
