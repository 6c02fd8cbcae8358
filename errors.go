// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"errors"
	"fmt"
)

// Sentinel errors for resource package operations. Use errors.Is in callers.
var (
	// ErrNotFound means the resource is absent or deleted by a patch.
	ErrNotFound = errors.New("resource not found")
	// ErrUnsupportedFormat means the magic or layout matches no known package format.
	ErrUnsupportedFormat = errors.New("unsupported resource package format")
	// ErrMalformedHeader means header fields are inconsistent with each other or file size.
	ErrMalformedHeader = errors.New("malformed package header")
	// ErrMalformedEntry means one table record is invalid.
	ErrMalformedEntry = errors.New("malformed package entry")
	// ErrTruncated means the file ends inside a header or table.
	ErrTruncated = errors.New("truncated resource package")
	// ErrSizeMismatch means stored or decoded payload length differs from the entry record.
	ErrSizeMismatch = errors.New("payload size mismatch")
	// ErrCipher means the cipher is misconfigured or failed on the payload.
	ErrCipher = errors.New("cipher failure")
	// ErrDecompress means the compressed block could not be decoded.
	ErrDecompress = errors.New("decompress failure")
	// ErrClosed means the archive or game is already closed.
	ErrClosed = errors.New("archive already closed")
	// ErrNilArchive means a nil archive was passed where one is required.
	ErrNilArchive = errors.New("archive is nil")
	// ErrPartitionNotFound means no mounted partition has the requested name.
	ErrPartitionNotFound = errors.New("partition not found")
	// ErrPatchOrder means two patches of one partition share a patch level.
	ErrPatchOrder = errors.New("duplicate patch level")
	// ErrDuplicatePartition means two definitions share one partition name.
	ErrDuplicatePartition = errors.New("duplicate partition")
	// ErrEmptyPartitionName means a partition definition has no name.
	ErrEmptyPartitionName = errors.New("empty partition name")
	// ErrBaseMissing means a partition definition lists no base package on disk.
	ErrBaseMissing = errors.New("partition base package missing")
	// ErrInvalidResourceID means a textual resource id could not be parsed.
	ErrInvalidResourceID = errors.New("invalid resource id")
	// ErrInvalidResourcePath means a resource path does not follow the engine path syntax.
	ErrInvalidResourcePath = errors.New("invalid resource path")
	// ErrInvalidRules means one or more path rules are invalid.
	ErrInvalidRules = errors.New("invalid path rules")
	// ErrInvalidExtractPath means an output name is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrLayerOutOfRange means a partition layer index does not exist.
	ErrLayerOutOfRange = errors.New("partition layer out of range")
)

// ParseError describes a package that could not be parsed.
// Index is the offending table record, or -1 for header level failures.
type ParseError struct {
	Kind   error
	Path   string
	Reason string
	Index  int
}

// Error implements error.
func (e *ParseError) Error() string {
	name := e.Path
	if name == "" {
		name = "<memory>"
	}

	if e.Index >= 0 {
		return fmt.Sprintf("parse %s: entry %d: %v: %s", name, e.Index, e.Kind, e.Reason)
	}

	return fmt.Sprintf("parse %s: %v: %s", name, e.Kind, e.Reason)
}

// Unwrap returns the sentinel kind.
func (e *ParseError) Unwrap() error {
	return e.Kind
}

// newParseError builds a header level parse error.
func newParseError(kind error, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Index: -1, Reason: fmt.Sprintf(format, args...)}
}

// newEntryError builds a parse error bound to one table record.
func newEntryError(index int, kind error, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Index: index, Reason: fmt.Sprintf(format, args...)}
}

// CodecError reports a decode failure of a single resource.
type CodecError struct {
	Kind error
	Err  error
	ID   ResourceID
}

// Error implements error.
func (e *CodecError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: %v", e.ID, e.Kind)
	}

	return fmt.Sprintf("decode %s: %v: %v", e.ID, e.Kind, e.Err)
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *CodecError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// MountError reports a partition that could not be mounted.
type MountError struct {
	Err       error
	Partition string
	Path      string
}

// Error implements error.
func (e *MountError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("mount partition %q: %v", e.Partition, e.Err)
	}

	return fmt.Sprintf("mount partition %q (%s): %v", e.Partition, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *MountError) Unwrap() error {
	return e.Err
}
