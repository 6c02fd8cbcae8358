// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"crypto/md5" //nolint:gosec // engine identifiers are defined over MD5
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// ResourceID is the 64-bit runtime identifier of one resource.
// Only the low 56 bits carry the hash; ordering is numeric.
type ResourceID uint64

// InvalidResourceID is the engine marker for an unset identifier.
const InvalidResourceID ResourceID = 0x00FFFFFFFFFFFFFF

// resourceIDSize is the on-disk width of a ResourceID.
const resourceIDSize = 8

// Valid reports whether id lies inside the 56-bit identifier space.
func (id ResourceID) Valid() bool {
	return id < InvalidResourceID
}

// String renders id as 16 upper-case hexadecimal digits.
func (id ResourceID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}

// MarshalText implements encoding.TextMarshaler.
func (id ResourceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ResourceID) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceID(string(text))
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// ParseResourceID parses a hexadecimal id with optional "0x" prefix.
func ParseResourceID(s string) (ResourceID, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if raw == "" || len(raw) > 16 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResourceID, s)
	}

	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResourceID, s)
	}

	id := ResourceID(v)
	if !id.Valid() {
		return 0, fmt.Errorf("%w: %s outside identifier space", ErrInvalidResourceID, id)
	}

	return id, nil
}

// HashResourcePath computes the runtime id of an exact path string:
// bytes 1..7 of its MD5 digest read as a big-endian integer.
// Use ResourcePath.ID for paths that still need canonicalization.
func HashResourcePath(path string) ResourceID {
	digest := md5.Sum([]byte(path)) //nolint:gosec // engine identifiers are defined over MD5
	return ResourceID(binary.BigEndian.Uint64(digest[0:8]) & uint64(InvalidResourceID))
}
