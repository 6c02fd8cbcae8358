// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import "strings"

// entryFilter selects resources for extraction.
type entryFilter struct {
	types   map[string]struct{}
	prefix  string
	minSize uint32
}

// newEntryFilter builds an entry filter from extract options.
func newEntryFilter(opts ExtractOptions) entryFilter {
	f := entryFilter{
		minSize: opts.MinDecodedSize,
		prefix:  NormalizePath(strings.ToLower(opts.PathPrefix)),
	}

	if len(opts.Types) > 0 {
		f.types = make(map[string]struct{}, len(opts.Types))
		for _, t := range opts.Types {
			f.types[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
		}
	}

	return f
}

// keepRecord reports whether rec passes type and size filters.
func (f entryFilter) keepRecord(rec EntryRecord) bool {
	if f.types != nil {
		if _, ok := f.types[strings.ToUpper(rec.Type)]; !ok {
			return false
		}
	}

	return filterDecodedSizeOrStoredSize(rec) >= f.minSize
}

// keepName reports whether an output name lies under the prefix.
func (f entryFilter) keepName(name string) bool {
	return filterPathHasPrefix(name, f.prefix)
}

// filterDecodedSizeOrStoredSize returns DecodedSize when present, otherwise StoredSize.
func filterDecodedSizeOrStoredSize(rec EntryRecord) uint32 {
	if rec.DecodedSize == 0 {
		return rec.StoredSize
	}

	return rec.DecodedSize
}

// filterPathHasPrefix reports whether path is prefix itself or lies under it.
func filterPathHasPrefix(pathValue string, prefix string) bool {
	if prefix == "" {
		return true
	}

	entryPath := NormalizePath(strings.ToLower(pathValue))
	return entryPath == prefix || strings.HasPrefix(entryPath, prefix+"/")
}
