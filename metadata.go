// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

// PackageInfo summarizes one package header.
type PackageInfo struct {
	Chunk      ChunkInfo `json:"chunk,omitzero" yaml:"chunk,omitzero"`
	Path       string    `json:"path" yaml:"path"`
	Format     Format    `json:"format" yaml:"format"`
	Resources  int       `json:"resources" yaml:"resources"`
	Deletions  int       `json:"deletions,omitempty" yaml:"deletions,omitempty"`
	Warnings   int       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	PatchLevel int       `json:"patch_level,omitempty" yaml:"patch_level,omitempty"`
	IsPatch    bool      `json:"is_patch,omitempty" yaml:"is_patch,omitempty"`
}

// ReadInfo opens a package, summarizes its header and tables, and closes it.
func ReadInfo(path string) (PackageInfo, error) {
	a, err := Open(path)
	if err != nil {
		return PackageInfo{}, err
	}
	defer func() { _ = a.Close() }()

	return a.Info(), nil
}

// ListEntries opens a package and returns its records without payload reads.
func ListEntries(path string) ([]EntryRecord, error) {
	return ListEntriesWithOptions(path, ArchiveOptions{})
}

// ListEntriesWithOptions opens a package with options and returns its records without payload reads.
func ListEntriesWithOptions(path string, opts ArchiveOptions) ([]EntryRecord, error) {
	a, err := OpenWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = a.Close() }()

	return a.Entries(), nil
}

// Info summarizes the parsed package.
func (a *Archive) Info() PackageInfo {
	info := PackageInfo{
		Path:       a.path,
		Format:     a.pkg.format,
		Chunk:      a.pkg.chunk,
		PatchLevel: a.pkg.patch,
		IsPatch:    a.pkg.isPatch,
		Warnings:   len(a.pkg.warnings),
	}

	for _, rec := range a.pkg.entries {
		if rec.Deleted {
			info.Deletions++
			continue
		}

		info.Resources++
	}

	return info
}
