// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// packageFileRe matches package file names: partition name and optional patch level.
var packageFileRe = regexp.MustCompile(`(?i)^((chunk|dlc)(\d+)[a-z]*?)(?:patch(\d+))?\.rpkg$`)

// packageFile is one package on disk attributed to a partition.
type packageFile struct {
	path    string
	patch   int
	isPatch bool
}

// discoveredPartition groups the package files of one partition name.
type discoveredPartition struct {
	name   string
	kind   string
	files  []packageFile
	number int
}

// scanPackages lists package files in root keyed by lower-cased partition name.
// Files of each partition are sorted base first, then by patch level.
func scanPackages(root string) (map[string]*discoveredPartition, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan game root: %w", err)
	}

	out := make(map[string]*discoveredPartition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m := packageFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		name := strings.ToLower(m[1])
		part, ok := out[name]
		if !ok {
			number, _ := strconv.Atoi(m[3])
			part = &discoveredPartition{name: name, kind: strings.ToLower(m[2]), number: number}
			out[name] = part
		}

		file := packageFile{path: filepath.Join(root, entry.Name())}
		if m[4] != "" {
			level, err := strconv.Atoi(m[4])
			if err != nil {
				continue
			}

			file.patch, file.isPatch = level, true
		}

		part.files = append(part.files, file)
	}

	for _, part := range out {
		slices.SortFunc(part.files, func(a, b packageFile) int {
			if a.isPatch != b.isPatch {
				if a.isPatch {
					return 1
				}

				return -1
			}

			return cmp.Compare(a.patch, b.patch)
		})
	}

	return out, nil
}

// DiscoverPartitions lists partitions found in root by file name. Chunks come
// before DLCs, each ordered by number. Returned definitions carry absolute file paths.
func DiscoverPartitions(root string) ([]PartitionDefinition, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve game root: %w", err)
	}

	scanned, err := scanPackages(abs)
	if err != nil {
		return nil, err
	}

	return definitionsFromScan(scanned), nil
}

// definitionsFromScan orders scanned partitions. Files stay empty when no base
// package exists so that mounting reports the partition as not installed.
func definitionsFromScan(scanned map[string]*discoveredPartition) []PartitionDefinition {
	parts := make([]*discoveredPartition, 0, len(scanned))
	for _, part := range scanned {
		parts = append(parts, part)
	}

	slices.SortFunc(parts, func(a, b *discoveredPartition) int {
		return cmp.Or(
			cmp.Compare(kindRank(a.kind), kindRank(b.kind)),
			cmp.Compare(a.number, b.number),
			cmp.Compare(a.name, b.name),
		)
	})

	defs := make([]PartitionDefinition, 0, len(parts))
	for _, part := range parts {
		def := PartitionDefinition{Name: part.name}
		if len(part.files) > 0 && !part.files[0].isPatch {
			def.Files = make([]string, len(part.files))
			for i, f := range part.files {
				def.Files[i] = f.path
			}
		}

		defs = append(defs, def)
	}

	return defs
}

// checkDefinitions rejects unnamed and repeated partition names. It runs
// before filtering so a duplicate is reported even when one copy is skipped.
func checkDefinitions(defs []PartitionDefinition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return &MountError{Err: ErrEmptyPartitionName}
		}

		if _, dup := seen[def.Name]; dup {
			return &MountError{Partition: def.Name, Err: ErrDuplicatePartition}
		}

		seen[def.Name] = struct{}{}
	}

	return nil
}

// kindRank orders partition kinds: chunks, then DLCs.
func kindRank(kind string) int {
	if kind == "chunk" {
		return 0
	}

	return 1
}

// partitionFiles resolves the member packages of def, base first.
// Explicit files keep their order; a patch level missing from the name is the list position.
func partitionFiles(root string, def PartitionDefinition, scanned map[string]*discoveredPartition) ([]packageFile, error) {
	if len(def.Files) > 0 {
		return explicitPartitionFiles(root, def)
	}

	part, ok := scanned[strings.ToLower(def.Name)]
	if !ok || len(part.files) == 0 || part.files[0].isPatch {
		return nil, fmt.Errorf("%w: %s.rpkg", ErrBaseMissing, def.Name)
	}

	files := make([]packageFile, 0, len(part.files))
	for _, f := range part.files {
		if def.MaxPatchLevel > 0 && f.patch > def.MaxPatchLevel {
			continue
		}

		files = append(files, f)
	}

	return files, nil
}

// explicitPartitionFiles resolves listed member paths against root.
func explicitPartitionFiles(root string, def PartitionDefinition) ([]packageFile, error) {
	files := make([]packageFile, 0, len(def.Files))
	for i, name := range def.Files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}

		if _, err := os.Stat(path); err != nil {
			if i == 0 && errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrBaseMissing, path)
			}

			return nil, err
		}

		file := packageFile{path: path}
		if i > 0 {
			level, ok := PatchLevelFromName(path)
			if !ok {
				level = i
			}

			if def.MaxPatchLevel > 0 && level > def.MaxPatchLevel {
				continue
			}

			file.patch, file.isPatch = level, true
		}

		files = append(files, file)
	}

	return files, nil
}
