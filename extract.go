// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// extractTarget is one selected resource with its relative output path.
type extractTarget struct {
	rel   string
	entry EntryRecord
}

// Extract writes every present resource of the partition below dstDir.
// Output names are "<TYPE>/<ID>.<type>", or the sanitized path from opts.Names.
// Resources are decoded by up to MaxWorkers goroutines; the first error stops the rest.
func (p *Partition) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	mode := opts.FileMode
	if mode == "" {
		mode = ExtractFileModeAuto
	}

	if !mode.valid() {
		return fmt.Errorf("unknown extract file mode %q", mode)
	}

	root, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	targets, err := p.extractTargets(opts)
	if err != nil {
		return err
	}

	if err := makeExtractDirs(root, targets); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workerCount(opts.MaxWorkers))
	for _, target := range targets {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			out := filepath.Join(root, filepath.FromSlash(target.rel))
			written, err := p.writeResource(target.entry.ID, out, mode)
			if err != nil {
				return fmt.Errorf("extract %s: %w", target.rel, err)
			}

			if opts.OnEntryDone != nil {
				opts.OnEntryDone(target.entry, written, out)
			}

			return nil
		})
	}

	return eg.Wait()
}

// extractTargets selects present resources and assigns unique relative output paths.
func (p *Partition) extractTargets(opts ExtractOptions) ([]extractTarget, error) {
	filter := newEntryFilter(opts)
	used := make(map[string]struct{}, len(p.ids))

	var targets []extractTarget
	for id, rec := range p.Resources() {
		if !filter.keepRecord(rec) {
			continue
		}

		name, err := extractOutputName(id, rec, opts.Names)
		if err != nil {
			return nil, fmt.Errorf("output name for %s: %w", id, err)
		}

		if !filter.keepName(name) {
			continue
		}

		if name, err = makeSanitizedPathUnique(name, used); err != nil {
			return nil, fmt.Errorf("output name for %s: %w", id, err)
		}

		rel, err := normalizeExtractEntryPath(name)
		if err != nil {
			return nil, fmt.Errorf("output name %s: %w", name, err)
		}

		targets = append(targets, extractTarget{rel: rel, entry: rec})
	}

	return targets, nil
}

// extractOutputName picks the hash directory name when known, else "<TYPE>/<ID>.<type>".
func extractOutputName(id ResourceID, rec EntryRecord, names map[ResourceID]string) (string, error) {
	if name, ok := names[id]; ok {
		if out, err := resourceOutputPath(name, rec); err == nil && out != "" {
			return out, nil
		}
	}

	typ := rec.Type
	if typ == "" {
		typ = "UNKN"
	}

	return SanitizePath(typ + "/" + id.String() + "." + strings.ToLower(typ))
}

// makeExtractDirs creates the output root and every distinct parent directory.
func makeExtractDirs(root string, targets []extractTarget) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	seen := make(map[string]struct{})
	for _, target := range targets {
		dir := path.Dir(target.rel)
		if dir == "." {
			continue
		}

		key := strings.ToLower(dir)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		full := filepath.Join(root, filepath.FromSlash(dir))
		if err := os.MkdirAll(full, 0o750); err != nil {
			return fmt.Errorf("create output directory %s: %w", full, err)
		}
	}

	return nil
}

// writeResource decodes id and stores it at out.
func (p *Partition) writeResource(id ResourceID, out string, mode ExtractFileMode) (int64, error) {
	data, err := p.Read(id)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(out, mode.openFlags(), 0o600)
	if err != nil && mode == ExtractFileModeAuto && os.IsExist(err) {
		f, err = os.OpenFile(out, ExtractFileModeTruncate.openFlags(), 0o600)
	}

	if err != nil {
		return 0, err
	}

	n, err := f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return int64(n), err
}

// valid reports whether m is a known file mode.
func (m ExtractFileMode) valid() bool {
	switch m {
	case ExtractFileModeAuto, ExtractFileModeTruncate, ExtractFileModeCreateOnly:
		return true
	default:
		return false
	}
}

// openFlags returns the first open attempt flags for m.
func (m ExtractFileMode) openFlags() int {
	if m == ExtractFileModeTruncate {
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	return os.O_WRONLY | os.O_CREATE | os.O_EXCL
}

// normalizeExtractEntryPath normalizes an output path and rejects absolute/traversal inputs.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" || strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}

	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := make([]string, 0, strings.Count(raw, "/")+1)
	for part := range strings.SplitSeq(raw, "/") {
		switch part {
		case "", ".":
		case "..":
			return "", ErrInvalidExtractPath
		default:
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(parts, "/"), nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	c := path[0]
	return ((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) && path[1] == ':' && path[2] == '/'
}
