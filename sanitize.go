// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// maxSanitizedSegmentLen caps one output path segment in bytes.
const maxSanitizedSegmentLen = 240

// maxUniqueSuffix bounds the "~N" collision search.
const maxUniqueSuffix = 1 << 20

// SanitizePath rewrites a relative path into a slash separated form safe on
// common filesystems. Empty input yields an empty result.
func SanitizePath(pathValue string) (string, error) {
	normalized := NormalizePath(pathValue)
	if normalized == "" {
		return "", nil
	}

	var segments []string
	for segment := range strings.SplitSeq(normalized, "/") {
		if segment = strings.TrimSpace(segment); segment != "" && segment != "." {
			segments = append(segments, sanitizePathSegment(segment))
		}
	}

	if len(segments) == 0 {
		return "_", nil
	}

	return normalizeExtractEntryPath(strings.Join(segments, "/"))
}

// resourceOutputPath maps a resource path to a relative output file name.
// "[assembly:/images/a.png].pc_webp" becomes "assembly/images/a.png.webp".
func resourceOutputPath(name string, rec EntryRecord) (string, error) {
	rp, err := ParseResourcePath(name)
	if err != nil {
		return "", err
	}

	body := rp.Body()
	if body == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, name)
	}

	// Parameters only distinguish top level resources; derived ones keep the type.
	if params := rp.Parameters(); len(params) != 0 && rp.Inner().String() == rp.String() {
		body = body + "(" + strings.Join(params, ",") + ")"
	}

	ext := rp.Type()
	if ext == "" {
		ext = strings.ToLower(rec.Type)
	}

	return SanitizePath(body + "." + ext)
}

// sanitizePathSegment makes one path segment portable.
func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == ".." {
		return "_"
	}

	out := strings.Map(func(r rune) rune {
		switch {
		case r == unicode.ReplacementChar, unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return '_'
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		default:
			return r
		}
	}, segment)

	out = strings.TrimRight(out, ". ")
	switch {
	case out == "":
		return "_"
	case isReservedDeviceName(out):
		out = "_" + out
	}

	return shortenSegment(out, maxSanitizedSegmentLen)
}

// isReservedDeviceName reports whether the stem of name is a Windows device name.
func isReservedDeviceName(name string) bool {
	stem, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ".")

	switch stem {
	case "con", "prn", "aux", "nul", "clock$":
		return true
	}

	if len(stem) != 4 || (stem[:3] != "com" && stem[:3] != "lpt") {
		return false
	}

	return stem[3] >= '1' && stem[3] <= '9'
}

// makeSanitizedPathUnique reserves pathValue in used, case-insensitively.
// Taken names get the first free "~N" suffix before the extension, starting at 2.
func makeSanitizedPathUnique(pathValue string, used map[string]struct{}) (string, error) {
	reserve := func(candidate string) bool {
		key := strings.ToLower(candidate)
		if _, taken := used[key]; taken {
			return false
		}

		used[key] = struct{}{}
		return true
	}

	if reserve(pathValue) {
		return pathValue, nil
	}

	dir, file := path.Split(pathValue)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)

	for n := 2; n < maxUniqueSuffix; n++ {
		suffix := "~" + strconv.Itoa(n)
		room := max(maxSanitizedSegmentLen-len(ext)-len(suffix), 1)
		if candidate := dir + shortenSegment(stem, room) + suffix + ext; reserve(candidate) {
			return candidate, nil
		}
	}

	return "", ErrInvalidExtractPath
}

// shortenSegment truncates value to limit bytes, ending in a stable fnv32a tag.
func shortenSegment(value string, limit int) string {
	if len(value) <= limit {
		return value
	}

	if limit <= 10 {
		return value[:limit]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	tag := fmt.Sprintf("~%08x", h.Sum32())

	return value[:limit-len(tag)] + tag
}
