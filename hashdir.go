// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// hashCheckInterval is how many candidates a worker hashes between context checks.
const hashCheckInterval = 1024

// maxRangeExpansion bounds one numeric "{a..b}" group.
const maxRangeExpansion = 1 << 16

// maxBraceExpansion bounds the paths produced from one template.
const maxBraceExpansion = 1 << 20

// BuildHashDirectory hashes every expanded candidate path and returns the ones whose
// id is in known. Candidates are sharded over opts.Workers goroutines; on collisions
// the lexically smallest path wins. Bracketed resource paths are canonicalized first
// and recorded with their platform tag.
func BuildHashDirectory(
	ctx context.Context,
	candidates []string,
	known map[ResourceID]struct{},
	opts HashDirectoryOptions,
) (map[ResourceID]string, error) {
	opts.applyDefaults()

	matcher, err := newRuleMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return nil, err
	}

	out := make(map[ResourceID]string)
	if len(candidates) == 0 || len(known) == 0 {
		return out, ctx.Err()
	}

	started := time.Now()
	workers := min(opts.Workers, len(candidates))
	shard := (len(candidates) + workers - 1) / workers
	partials := make([]map[ResourceID]string, workers)

	eg, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo := w * shard
		hi := min(lo+shard, len(candidates))
		if lo >= hi {
			continue
		}

		eg.Go(func() error {
			found := make(map[ResourceID]string)
			for i, candidate := range candidates[lo:hi] {
				if i%hashCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}

				for _, expanded := range opts.Expand(candidate) {
					name, id, ok := hashCandidate(expanded, matcher)
					if !ok {
						continue
					}

					if _, hit := known[id]; hit {
						keepSmallest(found, id, name)
					}
				}
			}

			partials[w] = found
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, part := range partials {
		for id, name := range part {
			keepSmallest(out, id, name)
		}
	}

	opts.Logger.Debug("hash directory built",
		slog.Int("candidates", len(candidates)),
		slog.Int("known", len(known)),
		slog.Int("matched", len(out)),
		slog.Int("workers", workers),
		slog.Duration("elapsed", time.Since(started)))

	return out, nil
}

// hashCandidate canonicalizes one candidate, applies rules and hashes it.
func hashCandidate(raw string, matcher *ruleMatcher) (string, ResourceID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, false
	}

	if rp, err := ParseResourcePath(raw); err == nil {
		if !matcher.Match(rp.Body()) {
			return "", 0, false
		}

		name := rp.PlatformPath()
		return name, HashResourcePath(name), true
	}

	name := strings.ToLower(raw)
	if !matcher.Match(name) {
		return "", 0, false
	}

	return name, HashResourcePath(name), true
}

// keepSmallest records name for id unless a lexically smaller one is present.
func keepSmallest(dst map[ResourceID]string, id ResourceID, name string) {
	if prev, ok := dst[id]; ok && prev <= name {
		return
	}

	dst[id] = name
}

// ExpandBraces expands shell-like brace groups: "{a,b}" alternatives, nested
// groups and numeric ranges such as "{0..3}" or "{08..10}". A group that is
// neither is kept literally. A pattern expanding to more than
// maxBraceExpansion paths is returned unexpanded.
func ExpandBraces(pattern string) []string {
	budget := maxBraceExpansion
	out, ok := expandBraces(pattern, &budget)
	if !ok {
		return []string{pattern}
	}

	return out
}

// expandBraces expands pattern, spending one unit of budget per produced path.
// It reports false once the budget is exhausted.
func expandBraces(pattern string, budget *int) ([]string, bool) {
	open, end := findBraceGroup(pattern)
	if open < 0 {
		if *budget <= 0 {
			return nil, false
		}

		*budget--
		return []string{pattern}, true
	}

	prefix := pattern[:open]
	body := pattern[open+1 : end]
	suffix := pattern[end+1:]

	alts := splitTopLevel(body)
	if len(alts) == 1 {
		seq, ok := expandRange(body)
		if !ok {
			rest, ok := expandBraces(suffix, budget)
			if !ok {
				return nil, false
			}

			for i, r := range rest {
				rest[i] = prefix + "{" + body + "}" + r
			}

			return rest, true
		}

		alts = seq
	}

	var out []string
	for _, alt := range alts {
		tails, ok := expandBraces(alt+suffix, budget)
		if !ok {
			return nil, false
		}

		for _, tail := range tails {
			out = append(out, prefix+tail)
		}
	}

	return out, true
}

// findBraceGroup returns the bounds of the first balanced top-level "{...}".
func findBraceGroup(s string) (int, int) {
	open := -1
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}

			depth--
			if depth == 0 {
				return open, i
			}
		}
	}

	return -1, -1
}

// splitTopLevel splits s on commas outside nested braces.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, s[start:])
}

// expandRange expands "a..b" into zero-padded decimal steps.
func expandRange(body string) ([]string, bool) {
	from, to, ok := strings.Cut(body, "..")
	if !ok {
		return nil, false
	}

	lo, err := strconv.Atoi(from)
	if err != nil {
		return nil, false
	}

	hi, err := strconv.Atoi(to)
	if err != nil {
		return nil, false
	}

	width := 0
	if (len(from) > 1 && from[0] == '0') || (len(to) > 1 && to[0] == '0') {
		width = max(len(from), len(to))
	}

	step := 1
	if hi < lo {
		step = -1
	}

	n := (hi-lo)*step + 1
	if n > maxRangeExpansion {
		return nil, false
	}

	out := make([]string, 0, n)
	for v := lo; ; v += step {
		s := strconv.Itoa(v)
		if width > 0 && len(s) < width {
			s = strings.Repeat("0", width-len(s)) + s
		}

		out = append(out, s)
		if v == hi {
			break
		}
	}

	return out, true
}
