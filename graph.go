// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"log/slog"
	"slices"
)

// buildDependencyGraph links each partition to the partitions supplying its
// references, plus declared parents and dependencies. Edge lists follow names order.
func buildDependencyGraph(
	names []string,
	parts map[string]*Partition,
	declared map[string]PartitionDefinition,
) map[string][]string {
	graph := make(map[string][]string, len(names))
	for _, name := range names {
		targets := make(map[string]struct{})

		def := declared[name]
		for _, dep := range append([]string{def.Parent}, def.DependsOn...) {
			if _, ok := parts[dep]; ok && dep != name {
				targets[dep] = struct{}{}
			}
		}

		for _, id := range parts[name].Dependencies() {
			if parts[name].Contains(id) {
				continue
			}

			for _, other := range names {
				if other != name && parts[other].Contains(id) {
					targets[other] = struct{}{}
				}
			}
		}

		edges := make([]string, 0, len(targets))
		for _, other := range names {
			if _, ok := targets[other]; ok {
				edges = append(edges, other)
			}
		}

		graph[name] = edges
	}

	return graph
}

// loadOrder sorts names so that dependencies come first. Among ready partitions
// the earliest in names wins; a cycle is broken at its earliest member.
func loadOrder(names []string, graph map[string][]string, logger *slog.Logger) []string {
	emitted := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	ready := func(name string) bool {
		for _, dep := range graph[name] {
			if _, ok := emitted[dep]; !ok {
				return false
			}
		}

		return true
	}

	for len(out) < len(names) {
		next, found := "", false
		for _, name := range names {
			if _, done := emitted[name]; !done && ready(name) {
				next, found = name, true
				break
			}
		}

		if !found {
			for _, name := range names {
				if _, done := emitted[name]; !done {
					next = name
					break
				}
			}

			logger.Warn("partition dependency cycle broken",
				slog.String("partition", next),
				slog.Any("depends_on", slices.Clone(graph[next])))
		}

		emitted[next] = struct{}{}
		out = append(out, next)
	}

	return out
}
