// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/woozymasta/pathrules"
	"golang.org/x/sync/errgroup"
)

// Game is a mounted installation: every resolved partition plus the
// dependency graph between them. It is immutable after Mount.
type Game struct {
	logger *slog.Logger
	byName map[string]*Partition
	graph  map[string][]string
	root   string
	// names holds mounted partitions in definition order.
	names []string
	// order is the computed load order.
	order []string
}

// Mount opens and resolves every partition of the installation at gameRoot.
// Without opts.Definitions partitions are discovered from package file names.
// A partition whose base package is absent is skipped; any other failure
// closes what was opened and returns a *MountError.
func Mount(ctx context.Context, gameRoot string, opts MountOptions) (*Game, error) {
	opts.applyDefaults()
	started := time.Now()

	filter, err := newRuleMatcher(opts.Partitions, pathrules.MatcherOptions{})
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(gameRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve game root: %w", err)
	}

	scanned, err := scanPackages(root)
	if err != nil {
		return nil, err
	}

	defs := opts.Definitions
	if defs == nil {
		defs = definitionsFromScan(scanned)
	}

	if err := checkDefinitions(defs); err != nil {
		return nil, err
	}

	g := &Game{
		logger: opts.Logger,
		byName: make(map[string]*Partition, len(defs)),
		root:   root,
	}

	declared := make(map[string]PartitionDefinition, len(defs))
	for _, def := range defs {
		if !filter.Match(def.Name) {
			opts.Logger.Debug("partition filtered", slog.String("partition", def.Name))
			continue
		}

		files, err := partitionFiles(root, def, scanned)
		if errors.Is(err, ErrBaseMissing) {
			opts.Logger.Info("partition not installed",
				slog.String("partition", def.Name),
				slog.String("reason", err.Error()))
			continue
		}

		if err != nil {
			_ = g.Close()
			return nil, &MountError{Partition: def.Name, Err: err}
		}

		part, err := mountPartition(ctx, def.Name, files, opts)
		if err != nil {
			_ = g.Close()
			return nil, err
		}

		g.byName[def.Name] = part
		g.names = append(g.names, def.Name)
		declared[def.Name] = def

		opts.Logger.Debug("partition mounted",
			slog.String("partition", def.Name),
			slog.Int("packages", len(files)),
			slog.Int("resources", part.Len()))
	}

	g.graph = buildDependencyGraph(g.names, g.byName, declared)
	g.order = loadOrder(g.names, g.graph, opts.Logger)

	opts.Logger.Info("game mounted",
		slog.String("root", root),
		slog.Int("partitions", len(g.names)),
		slog.Duration("elapsed", time.Since(started)))

	return g, nil
}

// mountPartition opens member packages concurrently and folds them in patch order.
func mountPartition(ctx context.Context, name string, files []packageFile, opts MountOptions) (*Partition, error) {
	archives := make([]*Archive, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	for i, file := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			a, err := OpenWithOptions(file.path, ArchiveOptions{
				Logger:     opts.Logger.With(slog.String("partition", name)),
				Codec:      opts.Codec,
				Patch:      file.isPatch,
				PatchLevel: file.patch,
			})
			if err != nil {
				return &MountError{Partition: name, Path: file.path, Err: err}
			}

			archives[i] = a
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		closeArchives(archives)
		return nil, err
	}

	part, err := Resolve(name, archives[0], archives[1:]...)
	if err != nil {
		closeArchives(archives)
		return nil, &MountError{Partition: name, Err: err}
	}

	return part, nil
}

// closeArchives closes every opened archive, ignoring nil slots.
func closeArchives(archives []*Archive) {
	for _, a := range archives {
		_ = a.Close()
	}
}

// Root returns the mounted game root.
func (g *Game) Root() string {
	return g.root
}

// Partition returns the mounted partition name.
func (g *Game) Partition(name string) (*Partition, error) {
	part, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartitionNotFound, name)
	}

	return part, nil
}

// Partitions returns mounted partitions in definition order.
func (g *Game) Partitions() []*Partition {
	out := make([]*Partition, len(g.names))
	for i, name := range g.names {
		out[i] = g.byName[name]
	}

	return out
}

// Read decodes id from the named partition.
func (g *Game) Read(partition string, id ResourceID) ([]byte, error) {
	part, err := g.Partition(partition)
	if err != nil {
		return nil, err
	}

	return part.Read(id)
}

// List returns a restartable sequence of every resolved id of the named
// partition with its deleted state, in ascending id order.
func (g *Game) List(partition string) (iter.Seq2[ResourceID, bool], error) {
	part, err := g.Partition(partition)
	if err != nil {
		return nil, err
	}

	return part.All(), nil
}

// PartitionsWithResource returns names of partitions where id is present, in definition order.
func (g *Game) PartitionsWithResource(id ResourceID) []string {
	var out []string
	for _, name := range g.names {
		if g.byName[name].Contains(id) {
			out = append(out, name)
		}
	}

	return out
}

// DependencyGraph returns, per partition, the partitions it depends on in definition order.
func (g *Game) DependencyGraph() map[string][]string {
	out := make(map[string][]string, len(g.graph))
	for name, deps := range g.graph {
		out[name] = slices.Clone(deps)
	}

	return out
}

// LoadOrder returns partition names with dependencies before dependents.
func (g *Game) LoadOrder() []string {
	return slices.Clone(g.order)
}

// BuildHashDirectory matches candidates against the ids present in any mounted partition.
func (g *Game) BuildHashDirectory(ctx context.Context, candidates []string, opts HashDirectoryOptions) (map[ResourceID]string, error) {
	known := make(map[ResourceID]struct{})
	for _, part := range g.byName {
		for id := range part.Resources() {
			known[id] = struct{}{}
		}
	}

	if opts.Logger == nil {
		opts.Logger = g.logger
	}

	return BuildHashDirectory(ctx, candidates, known, opts)
}

// Close unmounts every partition.
func (g *Game) Close() error {
	if g == nil {
		return nil
	}

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(g.byName)) {
		if err := g.byName[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
