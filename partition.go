// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Location is the resolution of one id inside a partition.
type Location struct {
	// Record is the row of the supplying layer, or its tombstone.
	Record EntryRecord `json:"record" yaml:"record"`
	// Layer indexes Partition.Archives; 0 is the base package.
	Layer int `json:"layer" yaml:"layer"`
	// Deleted reports that the latest layer mentioning the id removed it.
	Deleted bool `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// Partition is a resolved view over a base package and its patches.
// It is immutable after Resolve and safe for concurrent reads.
type Partition struct {
	resolved map[ResourceID]Location
	name     string
	layers   []*Archive
	// ids holds every resolved id in ascending order.
	ids []ResourceID
}

// Resolve folds base and patches into one namespace. Patches are ordered by
// patch level; the highest layer mentioning an id decides its location.
func Resolve(name string, base *Archive, patches ...*Archive) (*Partition, error) {
	if base == nil {
		return nil, fmt.Errorf("resolve %s: %w", name, ErrNilArchive)
	}

	ordered := make([]*Archive, 0, len(patches))
	for _, p := range patches {
		if p == nil {
			return nil, fmt.Errorf("resolve %s: %w", name, ErrNilArchive)
		}

		ordered = append(ordered, p)
	}

	slices.SortStableFunc(ordered, func(a, b *Archive) int {
		return cmp.Compare(a.PatchLevel(), b.PatchLevel())
	})

	for i := 1; i < len(ordered); i++ {
		if ordered[i].PatchLevel() == ordered[i-1].PatchLevel() {
			return nil, fmt.Errorf("resolve %s: %w: %d (%s, %s)", name, ErrPatchOrder,
				ordered[i].PatchLevel(), ordered[i-1].Path(), ordered[i].Path())
		}
	}

	layers := append([]*Archive{base}, ordered...)
	resolved := fold(layers)

	ids := make([]ResourceID, 0, len(resolved))
	for id := range resolved {
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return &Partition{name: name, layers: layers, resolved: resolved, ids: ids}, nil
}

// fold applies layers in order onto an empty map; later layers overwrite earlier ones.
// Within one layer every id has a single record, so map iteration order does not matter.
func fold(layers []*Archive) map[ResourceID]Location {
	size := 0
	for _, layer := range layers {
		size += layer.Len()
	}

	out := make(map[ResourceID]Location, size)
	for i, layer := range layers {
		for id, rec := range layer.pkg.entries {
			out[id] = Location{Layer: i, Record: rec, Deleted: rec.Deleted}
		}
	}

	return out
}

// Name returns the partition name.
func (p *Partition) Name() string {
	return p.name
}

// Archives returns layers base first, then patches by ascending level.
func (p *Partition) Archives() []*Archive {
	return slices.Clone(p.layers)
}

// Len returns the number of resolved ids, deleted ones included.
func (p *Partition) Len() int {
	return len(p.ids)
}

// Lookup returns the resolution of id.
func (p *Partition) Lookup(id ResourceID) (Location, bool) {
	loc, ok := p.resolved[id]
	return loc, ok
}

// Contains reports whether id resolves to a present resource.
func (p *Partition) Contains(id ResourceID) bool {
	loc, ok := p.resolved[id]
	return ok && !loc.Deleted
}

// Read decodes id from the layer that supplies it.
func (p *Partition) Read(id ResourceID) ([]byte, error) {
	loc, ok := p.resolved[id]
	if !ok || loc.Deleted {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, id, p.name)
	}

	return p.layers[loc.Layer].Read(id)
}

// ReadFrom decodes id as stored in one specific layer, ignoring later overrides.
func (p *Partition) ReadFrom(id ResourceID, layer int) ([]byte, error) {
	if layer < 0 || layer >= len(p.layers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLayerOutOfRange, layer, len(p.layers))
	}

	return p.layers[layer].Read(id)
}

// All yields every resolved id in ascending order with its deleted state.
// Each call starts a fresh pass.
func (p *Partition) All() iter.Seq2[ResourceID, bool] {
	return func(yield func(ResourceID, bool) bool) {
		for _, id := range p.ids {
			if !yield(id, p.resolved[id].Deleted) {
				return
			}
		}
	}
}

// Resources yields present resources in ascending id order with their records.
func (p *Partition) Resources() iter.Seq2[ResourceID, EntryRecord] {
	return func(yield func(ResourceID, EntryRecord) bool) {
		for _, id := range p.ids {
			loc := p.resolved[id]
			if loc.Deleted {
				continue
			}

			if !yield(id, loc.Record) {
				return
			}
		}
	}
}

// Dependencies returns the sorted, unique ids referenced by present resources.
func (p *Partition) Dependencies() []ResourceID {
	seen := make(map[ResourceID]struct{})
	for _, id := range p.ids {
		loc := p.resolved[id]
		if loc.Deleted {
			continue
		}

		for _, ref := range loc.Record.References {
			seen[ref.ID] = struct{}{}
		}
	}

	out := make([]ResourceID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	slices.Sort(out)
	return out
}

// Close closes every layer.
func (p *Partition) Close() error {
	var errs []error
	for _, layer := range p.layers {
		if err := layer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
