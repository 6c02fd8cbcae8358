// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/require"
)

// layerPackage builds a v2 package; level > 0 makes it a patch.
func layerPackage(level int, deletions []ResourceID, entries ...testEntry) testPackage {
	return testPackage{
		format:    FormatV2,
		patch:     level > 0,
		chunk:     ChunkInfo{PatchID: uint8(level)},
		deletions: deletions,
		entries:   entries,
	}
}

// parseLayer parses pkg at the given patch level.
func parseLayer(t *testing.T, level int, pkg testPackage) *Archive {
	t.Helper()
	return parseTestPackage(t, pkg, ArchiveOptions{Patch: level > 0, PatchLevel: level})
}

func TestResolveLastWriterWins(t *testing.T) {
	t.Parallel()

	base := parseLayer(t, 0, layerPackage(0, nil, rawEntry(0x10, "TEMP", []byte("base"))))
	patch1 := parseLayer(t, 1, layerPackage(1, nil, rawEntry(0x10, "TEMP", []byte("patch1"))))
	patch2 := parseLayer(t, 2, layerPackage(2, []ResourceID{0x10}))

	p, err := Resolve("chunk0", base, patch1, patch2)
	require.NoError(t, err)

	_, err = p.Read(0x10)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, p.Contains(0x10))

	loc, ok := p.Lookup(0x10)
	require.True(t, ok)
	require.True(t, loc.Deleted)
	require.Equal(t, 2, loc.Layer)

	p, err = Resolve("chunk0", base, patch1)
	require.NoError(t, err)

	got, err := p.Read(0x10)
	require.NoError(t, err)
	require.Equal(t, []byte("patch1"), got)

	got, err = p.ReadFrom(0x10, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("base"), got)

	_, err = p.ReadFrom(0x10, 5)
	require.ErrorIs(t, err, ErrLayerOutOfRange)
}

func TestResolveResurrection(t *testing.T) {
	t.Parallel()

	base := parseLayer(t, 0, layerPackage(0, nil, rawEntry(0x10, "TEMP", []byte("base"))))
	patch1 := parseLayer(t, 1, layerPackage(1, []ResourceID{0x10}))
	patch2 := parseLayer(t, 2, layerPackage(2, nil, rawEntry(0x10, "TEMP", []byte("again"))))

	p, err := Resolve("chunk0", base, patch1, patch2)
	require.NoError(t, err)

	got, err := p.Read(0x10)
	require.NoError(t, err)
	require.Equal(t, []byte("again"), got)

	changes := p.Changelog(0x10)
	require.Len(t, changes, 3)
	require.Equal(t, ChangeAdded, changes[0].Kind)
	require.Equal(t, ChangeDeleted, changes[1].Kind)
	require.Equal(t, ChangeRestored, changes[2].Kind)
	require.Equal(t, 2, changes[2].PatchLevel)
	require.Equal(t, "restored", changes[2].Kind.String())
}

func TestResolveOrdersPatchesByLevel(t *testing.T) {
	t.Parallel()

	base := parseLayer(t, 0, layerPackage(0, nil, rawEntry(0x10, "TEMP", []byte("base"))))
	patch1 := parseLayer(t, 1, layerPackage(1, nil, rawEntry(0x10, "TEMP", []byte("one"))))
	patch2 := parseLayer(t, 2, layerPackage(2, nil, rawEntry(0x10, "TEMP", []byte("two"))))

	p, err := Resolve("chunk0", base, patch2, patch1)
	require.NoError(t, err)

	got, err := p.Read(0x10)
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got)

	layers := p.Archives()
	require.Len(t, layers, 3)
	require.Same(t, base, layers[0])
	require.Same(t, patch1, layers[1])
	require.Same(t, patch2, layers[2])
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	build := func() *Partition {
		base := parseLayer(t, 0, layerPackage(0, nil,
			rawEntry(1, "TEMP", []byte("a")),
			rawEntry(2, "TEMP", []byte("b")),
			rawEntry(3, "TEMP", []byte("c")),
		))
		patch1 := parseLayer(t, 1, layerPackage(1, []ResourceID{2, 9}, rawEntry(3, "TBLU", []byte("c1"))))
		patch2 := parseLayer(t, 2, layerPackage(2, []ResourceID{1}, rawEntry(2, "TEMP", []byte("b2"))))

		p, err := Resolve("chunk0", base, patch2, patch1)
		require.NoError(t, err)
		return p
	}

	first, second := build(), build()
	require.Equal(t, first.Len(), second.Len())
	require.Equal(t, first.resolved, second.resolved)
	require.Equal(t, first.ids, second.ids)
	require.True(t, maps.Equal(collectAll(first), collectAll(second)))
	require.Equal(t, map[ResourceID]bool{1: true, 2: false, 3: false, 9: true}, collectAll(first))
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	base := parseLayer(t, 0, layerPackage(0, nil, rawEntry(1, "TEMP", []byte("a"))))
	patchA := parseLayer(t, 1, layerPackage(1, nil, rawEntry(1, "TEMP", []byte("b"))))
	patchB := parseLayer(t, 1, layerPackage(1, nil, rawEntry(1, "TEMP", []byte("c"))))

	_, err := Resolve("chunk0", base, patchA, patchB)
	require.ErrorIs(t, err, ErrPatchOrder)

	_, err = Resolve("chunk0", nil)
	require.ErrorIs(t, err, ErrNilArchive)

	_, err = Resolve("chunk0", base, nil)
	require.ErrorIs(t, err, ErrNilArchive)
}

func TestPartitionIterationIsRestartable(t *testing.T) {
	t.Parallel()

	base := parseLayer(t, 0, layerPackage(0, nil,
		rawEntry(3, "TEMP", []byte("c")),
		rawEntry(1, "TEMP", []byte("a")),
	))
	patch := parseLayer(t, 1, layerPackage(1, []ResourceID{3}, rawEntry(2, "TEMP", []byte("b"))))

	p, err := Resolve("chunk0", base, patch)
	require.NoError(t, err)

	var firstPass []ResourceID
	for id := range p.All() {
		firstPass = append(firstPass, id)
		if len(firstPass) == 2 {
			break
		}
	}
	require.Equal(t, []ResourceID{1, 2}, firstPass)

	var secondPass []ResourceID
	for id := range p.All() {
		secondPass = append(secondPass, id)
	}
	require.Equal(t, []ResourceID{1, 2, 3}, secondPass)

	var present []ResourceID
	for id, rec := range p.Resources() {
		require.Equal(t, id, rec.ID)
		present = append(present, id)
	}
	require.Equal(t, []ResourceID{1, 2}, present)
}

func TestPartitionDependencies(t *testing.T) {
	t.Parallel()

	withRefs := rawEntry(1, "TEMP", []byte("a"))
	withRefs.refs = []Reference{
		{ID: 0x30, Type: ReferenceNormal, Language: neutralLanguage},
		{ID: 0x20, Type: ReferenceWeak, Language: neutralLanguage},
	}

	deleted := rawEntry(2, "TEMP", []byte("b"))
	deleted.refs = []Reference{{ID: 0x99, Language: neutralLanguage}}

	again := rawEntry(3, "TEMP", []byte("c"))
	again.refs = []Reference{{ID: 0x20, Language: neutralLanguage}}

	base := parseLayer(t, 0, layerPackage(0, nil, withRefs, deleted, again))
	patch := parseLayer(t, 1, layerPackage(1, []ResourceID{2}))

	p, err := Resolve("chunk0", base, patch)
	require.NoError(t, err)
	require.Equal(t, []ResourceID{0x20, 0x30}, p.Dependencies())
}

func TestPartitionChanges(t *testing.T) {
	t.Parallel()

	base := parseLayer(t, 0, layerPackage(0, nil,
		rawEntry(1, "TEMP", []byte("a")),
		rawEntry(2, "TEMP", []byte("b")),
	))
	patch := parseLayer(t, 1, layerPackage(1, []ResourceID{2}, rawEntry(1, "TEMP", []byte("a1")), rawEntry(3, "TEMP", []byte("c"))))

	p, err := Resolve("chunk0", base, patch)
	require.NoError(t, err)

	changes, err := p.Changes(1)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	require.Equal(t, ResourceID(1), changes[0].Record.ID)
	require.Equal(t, ChangeModified, changes[0].Kind)
	require.Equal(t, ChangeDeleted, changes[1].Kind)
	require.Equal(t, ChangeAdded, changes[2].Kind)

	_, err = p.Changes(2)
	require.ErrorIs(t, err, ErrLayerOutOfRange)
}

func collectAll(p *Partition) map[ResourceID]bool {
	out := make(map[ResourceID]bool)
	for id, deleted := range p.All() {
		out[id] = deleted
	}

	return out
}
