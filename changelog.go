// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

// ChangeKind classifies what one layer did to a resource.
type ChangeKind uint8

// Layer effects on a resource.
const (
	ChangeAdded ChangeKind = iota + 1
	ChangeModified
	ChangeDeleted
	ChangeRestored
)

// String returns change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	case ChangeRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Change is one layer's effect on a resource.
type Change struct {
	Record     EntryRecord `json:"record" yaml:"record"`
	Layer      int         `json:"layer" yaml:"layer"`
	PatchLevel int         `json:"patch_level" yaml:"patch_level"`
	Kind       ChangeKind  `json:"kind" yaml:"kind"`
}

// Changelog lists every layer that mentions id, base first.
func (p *Partition) Changelog(id ResourceID) []Change {
	var (
		out     []Change
		present bool
		deleted bool
	)

	for i, layer := range p.layers {
		rec, ok := layer.Entry(id)
		if !ok {
			continue
		}

		c := Change{Layer: i, PatchLevel: layer.PatchLevel(), Record: rec}
		switch {
		case rec.Deleted:
			c.Kind = ChangeDeleted
			present, deleted = false, true
		case present:
			c.Kind = ChangeModified
		case deleted:
			c.Kind = ChangeRestored
			present, deleted = true, false
		default:
			c.Kind = ChangeAdded
			present = true
		}

		out = append(out, c)
	}

	return out
}

// Changes lists what one layer did to each id it mentions, in ascending id order.
func (p *Partition) Changes(layer int) ([]Change, error) {
	if layer < 0 || layer >= len(p.layers) {
		return nil, ErrLayerOutOfRange
	}

	var out []Change
	for _, id := range p.ids {
		for _, c := range p.Changelog(id) {
			if c.Layer == layer {
				out = append(out, c)
			}
		}
	}

	return out, nil
}
