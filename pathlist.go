// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// maxPathListLine bounds one hash list line.
const maxPathListLine = 1 << 20

// PathList is a parsed hash list mapping ids to known resource paths.
type PathList struct {
	names map[ResourceID]string
	types map[ResourceID]string
}

// ParsePathList reads "HEXID.TYPE,path" lines. Empty lines and lines starting
// with '#' are skipped; the path may be empty when only the type is known.
// The first line for an id wins.
func ParsePathList(r io.Reader) (*PathList, error) {
	list := &PathList{
		names: make(map[ResourceID]string),
		types: make(map[ResourceID]string),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxPathListLine)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		head, name, _ := strings.Cut(text, ",")
		rawID, typ, _ := strings.Cut(head, ".")

		id, err := ParseResourceID(rawID)
		if err != nil {
			return nil, fmt.Errorf("path list line %d: %w", line, err)
		}

		if _, dup := list.types[id]; dup {
			continue
		}

		list.types[id] = strings.ToUpper(strings.TrimSpace(typ))
		if name = strings.TrimSpace(name); name != "" {
			list.names[id] = name
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}

	return list, nil
}

// Lookup returns the path recorded for id.
func (l *PathList) Lookup(id ResourceID) (string, bool) {
	name, ok := l.names[id]
	return name, ok
}

// Type returns the resource type recorded for id.
func (l *PathList) Type(id ResourceID) (string, bool) {
	typ, ok := l.types[id]
	return typ, ok
}

// Len returns the number of listed ids.
func (l *PathList) Len() int {
	return len(l.types)
}

// Names returns a copy of the id to path mapping, suitable for ExtractOptions.Names.
func (l *PathList) Names() map[ResourceID]string {
	return maps.Clone(l.names)
}

// Paths returns every known path sorted, suitable as hash directory candidates.
func (l *PathList) Paths() []string {
	return slices.Sorted(maps.Values(l.names))
}
