// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

/*
Package rpkg reads RPKG resource packages and mounts them as patch-resolved
partitions. Packages are memory-mapped and parsed once; payloads are decoded
on read (cipher, then LZ4 or LZSS block decompression) into owned buffers.

Supported layouts (detected from the magic and header shape):
  - "2KPR" v2 packages with chunk descriptor;
  - "GKPR" v1 packages;
  - "GKPR" legacy packages with reserved header padding.

Patch semantics (summary):
  - a partition is one base package plus patches ordered by patch level;
  - the highest layer mentioning an id decides where it is read from;
  - ids in a patch deletion list become tombstones and read as ErrNotFound;
  - a later layer may re-add a tombstoned id.

# Reading

Open one package and read an entry:

	a, err := rpkg.Open("chunk0.rpkg")
	if err != nil {
	    return err
	}
	defer a.Close()
	for _, e := range a.Entries() {
	    data, _ := a.Read(e.ID)
	    // use data
	}

For metadata-only scans:

	info, err := rpkg.ReadInfo("chunk0patch2.rpkg")
	if err != nil {
	    return err
	}
	_ = info.Deletions

Packages shipped with the XOR scrambler instead of XTEA:

	a, err := rpkg.OpenWithOptions("chunk0.rpkg", rpkg.ArchiveOptions{
	    Codec: rpkg.CodecOptions{Cipher: rpkg.CipherScramble},
	})

# Partitions

Resolve a base package with its patches:

	p, err := rpkg.Resolve("chunk0", base, patch1, patch2)
	if err != nil {
	    return err
	}
	for id, deleted := range p.All() {
	    _, _ = id, deleted
	}
	for _, c := range p.Changelog(id) {
	    fmt.Println(c.Layer, c.Kind)
	}

# Mounting

Mount every partition of an installation:

	g, err := rpkg.Mount(ctx, "Runtime/", rpkg.MountOptions{
	    Partitions: []pathrules.Rule{
	        {Action: pathrules.ActionExclude, Pattern: "dlc*"},
	    },
	    Logger: slog.Default(),
	})
	if err != nil {
	    return err
	}
	defer g.Close()
	data, err := g.Read("chunk0", id)

# Hash directory

Recover paths for known ids from candidate templates:

	names, err := g.BuildHashDirectory(ctx, []string{
	    "[assembly:/images/{ui,hud}/icon_{0..9}.png].pc_webp",
	}, rpkg.HashDirectoryOptions{})

Hash lists in "HEXID.TYPE,path" form load with ParsePathList; their names can
drive extraction:

	list, err := rpkg.ParsePathList(f)
	if err != nil {
	    return err
	}
	err = p.Extract(ctx, "out/", rpkg.ExtractOptions{Names: list.Names()})
*/
package rpkg
