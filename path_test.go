// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "slash", in: "/", want: ""},
		{name: "clean", in: "assembly/images/ui", want: "assembly/images/ui"},
		{name: "windows", in: `.\assembly\images\ui\`, want: "assembly/images/ui"},
		{name: "dot segments", in: "./a/../b//c.png", want: "b/c.png"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizePath(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizePath(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseResourcePath(t *testing.T) {
	t.Parallel()

	rp, err := ParseResourcePath("[Assembly:/_Test/lib.a?/Test_Image.png].PC_WEBP\x01")
	require.NoError(t, err)
	require.Equal(t, "[assembly:/_test/lib.a?/test_image.png].webp", rp.String())
	require.Equal(t, "[assembly:/_test/lib.a?/test_image.png].pc_webp", rp.PlatformPath())
	require.Equal(t, ResourceID(0x00290D5B143172A3), rp.ID())
	require.Equal(t, "webp", rp.Type())
	require.False(t, rp.IsZero())

	protocol, ok := rp.Protocol()
	require.True(t, ok)
	require.Equal(t, "assembly", protocol)

	dir, ok := rp.Directory()
	require.True(t, ok)
	require.Equal(t, "assembly:/_test/lib.a?", dir)
	require.Equal(t, "assembly/_test/lib.a?/test_image.png", rp.Body())
}

func TestParseResourcePathRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"assembly:/images/a.png",
		"[assembly:/images/a.png",
		"[assembly:/images/*.png].pc_webp",
		"[unknown:/a.png].pc_webp",
	} {
		_, err := ParseResourcePath(in)
		require.ErrorIs(t, err, ErrInvalidResourcePath, in)
	}

	require.Panics(t, func() { MustParseResourcePath("nope") })
	require.True(t, ResourcePath{}.IsZero())
}

func TestResourcePathDerivation(t *testing.T) {
	t.Parallel()

	base := MustParseResourcePath("[assembly:/images/ui/icon.png].pc_webp")

	derived := base.Derived("dx11,mip0", "PC_MIPBLOCK1")
	require.Equal(t, "[[assembly:/images/ui/icon.png].webp](dx11,mip0).mipblock1", derived.String())
	require.Equal(t, []string{"dx11", "mip0"}, derived.Parameters())
	require.Equal(t, "mipblock1", derived.Type())
	require.Equal(t, base, derived.Inner())
	require.Equal(t, base, derived.InnerMost())
	require.Equal(t, base.Body(), derived.Body())

	withParam := base.WithParameter("HD")
	require.Equal(t, "[assembly:/images/ui/icon.png](hd).webp", withParam.String())

	withParam = withParam.WithParameter("lod0")
	require.Equal(t, []string{"hd", "lod0"}, withParam.Parameters())

	require.Nil(t, base.Parameters())
	require.Equal(t, base, base.Inner())
}

func TestResourcePathParametersIgnoreInnerGroups(t *testing.T) {
	t.Parallel()

	rp := MustParseResourcePath("[[assembly:/a(b).png](x).pc_tex].pc_mip")
	require.Nil(t, rp.Parameters())
}

func TestParseResourcePathStripsNestedPlatformTags(t *testing.T) {
	t.Parallel()

	inner := MustParseResourcePath("[assembly:/_pro/_test/usern/materialclasses/ball_of_water_b.materialclass].pc_fx")
	derived := inner.Derived("dx11", "mate")

	parsed := MustParseResourcePath("[[assembly:/_pro/_test/usern/materialclasses/ball_of_water_b.materialclass].pc_fx](dx11).pc_mate")
	require.Equal(t, derived.String(), parsed.String())
	require.Equal(t, derived.ID(), parsed.ID())
	require.Equal(t,
		"[[assembly:/_pro/_test/usern/materialclasses/ball_of_water_b.materialclass].fx](dx11).pc_mate",
		parsed.PlatformPath())
	require.Equal(t, inner, parsed.Inner())

	plain := MustParseResourcePath("[[assembly:/_pro/_test/usern/materialclasses/ball_of_water_b.materialclass].fx](dx11).mate")
	require.Equal(t, parsed.ID(), plain.ID())

	npc := MustParseResourcePath("[assembly:/characters/npc_guard/npc_guard.pc_prim].pc_prim")
	require.Equal(t, "[assembly:/characters/npc_guard/npc_guard.pc_prim].prim", npc.String())
}
