// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rpkg

package rpkg

import (
	"fmt"
	"path"
	"strings"
)

// platformTag is the platform marker inserted before the resource type extension.
const platformTag = "pc_"

// ResourcePath is a canonical engine resource path such as
// "[assembly:/images/player.jpg](asspritesheet).jpeg".
// The platform tag is kept out of the stored form.
type ResourcePath struct {
	uri string
}

// ParseResourcePath lower-cases raw, drops control characters, validates the
// bracketed syntax and strips the platform tag from every type extension.
func ParseResourcePath(raw string) (ResourcePath, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c <= 0x1F {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}

		b.WriteByte(c)
	}

	uri := strings.TrimSpace(b.String())
	if !validResourceURI(uri) {
		return ResourcePath{}, fmt.Errorf("%w: %q", ErrInvalidResourcePath, raw)
	}

	return ResourcePath{uri: stripPlatformTags(uri)}, nil
}

// stripPlatformTags drops the platform tag from every type extension, i.e. a
// ".pc_" right after "]" or ")". Tags inside folder or file names stay.
func stripPlatformTags(uri string) string {
	const marker = "." + platformTag
	if !strings.Contains(uri, marker) {
		return uri
	}

	var b strings.Builder
	b.Grow(len(uri))
	for i := 0; i < len(uri); i++ {
		b.WriteByte(uri[i])
		if uri[i] != '.' || i == 0 || !strings.HasPrefix(uri[i:], marker) {
			continue
		}

		if prev := uri[i-1]; prev == ']' || prev == ')' {
			i += len(platformTag)
		}
	}

	return b.String()
}

// MustParseResourcePath is ParseResourcePath that panics on invalid input.
func MustParseResourcePath(raw string) ResourcePath {
	p, err := ParseResourcePath(raw)
	if err != nil {
		panic(err)
	}

	return p
}

// validResourceURI reports whether uri has the minimal bracketed shape.
func validResourceURI(uri string) bool {
	return strings.HasPrefix(uri, "[") &&
		strings.Contains(uri, "]") &&
		!strings.Contains(uri, "unknown") &&
		!strings.Contains(uri, "*")
}

// String returns the path without platform tag.
func (p ResourcePath) String() string {
	return p.uri
}

// IsZero reports whether p was never parsed.
func (p ResourcePath) IsZero() bool {
	return p.uri == ""
}

// PlatformPath returns the hashed form with the platform tag after the last dot.
func (p ResourcePath) PlatformPath() string {
	dot := strings.LastIndexByte(p.uri, '.')
	if dot < 0 || dot < strings.LastIndexByte(p.uri, ']') {
		return p.uri
	}

	return p.uri[:dot+1] + platformTag + p.uri[dot+1:]
}

// ID returns the runtime id of p.
func (p ResourcePath) ID() ResourceID {
	return HashResourcePath(p.PlatformPath())
}

// Type returns the resource type extension, e.g. "jpeg".
func (p ResourcePath) Type() string {
	dot := strings.LastIndexByte(p.uri, '.')
	if dot < 0 || dot < strings.LastIndexByte(p.uri, ']') {
		return ""
	}

	return p.uri[dot+1:]
}

// Protocol returns the scheme of the inner-most path, e.g. "assembly".
func (p ResourcePath) Protocol() (string, bool) {
	colon := strings.IndexByte(p.uri, ':')
	if colon < 0 {
		return "", false
	}

	return strings.ReplaceAll(p.uri[:colon], "[", ""), true
}

// Parameters returns the comma separated values of the outer "(...)" group.
func (p ResourcePath) Parameters() []string {
	closeIdx := strings.LastIndex(p.uri, ").")
	if closeIdx < 0 || closeIdx < strings.LastIndexByte(p.uri, ']') {
		return nil
	}

	openIdx := strings.LastIndexByte(p.uri[:closeIdx], '(')
	if openIdx < 0 || openIdx < strings.LastIndexByte(p.uri[:closeIdx], ']') {
		return nil
	}

	return strings.Split(p.uri[openIdx+1:closeIdx], ",")
}

// Body returns the inner-most path without brackets and with the protocol
// separator folded, e.g. "assembly/images/player.jpg".
func (p ResourcePath) Body() string {
	inner := p.InnerMost().uri
	end := strings.IndexByte(inner, ']')
	if end <= 1 {
		return ""
	}

	return strings.Replace(inner[1:end], ":/", "/", 1)
}

// Directory returns the folder part of the inner-most path, when present.
func (p ResourcePath) Directory() (string, bool) {
	inner := p.InnerMost().uri
	end := strings.IndexByte(inner, ']')
	if end < 0 {
		return "", false
	}

	body := inner[1:end]
	slash := strings.LastIndexByte(body, '/')
	if slash < 0 {
		return "", false
	}

	return path.Clean(body[:slash]), true
}

// Derived nests p into a new path with optional parameters and type extension.
func (p ResourcePath) Derived(parameters string, ext string) ResourcePath {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(p.uri)
	b.WriteByte(']')
	if parameters != "" {
		b.WriteByte('(')
		b.WriteString(parameters)
		b.WriteByte(')')
	}

	b.WriteByte('.')
	b.WriteString(strings.TrimPrefix(strings.ToLower(ext), platformTag))
	return ResourcePath{uri: b.String()}
}

// WithParameter appends one parameter to the outer parameter group.
func (p ResourcePath) WithParameter(param string) ResourcePath {
	param = strings.ToLower(param)
	if len(p.Parameters()) == 0 {
		dot := strings.LastIndexByte(p.uri, '.')
		if dot < 0 {
			return p
		}

		return ResourcePath{uri: p.uri[:dot] + "(" + param + ")" + p.uri[dot:]}
	}

	closeIdx := strings.LastIndex(p.uri, ").")
	return ResourcePath{uri: p.uri[:closeIdx] + "," + param + p.uri[closeIdx:]}
}

// Inner returns the path one derivation level down, or p itself when not derived.
func (p ResourcePath) Inner() ResourcePath {
	if strings.Count(p.uri, "[") <= 1 {
		return p
	}

	end := strings.LastIndexByte(p.uri, ']')
	inner, err := ParseResourcePath(p.uri[1:end])
	if err != nil {
		return p
	}

	return inner
}

// InnerMost returns the base path all derivations start from.
func (p ResourcePath) InnerMost() ResourcePath {
	cur := p
	for strings.Count(cur.uri, "[") > 1 {
		next := cur.Inner()
		if next.uri == cur.uri {
			break
		}

		cur = next
	}

	return cur
}

// NormalizePath converts a filesystem or list path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(path string) string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.TrimPrefix(path, "./")
	return path
}
