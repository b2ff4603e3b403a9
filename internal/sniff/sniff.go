// Package sniff classifies clipboard payloads by inspecting their bytes.
// Remote metadata (filenames, server-reported MIME types) routinely lies:
// generic octet-stream uploads, mismatched extensions. Content inspection
// is the source of truth; hints are only consulted to pick a display
// extension when the content alone does not imply one. Both sync
// directions use this same package so a pushed payload always classifies
// identically when pulled back.
package sniff

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the broad payload category.
type Kind int

const (
	// Text is printable ASCII content restored as clipboard text.
	Text Kind = iota

	// Binary is everything else, restored as raw bytes.
	Binary
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}

	return "binary"
}

// Result is the outcome of a classification.
type Result struct {
	Kind Kind

	// Ext is the normalized display extension, without a leading dot.
	Ext string
}

// pngMagic is the first four bytes of every PNG file.
var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

// Classify inspects data and returns its kind and display extension.
// hint may be a filename or a declared MIME type; it never decides the
// kind on its own. Priority order, first match wins:
//
//  1. PNG signature: binary png, regardless of any hint.
//  2. Detected or declared MIME type beginning image/: binary image.
//  3. Every byte printable ASCII, or empty input: text.
//  4. Anything else: binary, extension from the hint if it has one.
//
// Identical input always produces identical output.
func Classify(data []byte, hint string) Result {
	if bytes.HasPrefix(data, pngMagic) {
		return Result{Kind: Binary, Ext: "png"}
	}

	if ext, ok := imageMIME(data, hint); ok {
		return Result{Kind: Binary, Ext: ext}
	}

	if isPrintableASCII(data) {
		return Result{Kind: Text, Ext: "txt"}
	}

	ext := hintExt(hint)
	if ext == "" {
		ext = "bin"
	}

	return Result{Kind: Binary, Ext: ext}
}

// imageMIME reports whether the detected content type, or a declared
// MIME hint, is an image, and returns the subtype as extension.
func imageMIME(data []byte, hint string) (string, bool) {
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "image/") {
		if ext := strings.TrimPrefix(mt.Extension(), "."); ext != "" {
			return ext, true
		}

		return subtype(mt.String()), true
	}

	if declared, ok := mimeHint(hint); ok && strings.HasPrefix(declared, "image/") {
		return subtype(declared), true
	}

	return "", false
}

// mimeHint returns the hint as a lowercase MIME type when it looks like
// one (contains a slash and no path separators).
func mimeHint(hint string) (string, bool) {
	if hint == "" || !strings.Contains(hint, "/") {
		return "", false
	}

	if strings.ContainsAny(hint, `\.`) && filepath.Ext(hint) != "" {
		return "", false
	}

	mt := strings.ToLower(strings.TrimSpace(hint))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}

	return mt, true
}

func subtype(mt string) string {
	idx := strings.Index(mt, "/")

	sub := mt[idx+1:]
	if sub == "" {
		return "bin"
	}

	return sub
}

// hintExt extracts a usable extension from a filename or MIME hint.
func hintExt(hint string) string {
	if hint == "" {
		return ""
	}

	if mt, ok := mimeHint(hint); ok {
		return subtype(mt)
	}

	ext := strings.TrimPrefix(filepath.Ext(hint), ".")

	return strings.ToLower(ext)
}

// isPrintableASCII reports whether every byte is printable ASCII or
// common whitespace. Empty input counts as printable.
func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}

		if b < 0x20 || b > 0x7E {
			return false
		}
	}

	return true
}
