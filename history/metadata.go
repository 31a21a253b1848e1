// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/metadata.go
// Summary: Inline escape-encoded metadata record codec.

package history

import "fmt"

// recordKind identifies one of the four inline metadata record shapes
// (component C2, "Metadata Codec"). The byte value is what's actually
// stored in the ring immediately after a metadataEscape, so these must
// stay stable.
type recordKind Uch

const (
	recordFont      recordKind = 1
	recordStyle     recordKind = 2
	recordColour    recordKind = 3
	recordParagraph recordKind = 4
)

// dataOffset biases every numeric metadata parameter so that it can
// never collide with newline (10) or the escape (0), which is what lets
// paragraph scanning treat '\n' as an unambiguous byte-level test.
const dataOffset = 13

// colourUndefined and colourMax bound the domain recognised for Colour
// parameters. -2 is "undefined", 15 is the top of the defined palette.
const (
	colourUndefined = -2
	colourMax       = 15
)

// recordLen returns the on-wire length (including the escape byte) for
// a given record kind.
func (k recordKind) recordLen() int {
	switch k {
	case recordFont, recordStyle:
		return 3
	case recordColour, recordParagraph:
		return 4
	default:
		return 0
	}
}

func (k recordKind) String() string {
	switch k {
	case recordFont:
		return "font"
	case recordStyle:
		return "style"
	case recordColour:
		return "colour"
	case recordParagraph:
		return "paragraph-attribute"
	default:
		return fmt.Sprintf("recordKind(%d)", int(k))
	}
}

// encodeBiased applies the +13 bias used for every numeric parameter.
func encodeBiased(v int) Uch { return Uch(v + dataOffset) }

// decodeBiased reverses encodeBiased.
func decodeBiased(v Uch) int { return int(v) - dataOffset }

// validateColour reports whether a colour parameter (foreground or
// background) is in the domain the codec recognises.
func validateColour(v int) bool {
	return v >= colourUndefined && v <= colourMax
}

// encodeFont builds the 3-unit Font record: escape, kind, font+13.
func encodeFont(font int) [3]Uch {
	return [3]Uch{metadataEscape, Uch(recordFont), encodeBiased(font)}
}

// encodeStyle builds the 3-unit Style record: escape, kind, style+13.
func encodeStyle(style int) [3]Uch {
	return [3]Uch{metadataEscape, Uch(recordStyle), encodeBiased(style)}
}

// encodeColour builds the 4-unit Colour record: escape, kind, fg+13, bg+13.
func encodeColour(fg, bg int) [4]Uch {
	return [4]Uch{metadataEscape, Uch(recordColour), encodeBiased(fg), encodeBiased(bg)}
}

// encodeParagraphAttr builds the 4-unit Paragraph-attribute record.
func encodeParagraphAttr(a1, a2 int) [4]Uch {
	return [4]Uch{metadataEscape, Uch(recordParagraph), encodeBiased(a1), encodeBiased(a2)}
}
