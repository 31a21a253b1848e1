// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/cursor.go
// Summary: Read-only walker that replays a window's retained history.

package history

import "fmt"

// RewindResult is returned by Cursor.RewindParagraph on success.
type RewindResult struct {
	// Chars is the number of logical (non-metadata) characters in the
	// paragraph rewound over.
	Chars int

	// Attr1 and Attr2 are the most recent paragraph-attribute record's
	// parameters, if one was seen while rewinding this paragraph.
	Attr1, Attr2 int
	HasAttrs     bool
}

// cursorSnapshot is the full saved-copy used by Remember/Restore.
type cursorSnapshot struct {
	position int
	wraps    int

	font, style, fg, bg int
	metadataEvaluated   bool

	foundEndOfBuffer                     bool
	firstIterationDone                   bool
	dontSkipNewline                      bool
	rewoundParagraphWasNewlineTerminated bool

	lastParagraphAttributeIndex    int
	hasLastParagraphAttributeIndex bool

	cacheBlockIdx                           int
	cacheValid                              bool
	cacheFont, cacheStyle, cacheFG, cacheBG int
}

// Cursor is a read-only walker over a Writer's ring: component C4,
// "History Cursor". It holds its own position and reconstructed style
// state, detached from the writer except for an epoch handshake that
// invalidates it the instant the writer mutates.
type Cursor struct {
	w    *Writer
	sink RenderSink

	skipValidation bool
	snapWraps      int
	snapFront      int

	position int
	wraps    int

	font, style, fg, bg int
	metadataEvaluated   bool

	foundEndOfBuffer                     bool
	firstIterationDone                   bool
	dontSkipNewline                      bool
	rewoundParagraphWasNewlineTerminated bool

	lastParagraphAttributeIndex    int
	hasLastParagraphAttributeIndex bool

	// cached (block_idx, f, s, fg, bg) quadruple, avoiding a rescan of a
	// state block already consulted for the current block_idx.
	cacheBlockIdx int
	cacheValid    bool
	cacheFont, cacheStyle, cacheFG, cacheBG int

	saved *cursorSnapshot
}

// Open creates a cursor into w. sink receives replayed text and style
// changes; it must not be nil if Replay will ever be called.
//
// If w's ring is empty, Open succeeds but the returned cursor already
// reports AtEnd on the first RewindParagraph call -- there is nothing to
// rewind over yet.
func Open(w *Writer, sink RenderSink, flags OpenFlags) *Cursor {
	c := &Cursor{
		w:              w,
		sink:           sink,
		skipValidation: flags&SkipValidation != 0,
		snapWraps:      w.r.wraps,
		snapFront:      w.r.front,
	}

	if flags&FromBack != 0 {
		c.position = w.r.back
		c.wraps = 0
		c.foundEndOfBuffer = true
		c.firstIterationDone = true
		c.font, c.style, c.fg, c.bg = w.backFont, w.backStyle, w.backFG, w.backBG
		c.metadataEvaluated = true
		return c
	}

	wraps := w.r.wraps
	pos, err := w.r.stepBackward(w.r.front, &wraps)
	if err != nil {
		// Empty ring: nothing written yet.
		c.position = w.r.front
		c.wraps = w.r.wraps
		c.foundEndOfBuffer = true
		c.firstIterationDone = true
		c.font, c.style, c.fg, c.bg = w.frontFont, w.frontStyle, w.frontFG, w.frontBG
		c.metadataEvaluated = true
		return c
	}

	c.position = pos
	c.wraps = wraps
	c.font, c.style, c.fg, c.bg = w.frontFont, w.frontStyle, w.frontFG, w.frontBG
	c.metadataEvaluated = true
	return c
}

// Close detaches the cursor from its writer. It does not touch the
// writer or the ring; it exists so callers have a symmetric counterpart
// to Open and so a cursor can't accidentally be used again afterward.
func (c *Cursor) Close() {
	c.w = nil
	c.sink = nil
}

// checkValid implements spec.md §4.4.2: any write between cursor
// creation and now invalidates the cursor for good (the snapshot is
// taken once, at Open), unless SkipValidation was requested at Open.
func (c *Cursor) checkValid() error {
	if c.skipValidation {
		return nil
	}
	if c.w.r.wraps != c.snapWraps || c.w.r.front != c.snapFront {
		return ErrCursorInvalidated
	}
	return nil
}

// IsAtFront reports whether the cursor's position is the writer's
// current front (no replay is a writer op, and hence isn't gated on the
// epoch check other operations use).
func (c *Cursor) IsAtFront() bool {
	return c.position == c.w.r.front
}

// RewindParagraph moves the cursor to the start of the paragraph
// preceding its current position, per spec.md §4.4.3.
func (c *Cursor) RewindParagraph() (RewindResult, error) {
	if err := c.checkValid(); err != nil {
		return RewindResult{}, err
	}
	if c.foundEndOfBuffer {
		return RewindResult{}, ErrAtEnd
	}

	pos := c.position
	wraps := c.wraps

	if c.firstIterationDone {
		// Not the first call: skip over the newline that closes the
		// paragraph we're currently sitting on top of.
		c.rewoundParagraphWasNewlineTerminated = true

		if !c.dontSkipNewline {
			next, err := c.w.r.stepBackward(pos, &wraps)
			if err != nil {
				c.w.sink.Fatal(InconsistentMetadata, "rewind_paragraph: could not step back over closing newline")
				return RewindResult{}, ErrAtEnd
			}
			pos = next
		} else {
			c.dontSkipNewline = false
		}

		if c.w.r.buf[pos] != newline {
			c.w.sink.Fatal(InconsistentMetadata, "rewind_paragraph: expected newline, found other character")
		}

		skippedNewline, skippedWraps := pos, wraps

		next, err := c.w.r.stepBackward(pos, &wraps)
		if err != nil {
			// Hit the buffer start right after the newline: this empty
			// trailing paragraph is the last one we can deliver.
			c.foundEndOfBuffer = true
			c.position = skippedNewline
			c.wraps = skippedWraps
			return RewindResult{}, nil
		}
		pos = next

		if c.w.r.buf[pos] == newline {
			// The preceding paragraph is itself empty; stop here.
			c.position = skippedNewline
			c.wraps = skippedWraps
			return RewindResult{}, nil
		}
	} else {
		// Very first call on this cursor.
		c.firstIterationDone = true
		if c.w.r.buf[pos] == newline {
			c.rewoundParagraphWasNewlineTerminated = true
			c.dontSkipNewline = true
			c.metadataEvaluated = false
			return RewindResult{}, nil
		}
		c.rewoundParagraphWasNewlineTerminated = false
		c.dontSkipNewline = false
	}

	var lastIdx, lastIdx2, lastIdx3 int
	nofChars := 0
	var attr1, attr2 int
	haveAttrs := false

	for {
		lastIdx3 = lastIdx2
		lastIdx2 = lastIdx
		lastIdx = pos

		next, err := c.w.r.stepBackward(pos, &wraps)
		if err != nil {
			// Hit the oldest retained character: the paragraph starts
			// there, and no older paragraph is left to rewind to.
			c.foundEndOfBuffer = true
			nofChars++
			lastIdx = pos
			break
		}
		pos = next
		nofChars++

		if c.w.r.buf[pos] == metadataEscape {
			switch recordKind(c.w.r.buf[lastIdx]) {
			case recordColour:
				nofChars -= 4
			case recordParagraph:
				attr1 = decodeBiased(c.w.r.buf[lastIdx2])
				attr2 = decodeBiased(c.w.r.buf[lastIdx3])
				haveAttrs = true
				nofChars -= 4
			default:
				nofChars -= 3
			}
		}

		if c.w.r.buf[pos] == newline {
			break
		}
	}

	c.position = lastIdx
	c.wraps = wraps
	c.metadataEvaluated = false
	c.evaluateMetadataForParagraph()

	res := RewindResult{Chars: nofChars, HasAttrs: haveAttrs}
	if haveAttrs {
		res.Attr1, res.Attr2 = attr1, attr2
	}
	return res, nil
}

// evaluateMetadataForParagraph implements spec.md §4.4.4: reconstruct
// the exact font/style/fg/bg active at the cursor's current position.
func (c *Cursor) evaluateMetadataForParagraph() {
	if c.metadataEvaluated {
		return
	}

	blockIdx := c.position - (c.position % StateBlockSize)

	if c.cacheValid && c.cacheBlockIdx == blockIdx {
		c.font, c.style, c.fg, c.bg = c.cacheFont, c.cacheStyle, c.cacheFG, c.cacheBG
		c.metadataEvaluated = true
		return
	}

	var font, style, fg, bg int
	var haveFont, haveStyle, haveFG, haveBG bool

	pos := c.position
	wraps := c.wraps
	hitEnd := false

	for !(haveFont && haveStyle && haveFG && haveBG) {
		next, err := c.w.r.stepBackward(pos, &wraps)
		if err != nil {
			hitEnd = true
			break
		}
		pos = next

		if c.w.r.buf[pos] != metadataEscape {
			continue
		}

		kindIdx := c.w.r.stepForward(pos)
		data1 := c.w.r.stepForward(kindIdx)

		switch recordKind(c.w.r.buf[kindIdx]) {
		case recordFont:
			if !haveFont {
				font = decodeBiased(c.w.r.buf[data1])
				haveFont = true
			}
		case recordStyle:
			if !haveStyle {
				style = decodeBiased(c.w.r.buf[data1])
				haveStyle = true
			}
		case recordColour:
			data2 := c.w.r.stepForward(data1)
			if !haveFG {
				fg = decodeBiased(c.w.r.buf[data1])
				haveFG = true
			}
			if !haveBG {
				bg = decodeBiased(c.w.r.buf[data2])
				haveBG = true
			}
		}
	}

	if hitEnd {
		// Default any attribute not found in-buffer from the writer's
		// state: font/style from back-side (the oldest retained
		// state), fg/bg from front-side (falls through to the
		// currently-configured window colour, matching the original's
		// historical behaviour).
		if !haveFont {
			font = c.w.backFont
		}
		if !haveStyle {
			style = c.w.backStyle
		}
		if !haveFG {
			fg = c.w.frontFG
		}
		if !haveBG {
			bg = c.w.frontBG
		}
	}

	c.font, c.style, c.fg, c.bg = font, style, fg, bg
	c.metadataEvaluated = true

	if !hitEnd {
		c.cacheBlockIdx = blockIdx
		c.cacheFont, c.cacheStyle, c.cacheFG, c.cacheBG = font, style, fg, bg
		c.cacheValid = true
	}
}

// readMetadataRecord decodes the record starting at the escape byte at
// escapePos. It returns the position of the record's last byte (the
// caller's own loop advances one further step past it, matching the
// shared per-character advance every Replay iteration performs) along
// with the decoded kind and parameters. attrIndex is only meaningful for
// a paragraph-attribute record: the in-buffer position of its first
// parameter, a1.
func (c *Cursor) readMetadataRecord(escapePos int) (lastBytePos int, kind recordKind, param1, param2, attrIndex int) {
	kindIdx := c.w.r.stepForward(escapePos)
	kind = recordKind(c.w.r.buf[kindIdx])
	data1 := c.w.r.stepForward(kindIdx)
	param1 = decodeBiased(c.w.r.buf[data1])

	switch kind {
	case recordColour:
		data2 := c.w.r.stepForward(data1)
		param2 = decodeBiased(c.w.r.buf[data2])
		lastBytePos = data2
	case recordParagraph:
		attrIndex = data1
		data2 := c.w.r.stepForward(data1)
		lastBytePos = data2
	default:
		lastBytePos = data1
	}
	return lastBytePos, kind, param1, param2, attrIndex
}

// Replay implements spec.md §4.4.5: emit up to n paragraphs from
// position forward into the render sink, returning the remaining paragraph
// count (negative if the cursor was already at front).
func (c *Cursor) Replay(n int, includeMetadata, advance bool) (int, error) {
	if err := c.checkValid(); err != nil {
		return 0, err
	}

	if includeMetadata {
		c.evaluateMetadataForParagraph()
	}

	c.sink.SetFont(c.font)
	c.sink.SetStyle(c.style)
	c.sink.SetColour(c.fg, c.bg, false)

	if advance {
		c.foundEndOfBuffer = false
	}

	pos := c.position
	// A wrapped ring is full, so front and back share an index; the wrap
	// count tells the oldest character apart from the writer's front.
	wraps := c.wraps
	buf := make([]Uch, 0, repeatParagraphBufSize)

	if pos == c.w.r.front && wraps == c.w.r.wraps {
		n = -1
	} else {
		for n > 0 {
			if c.w.r.buf[pos] == newline {
				n--
			}

			atFront := pos == c.w.r.front && wraps == c.w.r.wraps
			isEscape := c.w.r.buf[pos] == metadataEscape
			consumedMetadata := false

			if len(buf) == repeatParagraphBufSize-1 || n < 1 || isEscape || atFront {
				c.sink.EmitText(buf)
				buf = buf[:0]

				if atFront {
					break
				}
				if n < 1 {
					break
				}

				if isEscape {
					var kind recordKind
					var p1, p2, attrIdx int
					escapePos := pos
					pos, kind, p1, p2, attrIdx = c.readMetadataRecord(pos)
					if pos < escapePos {
						wraps++
					}
					consumedMetadata = true

					switch kind {
					case recordFont:
						c.font = p1
						if includeMetadata {
							c.sink.SetFont(p1)
						}
					case recordStyle:
						c.style = p1
						if includeMetadata {
							c.sink.SetStyle(p1)
						}
					case recordColour:
						c.fg, c.bg = p1, p2
						if includeMetadata {
							c.sink.SetColour(p1, p2, true)
						}
					case recordParagraph:
						c.lastParagraphAttributeIndex = attrIdx
						c.hasLastParagraphAttributeIndex = true
					default:
						c.w.sink.Fatal(InconsistentMetadata, fmt.Sprintf("replay: invalid metadata type %d", kind))
					}
				}
			}

			if !consumedMetadata {
				buf = append(buf, c.w.r.buf[pos])
			}
			pos = c.w.r.stepForward(pos)
			if pos == 0 {
				wraps++
			}
		}
	}

	if advance {
		if pos == c.w.r.front && wraps == c.w.r.wraps {
			c.firstIterationDone = false
			c.rewoundParagraphWasNewlineTerminated = c.w.r.buf[pos] == newline
		} else {
			pos = c.w.r.stepForward(pos)
			if pos == 0 {
				wraps++
			}
		}
		c.position = pos
		c.wraps = wraps
	}

	return n, nil
}

// SetLastParagraphAttrs overwrites the parameters of the most recently
// replayed paragraph-attribute record in place.
func (c *Cursor) SetLastParagraphAttrs(a1, a2 int) error {
	if err := c.checkValid(); err != nil {
		return err
	}
	if !c.hasLastParagraphAttributeIndex {
		return ErrNoSuchRecord
	}

	data1 := c.lastParagraphAttributeIndex
	data2 := c.w.r.stepForward(data1)
	c.w.r.buf[data1] = encodeBiased(a1)
	c.w.r.buf[data2] = encodeBiased(a2)
	return nil
}

// Remember captures the complete cursor state for a later Restore. It
// does not touch the writer.
func (c *Cursor) Remember() {
	c.saved = &cursorSnapshot{
		position:                              c.position,
		wraps:                                 c.wraps,
		font:                                  c.font,
		style:                                 c.style,
		fg:                                    c.fg,
		bg:                                    c.bg,
		metadataEvaluated:                     c.metadataEvaluated,
		foundEndOfBuffer:                      c.foundEndOfBuffer,
		firstIterationDone:                    c.firstIterationDone,
		dontSkipNewline:                       c.dontSkipNewline,
		rewoundParagraphWasNewlineTerminated:  c.rewoundParagraphWasNewlineTerminated,
		lastParagraphAttributeIndex:           c.lastParagraphAttributeIndex,
		hasLastParagraphAttributeIndex:        c.hasLastParagraphAttributeIndex,
		cacheBlockIdx:                         c.cacheBlockIdx,
		cacheValid:                            c.cacheValid,
		cacheFont:                             c.cacheFont,
		cacheStyle:                            c.cacheStyle,
		cacheFG:                               c.cacheFG,
		cacheBG:                               c.cacheBG,
	}
}

// Restore rewrites the cursor state captured by the last Remember. It
// does not re-validate against the writer: pairing Remember/Restore
// across a write is the caller's responsibility.
func (c *Cursor) Restore() error {
	s := c.saved
	if s == nil {
		return fmt.Errorf("history: restore called with no remembered state")
	}

	c.position = s.position
	c.wraps = s.wraps
	c.font = s.font
	c.style = s.style
	c.fg = s.fg
	c.bg = s.bg
	c.metadataEvaluated = s.metadataEvaluated
	c.foundEndOfBuffer = s.foundEndOfBuffer
	c.firstIterationDone = s.firstIterationDone
	c.dontSkipNewline = s.dontSkipNewline
	c.rewoundParagraphWasNewlineTerminated = s.rewoundParagraphWasNewlineTerminated
	c.lastParagraphAttributeIndex = s.lastParagraphAttributeIndex
	c.hasLastParagraphAttributeIndex = s.hasLastParagraphAttributeIndex
	c.cacheBlockIdx = s.cacheBlockIdx
	c.cacheValid = s.cacheValid
	c.cacheFont = s.cacheFont
	c.cacheStyle = s.cacheStyle
	c.cacheFG = s.cacheFG
	c.cacheBG = s.cacheBG
	return nil
}
