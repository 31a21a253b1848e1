// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/writer.go
// Summary: Append-only writer side of a window's output history.

package history

import "fmt"

// Writer appends characters and inline metadata to a ring, evicts the
// oldest data on wrap, and periodically emits state blocks so cursors
// can resume style state without scanning the whole buffer (component
// C3, "History Writer").
type Writer struct {
	r ring

	sink               ErrorSink
	onParagraphRemoved ParagraphRemovalFunc

	// front-side state: what the VM has most recently set.
	frontFont, frontStyle, frontFG, frontBG int

	// back-side state: what was in effect at the oldest retained
	// character, advanced as metadata is evicted.
	backFont, backStyle, backFG, backBG int

	lastBlockIdx int

	// nextNewlineAfterBack caches the position of the newline closing
	// the paragraph currently anchored at back, so repeated evictions
	// don't have to rescan for it and so a paragraph-attribute record's
	// removal callback fires at most once. Unset (nextNewlineAfterBackSet
	// == false) is the Go analogue of a NULL pointer here.
	nextNewlineAfterBack    int
	nextNewlineAfterBackSet bool
}

// NewWriter creates a writer for one window's history. sink may be nil,
// in which case fatal conditions are silently dropped instead of
// reported -- useful for tests, not for production callers.
func NewWriter(cfg Config, sink ErrorSink, onParagraphRemoved ParagraphRemovalFunc) *Writer {
	if sink == nil {
		sink = discardSink{}
	}
	return &Writer{
		r:                  newRing(cfg.MaxBuffer, cfg.GrowIncrement),
		sink:               sink,
		onParagraphRemoved: onParagraphRemoved,
		frontFont:          cfg.Font,
		frontStyle:         cfg.Style,
		frontFG:            cfg.FG,
		frontBG:            cfg.BG,
		backFont:           cfg.Font,
		backStyle:          cfg.Style,
		backFG:             cfg.FG,
		backBG:             cfg.BG,
	}
}

// AllocatedSize returns the ring's current capacity in characters.
func (w *Writer) AllocatedSize() int { return w.r.cap() }

// PutText appends a run of text characters. chars must not contain 0
// (the metadata escape); doing so is reported as InvalidParameter and
// the call is a no-op.
func (w *Writer) PutText(chars []Uch) {
	for _, c := range chars {
		if c == metadataEscape {
			w.sink.Fatal(InvalidParameter, "put_text: payload contains metadata escape (0)")
			return
		}
	}
	w.appendChars(chars, true)
}

// PutFont appends a Font metadata record and updates front-side state
// immediately.
func (w *Writer) PutFont(font int) {
	w.frontFont = font
	rec := encodeFont(font)
	w.appendChars(rec[:], false)
}

// PutStyle appends a Style metadata record and updates front-side state
// immediately.
func (w *Writer) PutStyle(style int) {
	w.frontStyle = style
	rec := encodeStyle(style)
	w.appendChars(rec[:], false)
}

// PutColour appends a Colour metadata record and updates front-side
// state immediately. fg and bg must be in [-2, 15]; -2 means
// "undefined", 15 bounds the defined palette.
func (w *Writer) PutColour(fg, bg int) {
	if !validateColour(fg) || !validateColour(bg) {
		w.sink.Fatal(InvalidParameter, fmt.Sprintf("put_colour: fg=%d bg=%d outside [-2, 15]", fg, bg))
		return
	}
	w.frontFG = fg
	w.frontBG = bg
	rec := encodeColour(fg, bg)
	w.appendChars(rec[:], false)
}

// PutParagraphAttr appends a Paragraph-attribute record. It does not
// change any front/back style state -- paragraph attributes are
// renderer metadata, not font/style/colour.
func (w *Writer) PutParagraphAttr(a1, a2 int) {
	rec := encodeParagraphAttr(a1, a2)
	w.appendChars(rec[:], false)
}

// appendChars implements spec.md §4.3.1. evaluateStateBlock is disabled
// for metadata writes so a state block can never be emitted mid-record.
func (w *Writer) appendChars(data []Uch, evaluateStateBlock bool) {
	if len(data) == 0 {
		return
	}

	length := len(data)

	if length >= w.r.max {
		// The input alone will overwrite the whole buffer. Apply
		// eviction for everything currently live, then replace the
		// entire ring with the suffix of the input that fits.
		w.evictBack(w.r.spaceUsed())

		if w.r.cap() < w.r.max {
			w.r.tryGrow(w.r.max)
		}

		c := w.r.cap()
		if c == 0 {
			return
		}
		n := c
		if n > length {
			n = length
		}
		copy(w.r.buf, data[length-n:])
		w.r.front = 0
		w.r.back = 0
		w.r.wraps = 1

		if evaluateStateBlock {
			w.writeStateBlockIfNecessary()
		}
		return
	}

	if avail := w.r.spaceAvailable(); avail < length {
		missing := length - avail
		increments := (missing + w.r.grow - 1) / w.r.grow
		desired := w.r.cap() + increments*w.r.grow
		if desired > w.r.max {
			desired = w.r.max
		}
		if desired > w.r.cap() {
			w.r.tryGrow(desired)
		}
	}

	if w.r.cap() < length {
		data = data[length-w.r.cap():]
		length = w.r.cap()
	}
	if length == 0 {
		return
	}

	if w.r.wraps == 0 {
		spaceToEnd := w.r.cap() - w.r.front
		toWrite := length
		if toWrite > spaceToEnd {
			toWrite = spaceToEnd
		}
		if toWrite > 0 {
			copy(w.r.buf[w.r.front:], data[:toWrite])
			w.r.front += toWrite
		}
		data = data[toWrite:]
		length -= toWrite

		if length == 0 {
			if evaluateStateBlock {
				w.writeStateBlockIfNecessary()
			}
			return
		}

		w.r.wraps = 1
		w.r.front = 0
	}

	for length > 0 {
		spaceToEnd := w.r.cap() - w.r.front
		toWrite := length
		if toWrite > spaceToEnd {
			toWrite = spaceToEnd
		}

		w.evictBack(toWrite)

		copy(w.r.buf[w.r.front:], data[:toWrite])
		w.r.front += toWrite
		if w.r.front == w.r.cap() {
			w.r.front = 0
		}

		data = data[toWrite:]
		length -= toWrite
		w.r.back = w.r.front
	}

	if evaluateStateBlock {
		w.writeStateBlockIfNecessary()
	}
}

// evictBack implements spec.md §4.3.3: advance back by exactly n live
// characters (a metadata record counts as its encoded length),
// advancing back-side style state as records are passed and firing the
// paragraph-removal callback at most once per paragraph-attribute
// record.
func (w *Writer) evictBack(n int) {
	if n <= 0 {
		return
	}

	idx := w.r.back
	for n > 0 {
		if w.nextNewlineAfterBackSet && w.nextNewlineAfterBack == idx {
			w.nextNewlineAfterBackSet = false
		}

		if w.r.buf[idx] == metadataEscape {
			idx = w.r.stepForward(idx)
			n--

			switch kind := recordKind(w.r.buf[idx]); kind {
			case recordKind(metadataEscape):
				// A literal 0 following an escape: benign, not a real
				// record (only possible with malformed input upstream).
			case recordFont:
				idx = w.r.stepForward(idx)
				n--
				w.backFont = decodeBiased(w.r.buf[idx])
			case recordStyle:
				idx = w.r.stepForward(idx)
				n--
				w.backStyle = decodeBiased(w.r.buf[idx])
			case recordColour:
				idx = w.r.stepForward(idx)
				n--
				w.backFG = decodeBiased(w.r.buf[idx])
				idx = w.r.stepForward(idx)
				n--
				w.backBG = decodeBiased(w.r.buf[idx])
			case recordParagraph:
				idx = w.r.stepForward(idx)
				n--
				a1 := decodeBiased(w.r.buf[idx])
				idx = w.r.stepForward(idx)
				n--
				a2 := decodeBiased(w.r.buf[idx])
				if w.onParagraphRemoved != nil && !w.nextNewlineAfterBackSet {
					w.onParagraphRemoved(a1, a2)
				}
			default:
				w.sink.Fatal(InconsistentMetadata, fmt.Sprintf("evict: unexpected metadata type byte %d", kind))
			}
		}

		idx = w.r.stepForward(idx)
		n--
	}
	w.r.back = idx

	if !w.nextNewlineAfterBackSet {
		w.nextNewlineAfterBack = idx
		w.nextNewlineAfterBackSet = true

		for w.r.buf[idx] != newline {
			if idx == w.r.front {
				break
			}
			idx = w.r.stepForward(idx)

			if w.r.buf[idx] == metadataEscape {
				idx = w.r.stepForward(idx)
				kind := recordKind(w.r.buf[idx])
				idx = w.r.stepForward(idx)
				param1 := w.r.buf[idx]

				if kind == recordColour || kind == recordParagraph {
					idx = w.r.stepForward(idx)
					if kind == recordParagraph && w.onParagraphRemoved != nil {
						w.onParagraphRemoved(decodeBiased(param1), decodeBiased(w.r.buf[idx]))
					}
				}
			}
		}

		w.nextNewlineAfterBack = idx
	}
}

// writeStateBlockIfNecessary implements spec.md §4.3.4.
func (w *Writer) writeStateBlockIfNecessary() {
	blockIdx := w.r.front - (w.r.front % StateBlockSize)
	if blockIdx == w.lastBlockIdx {
		return
	}

	font, style, fg, bg := w.backFont, w.backStyle, w.backFG, w.backBG
	w.lastBlockIdx = blockIdx

	fontRec := encodeFont(font)
	w.appendChars(fontRec[:], false)
	styleRec := encodeStyle(style)
	w.appendChars(styleRec[:], false)
	colourRec := encodeColour(fg, bg)
	w.appendChars(colourRec[:], false)
}

// RemoveTrailing walks front backward by n logical characters (metadata
// records count as 0 toward n), used to undo preloaded input. Returns
// ErrAtOldest without mutating anything if back is hit first.
func (w *Writer) RemoveTrailing(n int) error {
	if n <= 0 {
		return nil
	}

	idx := w.r.front
	wraps := w.r.wraps
	var lastData Uch

	for n > 0 {
		next, err := w.r.stepBackward(idx, &wraps)
		if err != nil {
			return ErrAtOldest
		}
		idx = next

		if w.r.buf[idx] == metadataEscape && lastData != 0 {
			// We already (wrongly) decremented n once for every data byte
			// of this record while walking backward through it; refund
			// recordLen-1 so the whole record nets to 0, not the escape
			// byte itself (which was never decremented).
			if lastData == Uch(recordColour) || lastData == Uch(recordParagraph) {
				n += 3
			} else {
				n += 2
			}
			lastData = 0
		} else {
			lastData = w.r.buf[idx]
			n--
		}
	}

	w.r.front = idx
	w.r.wraps = wraps
	return nil
}
