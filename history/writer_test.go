package history

import (
	"strings"
	"testing"
)

func newTestWriter(maxBuffer, grow int, onParagraphRemoved ParagraphRemovalFunc) (*Writer, *fakeErrorSink) {
	sink := &fakeErrorSink{}
	cfg := Config{MaxBuffer: maxBuffer, GrowIncrement: grow, Font: 1, Style: 0, FG: 1, BG: 0}
	return NewWriter(cfg, sink, onParagraphRemoved), sink
}

func TestWriterPutTextNoWrap(t *testing.T) {
	w, _ := newTestWriter(128, 64, nil)
	w.PutText(toUch("Hello\n"))

	if w.r.wraps != 0 {
		t.Fatalf("wraps = %d, want 0 (no wrap expected)", w.r.wraps)
	}
	if got := uchString(w.r.buf[w.r.back:w.r.front]); got != "Hello\n" {
		t.Errorf("buffer content = %q, want %q", got, "Hello\n")
	}
}

func TestWriterPutTextRejectsEscapeByte(t *testing.T) {
	w, sink := newTestWriter(128, 64, nil)
	w.PutText([]Uch{'a', metadataEscape, 'b'})

	if len(sink.calls) != 1 || sink.calls[0].kind != InvalidParameter {
		t.Fatalf("expected one InvalidParameter fatal, got %v", sink.calls)
	}
}

func TestWriterWrapEvictsFirstParagraph(t *testing.T) {
	w, _ := newTestWriter(16, 16, nil)
	w.PutText(toUch("aaaa\n"))
	w.PutText(toUch(strings.Repeat("b", 15) + "\n"))

	rs := &recordingSink{}
	c := Open(w, rs, FromBack)
	c.Replay(1, false, false)

	// The first three calls are the initial font/style/colour state (the
	// colour call's "false" holds an 'a'); the rest is replayed text.
	got := strings.Join(rs.calls[3:], "")
	if strings.Contains(got, "a") {
		t.Errorf("replay after wrap still contains evicted paragraph's content: %v", rs.calls)
	}
	if !strings.Contains(got, "b") {
		t.Errorf("replay after wrap is missing the surviving paragraph's content: %v", rs.calls)
	}
}

func TestWriterParagraphRemovalFiresOnce(t *testing.T) {
	var removed []int
	onRemoved := func(a1, a2 int) {
		removed = append(removed, a1, a2)
	}

	w, _ := newTestWriter(32, 16, onRemoved)
	w.PutParagraphAttr(5, 7)
	w.PutText(toUch("P1\n"))

	// Push enough additional text to force P1 (and its paragraph-attribute
	// record) out of the ring.
	w.PutText(toUch(strings.Repeat("x", 64) + "\n"))

	if len(removed) != 2 {
		t.Fatalf("paragraph-removal callback fired %d times, want 1 (args: %v)", len(removed)/2, removed)
	}
	if removed[0] != 5 || removed[1] != 7 {
		t.Errorf("paragraph-removal args = (%d, %d), want (5, 7)", removed[0], removed[1])
	}
}

func TestWriterRemoveTrailingIsIdempotentWithoutWrap(t *testing.T) {
	w, _ := newTestWriter(128, 64, nil)
	xs := toUch("no metadata here\n")
	w.PutText(xs)

	frontBefore, wrapsBefore := w.r.front, w.r.wraps

	w.PutText(toUch("more text that will be removed"))
	if err := w.RemoveTrailing(len(toUch("more text that will be removed"))); err != nil {
		t.Fatalf("RemoveTrailing: %v", err)
	}

	if w.r.front != frontBefore || w.r.wraps != wrapsBefore {
		t.Errorf("after put+remove: front=%d wraps=%d, want front=%d wraps=%d",
			w.r.front, w.r.wraps, frontBefore, wrapsBefore)
	}
}

func TestWriterRemoveTrailingZeroKeepsTrailingRecord(t *testing.T) {
	w, _ := newTestWriter(128, 64, nil)
	w.PutText(toUch("abc"))
	frontBefore := w.r.front

	w.PutStyle(2)
	if err := w.RemoveTrailing(0); err != nil {
		t.Fatalf("RemoveTrailing(0): %v", err)
	}
	// RemoveTrailing(0) removes nothing, so the 3-byte style record
	// written after "abc" stays in place and front does not return to
	// frontBefore, however often it is called.
	if err := w.RemoveTrailing(0); err != nil {
		t.Fatalf("RemoveTrailing(0) again: %v", err)
	}
	if w.r.front == frontBefore {
		t.Errorf("RemoveTrailing(0) unexpectedly rewound past the style record")
	}
}

func TestWriterAllocatedSizeGrowsOnDemand(t *testing.T) {
	w, _ := newTestWriter(256, 16, nil)
	before := w.AllocatedSize()

	w.PutText(toUch(strings.Repeat("x", 64)))

	if after := w.AllocatedSize(); after <= before {
		t.Errorf("AllocatedSize after growth = %d, want > %d", after, before)
	}
}

// TestWriterStateBlockCompleteness checks that metadata reconstruction
// from any ring position recovers exactly the state a linear replay up
// to that position would have seen, with state blocks spaced far more
// densely than a real deployment would use so the backward scan is
// exercised across many block boundaries.
func TestWriterStateBlockCompleteness(t *testing.T) {
	old := StateBlockSize
	StateBlockSize = 8
	defer func() { StateBlockSize = old }()

	w, _ := newTestWriter(4096, 1024, nil)

	type expectation struct {
		ringPos              int
		font, style, fg, bg int
	}
	var want []expectation

	record := func(s string) {
		for _, r := range s {
			want = append(want, expectation{
				ringPos: w.r.front,
				font:    w.frontFont,
				style:   w.frontStyle,
				fg:      w.frontFG,
				bg:      w.frontBG,
			})
			w.PutText([]Uch{Uch(r)})
		}
	}

	record(strings.Repeat("a", 10))
	w.PutStyle(2)
	record(strings.Repeat("b", 10))
	w.PutColour(3, 4)
	record(strings.Repeat("c", 10))
	w.PutStyle(1)
	record(strings.Repeat("d", 10))

	if len(want) != 40 {
		t.Fatalf("recorded %d expectations, want 40", len(want))
	}

	for offset, exp := range want {
		c := &Cursor{w: w, position: exp.ringPos, wraps: w.r.wraps}
		c.evaluateMetadataForParagraph()
		if c.font != exp.font || c.style != exp.style || c.fg != exp.fg || c.bg != exp.bg {
			t.Errorf("offset %d (ring pos %d): reconstructed (%d,%d,%d,%d), want (%d,%d,%d,%d)",
				offset, exp.ringPos, c.font, c.style, c.fg, c.bg, exp.font, exp.style, exp.fg, exp.bg)
		}
	}
}

func toUch(s string) []Uch {
	chars := make([]Uch, 0, len(s))
	for _, r := range s {
		chars = append(chars, Uch(r))
	}
	return chars
}
