// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/historyreplay/main.go
// Summary: Terminal demo that replays a seeded history onto a real screen.

// Command historyreplay is a small demonstration render sink: it seeds a
// synthetic window history, opens a cursor from the back, and replays
// every paragraph onto a real terminal screen, using the same terminal
// stack a full interactive frontend would, wired against the history
// engine instead of a live shell.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/framegrace/zhistory/history"
)

var maxBuffer = flag.Int("max-buffer", 4096, "maximum history buffer size in characters")

func main() {
	flag.Parse()

	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		log.Printf("historyreplay: host terminal reports %dx%d before handing off to tcell", w, h)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("historyreplay: tcell.NewScreen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("historyreplay: screen.Init: %v", err)
	}
	defer screen.Fini()

	cfg := history.DefaultConfig()
	cfg.MaxBuffer = *maxBuffer
	w := history.NewWriter(cfg, logSink{}, nil)
	seedDemoHistory(w)

	sink := newTcellSink(screen)
	cur := history.Open(w, sink, history.FromBack)

	// Replay returns a negative count once the cursor already sits at the
	// writer's front, i.e. after the last paragraph has been replayed.
	for {
		n, err := cur.Replay(1, true, true)
		if err != nil {
			log.Fatalf("historyreplay: replay: %v", err)
		}
		if n < 0 {
			break
		}
	}

	screen.Show()
	waitForKey(screen)
}

// seedDemoHistory writes a few paragraphs with font/style/colour changes,
// standing in for what the VM would normally produce.
func seedDemoHistory(w *history.Writer) {
	w.PutFont(1)
	w.PutStyle(0)
	w.PutColour(7, 0)
	w.PutText(toUch("Welcome to the output history replay demo.\n"))

	w.PutStyle(1)
	w.PutText(toUch("This line is bold"))
	w.PutStyle(0)
	w.PutText(toUch(", and this one isn't.\n"))

	w.PutColour(2, 0)
	w.PutText(toUch("Green text after a colour change.\n"))
	w.PutColour(7, 0)

	w.PutParagraphAttr(1, 0)
	w.PutText(toUch("A paragraph carrying attributes for in-place editing.\n"))
}

func toUch(s string) []history.Uch {
	chars := make([]history.Uch, 0, len(s))
	for _, r := range s {
		chars = append(chars, history.Uch(r))
	}
	return chars
}

// waitForKey blocks until the terminal reports a key press, so the demo
// stays on screen long enough to be read.
func waitForKey(screen tcell.Screen) {
	for {
		switch screen.PollEvent().(type) {
		case *tcell.EventKey:
			return
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

// logSink reports fatal history conditions through the standard logger
// rather than introducing a separate reporting path.
type logSink struct{}

func (logSink) Fatal(kind history.FatalKind, detail string) {
	log.Fatalf("historyreplay: fatal (%s): %s", kind, detail)
}

// tcellSink drives a tcell.Screen from cursor replay calls.
type tcellSink struct {
	screen       tcell.Screen
	style        tcell.Style
	col, row     int
	width, height int
}

func newTcellSink(screen tcell.Screen) *tcellSink {
	width, height := screen.Size()
	return &tcellSink{screen: screen, style: tcell.StyleDefault, width: width, height: height}
}

// SetFont has no tcell equivalent -- the original VM's font concept
// (fixed-pitch vs proportional) doesn't map onto a character-cell
// terminal screen, so this sink only tracks style and colour.
func (s *tcellSink) SetFont(font int) {}

func (s *tcellSink) SetStyle(style int) {
	fg, bg, _ := s.style.Decompose()
	st := tcell.StyleDefault.Foreground(fg).Background(bg)
	if style&1 != 0 {
		st = st.Bold(true)
	}
	if style&2 != 0 {
		st = st.Reverse(true)
	}
	if style&4 != 0 {
		st = st.Italic(true)
	}
	if style&8 != 0 {
		st = st.Underline(true)
	}
	s.style = st
}

func (s *tcellSink) SetColour(fg, bg int, transient bool) {
	s.style = s.style.Foreground(paletteColour(fg)).Background(paletteColour(bg))
}

func paletteColour(v int) tcell.Color {
	if v < 0 {
		return tcell.ColorDefault
	}
	return tcell.PaletteColor(v)
}

func (s *tcellSink) EmitText(chars []history.Uch) {
	for _, c := range chars {
		r := rune(c)
		if r == '\n' {
			s.row++
			s.col = 0
			continue
		}

		s.screen.SetContent(s.col, s.row, r, nil, s.style)
		s.col += runewidth.RuneWidth(r)
		if s.col >= s.width {
			s.col = 0
			s.row++
		}
		if s.row >= s.height {
			s.row = s.height - 1
		}
	}
}
