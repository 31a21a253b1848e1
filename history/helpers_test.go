package history

import "fmt"

// fatalCall records one ErrorSink.Fatal invocation for assertions.
type fatalCall struct {
	kind   FatalKind
	detail string
}

// fakeErrorSink collects Fatal calls instead of acting on them, so tests
// can assert a writer reported exactly the condition expected.
type fakeErrorSink struct {
	calls []fatalCall
}

func (f *fakeErrorSink) Fatal(kind FatalKind, detail string) {
	f.calls = append(f.calls, fatalCall{kind, detail})
}

// recordingSink is a RenderSink that stringifies every call it receives,
// in order, so a test can assert on replay output without a real
// renderer.
type recordingSink struct {
	calls []string
}

func (s *recordingSink) SetFont(font int) {
	s.calls = append(s.calls, fmt.Sprintf("font(%d)", font))
}

func (s *recordingSink) SetStyle(style int) {
	s.calls = append(s.calls, fmt.Sprintf("style(%d)", style))
}

func (s *recordingSink) SetColour(fg, bg int, transient bool) {
	s.calls = append(s.calls, fmt.Sprintf("colour(%d,%d,%v)", fg, bg, transient))
}

func (s *recordingSink) EmitText(chars []Uch) {
	s.calls = append(s.calls, uchString(chars))
}
