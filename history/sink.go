// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/sink.go
// Summary: Collaborator interfaces a Writer/Cursor drive but do not own.

package history

// RenderSink is the renderer-supplied collaborator a Cursor drives during
// Replay. Calls arrive synchronously, in buffer order, on whatever
// goroutine called Replay -- a Cursor never calls back into a Writer, so
// a sink implementation is free to touch the writer it was handed
// elsewhere without risk of reentrancy.
type RenderSink interface {
	SetFont(font int)
	SetStyle(style int)

	// SetColour reports the active foreground/background. transient is
	// true for a colour change seen mid-replay (a metadata record the
	// cursor just crossed) and false for the initial state a replay
	// opens with, mirroring the -1/non-negative distinction the original
	// VM used for "window colour" versus "just-set colour".
	SetColour(fg, bg int, transient bool)

	EmitText(chars []Uch)
}

// ParagraphRemovalFunc is invoked by a Writer when a paragraph-attribute
// record falls out of the ring during eviction, so a renderer can
// release any cached layout for that paragraph. It may be nil, in which
// case eviction still proceeds without notification.
type ParagraphRemovalFunc func(a1, a2 int)

// OpenFlags controls how a Cursor is positioned and whether it checks
// for writer mutation on every call.
type OpenFlags uint8

const (
	// FromBack starts the cursor at the oldest retained character
	// instead of the front.
	FromBack OpenFlags = 1 << iota

	// SkipValidation suppresses the epoch check on every cursor
	// operation. The caller is asserting the writer will not mutate
	// while this cursor is in use.
	SkipValidation
)
