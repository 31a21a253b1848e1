// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/registry.go
// Summary: VM-facing façade owning per-window history writers.

package history

import "fmt"

// WindowID identifies one output window's history within a Registry.
type WindowID int

// Registry owns one Writer per output window, replacing the source's
// process-wide outputhistory[] table (Design Notes §9: "Global
// output-history table"). It is the seam a VM-facing façade uses to
// create, look up, and tear down per-window histories explicitly,
// instead of reaching into ambient global state.
type Registry struct {
	windows map[WindowID]*Writer
	sink    ErrorSink
}

// NewRegistry creates an empty registry. sink is shared by every writer
// the registry creates via OpenWindow.
func NewRegistry(sink ErrorSink) *Registry {
	return &Registry{windows: make(map[WindowID]*Writer), sink: sink}
}

// OpenWindow creates a new history for id, replacing any existing one.
// The old writer, if any, is simply dropped -- there is nothing to flush,
// since the core persists nothing across sessions.
func (reg *Registry) OpenWindow(id WindowID, cfg Config, onParagraphRemoved ParagraphRemovalFunc) *Writer {
	w := NewWriter(cfg, reg.sink, onParagraphRemoved)
	reg.windows[id] = w
	return w
}

// Writer returns the writer registered for id, or an error if none has
// been opened.
func (reg *Registry) Writer(id WindowID) (*Writer, error) {
	w, ok := reg.windows[id]
	if !ok {
		return nil, fmt.Errorf("history: no window registered with id %d", id)
	}
	return w, nil
}

// CloseWindow removes id's history from the registry. Cursors already
// opened against its writer remain valid until their writer's next
// mutation, same as any other cursor; the registry itself holds no
// cursor references to invalidate.
func (reg *Registry) CloseWindow(id WindowID) {
	delete(reg.windows, id)
}

// Windows returns the ids of every window currently registered.
func (reg *Registry) Windows() []WindowID {
	ids := make([]WindowID, 0, len(reg.windows))
	for id := range reg.windows {
		ids = append(ids, id)
	}
	return ids
}
