// Package editor owns the editing session: the client-held copy of a
// timeline document, the current selection, and the single active drag
// gesture. The session is the explicit dependency every editing surface
// works through; it is created when a project is opened and torn down on
// navigation away.
//
// A Session is not safe for concurrent use. All methods must be called from
// the host's event loop goroutine; network completions are delivered by
// calling back into that loop.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/framecut/framecut/internal/gateway"
	"github.com/framecut/framecut/internal/timeline"
)

var (
	ErrNoSelection = errors.New("no item selected")
	ErrClosed      = errors.New("session is closed")
)

// Notifier surfaces a user-visible notice (a toast). Only failures the user
// needs to see go through it; stale-id no-ops stay silent.
type Notifier func(message string)

type Session struct {
	gw     gateway.Client
	logger *slog.Logger
	notify Notifier

	doc      timeline.Timeline
	selected string
	drag     *dragState
	closed   bool
}

// Open fetches the project's timeline and starts a session around it. The
// fetched copy is authoritative for the session until explicitly synced.
func Open(ctx context.Context, gw gateway.Client, projectID string, logger *slog.Logger, notify Notifier) (*Session, error) {
	t, err := gw.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load timeline for project %s: %w", projectID, err)
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &Session{
		gw:     gw,
		logger: logger,
		notify: notify,
		doc:    *t,
	}, nil
}

// Close tears the session down. Any active gesture is discarded without
// committing its pending patch.
func (s *Session) Close() {
	s.drag = nil
	s.selected = ""
	s.closed = true
}

// Document returns the current document snapshot. Because every mutation
// produces a new value, the returned snapshot is stable.
func (s *Session) Document() timeline.Timeline {
	return s.doc
}

// Select marks an item as selected on click. Selecting a stale id is a
// no-op that reports false.
func (s *Session) Select(itemID string) bool {
	if _, _, ok := timeline.FindItem(s.doc, itemID); !ok {
		return false
	}
	s.selected = itemID
	return true
}

// Selected returns the selected item id, if any.
func (s *Session) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// ClearSelection drops the selection.
func (s *Session) ClearSelection() {
	s.selected = ""
}

// UpdateItem applies a patch to an item in the local document. Stale ids
// leave the document unchanged and report false.
func (s *Session) UpdateItem(itemID string, patch timeline.ItemPatch) bool {
	doc, ok := timeline.UpdateItem(s.doc, itemID, patch)
	if ok {
		s.doc = doc
	}
	return ok
}

// ApplyRemote replaces the session's document with one that arrived
// asynchronously (a completed load or sync). If the user's selected item
// vanished, the selection is cleared and the user notified; an active drag
// on a vanished item ends silently on its next move.
func (s *Session) ApplyRemote(t timeline.Timeline) {
	s.doc = t
	if s.selected == "" {
		return
	}
	if _, _, ok := timeline.FindItem(s.doc, s.selected); !ok {
		s.selected = ""
		s.notify("The selected item was removed.")
	}
}

// Sync pushes the whole document to the backend, replacing server state.
// On failure the local copy is kept as the user's working truth so the sync
// can be retried; on success the server's copy (which may carry server-side
// normalization) becomes the session document.
func (s *Session) Sync(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	t, err := s.gw.Replace(ctx, &s.doc)
	if err != nil {
		s.notify("Saving the timeline failed.")
		return fmt.Errorf("replace timeline %s: %w", s.doc.ID, err)
	}
	if t != nil {
		s.ApplyRemote(*t)
	}
	return nil
}

// DeleteSelected removes the selected item, request-then-apply: the backend
// delete must succeed before the local document changes, so a rejected
// delete (locked track) never diverges client from server.
func (s *Session) DeleteSelected(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if s.selected == "" {
		return ErrNoSelection
	}
	itemID := s.selected

	if err := s.gw.DeleteItem(ctx, itemID); err != nil {
		s.notify("Deleting the item failed.")
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}

	if doc, ok := timeline.RemoveItem(s.doc, itemID); ok {
		s.doc = doc
	}
	s.selected = ""
	return nil
}

// AddAssetAt places an existing asset on a track. The item is created
// server-side first and the confirmed item inserted locally, so asset items
// never exist in a provisional state.
func (s *Session) AddAssetAt(ctx context.Context, trackID string, placement gateway.AssetPlacement) (timeline.Item, error) {
	if s.closed {
		return timeline.Item{}, ErrClosed
	}
	confirmed, err := s.gw.CreateAsset(ctx, trackID, placement)
	if err != nil {
		s.notify("Adding the clip failed.")
		return timeline.Item{}, fmt.Errorf("create asset item on track %s: %w", trackID, err)
	}
	if doc, ok := timeline.AddItem(s.doc, trackID, confirmed); ok {
		s.doc = doc
	}
	return confirmed, nil
}
