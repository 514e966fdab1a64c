// Package store persists timeline documents to SQLite for the timeline
// service. Replace is whole-document and transactional: the stored
// composition is always a consistent snapshot, never a partial merge.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/framecut/framecut/internal/timeline"
)

// Asset is an asset record as the service stores it. The engine only ever
// sees the embedded AssetRef.
type Asset struct {
	timeline.AssetRef
	Filename  string
	CreatedAt time.Time
}

type Repository interface {
	CreateTimeline(ctx context.Context, t *timeline.Timeline) error
	GetTimeline(ctx context.Context, id string) (*timeline.Timeline, error)
	GetTimelineByProject(ctx context.Context, projectID string) (*timeline.Timeline, error)
	ReplaceTimeline(ctx context.Context, t *timeline.Timeline) error

	GetTrackTimeline(ctx context.Context, trackID string) (*timeline.Timeline, error)

	CreateItem(ctx context.Context, item *timeline.Item) error
	GetItem(ctx context.Context, id string) (*timeline.Item, error)
	GetItemTrack(ctx context.Context, itemID string) (*timeline.Track, error)
	GetTrack(ctx context.Context, id string) (*timeline.Track, error)
	DeleteItem(ctx context.Context, id string) error

	CreateAsset(ctx context.Context, a *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)

	CountTimelines(ctx context.Context) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateTimeline(ctx context.Context, t *timeline.Timeline) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO timelines (id, project_id, width, height, duration, fps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Resolution.Width, t.Resolution.Height, t.Duration, t.FPS, now, now)
	if err != nil {
		return err
	}

	if err := insertTracks(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceTimeline swaps the stored composition for the given one in a
// single transaction. Running it twice with the same document stores the
// same result.
func (r *SQLiteRepository) ReplaceTimeline(ctx context.Context, t *timeline.Timeline) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx, `
		UPDATE timelines SET width = ?, height = ?, duration = ?, fps = ?, updated_at = ?
		WHERE id = ?
	`, t.Resolution.Width, t.Resolution.Height, t.Duration, t.FPS, now, t.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	// Tracks cascade to items.
	if _, err := tx.ExecContext(ctx, "DELETE FROM tracks WHERE timeline_id = ?", t.ID); err != nil {
		return err
	}
	if err := insertTracks(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTracks(ctx context.Context, tx *sql.Tx, t *timeline.Timeline) error {
	for _, tr := range t.Tracks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracks (id, timeline_id, kind, track_order, locked, muted)
			VALUES (?, ?, ?, ?, ?, ?)
		`, tr.ID, t.ID, string(tr.Kind), tr.Order, boolToInt(tr.Locked), boolToInt(tr.Muted))
		if err != nil {
			return fmt.Errorf("insert track %s: %w", tr.ID, err)
		}
		for _, it := range tr.Items {
			if err := insertItem(ctx, tx, tr.ID, it); err != nil {
				return fmt.Errorf("insert item %s: %w", it.ID, err)
			}
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, e execer, trackID string, it timeline.Item) error {
	var assetID sql.NullString
	if it.Asset != nil {
		assetID = sql.NullString{String: it.Asset.ID, Valid: true}
	}
	tf := it.Transform
	if tf == nil {
		tf = &timeline.Transform{ScaleX: 1, ScaleY: 1}
	}
	_, err := e.ExecContext(ctx, `
		INSERT INTO items (
			id, track_id, kind, start_time, end_time, asset_id,
			source_start, source_end, speed, volume, opacity, fade_in, fade_out,
			transform_x, transform_y, scale_x, scale_y, rotation,
			content, font_family, font_size, color, pos_x, pos_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, trackID, string(it.Kind), it.Start, it.End, assetID,
		it.SourceStart, it.SourceEnd, it.Speed, it.Volume, it.Opacity, it.FadeIn, it.FadeOut,
		tf.X, tf.Y, tf.ScaleX, tf.ScaleY, tf.Rotation,
		it.Content, it.FontFamily, it.FontSize, it.Color, it.X, it.Y)
	return err
}

func (r *SQLiteRepository) GetTimeline(ctx context.Context, id string) (*timeline.Timeline, error) {
	return r.getTimeline(ctx, "id", id)
}

func (r *SQLiteRepository) GetTimelineByProject(ctx context.Context, projectID string) (*timeline.Timeline, error) {
	return r.getTimeline(ctx, "project_id", projectID)
}

func (r *SQLiteRepository) getTimeline(ctx context.Context, column, value string) (*timeline.Timeline, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, width, height, duration, fps
		FROM timelines WHERE `+column+` = ?
	`, value)

	var t timeline.Timeline
	err := row.Scan(&t.ID, &t.ProjectID, &t.Resolution.Width, &t.Resolution.Height, &t.Duration, &t.FPS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tracks, err := r.loadTracks(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Tracks = tracks
	return &t, nil
}

func (r *SQLiteRepository) loadTracks(ctx context.Context, timelineID string) ([]timeline.Track, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, track_order, locked, muted
		FROM tracks WHERE timeline_id = ? ORDER BY track_order, id
	`, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []timeline.Track
	for rows.Next() {
		var tr timeline.Track
		var kind string
		var locked, muted int
		if err := rows.Scan(&tr.ID, &kind, &tr.Order, &locked, &muted); err != nil {
			return nil, err
		}
		tr.Kind = timeline.Kind(kind)
		tr.Locked = locked == 1
		tr.Muted = muted == 1
		tracks = append(tracks, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tracks {
		items, err := r.loadItems(ctx, tracks[i].ID)
		if err != nil {
			return nil, err
		}
		tracks[i].Items = items
	}
	return tracks, nil
}

const itemColumns = `
	i.id, i.track_id, i.kind, i.start_time, i.end_time,
	i.source_start, i.source_end, i.speed, i.volume, i.opacity, i.fade_in, i.fade_out,
	i.transform_x, i.transform_y, i.scale_x, i.scale_y, i.rotation,
	i.content, i.font_family, i.font_size, i.color, i.pos_x, i.pos_y,
	a.id, a.url, a.duration, a.width, a.height`

const itemJoin = ` FROM items i LEFT JOIN assets a ON a.id = i.asset_id `

func (r *SQLiteRepository) loadItems(ctx context.Context, trackID string) ([]timeline.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+itemColumns+itemJoin+"WHERE i.track_id = ? ORDER BY i.start_time", trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []timeline.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// keep a stable order regardless of start-time ties
	sort.SliceStable(items, func(a, b int) bool { return items[a].Start < items[b].Start })
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*timeline.Item, error) {
	var it timeline.Item
	var kind string
	var tf timeline.Transform
	var assetID, assetURL sql.NullString
	var assetDuration sql.NullFloat64
	var assetWidth, assetHeight sql.NullInt64

	err := row.Scan(&it.ID, &it.TrackID, &kind, &it.Start, &it.End,
		&it.SourceStart, &it.SourceEnd, &it.Speed, &it.Volume, &it.Opacity, &it.FadeIn, &it.FadeOut,
		&tf.X, &tf.Y, &tf.ScaleX, &tf.ScaleY, &tf.Rotation,
		&it.Content, &it.FontFamily, &it.FontSize, &it.Color, &it.X, &it.Y,
		&assetID, &assetURL, &assetDuration, &assetWidth, &assetHeight)
	if err != nil {
		return nil, err
	}

	it.Kind = timeline.Kind(kind)
	if it.Kind == timeline.KindVideo {
		it.Transform = &tf
	}
	if assetID.Valid {
		it.Asset = &timeline.AssetRef{
			ID:       assetID.String,
			URL:      assetURL.String,
			Duration: assetDuration.Float64,
			Width:    int(assetWidth.Int64),
			Height:   int(assetHeight.Int64),
		}
	}
	return &it, nil
}

// GetTrackTimeline returns the full timeline owning a track, or nil when
// the track is unknown.
func (r *SQLiteRepository) GetTrackTimeline(ctx context.Context, trackID string) (*timeline.Timeline, error) {
	var timelineID string
	err := r.db.QueryRowContext(ctx,
		"SELECT timeline_id FROM tracks WHERE id = ?", trackID).Scan(&timelineID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetTimeline(ctx, timelineID)
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, item *timeline.Item) error {
	return insertItem(ctx, r.db, item.TrackID, *item)
}

func (r *SQLiteRepository) GetItem(ctx context.Context, id string) (*timeline.Item, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+itemColumns+itemJoin+"WHERE i.id = ?", id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// GetItemTrack returns the track owning an item, without its items loaded.
func (r *SQLiteRepository) GetItemTrack(ctx context.Context, itemID string) (*timeline.Track, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.kind, t.track_order, t.locked, t.muted
		FROM tracks t JOIN items i ON i.track_id = t.id
		WHERE i.id = ?
	`, itemID)
	return scanTrack(row)
}

func (r *SQLiteRepository) GetTrack(ctx context.Context, id string) (*timeline.Track, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, track_order, locked, muted FROM tracks WHERE id = ?
	`, id)
	return scanTrack(row)
}

func scanTrack(row *sql.Row) (*timeline.Track, error) {
	var tr timeline.Track
	var kind string
	var locked, muted int
	err := row.Scan(&tr.ID, &kind, &tr.Order, &locked, &muted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tr.Kind = timeline.Kind(kind)
	tr.Locked = locked == 1
	tr.Muted = muted == 1
	return &tr, nil
}

func (r *SQLiteRepository) DeleteItem(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateAsset(ctx context.Context, a *Asset) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (id, url, duration, width, height, filename, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.URL, a.Duration, a.Width, a.Height, a.Filename, created.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, url, duration, width, height, filename, created_at FROM assets WHERE id = ?
	`, id)

	var a Asset
	var createdAt string
	err := row.Scan(&a.ID, &a.URL, &a.Duration, &a.Width, &a.Height, &a.Filename, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func (r *SQLiteRepository) CountTimelines(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timelines").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
