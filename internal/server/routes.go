package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/timeline/project/{projectId}", getTimelineHandler(cfg))
		r.Put("/timeline/{timelineId}", replaceTimelineHandler(cfg))
		r.Get("/timeline/{timelineId}/edl", exportEDLHandler(cfg))
		r.Post("/track/{trackId}/text", createTextHandler(cfg))
		r.Post("/track/{trackId}/asset", createAssetHandler(cfg))
		r.Delete("/track/items/{itemId}", deleteItemHandler(cfg))
		r.Get("/media/{assetId}", mediaHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, _ := cfg.Repository.CountTimelines(r.Context())

		resp := StatusResponse{
			State:          "idle",
			TimelinesCount: count,
		}

		if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
				resp.MemoryRSSBytes = mem.RSS
			}
			if cpu, err := proc.CPUPercent(); err == nil {
				resp.CPUPercent = cpu
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectId")
		if projectID == "" {
			WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
			return
		}

		t, err := cfg.Repository.GetTimelineByProject(r.Context(), projectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load timeline", "INTERNAL_ERROR")
			return
		}
		if t == nil {
			WriteError(w, http.StatusNotFound, "timeline not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, t)
	}
}

func replaceTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timelineID := chi.URLParam(r, "timelineId")

		var t timeline.Timeline
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		t.ID = timelineID

		if err := t.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TIMELINE")
			return
		}

		err := cfg.Repository.ReplaceTimeline(r.Context(), &t)
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, http.StatusNotFound, "timeline not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to replace timeline", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ReplaceResponse{Success: true, Timeline: &t})
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timelineID := chi.URLParam(r, "timelineId")

		t, err := cfg.Repository.GetTimeline(r.Context(), timelineID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load timeline", "INTERNAL_ERROR")
			return
		}
		if t == nil {
			WriteError(w, http.StatusNotFound, "timeline not found", "NOT_FOUND")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(export.Generate(*t, t.ProjectID)))
	}
}

func createTextHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := chi.URLParam(r, "trackId")

		var item timeline.Item
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if item.Start >= item.End {
			WriteError(w, http.StatusBadRequest, "startTime must precede endTime", "BAD_REQUEST")
			return
		}

		track, err := cfg.Repository.GetTrack(r.Context(), trackID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load track", "INTERNAL_ERROR")
			return
		}
		if track == nil {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		if track.Kind != timeline.KindText {
			WriteError(w, http.StatusBadRequest, "track does not hold text items", "BAD_REQUEST")
			return
		}
		if track.Locked {
			WriteError(w, http.StatusConflict, "track is locked", "TRACK_LOCKED")
			return
		}

		// the server assigns the canonical id, replacing any provisional one
		item.ID = timeline.NewID()
		item.TrackID = trackID
		item.Kind = timeline.KindText
		item.Asset = nil

		if err := cfg.Repository.CreateItem(r.Context(), &item); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to create item", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, CreateItemResponse{
			Success: true,
			Data:    CreateItemData{TimelineItem: item},
		})
	}
}

func createAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := chi.URLParam(r, "trackId")

		var req CreateAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.AssetID == "" {
			WriteError(w, http.StatusBadRequest, "assetId is required", "BAD_REQUEST")
			return
		}

		t, err := cfg.Repository.GetTrackTimeline(r.Context(), trackID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load track", "INTERNAL_ERROR")
			return
		}
		if t == nil {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		var track *timeline.Track
		for i := range t.Tracks {
			if t.Tracks[i].ID == trackID {
				track = &t.Tracks[i]
			}
		}
		if track == nil {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		if track.Kind != timeline.KindVideo && track.Kind != timeline.KindAudio {
			WriteError(w, http.StatusBadRequest, "track does not hold media items", "BAD_REQUEST")
			return
		}
		if track.Locked {
			WriteError(w, http.StatusConflict, "track is locked", "TRACK_LOCKED")
			return
		}

		asset, err := cfg.Repository.GetAsset(r.Context(), req.AssetID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load asset", "INTERNAL_ERROR")
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		item := placeAsset(t, track, asset.AssetRef, req)
		if item.Start >= item.End {
			WriteError(w, http.StatusBadRequest, "no room left on the timeline", "BAD_REQUEST")
			return
		}

		if err := cfg.Repository.CreateItem(r.Context(), &item); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to create item", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, CreateItemResponse{
			Success: true,
			Data:    CreateItemData{TimelineItem: item},
		})
	}
}

// placeAsset appends the asset after the track's last item, clamped to the
// timeline's duration. An empty source window defaults to the whole asset.
func placeAsset(t *timeline.Timeline, track *timeline.Track, asset timeline.AssetRef, req CreateAssetRequest) timeline.Item {
	sourceStart, sourceEnd := req.SourceStart, req.SourceEnd
	if sourceEnd <= sourceStart {
		sourceStart, sourceEnd = 0, asset.Duration
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}

	start := 0.0
	for _, it := range track.Items {
		if it.End > start {
			start = it.End
		}
	}
	end := start + (sourceEnd-sourceStart)/speed
	if end > t.Duration {
		end = t.Duration
	}

	item := timeline.Item{
		ID:          timeline.NewID(),
		TrackID:     track.ID,
		Kind:        track.Kind,
		Start:       start,
		End:         end,
		Asset:       &asset,
		SourceStart: sourceStart,
		SourceEnd:   sourceEnd,
		Speed:       speed,
		Volume:      req.Volume,
	}
	if track.Kind == timeline.KindVideo {
		item.Opacity = req.Opacity
		item.Transform = &timeline.Transform{
			X:        req.X,
			Y:        req.Y,
			ScaleX:   req.ScaleX,
			ScaleY:   req.ScaleY,
			Rotation: req.Rotation,
		}
	} else {
		item.FadeIn = req.FadeIn
		item.FadeOut = req.FadeOut
	}
	return item
}

func deleteItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemId")

		track, err := cfg.Repository.GetItemTrack(r.Context(), itemID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load item", "INTERNAL_ERROR")
			return
		}
		if track == nil {
			WriteError(w, http.StatusNotFound, "item not found", "NOT_FOUND")
			return
		}
		if track.Locked {
			WriteError(w, http.StatusConflict, "track is locked", "TRACK_LOCKED")
			return
		}

		if err := cfg.Repository.DeleteItem(r.Context(), itemID); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to delete item", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := chi.URLParam(r, "assetId")

		asset, err := cfg.Repository.GetAsset(r.Context(), assetID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load asset", "INTERNAL_ERROR")
			return
		}
		if asset == nil || asset.Filename == "" {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		path := filepath.Join(cfg.MediaDir, filepath.Base(asset.Filename))
		if err := cfg.Media.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("media serve error", "error", err, "asset_id", assetID)
		}
	}
}
