package server

import (
	"github.com/framecut/framecut/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State          string  `json:"state"`
	TimelinesCount int     `json:"timelines_count"`
	MemoryRSSBytes uint64  `json:"memory_rss_bytes,omitempty"`
	CPUPercent     float64 `json:"cpu_percent,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ReplaceResponse struct {
	Success  bool               `json:"success"`
	Timeline *timeline.Timeline `json:"timeline,omitempty"`
}

type CreateItemResponse struct {
	Success bool           `json:"success"`
	Data    CreateItemData `json:"data"`
}

type CreateItemData struct {
	TimelineItem timeline.Item `json:"timelineItem"`
}

// CreateAssetRequest places an existing asset onto a track.
type CreateAssetRequest struct {
	AssetID     string  `json:"assetId"`
	SourceStart float64 `json:"sourceStartTime"`
	SourceEnd   float64 `json:"sourceEndTime"`
	Speed       float64 `json:"speed"`
	Volume      float64 `json:"volume"`
	Opacity     float64 `json:"opacity"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Rotation    float64 `json:"rotation"`
	FadeIn      float64 `json:"fadeIn"`
	FadeOut     float64 `json:"fadeOut"`
}
