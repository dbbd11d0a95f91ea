// Package agents contains the six pipeline agents: local analysis
// (metadata, quality, duplicates, filtering) and the vision model specs
// (aesthetic, captions) executed through the agent runner.
package agents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/imaging"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// MetadataAgent extracts file and EXIF metadata from each photo.
type MetadataAgent struct {
	workers int
}

// NewMetadataAgent creates the metadata agent with the given worker count.
func NewMetadataAgent(workers int) *MetadataAgent {
	if workers <= 0 {
		workers = 4
	}
	return &MetadataAgent{workers: workers}
}

// Run extracts metadata for all items. Unreadable EXIF blocks flag the
// item rather than failing it; only undecodable image files fail.
func (a *MetadataAgent) Run(ctx context.Context, items []agent.Item) (map[string]domain.Metadata, domain.ValidationSummary) {
	results := make([]domain.Metadata, len(items))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range items {
		g.Go(func() error {
			results[i] = a.extract(items[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]domain.Metadata, len(items))
	var issues []string
	for _, m := range results {
		out[m.ImageID] = m
		if len(m.Flags) > 0 {
			issues = append(issues, fmt.Sprintf("%s: %s", m.ImageID, strings.Join(m.Flags, ", ")))
		}
	}

	summary := fmt.Sprintf("Extracted metadata from %d images", len(items))
	return out, domain.NewValidationSummary("metadata", "ingestion", summary, issues, len(items))
}

func (a *MetadataAgent) extract(item agent.Item) domain.Metadata {
	m := domain.Metadata{
		ImageID:       item.Photo.ID,
		FileName:      filepath.Base(item.Photo.Path),
		FileSizeBytes: int64(len(item.Raw)),
	}

	width, height, format, err := imaging.DecodeConfig(item.Raw)
	if err != nil {
		m.Failed = true
		m.Flags = append(m.Flags, "processing_error")
		return m
	}
	m.Width = width
	m.Height = height
	m.Format = format

	ex, err := imaging.ParseEXIF(item.Raw)
	if err != nil {
		m.Flags = append(m.Flags, "missing_exif", "missing_datetime", "missing_gps")
		return m
	}

	if ex.HasCaptureTime {
		m.CaptureDatetime = ex.CaptureTime.Format(time.RFC3339)
	} else {
		m.Flags = append(m.Flags, "missing_datetime")
	}

	if ex.HasGPS {
		m.GPS = &domain.GPSInfo{
			Latitude:  ex.Latitude,
			Longitude: ex.Longitude,
			Altitude:  ex.Altitude,
		}
	} else {
		m.Flags = append(m.Flags, "missing_gps")
	}

	m.CameraSettings = domain.CameraSettings{
		CameraMake:  ex.CameraMake,
		CameraModel: ex.CameraModel,
		ISO:         ex.ISO,
	}
	if ex.FNumber > 0 {
		m.CameraSettings.Aperture = fmt.Sprintf("f/%.1f", ex.FNumber)
	}
	if ex.ExposureTime != "" {
		m.CameraSettings.ShutterSpeed = ex.ExposureTime + "s"
	}
	if ex.FocalLength > 0 {
		m.CameraSettings.FocalLength = fmt.Sprintf("%.0fmm", ex.FocalLength)
	}

	return m
}
