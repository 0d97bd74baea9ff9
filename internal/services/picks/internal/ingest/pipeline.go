package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/dustin/go-humanize"
)

// FileError is the per-file failure surfaced to the composer's error list.
type FileError struct {
	File string
	Msg  string
	Err  error
}

func (e *FileError) Error() string {
	return e.Msg
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type Pipeline struct {
	store    ObjectStore
	geocoder Geocoder
	now      func() time.Time
	logger   *slog.Logger
}

type PipelineOption func(*Pipeline)

func WithGeocoder(g Geocoder) PipelineOption {
	return func(p *Pipeline) {
		p.geocoder = g
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func NewPipeline(store ObjectStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest compresses, uploads and describes one validated file. Errors are
// *FileError values carrying the message shown to the user.
func (p *Pipeline) Ingest(ctx context.Context, userID string, f File) (model.LinkPreview, error) {
	c, err := Compress(f.Data, f.ContentType)
	if err != nil {
		return model.LinkPreview{}, &FileError{File: f.Name, Msg: fmt.Sprintf("Failed to compress %s", f.Name), Err: err}
	}

	meta := ExtractMetadata(f.Data)

	path := ObjectPath(userID, p.now())
	obj, err := p.store.Put(ctx, userID, path, c.ContentType, c.Data)
	if err != nil {
		return model.LinkPreview{}, &FileError{File: f.Name, Msg: fmt.Sprintf("Failed to upload %s", f.Name), Err: err}
	}

	return model.LinkPreview{
		URL:         obj.URL,
		State:       model.PreviewResolved,
		Title:       f.Name,
		Description: p.describe(ctx, f, c, meta),
		Image:       obj.URL,
		IsImage:     true,
		ExifData:    meta,
		Provider:    model.ProviderImage,
		StoragePath: obj.Path,
	}, nil
}

// Discard removes an uploaded object. Failures are logged only.
func (p *Pipeline) Discard(ctx context.Context, userID string, lp model.LinkPreview) {
	if !lp.IsImage || lp.StoragePath == "" {
		return
	}
	if err := p.store.Delete(ctx, userID, lp.StoragePath); err != nil {
		p.logger.Warn("failed to delete image object", "path", lp.StoragePath, "error", err)
	}
}

func (p *Pipeline) describe(ctx context.Context, f File, c Compressed, meta *model.ExifData) string {
	parts := []string{fmt.Sprintf("Image • %s → %s", humanize.Bytes(uint64(f.Size())), humanize.Bytes(uint64(len(c.Data))))}
	if meta == nil {
		return parts[0]
	}

	if meta.DateTaken != nil {
		parts = append(parts, meta.DateTaken.Format("Jan 2, 2006"))
	}
	if meta.Location != nil {
		parts = append(parts, p.place(ctx, meta.Location.Latitude, meta.Location.Longitude))
	}
	return strings.Join(parts, " • ")
}

func (p *Pipeline) place(ctx context.Context, lat, lon float64) string {
	if p.geocoder == nil {
		return Coordinates(lat, lon)
	}

	name, err := p.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		p.logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return Coordinates(lat, lon)
	}
	return name
}
