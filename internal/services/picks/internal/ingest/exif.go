package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/rwcarlsen/goexif/exif"
)

// ExtractMetadata reads capture details from the original bytes. Missing
// tags are skipped; it returns nil when nothing useful is present.
func ExtractMetadata(data []byte) *model.ExifData {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var out model.ExifData
	found := false

	if t, err := x.DateTime(); err == nil && !t.IsZero() {
		out.DateTaken = &t
		found = true
	}

	if lat, long, err := x.LatLong(); err == nil && (lat != 0 || long != 0) {
		out.Location = &model.GeoPoint{Latitude: lat, Longitude: long}
		found = true
	}

	cam := model.CameraInfo{
		Make:  stringTag(x, exif.Make),
		Model: stringTag(x, exif.Model),
	}
	if cam.Make != "" || cam.Model != "" {
		out.Camera = &cam
		found = true
	}

	settings := model.CameraSettings{
		ISO:          intTag(x, exif.ISOSpeedRatings),
		FNumber:      ratTag(x, exif.FNumber),
		ExposureTime: exposure(x),
		FocalLength:  ratTag(x, exif.FocalLength),
	}
	if settings != (model.CameraSettings{}) {
		out.Settings = &settings
		found = true
	}

	if !found {
		return nil
	}
	return &out
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func intTag(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func ratTag(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// exposure renders the shutter speed the way cameras print it: "1/250" or
// "2s".
func exposure(x *exif.Exif) string {
	tag, err := x.Get(exif.ExposureTime)
	if err != nil {
		return ""
	}
	num, den, err := tag.Rat2(0)
	if err != nil {
		return ""
	}
	return formatExposure(num, den)
}

func formatExposure(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	if num >= den {
		return fmt.Sprintf("%gs", float64(num)/float64(den))
	}
	if den%num == 0 {
		return fmt.Sprintf("1/%d", den/num)
	}
	return fmt.Sprintf("%d/%d", num, den)
}
