package composer

import (
	"errors"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/serr"
)

var (
	ErrEmptyPick         = errors.New("empty pick")
	ErrQuotaReached      = errors.New("weekly quota reached")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrImagesNotAccepted = errors.New("category does not accept images")
	ErrPreviewNotFound   = errors.New("preview not found")
	ErrNotAnImage        = errors.New("preview is not an image")
	ErrInvalidRating     = errors.New("rating out of range")
)

func emptyPick() error {
	return serr.NewServiceError(ErrEmptyPick, http.StatusBadRequest, "write something or attach a preview before submitting")
}

func quotaReached(limit int) error {
	return serr.NewServiceError(ErrQuotaReached, http.StatusTooManyRequests,
		"You've reached your weekly limit of %d picks. You can submit more picks next week!", limit)
}

func unknownCategory(id string) error {
	return serr.NewServiceError(ErrUnknownCategory, http.StatusBadRequest, "unknown category %q", id).With("category", id)
}

func imagesNotAccepted(id string) error {
	return serr.NewServiceError(ErrImagesNotAccepted, http.StatusBadRequest, "images can't be attached to %s picks", id).With("category", id)
}

func previewNotFound(url string) error {
	return serr.NewServiceError(ErrPreviewNotFound, http.StatusNotFound, "preview not found").With("url", url)
}

func notAnImage(url string) error {
	return serr.NewServiceError(ErrNotAnImage, http.StatusBadRequest, "only image previews have a title and comment").With("url", url)
}

func invalidRating(r int) error {
	return serr.NewServiceError(ErrInvalidRating, http.StatusBadRequest, "rating must be between 1 and 5, got %d", r)
}
