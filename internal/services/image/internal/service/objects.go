package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alxvallejo/promptd/internal/pkg/serr"
	_ "golang.org/x/image/webp"
)

// Object is a stored image and the public URL it is served from.
type Object struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ObjectStore keeps images on local disk under "picks/{user}/" prefixes.
// Only the owning user may write or remove objects under their prefix.
type ObjectStore struct {
	serveRoot *url.URL
	root      string
	maxWidth  int
	maxHeight int
}

type ObjectStoreConfig struct {
	ServeRoot *url.URL
	Root      string
	MaxWidth  int
	MaxHeight int
}

func NewObjectStore(cfg ObjectStoreConfig) *ObjectStore {
	return &ObjectStore{
		serveRoot: cfg.ServeRoot,
		root:      cfg.Root,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
	}
}

// Put validates the image and writes it to objPath, replacing any object
// already stored there.
func (s *ObjectStore) Put(userID, objPath string, img io.Reader) (Object, error) {
	clean, err := s.authorize(userID, objPath)
	if err != nil {
		return Object{}, err
	}

	var buff bytes.Buffer
	tee := io.TeeReader(img, &buff)

	cfg, _, err := image.DecodeConfig(tee)
	if err != nil {
		if tooLarge(err) {
			return Object{}, serr.NewServiceError(err, http.StatusRequestEntityTooLarge, "image size exceeded")
		}
		return Object{}, serr.NewServiceError(err, http.StatusUnsupportedMediaType, "not a supported image")
	}
	if cfg.Width > s.maxWidth || cfg.Height > s.maxHeight {
		return Object{}, serr.NewServiceError(nil, http.StatusRequestEntityTooLarge, "image dimensions exceeded").
			With("width", fmt.Sprint(cfg.Width)).
			With("height", fmt.Sprint(cfg.Height))
	}

	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	_, err = io.Copy(f, io.MultiReader(&buff, img))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if tooLarge(err) {
			return Object{}, serr.NewServiceError(err, http.StatusRequestEntityTooLarge, "image size exceeded")
		}
		return Object{}, fmt.Errorf("save image file: %w", err)
	}

	if err := os.Rename(f.Name(), dst); err != nil {
		return Object{}, fmt.Errorf("move image file: %w", err)
	}

	return Object{Path: clean, URL: s.serveRoot.JoinPath(clean).String()}, nil
}

func (s *ObjectStore) Delete(userID, objPath string) error {
	clean, err := s.authorize(userID, objPath)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return serr.NewServiceError(err, http.StatusNotFound, "object not found").With("path", clean)
	}
	if err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// authorize returns the cleaned object path when it lies under the caller's
// prefix.
func (s *ObjectStore) authorize(userID, objPath string) (string, error) {
	if userID == "" {
		return "", serr.NewServiceError(nil, http.StatusUnauthorized, "unauthorized")
	}

	for _, seg := range strings.Split(objPath, "/") {
		if seg == ".." {
			return "", serr.NewServiceError(nil, http.StatusBadRequest, "invalid object path").With("path", objPath)
		}
	}

	clean := path.Clean(strings.TrimPrefix(objPath, "/"))
	if !strings.HasPrefix(clean, "picks/") || path.Base(clean) == "picks" {
		return "", serr.NewServiceError(nil, http.StatusBadRequest, "invalid object path").With("path", objPath)
	}

	prefix := "picks/" + userID + "/"
	if !strings.HasPrefix(clean, prefix) {
		return "", serr.NewServiceError(nil, http.StatusForbidden, "object belongs to another user").With("path", clean)
	}

	return clean, nil
}

func tooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
