package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Object is a stored image.
type Object struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ObjectStore keeps uploaded image bytes under per-user paths.
type ObjectStore interface {
	Put(ctx context.Context, userID, path, contentType string, data []byte) (Object, error)
	Delete(ctx context.Context, userID, path string) error
}

// ObjectPath builds "picks/{user}/{unix millis}-{random}.jpg".
func ObjectPath(userID string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("picks/%s/%d-%s.jpg", userID, at.UnixMilli(), suffix)
}

// RemoteStore talks to the image service. Each call carries a short-lived
// token for the acting user, signed with the shared auth secret.
type RemoteStore struct {
	endpoint string
	secret   []byte
	client   *http.Client
}

func NewRemoteStore(endpoint string, secret []byte) *RemoteStore {
	return &RemoteStore{
		endpoint: strings.TrimRight(endpoint, "/"),
		secret:   secret,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RemoteStore) Put(ctx context.Context, userID, path, contentType string, data []byte) (Object, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("path", path); err != nil {
		return Object{}, fmt.Errorf("write path field: %w", err)
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, path[strings.LastIndex(path, "/")+1:]))
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return Object{}, fmt.Errorf("create form file: %w", err)
	}

	if _, err = io.Copy(part, bytes.NewReader(data)); err != nil {
		return Object{}, fmt.Errorf("copy image data: %w", err)
	}

	if err = w.Close(); err != nil {
		return Object{}, fmt.Errorf("close writer: %w", err)
	}

	req, err := s.request(ctx, http.MethodPost, s.endpoint, userID, &body)
	if err != nil {
		return Object{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("post image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Object{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var obj Object
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return Object{}, fmt.Errorf("decode response: %w", err)
	}

	if _, err := url.Parse(obj.URL); err != nil || obj.URL == "" {
		return Object{}, fmt.Errorf("invalid image url %q", obj.URL)
	}

	return obj, nil
}

func (s *RemoteStore) Delete(ctx context.Context, userID, path string) error {
	req, err := s.request(ctx, http.MethodDelete, s.endpoint+"/"+path, userID, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

func (s *RemoteStore) request(ctx context.Context, method, target, userID string, body io.Reader) (*http.Request, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}
