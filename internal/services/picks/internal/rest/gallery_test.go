package rest

import (
	"context"
	"net/http"
	"testing"

	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/pkg/testutil"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/gallery"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWeekAndCategories(t *testing.T) {
	api := newTestAPI()

	rec := testutil.SendRequest(t, api, http.MethodGet, "/week", nil, testutil.AsUser("u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, thisWeek, testutil.ParseResponse[service.WeekInfo](t, rec).Label)

	rec = testutil.SendRequest(t, api, http.MethodGet, "/categories", nil, testutil.AsUser("u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	cats := testutil.ParseResponse[[]category.Category](t, rec)
	require.Len(t, cats, 5)
	assert.Equal(t, "media", cats[0].ID)
}

func TestGetGallery(t *testing.T) {
	api := newTestAPI()
	var got service.GalleryRequest
	api.picks.CurrentGalleryFunc = func(ctx context.Context, r service.GalleryRequest) (gallery.View, error) {
		got = r
		return gallery.View{Total: 3, Picks: []model.Pick{{ID: "p1"}}}, nil
	}

	rec := testutil.SendRequest(t, api, http.MethodGet, "/gallery?category=media&user=u2&expanded=true", nil, testutil.AsUser("u1"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Category)
	assert.Equal(t, "media", *got.Category)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u2", *got.UserID)
	assert.True(t, got.Expanded)
	assert.Equal(t, gallery.ByCount, got.Order)
	assert.Equal(t, 3, testutil.ParseResponse[gallery.View](t, rec).Total)
}

func TestGetGallery_NoFilters(t *testing.T) {
	api := newTestAPI()
	var got service.GalleryRequest
	api.picks.CurrentGalleryFunc = func(ctx context.Context, r service.GalleryRequest) (gallery.View, error) {
		got = r
		return gallery.View{}, nil
	}

	rec := testutil.SendRequest(t, api, http.MethodGet, "/gallery?order=name", nil, testutil.AsUser("u1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.UserID)
	assert.Equal(t, gallery.ByName, got.Order)
}

func TestGetGallery_BadCategory(t *testing.T) {
	api := newTestAPI()
	api.picks.CurrentGalleryFunc = func(ctx context.Context, r service.GalleryRequest) (gallery.View, error) {
		return gallery.View{}, serr.NewServiceError(nil, http.StatusBadRequest, "unknown category")
	}

	rec := testutil.SendRequest(t, api, http.MethodGet, "/gallery?category=nope", nil, testutil.AsUser("u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWeeks(t *testing.T) {
	api := newTestAPI()
	api.picks.PastWeeksFunc = func(ctx context.Context) ([]gallery.WeekGroup, error) {
		return []gallery.WeekGroup{{Week: "May 25 - May 31, 2025", UserCount: 2}}, nil
	}

	rec := testutil.SendRequest(t, api, http.MethodGet, "/gallery/weeks", nil, testutil.AsUser("u1"))

	require.Equal(t, http.StatusOK, rec.Code)
	groups := testutil.ParseResponse[[]gallery.WeekGroup](t, rec)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].UserCount)
}

func TestMyPicksAndDelete(t *testing.T) {
	api := newTestAPI()
	api.picks.UserPicksFunc = func(ctx context.Context, userID string) ([]model.Pick, error) {
		return []model.Pick{{ID: "p1", UserID: userID}}, nil
	}
	var deleted string
	api.picks.DeletePickFunc = func(ctx context.Context, userID, id string) error {
		deleted = userID + ":" + id
		return nil
	}

	rec := testutil.SendRequest(t, api, http.MethodGet, "/picks/mine", nil, testutil.AsUser("u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", testutil.ParseResponse[[]model.Pick](t, rec)[0].UserID)

	rec = testutil.SendRequest(t, api, http.MethodDelete, "/picks/p1", nil, testutil.AsUser("u1"))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1:p1", deleted)
}

func TestGetPick(t *testing.T) {
	api := newTestAPI()
	api.picks.PickFunc = func(ctx context.Context, id string) (model.Pick, error) {
		if id != "p1" {
			return model.Pick{}, serr.NewServiceError(nil, http.StatusNotFound, "pick not found")
		}
		return model.Pick{ID: id, UserID: "u2", Content: "Hades"}, nil
	}

	rec := testutil.SendRequest(t, api, http.MethodGet, "/picks/p1", nil, testutil.AsUser("u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hades", testutil.ParseResponse[model.Pick](t, rec).Content)

	rec = testutil.SendRequest(t, api, http.MethodGet, "/picks/p2", nil, testutil.AsUser("u1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertProfile_EmailFromToken(t *testing.T) {
	api := newTestAPI()
	var got service.UpsertProfileRequest
	api.picks.UpsertProfileFunc = func(ctx context.Context, r service.UpsertProfileRequest) (model.Profile, error) {
		got = r
		return model.Profile{ID: r.UserID, FirstName: r.FirstName, Email: r.Email}, nil
	}

	withEmail := func(r *http.Request) *http.Request {
		return r.WithContext(middleware.WithEmail(r.Context(), "ana@example.com"))
	}
	rec := testutil.SendRequest(t, api, http.MethodPut, "/profile", map[string]string{"firstName": "Ana"},
		testutil.AsUser("u1"), withEmail)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.UpsertProfileRequest{UserID: "u1", FirstName: "Ana", Email: "ana@example.com"}, got)
}
