package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"photomart/internal/service"
)

type fakeAuthorizer struct {
	url string
	err error
}

func (f *fakeAuthorizer) Authorize(context.Context, string, string, string) (string, error) {
	return f.url, f.err
}

func downloadFixture(gate DownloadAuthorizer) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/download-photo/{photoID}/{orderID}/{customerEmail}", DownloadPhotoHandler(gate))
	return r
}

func downloadPath(photoID, orderID string) string {
	return "/download-photo/" + photoID + "/" + orderID + "/a@b.com"
}

func TestDownload_RedirectsToSignedURL(t *testing.T) {
	r := downloadFixture(&fakeAuthorizer{url: "https://signed.example/photo.jpg"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, downloadPath(uuid.NewString(), uuid.NewString()), nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://signed.example/photo.jpg", rec.Header().Get("Location"))
}

func TestDownload_RefusalStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unpaid or foreign order", service.ErrNotAuthorized, http.StatusForbidden},
		{"photo not in order", service.ErrNotInOrder, http.StatusForbidden},
		{"limit reached", service.ErrLimitReached, http.StatusForbidden},
		{"original missing", service.ErrPhotoNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := downloadFixture(&fakeAuthorizer{err: tt.err})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, downloadPath(uuid.NewString(), uuid.NewString()), nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestDownload_RejectsMalformedIDs(t *testing.T) {
	r := downloadFixture(&fakeAuthorizer{url: "https://signed.example/photo.jpg"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, downloadPath("not-a-uuid", uuid.NewString()), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, downloadPath(uuid.NewString(), "not-a-uuid"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
