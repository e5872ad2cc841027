package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"novus-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeOpener struct {
	files map[primitive.ObjectID]string
	err   error
}

func (f *fakeOpener) Open(_ context.Context, id primitive.ObjectID) (io.ReadCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	body, ok := f.files[id]
	if !ok {
		return nil, "", storage.ErrFileNotFound
	}
	return io.NopCloser(strings.NewReader(body)), "image/png", nil
}

func serve(opener Opener, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewMediaHandler(opener))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetMedia(t *testing.T) {
	id := primitive.NewObjectID()
	opener := &fakeOpener{files: map[primitive.ObjectID]string{id: "png-bytes"}}

	w := serve(opener, "/api/v1/media/"+id.Hex())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())

	w = serve(opener, "/api/v1/media/"+primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(opener, "/api/v1/media/bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(&fakeOpener{err: fmt.Errorf("connection reset")}, "/api/v1/media/"+id.Hex())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
