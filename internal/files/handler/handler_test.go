package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/GustavEkberg/init/internal/files/models"
	"github.com/GustavEkberg/init/internal/files/service"
	"github.com/GustavEkberg/init/internal/files/storage"
	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/testutil"
)

const validToken = "valid-token"

type staticAuthenticator struct {
	identity middleware.Identity
}

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (middleware.Identity, error) {
	if token != validToken {
		return middleware.Identity{}, dErrors.Unauthenticated("invalid token")
	}
	return a.identity, nil
}

// fakeStorage is an in-memory ObjectStorage.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStorage) Put(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) List(_ context.Context, prefix string) ([]storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Object
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.Object{Key: key, Size: int64(len(data)), LastModified: time.Now()})
		}
	}
	return out, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.com/" + key + "?signed", nil
}

type FilesHandlerSuite struct {
	suite.Suite
	user    uuid.UUID
	storage *fakeStorage
	router  chi.Router
}

func TestFilesHandlerSuite(t *testing.T) {
	suite.Run(t, new(FilesHandlerSuite))
}

func (s *FilesHandlerSuite) SetupTest() {
	s.user = uuid.New()
	s.storage = &fakeStorage{objects: make(map[string][]byte)}

	svc, err := service.New(s.storage, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.Require().NoError(err)

	authn := staticAuthenticator{identity: middleware.Identity{
		UserID:    s.user,
		SessionID: uuid.New(),
	}}

	s.router = chi.NewRouter()
	New(svc, authn, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *FilesHandlerSuite) multipartRequest(filename, contentType string, data []byte) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	fw, err := writer.CreatePart(h)
	s.Require().NoError(err)
	_, err = fw.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+validToken)
	return req
}

func (s *FilesHandlerSuite) upload(filename, contentType string) *models.File {
	rr := testutil.DoRequest(s.router, s.multipartRequest(filename, contentType, []byte("data")))
	s.Require().Equal(http.StatusCreated, rr.Code)
	return testutil.UnmarshalResponse[models.File](s.T(), rr)
}

func (s *FilesHandlerSuite) TestUpload() {
	s.Run("valid image upload", func() {
		file := s.upload("avatar.png", "image/png")
		s.True(strings.HasPrefix(file.Key, s.user.String()+"/"))
		s.NotEmpty(file.URL)
	})

	s.Run("disallowed type is a 400", func() {
		rr := testutil.DoRequest(s.router, s.multipartRequest("doc.pdf", "application/pdf", []byte("x")))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("missing file part is a 400", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/api/files")
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("without a token is a 401", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/api/files")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *FilesHandlerSuite) TestListAndPresign() {
	file := s.upload("avatar.png", "image/png")

	s.Run("list returns own files with URLs", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/files")
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		files := testutil.UnmarshalResponse[[]models.File](s.T(), rr)
		s.Require().Len(*files, 1)
		s.NotEmpty((*files)[0].URL)
	})

	s.Run("presign an owned key", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/files/"+file.Key)
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Contains((*body)["url"], file.Key)
	})

	s.Run("foreign key is a 404", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/files/"+uuid.NewString()+"/x.png")
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *FilesHandlerSuite) TestDelete() {
	file := s.upload("avatar.png", "image/png")

	req := testutil.NewRequest(s.T(), http.MethodDelete, "/api/files/"+file.Key)
	req.Header.Set("Authorization", "Bearer "+validToken)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	s.Empty(s.storage.objects)
}
