package endpoints

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nixie-Tech-LLC/signage/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/refresher"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
	"github.com/Nixie-Tech-LLC/signage/internal/weather"
)

const testSecret = "endpoint-secret"

type harness struct {
	t        *testing.T
	router   *gin.Engine
	store    *dbtest.MemoryStore
	devices  *registration.Service
	upstream *httptest.Server

	admin    model.User
	manager  model.User
	manager2 model.User
	viewer   model.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/current.json":
			_, _ = w.Write([]byte(`{"location":{"name":"` + r.URL.Query().Get("q") + `"}}`))
		case "/feed":
			_, _ = w.Write([]byte(`{"headline":"fresh"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	store := dbtest.NewMemoryStore()
	h := &harness{
		t:        t,
		store:    store,
		upstream: upstream,
		admin:    store.AddUser("admin@example.com", model.RoleAdmin),
		manager:  store.AddUser("cm@example.com", model.RoleContentManager),
		manager2: store.AddUser("cm2@example.com", model.RoleContentManager),
		viewer:   store.AddUser("viewer@example.com", model.RoleUser),
	}

	h.devices = registration.NewService(store, registration.NewMemoryLocker(), registration.NewMemoryLimiter(0), nil,
		registration.Options{LicenseLimit: 3, LockTimeout: time.Second, BcryptCost: bcrypt.MinCost})
	refr := refresher.New(store, nil, refresher.Options{Concurrency: 2, FetchTimeout: time.Second})

	h.router = gin.New()
	h.router.Use(middleware.RequestID())
	api.MountGroup(h.router, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: testSecret,
		Users:     store,
	},
		DeviceModule(h.devices),
		ContentModule(store, storage.NewLocalStorage(t.TempDir(), "/uploads")),
		ScheduleModule(store),
		DynamicContentModule(store, refr),
		DynamicDataModule(weather.NewClient(upstream.URL+"/v1", "key")),
	)
	return h
}

func (h *harness) do(method, path string, user *model.User, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.serve(req, user)
}

func (h *harness) upload(path string, user *model.User, fields map[string]string, filename, contents string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(h.t, err)
		_, err = part.Write([]byte(contents))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.serve(req, user)
}

func (h *harness) serve(req *http.Request, user *model.User) *httptest.ResponseRecorder {
	h.t.Helper()
	if user != nil {
		tok, err := middleware.SignToken(user.ID, testSecret, time.Hour)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorsBody struct {
	Error  string             `json:"error"`
	Errors []model.FieldError `json:"errors"`
}

func fieldNames(body errorsBody) []string {
	out := make([]string, 0, len(body.Errors))
	for _, f := range body.Errors {
		out = append(out, f.Field)
	}
	return out
}
