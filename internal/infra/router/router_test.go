package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/backend"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/persistence/sqlstore"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	draft_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/draft"
	form_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/form"
	submission_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/submission"
	version_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/version"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/draft"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/utility"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine   *gin.Engine
	upstream *int
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, idgen.InitSqidsEncoderWithSeed("router-test"))

	db, err := database.Open(database.DialectSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "fm.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationService(db, database.DialectSQLite).RunMigrations(context.Background()))

	store, err := storage.NewStore(storage.Policy{Driver: constant.StorageDriverLocal, BasePath: t.TempDir()})
	require.NoError(t, err)
	bus := event.NewEventBus()
	t.Cleanup(bus.Shutdown)

	status := http.StatusCreated
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			io.WriteString(w, `{"message": "user_name has already been taken"}`)
			return
		}
		io.WriteString(w, `{"id": 5}`)
	}))
	t.Cleanup(up.Close)
	client, err := backend.NewClient(backend.Options{BaseURL: up.URL, Token: "upstream-token"})
	require.NoError(t, err)

	registry := content.NewRegistry(nil, content.Limits{MaxImageBytes: 3 << 20, MaxVideoBytes: 10 << 20})
	drafts := draft.NewService(utility.NewMemoryCacheService(), store, registry, bus, time.Hour)
	contentSvc := content.NewService(registry, drafts, client, sqlstore.NewSubmissionRepo(db, database.DialectSQLite), bus)

	r := NewRouter(
		form_handler.NewHandler(contentSvc),
		draft_handler.NewHandler(drafts, contentSvc, 10<<20),
		submission_handler.NewHandler(contentSvc),
		version_handler.NewHandler(listener.NewIntakeActivityListener(bus).Stats),
		middleware.NewMiddleware(secret),
		DefaultRateLimits(),
	)
	engine := gin.New()
	r.Setup(engine)
	return &testServer{engine: engine, upstream: &status}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) upload(t *testing.T, path string, w, h int, fields map[string]string) (int, envelope) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, w, h))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req)
}

func TestRouter_TestimonialFlow(t *testing.T) {
	s := newTestServer(t, "")

	code, env := s.doJSON(t, http.MethodPost, "/api/drafts", map[string]string{"kind": "testimonial"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var d struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	base := "/api/drafts/" + d.ID

	code, _ = s.doJSON(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, code, "缺少必填字段")

	code, _ = s.doJSON(t, http.MethodPut, base+"/fields", map[string]any{
		"fields": map[string]string{"user_name": "Ana", "content": "Great *staff*"},
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.doJSON(t, http.MethodPost, base+"/groups/preview_image/continue", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code, "没有合格图片时不能继续")

	code, env = s.doJSON(t, http.MethodPost, base+"/groups/preview_image/slots/16x9/select", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var sel struct {
		Opened bool `json:"opened"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.True(t, sel.Opened)

	code, env = s.upload(t, base+"/groups/preview_image/images", 160, 90, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.doJSON(t, http.MethodPost, base+"/groups/preview_image/slots/16:9/select", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.False(t, sel.Opened, "已满足的槽位不再打开")

	code, env = s.doJSON(t, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, code)
	var preview struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	assert.Contains(t, preview.HTML, "<em>staff</em>")

	code, env = s.doJSON(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var sub struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, "succeeded", sub.Status)

	code, _ = s.doJSON(t, http.MethodGet, "/api/submissions/"+sub.ID, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.doJSON(t, http.MethodGet, "/api/submissions?kind=testimonial", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	code, _ = s.doJSON(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code, "提交成功后草稿被清理")
}

func TestRouter_UpstreamFailureKeepsDraft(t *testing.T) {
	s := newTestServer(t, "")
	*s.upstream = http.StatusUnprocessableEntity

	code, env := s.doJSON(t, http.MethodPost, "/api/drafts", map[string]string{"kind": "testimonial", "recordId": "9"})
	require.Equal(t, http.StatusCreated, code)
	var d struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	base := "/api/drafts/" + d.ID

	code, _ = s.doJSON(t, http.MethodPut, base+"/fields", map[string]any{
		"fields": map[string]string{"user_name": "Ana", "content": "ok"},
	})
	require.Equal(t, http.StatusOK, code)
	code, env = s.upload(t, base+"/groups/preview_image/images", 100, 100, map[string]string{"ratio": "1:1"})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.doJSON(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, env.Message, "user_name has already been taken")

	code, _ = s.doJSON(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, code, "失败后草稿保留以便重试")
}

func TestRouter_UploadErrors(t *testing.T) {
	s := newTestServer(t, "")
	code, env := s.doJSON(t, http.MethodPost, "/api/drafts", map[string]string{"kind": "event"})
	require.Equal(t, http.StatusCreated, code)
	var d struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	base := "/api/drafts/" + d.ID

	testCases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "未知表单类型", method: http.MethodPost, path: "/api/drafts", want: http.StatusNotFound},
		{name: "未知草稿", method: http.MethodGet, path: "/api/drafts/missing", want: http.StatusNotFound},
		{name: "未知比例", method: http.MethodPost, path: base + "/groups/cover_image/slots/4x3/select", want: http.StatusBadRequest},
		{name: "未知分组", method: http.MethodGet, path: base + "/groups/nope", want: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var body any
			if tc.path == "/api/drafts" {
				body = map[string]string{"kind": "podcast"}
			}
			code, env := s.doJSON(t, tc.method, tc.path, body)
			assert.Equal(t, tc.want, code, env.Message)
		})
	}

	req := httptest.NewRequest(http.MethodPost, base+"/groups/cover_image/images", bytes.NewBufferString("x"))
	req.Header.Set("Content-Type", "text/plain")
	code, _ = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, code, "缺少文件")
}

func TestRouter_JWTProtectsAPI(t *testing.T) {
	s := newTestServer(t, "router-secret")

	code, _ := s.doJSON(t, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, code, "版本接口公开")

	code, _ = s.doJSON(t, http.MethodGet, "/api/forms", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := auth.GenerateToken("alice", "north", []byte("router-secret"), time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	code, env := s.do(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "press_release")

	code, _ = s.doJSON(t, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, code, "统计接口需要令牌")
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	code, env = s.do(t, req)
	assert.Equal(t, http.StatusOK, code)
	var stats listener.ActivityStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Zero(t, stats.Succeeded)
}
