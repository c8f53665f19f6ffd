package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/blob"
	"github.com/Anika-Jha/Eterna/internal/engine"
	"github.com/Anika-Jha/Eterna/internal/llm"
	"github.com/Anika-Jha/Eterna/internal/logging"
	"github.com/Anika-Jha/Eterna/internal/metrics"
	"github.com/Anika-Jha/Eterna/internal/store"
)

type testEnv struct {
	srv    *Server
	db     *store.DB
	engine *engine.Engine
}

func testServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock := &llm.MockClient{Response: &llm.Response{Content: "A quiet ember."}}
	eng := engine.New(db, mock, engine.WithLogger(logging.Discard()))
	t.Cleanup(eng.Stop)

	blobs, err := blob.NewFS(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	base := []Option{WithLogger(logging.Discard()), WithBlobStore(blobs), WithMetrics(metrics.New())}
	return &testEnv{
		srv:    New(db, eng, "test-version", append(base, opts...)...),
		db:     db,
		engine: eng,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	if _, err := e.db.Seed(t.Context()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" || body["version"] != "test-version" || body["db"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestListAndGetArtifacts(t *testing.T) {
	env := testServer(t)
	env.seed(t)

	w := env.do(t, "GET", "/api/artifacts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	list := decode[[]artifact.Artifact](t, w)
	if len(list) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(list))
	}

	w = env.do(t, "GET", "/api/artifacts/2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if a := decode[artifact.Artifact](t, w); a.Title != "Watchmaking by Hand" {
		t.Errorf("title = %q", a.Title)
	}
}

func TestListArtifactsEmptyIsArray(t *testing.T) {
	env := testServer(t)
	w := env.do(t, "GET", "/api/artifacts", nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

func TestGetArtifactErrors(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "GET", "/api/artifacts/42", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
	if body := decode[errorBody](t, w); body.Message != "Artifact not found" {
		t.Errorf("message = %q", body.Message)
	}

	w = env.do(t, "GET", "/api/artifacts/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", w.Code)
	}
}

func TestCreateArtifact(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "POST", "/api/artifacts", map[string]any{
		"title":       "Hand-weaving",
		"type":        "skill",
		"description": "Loom work passed between sisters.",
		"imageUrl":    "https://example.com/loom.jpg",
		"tags":        []string{"textile"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	a := decode[artifact.Artifact](t, w)
	if a.ID == 0 || a.FadeLevel != 0 || a.SupportCount != 0 {
		t.Errorf("created = %+v", a)
	}
	if a.ExtinctionRisk < 20 || a.ExtinctionRisk > 100 {
		t.Errorf("risk = %d", a.ExtinctionRisk)
	}

	env.engine.WaitNarratives()
	stored, err := env.db.GetArtifact(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if stored.Narrative != "A quiet ember." {
		t.Errorf("narrative = %q", stored.Narrative)
	}
}

func TestCreateArtifactValidation(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "POST", "/api/artifacts", map[string]any{"title": "x", "type": "skill"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decode[errorBody](t, w); body.Field != "description" {
		t.Errorf("field = %q, want description", body.Field)
	}

	w = env.do(t, "POST", "/api/artifacts", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d, want 400", w.Code)
	}
}

func TestSupportArtifact(t *testing.T) {
	env := testServer(t)
	env.seed(t)

	// Watchmaking: risk 92, fade 75, support 5.
	w := env.do(t, "POST", "/api/artifacts/2/support", map[string]string{"action": "stake"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	a := decode[artifact.Artifact](t, w)
	if a.FadeLevel != 55 || a.ExtinctionRisk != 87 || a.SupportCount != 6 {
		t.Errorf("after stake: fade %d risk %d support %d", a.FadeLevel, a.ExtinctionRisk, a.SupportCount)
	}
}

func TestSupportArtifactErrors(t *testing.T) {
	env := testServer(t)
	env.seed(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		field  string
	}{
		{"unknown action", "/api/artifacts/1/support", map[string]string{"action": "boost"}, http.StatusBadRequest, "action"},
		{"missing action", "/api/artifacts/1/support", map[string]string{}, http.StatusBadRequest, "action"},
		{"unknown artifact", "/api/artifacts/99/support", map[string]string{"action": "vote"}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if body := decode[errorBody](t, w); body.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Field, tt.field)
			}
		})
	}

	a, err := env.db.GetArtifact(t.Context(), 1)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if a.SupportCount != 12 {
		t.Errorf("rejected supports changed the record: support = %d", a.SupportCount)
	}
}

func TestCommentsFlow(t *testing.T) {
	env := testServer(t)
	env.seed(t)

	w := env.do(t, "GET", "/api/artifacts/1/comments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := decode[[]artifact.Comment](t, w); len(got) != 2 {
		t.Errorf("seeded comments = %d, want 2", len(got))
	}

	w = env.do(t, "POST", "/api/artifacts/3/comments", map[string]string{"content": "We still leap the fire."})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	c := decode[artifact.Comment](t, w)

	path := "/api/comments/" + itoa(c.ID)
	w = env.do(t, "POST", path+"/support", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("support status = %d", w.Code)
	}
	if got := decode[artifact.Comment](t, w); got.SupportCount != 1 {
		t.Errorf("support count = %d, want 1", got.SupportCount)
	}

	w = env.do(t, "POST", path+"/react", map[string]string{"reaction": "celebrate"})
	if w.Code != http.StatusOK {
		t.Fatalf("react status = %d", w.Code)
	}
	w = env.do(t, "POST", path+"/react", map[string]string{"emoji": "🎉"})
	if got := decode[artifact.Comment](t, w); got.Reactions[artifact.ReactionCelebrate] != 2 {
		t.Errorf("celebrate = %d, want 2", got.Reactions[artifact.ReactionCelebrate])
	}
	w = env.do(t, "POST", path+"/react", map[string]string{"reaction": "love"})
	if body := w.Body.String(); !strings.Contains(body, `"🎉":2`) || !strings.Contains(body, `"❤️":1`) {
		t.Errorf("reactions should be keyed by glyph: %s", body)
	}

	w = env.do(t, "POST", path+"/react", map[string]string{"reaction": "angry"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown reaction: status = %d, want 400", w.Code)
	}
}

func TestCommentErrors(t *testing.T) {
	env := testServer(t)
	env.seed(t)

	if w := env.do(t, "GET", "/api/artifacts/99/comments", nil); w.Code != http.StatusNotFound {
		t.Errorf("list on missing artifact: status = %d", w.Code)
	}
	if w := env.do(t, "POST", "/api/artifacts/99/comments", map[string]string{"content": "hi"}); w.Code != http.StatusNotFound {
		t.Errorf("create on missing artifact: status = %d", w.Code)
	}
	w := env.do(t, "POST", "/api/artifacts/1/comments", map[string]string{"content": "  "})
	if w.Code != http.StatusBadRequest || decode[errorBody](t, w).Field != "content" {
		t.Errorf("blank comment: status = %d body %s", w.Code, w.Body.String())
	}
	w = env.do(t, "POST", "/api/comments/999/support", nil)
	if w.Code != http.StatusNotFound || decode[errorBody](t, w).Message != "Comment not found" {
		t.Errorf("support missing comment: status = %d body %s", w.Code, w.Body.String())
	}
}

func TestDashboardStats(t *testing.T) {
	env := testServer(t)
	env.seed(t)

	w := env.do(t, "GET", "/api/dashboard/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[map[string]int](t, w)
	want := map[string]int{"totalArtifacts": 3, "averageFadeLevel": 42, "totalInteractions": 58, "artifactsAtRisk": 0}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake-image-bytes")

func TestUploadAndServe(t *testing.T) {
	env := testServer(t)

	body, ct := multipartBody(t, "file", pngBytes)
	req := httptest.NewRequest("POST", "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]string](t, w)
	if resp["url"] != "/uploads/"+blob.Key(pngBytes, ".png") {
		t.Errorf("url = %q", resp["url"])
	}

	w = env.do(t, "GET", resp["url"], nil)
	if w.Code != http.StatusOK {
		t.Fatalf("serve status = %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/png" || !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Errorf("served %q %q", w.Header().Get("Content-Type"), w.Body.Bytes())
	}

	if w := env.do(t, "GET", "/uploads/missing.png", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing upload: status = %d", w.Code)
	}
}

func TestUploadRejections(t *testing.T) {
	env := testServer(t, WithMaxUploadBytes(32))

	send := func(field string, data []byte) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, field, data)
		req := httptest.NewRequest("POST", "/api/uploads", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.srv.ServeHTTP(w, req)
		return w
	}

	if w := send("file", []byte("plain text, not an image")); w.Code != http.StatusBadRequest {
		t.Errorf("non-image: status = %d, want 400", w.Code)
	}
	if w := send("picture", pngBytes); w.Code != http.StatusBadRequest {
		t.Errorf("wrong field: status = %d, want 400", w.Code)
	}
	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 64)...)
	if w := send("file", big); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized: status = %d, want 413", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testServer(t)
	env.seed(t)
	env.do(t, "POST", "/api/artifacts/1/support", map[string]string{"action": "vote"})

	w := env.do(t, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Errorf("metrics body missing go collector")
	}
}

func TestStaticSPA(t *testing.T) {
	static := fstest.MapFS{
		"index.html":    {Data: []byte("<html>gallery</html>")},
		"assets/app.js": {Data: []byte("console.log('eterna')")},
	}
	env := testServer(t, WithStatic(static))

	tests := []struct {
		path string
		want string
	}{
		{"/", "gallery"},
		{"/assets/app.js", "eterna"},
		{"/artifact/7", "gallery"},
	}
	for _, tt := range tests {
		w := env.do(t, "GET", tt.path, nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("GET %s = %d %q", tt.path, w.Code, w.Body.String())
		}
	}

	if w := env.do(t, "GET", "/api/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown api path: status = %d, want 404", w.Code)
	}
}
