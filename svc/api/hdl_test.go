package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"snipbin/cfg"
	"snipbin/pkg/domain"
	"snipbin/svc/session"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

func TestMain(m *testing.M) {
	util.InitLog("error", false)
	os.Exit(m.Run())
}

type fakeStore struct {
	mu        sync.Mutex
	pastes    map[string]domain.Paste
	insertErr error
	findErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{pastes: make(map[string]domain.Paste)}
}

func (f *fakeStore) Insert(_ context.Context, p *domain.Paste) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.pastes[p.Slug] = *p
	return nil
}

func (f *fakeStore) FindBySlug(_ context.Context, slug string) (*domain.Paste, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.pastes[slug]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) FindByCreator(_ context.Context, creatorID string) ([]domain.Paste, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Paste
	for _, p := range f.pastes {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteOlderThan(_ context.Context, threshold time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for slug, p := range f.pastes {
		if p.CreatedAt.Before(threshold) {
			delete(f.pastes, slug)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pastes)
}

type memBackend struct {
	mu   sync.Mutex
	sess map[string]string
}

func (b *memBackend) SaveSession(_ context.Context, sid, creatorID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sess[sid] = creatorID
	return nil
}

func (b *memBackend) GetSession(_ context.Context, sid string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sess[sid], nil
}

func testServer(fs *fakeStore) *Server {
	c := &cfg.Cfg{
		Port:           "0",
		Environment:    "test",
		LogLevel:       "error",
		SessionTTL:     24 * time.Hour,
		ContextTimeout: 5 * time.Second,
	}
	sessions := session.NewManager(
		&memBackend{sess: make(map[string]string)},
		[]byte("0123456789abcdef0123456789abcdef"),
		c.SessionTTL,
		false,
	)
	return NewServer(c, svc.NewPaste(fs), sessions, nil, nil)
}

func doJSON(t *testing.T, s *Server, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestCreatePasteNewSession(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"hello"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp domain.Paste
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Slug) != util.SlugLen {
		t.Errorf("slug %q has length %d, want %d", resp.Slug, len(resp.Slug), util.SlugLen)
	}
	if resp.Content != "hello" {
		t.Errorf("paste = %q, want hello", resp.Content)
	}
	if resp.CreatorID == "" {
		t.Error("creatorId missing from response")
	}
	if resp.CreatedAt.IsZero() {
		t.Error("createdAt missing from response")
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			found = true
		}
	}
	if !found {
		t.Error("no session cookie set on first create")
	}
}

func TestCreateTwiceSameSessionThenList(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec1 := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"first"}`, nil)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first create: status %d", rec1.Code)
	}
	cookies := rec1.Result().Cookies()

	rec2 := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"second"}`, cookies)
	if rec2.Code != http.StatusOK {
		t.Fatalf("second create: status %d", rec2.Code)
	}

	var p1, p2 domain.Paste
	if err := json.Unmarshal(rec1.Body.Bytes(), &p1); err != nil {
		t.Fatalf("bad first body: %v", err)
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &p2); err != nil {
		t.Fatalf("bad second body: %v", err)
	}
	if p1.Slug == p2.Slug {
		t.Error("two creates produced the same slug")
	}
	if p1.CreatorID != p2.CreatorID {
		t.Errorf("creator ids differ across one session: %q vs %q", p1.CreatorID, p2.CreatorID)
	}

	recList := doJSON(t, s, http.MethodGet, "/", "", cookies)
	if recList.Code != http.StatusOK {
		t.Fatalf("list: status %d", recList.Code)
	}
	var list struct {
		Status string         `json:"status"`
		Pastes []domain.Paste `json:"pastes"`
	}
	if err := json.Unmarshal(recList.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if list.Status != "success" {
		t.Errorf("list status = %q, want success", list.Status)
	}
	if len(list.Pastes) != 2 {
		t.Errorf("listed %d pastes, want 2", len(list.Pastes))
	}
}

func TestCreateWhitespaceOnly(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"   "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Stack   string `json:"stack"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Status != "error" {
		t.Errorf("status field = %q, want error", body.Status)
	}
	if body.Message == "" {
		t.Error("error response missing message")
	}
	if fs.count() != 0 {
		t.Error("a document was inserted despite failed validation")
	}
}

func TestCreateMalformedBody(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodPost, "/createPaste", `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateClientSlugDiscarded(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodPost, "/createPaste", `{"slug":"pick-this","paste":"hello"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp domain.Paste
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Slug == "pick-this" {
		t.Error("client-supplied slug was honoured")
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	fs := newFakeStore()
	fs.insertErr = domain.ErrSlugTaken
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"hello"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
}

func TestCreateStoreFailure(t *testing.T) {
	fs := newFakeStore()
	fs.insertErr = errors.New("store unavailable")
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"hello"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500; body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Status != "error" {
		t.Errorf("status field = %q, want error", body.Status)
	}
	if body.Message != "internal error" {
		t.Errorf("message = %q, want the generic internal error", body.Message)
	}
}

func TestGetPasteRoundtrip(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	recCreate := doJSON(t, s, http.MethodPost, "/createPaste", `{"paste":"hello"}`, nil)
	var created domain.Paste
	if err := json.Unmarshal(recCreate.Body.Bytes(), &created); err != nil {
		t.Fatalf("bad create body: %v", err)
	}

	rec := doJSON(t, s, http.MethodGet, "/getPaste/"+created.Slug, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Status  string `json:"status"`
		Content string `json:"paste"`
		Slug    string `json:"slug"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.Content != "hello" {
		t.Errorf("paste = %q, want hello", resp.Content)
	}
	if resp.Slug != created.Slug {
		t.Errorf("slug = %q, want %q", resp.Slug, created.Slug)
	}
}

func TestGetPasteUnknown(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodGet, "/getPaste/does-not-exist", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp["message"] != "Link with id does-not-exist expired" {
		t.Errorf("message = %q", resp["message"])
	}
}

func TestGetPasteStoreFailureReadsAsExpired(t *testing.T) {
	fs := newFakeStore()
	fs.findErr = context.DeadlineExceeded
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodGet, "/getPaste/abc", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp["message"] != "Link with id abc expired" {
		t.Errorf("store failures must read as expired, got %q", resp["message"])
	}
}

func TestListWithoutSession(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp["status"] != "error" || resp["message"] != "Create new" {
		t.Errorf("body = %v, want status=error message=Create new", resp)
	}
}

func TestHealth(t *testing.T) {
	fs := newFakeStore()
	s := testServer(fs)

	rec := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
