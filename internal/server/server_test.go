package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ishaan-bit/reverie/internal/kv"
	"github.com/ishaan-bit/reverie/internal/recap"
	"github.com/ishaan-bit/reverie/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	scripts, err := kv.OpenMemory(kv.Options{})
	if err != nil {
		t.Fatalf("kv.OpenMemory: %v", err)
	}
	t.Cleanup(func() { scripts.Close() })

	builder := recap.NewBuilder(db, scripts, scripts, zerolog.Nop())
	builder.Opts.SkipChance = 0 // deterministic builds in tests

	return New(db, scripts, builder, zerolog.Nop(), "test-version")
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func seedMoments(t *testing.T, srv *Server, userID string, n int) {
	t.Helper()
	moods := []string{"joy", "calm", "sadness", "anger", "fear", "surprise"}
	for i := 0; i < n; i++ {
		w := doJSON(t, srv, "POST", "/api/moments", map[string]any{
			"user_id": userID,
			"text":    fmt.Sprintf("moment %d with enough words to pass the quality floor", i),
			"mood":    moods[i%len(moods)],
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("seed moment %d: status %d: %s", i, w.Code, w.Body.String())
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test-version" || body["db"] != true {
		t.Errorf("health body = %v", body)
	}
}

func TestCreateMomentValidation(t *testing.T) {
	srv := testServer(t)

	cases := []map[string]any{
		{"text": "no user", "mood": "joy"},
		{"user_id": "u1", "mood": "joy"},
		{"user_id": "u1", "text": "bad mood", "mood": "gleeful"},
		{"user_id": "u1", "text": "bad signal", "mood": "joy", "valence": 2.5},
	}
	for i, body := range cases {
		w := doJSON(t, srv, "POST", "/api/moments", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, w.Code)
		}
	}
}

func TestCreateAndListMoments(t *testing.T) {
	srv := testServer(t)
	seedMoments(t, srv, "u1", 3)

	w := doJSON(t, srv, "GET", "/api/moments?user=u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Moments []recap.Moment `json:"moments"`
		Count   int            `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 3 || len(body.Moments) != 3 {
		t.Errorf("count = %d, moments = %d, want 3", body.Count, len(body.Moments))
	}
	for _, m := range body.Moments {
		if m.ID == "" || m.NormText == "" {
			t.Errorf("moment missing derived fields: %+v", m)
		}
	}
}

func TestListMomentsRequiresUser(t *testing.T) {
	srv := testServer(t)

	if w := doJSON(t, srv, "GET", "/api/moments", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if w := doJSON(t, srv, "GET", "/api/moments?user=u1&days=zero", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad days: status = %d, want 400", w.Code)
	}
}

func TestBuildAndFetchScript(t *testing.T) {
	srv := testServer(t)
	seedMoments(t, srv, "u1", 10)

	w := doJSON(t, srv, "POST", "/api/reveries/build", map[string]any{"user_id": "u1", "kind": "daily"})
	if w.Code != http.StatusOK {
		t.Fatalf("build status = %d: %s", w.Code, w.Body.String())
	}

	var outcome recap.Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Status != recap.StatusBuilt {
		t.Fatalf("Status = %q, want built", outcome.Status)
	}
	if outcome.Script == nil || len(outcome.Script.Beats) == 0 {
		t.Fatal("built outcome carries no script")
	}

	// The playback collaborator fetches the stored script by id.
	w = doJSON(t, srv, "GET", "/api/reveries/"+outcome.Script.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get script status = %d", w.Code)
	}
	var script recap.Script
	if err := json.Unmarshal(w.Body.Bytes(), &script); err != nil {
		t.Fatalf("decode script: %v", err)
	}
	if script.ID != outcome.Script.ID || len(script.Beats) != len(outcome.Script.Beats) {
		t.Errorf("fetched script differs from built one")
	}
	if !script.ExpiresAt.After(time.Now()) {
		t.Errorf("script expiry in the past: %v", script.ExpiresAt)
	}
}

func TestBuildNoData(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "POST", "/api/reveries/build", map[string]any{"user_id": "nobody"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var outcome recap.Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Status != recap.StatusNoData {
		t.Errorf("Status = %q, want no-data", outcome.Status)
	}
}

func TestBuildValidation(t *testing.T) {
	srv := testServer(t)

	if w := doJSON(t, srv, "POST", "/api/reveries/build", map[string]any{"kind": "daily"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing user: status = %d", w.Code)
	}
	if w := doJSON(t, srv, "POST", "/api/reveries/build", map[string]any{"user_id": "u1", "kind": "hourly"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad kind: status = %d", w.Code)
	}
}

func TestGetScriptNotFound(t *testing.T) {
	srv := testServer(t)

	if w := doJSON(t, srv, "GET", "/api/reveries/does-not-exist", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
