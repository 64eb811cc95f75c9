package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeContentStore implements enough of the contents API for tests:
// GET /contents/{path} answers with sha+base64 content or 404, and
// PUT /contents/{path} enforces revision matching.
type fakeContentStore struct {
	mu     sync.Mutex
	files  map[string]fakeFile // path -> file
	token  string              // required bearer token, empty to disable auth
	puts   []putRecord
	nextID int
}

type fakeFile struct {
	sha     string
	content []byte
}

type putRecord struct {
	Path    string
	Message string
	Branch  string
	SHA     string
	Content []byte
}

func newFakeContentStore(token string) *fakeContentStore {
	return &fakeContentStore{files: make(map[string]fakeFile), token: token}
}

func (f *fakeContentStore) put(path string, content []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sha := fmt.Sprintf("sha-%d", f.nextID)
	f.files[path] = fakeFile{sha: sha, content: content}
	return sha
}

func (f *fakeContentStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/contents/")

		switch r.Method {
		case http.MethodGet:
			f.mu.Lock()
			file, ok := f.files[path]
			f.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"sha":      file.sha,
				"content":  base64.StdEncoding.EncodeToString(file.content),
				"encoding": "base64",
			})

		case http.MethodPut:
			var req struct {
				Message string `json:"message"`
				Content string `json:"content"`
				Branch  string `json:"branch"`
				SHA     string `json:"sha"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			content, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			f.mu.Lock()
			existing, exists := f.files[path]
			if exists && req.SHA != existing.sha {
				f.mu.Unlock()
				w.WriteHeader(http.StatusConflict)
				return
			}
			if !exists && req.SHA != "" {
				f.mu.Unlock()
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			f.nextID++
			sha := fmt.Sprintf("sha-%d", f.nextID)
			f.files[path] = fakeFile{sha: sha, content: content}
			f.puts = append(f.puts, putRecord{
				Path: path, Message: req.Message, Branch: req.Branch,
				SHA: req.SHA, Content: content,
			})
			f.mu.Unlock()

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{"sha": sha},
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (f *fakeContentStore) lastPut(t *testing.T) putRecord {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.puts) == 0 {
		t.Fatal("no PUT recorded")
	}
	return f.puts[len(f.puts)-1]
}

func setupClient(t *testing.T, fake *fakeContentStore, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, token, "main", srv.Client())
}

func TestGetFile(t *testing.T) {
	fake := newFakeContentStore("")
	sha := fake.put("data/content.json", []byte(`{"generation":1}`))
	client := setupClient(t, fake, "")

	info, err := client.GetFile(context.Background(), "data/content.json")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if info.SHA != sha {
		t.Errorf("sha = %q, want %q", info.SHA, sha)
	}
	if string(info.Content) != `{"generation":1}` {
		t.Errorf("content = %q", info.Content)
	}
}

func TestGetFileNotFound(t *testing.T) {
	client := setupClient(t, newFakeContentStore(""), "")

	_, err := client.GetFile(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetFileAuthRejected(t *testing.T) {
	fake := newFakeContentStore("secret")
	fake.put("data/content.json", []byte("x"))
	client := setupClient(t, fake, "wrong")

	_, err := client.GetFile(context.Background(), "data/content.json")
	if !errors.Is(err, ErrAuth) {
		t.Errorf("error = %v, want ErrAuth", err)
	}
}

func TestGetFileDecodesWrappedContent(t *testing.T) {
	// The API wraps long base64 payloads with newlines.
	raw := base64.StdEncoding.EncodeToString([]byte("unicode — اردو"))
	wrapped := raw[:8] + "\n" + raw[8:]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sha": "abc", "content": wrapped, "encoding": "base64",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "main", srv.Client())
	info, err := client.GetFile(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if string(info.Content) != "unicode — اردو" {
		t.Errorf("content = %q", info.Content)
	}
}

func TestPutFileCreate(t *testing.T) {
	fake := newFakeContentStore("")
	client := setupClient(t, fake, "")

	sha, err := client.PutFile(context.Background(), "data/content.json", "create", []byte("hello"), "")
	if err != nil {
		t.Fatalf("PutFile failed: %v", err)
	}
	if sha == "" {
		t.Error("PutFile returned empty revision")
	}

	rec := fake.lastPut(t)
	if rec.SHA != "" {
		t.Errorf("create included sha %q", rec.SHA)
	}
	if rec.Branch != "main" {
		t.Errorf("branch = %q, want main", rec.Branch)
	}
}

func TestPutFileUpdateRequiresMatchingSHA(t *testing.T) {
	fake := newFakeContentStore("")
	sha := fake.put("data/content.json", []byte("v1"))
	client := setupClient(t, fake, "")

	// Stale revision is rejected.
	_, err := client.PutFile(context.Background(), "data/content.json", "update", []byte("v2"), "sha-stale")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale sha error = %v, want ErrConflict", err)
	}

	// Matching revision advances.
	newSHA, err := client.PutFile(context.Background(), "data/content.json", "update", []byte("v2"), sha)
	if err != nil {
		t.Fatalf("PutFile failed: %v", err)
	}
	if newSHA == sha {
		t.Error("revision did not advance after write")
	}
}

func TestPutFileNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	client := NewClient(srv.URL, "", "main", nil)
	_, err := client.PutFile(context.Background(), "x", "m", []byte("y"), "")
	if err == nil {
		t.Error("expected transport error, got nil")
	}
}
