package github_test

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	gh "github.com/google/go-github/v66/github"
)

// fakeContentsAPI serves the subset of the GitHub contents API the store uses
// for a single repository.
type fakeContentsAPI struct {
	mu       sync.Mutex
	files    map[string][]byte
	messages []string
	branches []string
	auth     []string

	// failNext, when non-zero, answers the next request with that status.
	failNext int
	// largeFiles makes GET report encoding "none" so the blob endpoint is used.
	largeFiles bool
}

func newFakeContentsAPI(t *testing.T) (*fakeContentsAPI, *gh.Client) {
	t.Helper()
	api := &fakeContentsAPI{files: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/library/state/contents/{path...}", api.get)
	mux.HandleFunc("PUT /repos/library/state/contents/{path...}", api.put)
	mux.HandleFunc("GET /repos/library/state/git/blobs/{sha}", api.blob)

	server := httptest.NewServer(api.intercept(mux))
	t.Cleanup(server.Close)

	client := gh.NewClient(server.Client()).WithAuthToken("test-token")
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	client.BaseURL = base
	return api, client
}

func gitBlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (f *fakeContentsAPI) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		status := f.failNext
		f.failNext = 0
		f.mu.Unlock()

		if status != 0 {
			writeMessage(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeContentsAPI) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.PathValue("path")
	content, ok := f.files[path]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	f.branches = append(f.branches, r.URL.Query().Get("ref"))

	body := map[string]any{
		"type": "file",
		"path": path,
		"sha":  gitBlobSHA(content),
		"size": len(content),
	}
	if f.largeFiles {
		body["encoding"] = "none"
		body["content"] = ""
	} else {
		body["encoding"] = "base64"
		body["content"] = base64.StdEncoding.EncodeToString(content)
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *fakeContentsAPI) blob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sha := r.PathValue("sha")
	for _, content := range f.files {
		if gitBlobSHA(content) == sha {
			w.Header().Set("Content-Type", "application/vnd.github.v3.raw")
			w.WriteHeader(http.StatusOK)
			w.Write(content)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Not Found")
}

func (f *fakeContentsAPI) put(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string  `json:"message"`
		Content []byte  `json:"content"`
		SHA     *string `json:"sha"`
		Branch  string  `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.PathValue("path")
	current, exists := f.files[path]
	switch {
	case req.SHA == nil && exists:
		writeMessage(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"sha\" wasn't supplied.")
		return
	case req.SHA != nil && !exists:
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	case req.SHA != nil && *req.SHA != gitBlobSHA(current):
		writeMessage(w, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, *req.SHA))
		return
	}

	f.files[path] = req.Content
	f.messages = append(f.messages, req.Message)
	f.branches = append(f.branches, req.Branch)

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"content": map[string]any{"path": path, "sha": gitBlobSHA(req.Content)},
		"commit":  map[string]any{"message": req.Message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
