package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// CatalogServer is a stand-in for the store appdetails endpoint. Known apps
// answer with a minimal record; every other id answers success=false.
type CatalogServer struct {
	*httptest.Server

	mu   sync.Mutex
	apps map[uint64]string
	hits map[uint64]int
}

// NewCatalogServer starts a server that knows apps (id to name). It is
// closed when the test ends.
func NewCatalogServer(t testing.TB, apps map[uint64]string) *CatalogServer {
	t.Helper()
	cs := &CatalogServer{apps: apps, hits: map[uint64]int{}}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *CatalogServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/appdetails" {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	raw := r.URL.Query().Get("appids")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "bad appids", http.StatusBadRequest)
		return
	}

	cs.mu.Lock()
	cs.hits[id]++
	name, ok := cs.apps[id]
	cs.mu.Unlock()

	entry := map[string]any{"success": ok}
	if ok {
		entry["data"] = map[string]any{
			"type":         "game",
			"name":         name,
			"steam_appid":  id,
			"required_age": "0",
			"platforms":    map[string]bool{"windows": true, "mac": false, "linux": true},
			"release_date": map[string]any{"coming_soon": false, "date": "18 Apr, 2011"},
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{raw: entry})
}

// Hits returns how many appdetails requests were made for id.
func (cs *CatalogServer) Hits(id uint64) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.hits[id]
}
