package middleware

// This in-memory cache is used for simplicity. It can be replaced with Redis.
// golang-lru automatically evicts the least recently accessed entries.

import (
	"bytes"
	"net/http"

	lru "github.com/hashicorp/golang-lru"
)

var cache *lru.Cache

// InitializeCache sets up the in-memory LRU response cache.
func InitializeCache(size int) error {
	var err error
	cache, err = lru.New(size)
	return err
}

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// bodyRecorder buffers the response so it can be stored on success.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// CachingMiddleware serves successful GET responses from the LRU cache.
// The request URI, query string included, is the cache key.
func CachingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()
		if entry, ok := cache.Get(key); ok {
			resp := entry.(cachedResponse)
			w.Header().Set("Content-Type", resp.contentType)
			w.WriteHeader(resp.status)
			w.Write(resp.body)
			return
		}

		rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Only cache successes; errors should always hit the handler.
		if rec.status == http.StatusOK {
			cache.Add(key, cachedResponse{
				status:      rec.status,
				contentType: rec.Header().Get("Content-Type"),
				body:        rec.body.Bytes(),
			})
		}
	})
}
