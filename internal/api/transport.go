package api

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/shweta76555/deskcli/internal/tokenstore"
)

// authTransport injects the bearer token into every outgoing request. The
// token is read from the store fresh per request, never captured at
// construction time, because another process can replace or clear the
// slot between requests. Each request also carries an X-Request-Id for
// server-side correlation.
type authTransport struct {
	store tokenstore.Store
	base  http.RoundTripper
	log   *zap.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone before mutating headers: RoundTrippers must not modify the
	// caller's request.
	req = req.Clone(req.Context())

	if token, err := t.store.Get(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id, err := uuid.NewV4(); err == nil {
		req.Header.Set("X-Request-Id", id.String())
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.log.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	t.log.Debug("request done",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}
