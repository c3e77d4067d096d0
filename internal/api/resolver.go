package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/cache"
	"github.com/example/recab-client/internal/config"
	"github.com/example/recab-client/internal/observability"
)

// baseSynthetic marks base discovery as failed; the next request outside the
// backoff window retries discovery from scratch.
const baseSynthetic = "synthetic"

// Resolver finds a working path to the backend across deployment topologies
// (same-origin /api, serverless-functions proxy, origin-qualified variants)
// and degrades to synthetic empty responses when none are reachable.
//
// Reads never fail: an unreachable backend yields a shape-appropriate empty
// body. Mutations are never faked: the caller gets the last live failure or
// apperrors.ErrBackendUnreachable.
type Resolver struct {
	origin    string
	apiBase   string
	proxyBase string

	timeout      time.Duration
	probeTimeout time.Duration
	backoff      time.Duration

	httpc   *http.Client
	cache   cache.Cache
	ttl     time.Duration
	offline func() bool
	now     func() time.Time
	log     *slog.Logger

	mu           sync.Mutex
	backoffUntil time.Time
	base         string
	inflight     chan struct{}
}

func NewResolver(cfg config.ClientConfig, c cache.Cache, log *slog.Logger) *Resolver {
	return &Resolver{
		origin:       strings.TrimRight(cfg.Origin, "/"),
		apiBase:      cfg.APIBase,
		proxyBase:    cfg.ProxyBase,
		timeout:      cfg.RequestTimeout,
		probeTimeout: cfg.ProbeTimeout,
		backoff:      cfg.BackoffWindow,
		httpc:        &http.Client{},
		cache:        c,
		ttl:          cfg.CacheTTL,
		now:          time.Now,
		log:          log,
	}
}

// SetOffline installs a connectivity hint checked before any network attempt.
func (r *Resolver) SetOffline(fn func() bool) { r.offline = fn }

// Do resolves and performs one request. For GET the returned Result is
// always usable; err is only non-nil for mutations that could not be
// performed anywhere.
func (r *Resolver) Do(ctx context.Context, method, path string, body any) (*Result, error) {
	method = strings.ToUpper(method)
	isRead := method == http.MethodGet

	r.mu.Lock()
	if r.now().Before(r.backoffUntil) {
		r.mu.Unlock()
		if isRead {
			return r.synthetic(method, path), nil
		}
		return nil, apperrors.ErrBackendUnreachable
	}
	// backoff expired: allow base rediscovery
	if r.base == baseSynthetic {
		r.base = ""
	}
	r.mu.Unlock()

	if r.offline != nil && r.offline() {
		if isRead {
			return r.synthetic(method, path), nil
		}
		return nil, apperrors.ErrBackendUnreachable
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = b
	}

	candidates, viaBase := r.candidates(ctx, path)
	if viaBase == baseSynthetic {
		r.enterBackoff()
		if isRead {
			return r.synthetic(method, path), nil
		}
		return nil, apperrors.ErrBackendUnreachable
	}

	var last *Result
	seen := make(map[string]bool, len(candidates))
	for _, u := range candidates {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		res, ok := r.attempt(ctx, method, u, payload, r.timeout)
		if res == nil {
			continue
		}
		if ok {
			observability.BackendRequests.WithLabelValues(method, "live").Inc()
			return res, nil
		}
		last = res
	}

	r.enterBackoff()
	if isRead {
		return r.synthetic(method, path), nil
	}
	observability.BackendRequests.WithLabelValues(method, "failed").Inc()
	if last != nil {
		// real server rejection; surface it as-is
		return last, nil
	}
	return nil, apperrors.ErrBackendUnreachable
}

// CachedGet is Do for GET with a per-URL TTL response cache in front. Only
// successful live bodies are cached.
func (r *Resolver) CachedGet(ctx context.Context, path string) (*Result, error) {
	key := "cache:" + path
	if r.cache != nil {
		if b, ok := r.cache.Get(ctx, key); ok {
			observability.CacheHits.Inc()
			observability.BackendRequests.WithLabelValues(http.MethodGet, "cached").Inc()
			return &Result{Kind: Cached, Status: http.StatusOK, Body: b}, nil
		}
		observability.CacheMisses.Inc()
	}
	res, err := r.Do(ctx, http.MethodGet, path, nil)
	if err == nil && res.Kind == Live && res.OK() && r.cache != nil {
		r.cache.Set(ctx, key, res.Body, r.ttl)
	}
	return res, err
}

// candidates builds the ordered URL ladder for path. For API-prefixed paths
// the memoized base discovery picks /api or the proxy prefix first.
func (r *Resolver) candidates(ctx context.Context, path string) ([]string, string) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return []string{path}, ""
	}
	if strings.HasPrefix(path, "/api/") {
		base := r.resolveBase(ctx)
		if base == baseSynthetic {
			return nil, baseSynthetic
		}
		u := base + strings.TrimPrefix(path, "/api")
		return r.expand(u), base
	}
	out := r.expand(path)
	return out, ""
}

// expand turns a site-relative URL into the origin-qualified attempt list.
// Without a configured origin there is nothing to dial, which reads as
// "backend unreachable" and is exactly the offline degradation we want.
func (r *Resolver) expand(u string) []string {
	if r.origin == "" {
		return nil
	}
	return []string{r.origin + u}
}

// resolveBase performs the one-time liveness probe, memoized and
// single-flighted so concurrent callers share one discovery.
func (r *Resolver) resolveBase(ctx context.Context) string {
	for {
		r.mu.Lock()
		if r.base != "" {
			b := r.base
			r.mu.Unlock()
			return b
		}
		if r.inflight != nil {
			ch := r.inflight
			r.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return baseSynthetic
			}
		}
		ch := make(chan struct{})
		r.inflight = ch
		r.mu.Unlock()

		base := r.probe(ctx)

		r.mu.Lock()
		r.base = base
		r.inflight = nil
		r.mu.Unlock()
		close(ch)
		return base
	}
}

func (r *Resolver) probe(ctx context.Context) string {
	for _, base := range []string{r.apiBase, r.proxyBase} {
		for _, u := range r.expand(base + "/ping") {
			if _, ok := r.attempt(ctx, http.MethodGet, u, nil, r.probeTimeout); ok {
				r.log.Debug("api base resolved", "base", base)
				return base
			}
		}
	}
	return baseSynthetic
}

// attempt performs one bounded request. Network errors and timeouts read as
// "no response"; a live non-2xx response is returned with ok=false.
func (r *Resolver) attempt(ctx context.Context, method, url string, body []byte, timeout time.Duration) (*Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, false
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := r.now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	observability.RequestDuration.Observe(r.now().Sub(start).Seconds())

	res := &Result{Kind: Live, Status: resp.StatusCode, Body: b}
	return res, res.OK()
}

func (r *Resolver) enterBackoff() {
	r.mu.Lock()
	r.backoffUntil = r.now().Add(r.backoff)
	r.base = baseSynthetic
	r.mu.Unlock()
	observability.BackoffWindows.Inc()
	r.log.Warn("backend unreachable, entering backoff", "window", r.backoff)
}

func (r *Resolver) synthetic(method, path string) *Result {
	observability.SyntheticResponses.Inc()
	observability.BackendRequests.WithLabelValues(method, "synthetic").Inc()
	return &Result{Kind: Synthetic, Status: http.StatusOK, Body: shapeFor(path)}
}
