package sheet

import (
	"context"
	"encoding/csv"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPSource fetches a published CSV-export URL (e.g. a shared sheet's
// export link). It is read-only: linking requires a writable local source.
type HTTPSource struct {
	url       string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTP creates a rate-limited HTTP CSV source.
func NewHTTP(url string, opts Options) *HTTPSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return &HTTPSource{
		url:       url,
		client:    &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: opts.UserAgent,
	}
}

// Fetch downloads and parses the CSV export. The rate limiter protects the
// backend from command bursts; waiting honors ctx.
func (s *HTTPSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "http: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "http: build request")
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http: fetch sheet")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("http: fetch sheet: status %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "http: parse csv body")
	}
	return newSnapshot(records)
}
