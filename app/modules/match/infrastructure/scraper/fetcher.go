package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
)

const userAgent = "geoguessr-bot/1.0"

// PageFetcher downloads the results page of a match.
type PageFetcher interface {
	FetchResults(ctx context.Context, link string) ([]byte, error)
}

// StatusError is a non-2xx response from the results site.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("results page %s: unexpected status %d", e.URL, e.Status)
}

// Config controls the fetcher.
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Fetcher is a rate-limited fasthttp client for results pages.
type Fetcher struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher. The limiter is shared by every caller so the
// results site sees at most RequestsPerSecond across all workers.
func NewFetcher(cfg Config) *Fetcher {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		baseURL: cfg.BaseURL,
		timeout: timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

// FetchResults waits for the limiter, then GETs the results page of link.
func (f *Fetcher) FetchResults(ctx context.Context, link string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := matchdomain.ResultsURL(f.baseURL, link)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	deadline := time.Now().Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := f.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return nil, &StatusError{URL: url, Status: status}
	}

	// resp is released on return, so the body must be copied.
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}
