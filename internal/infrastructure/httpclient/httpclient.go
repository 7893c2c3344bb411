package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_preview/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRateLimited marks a provider call that kept failing with rate-limit
// responses after every retry. Callers distinguish it from hard provider
// failures when deciding whether a scope is fatal.
var ErrRateLimited = errors.New("provider rate limit exceeded after retries")

// retryPolicy bounds the retry loop for rate-limited calls. Delay grows
// linearly: delay, 2*delay, 3*delay, ...
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
}

// rateLimitCheck lets a client flag provider-specific rate-limit responses
// that do not use HTTP 429.
type rateLimitCheck func(statusCode int, body []byte) bool

func defaultRateLimitCheck(statusCode int, _ []byte) bool {
	return statusCode == fasthttp.StatusTooManyRequests
}

// doGet performs a GET request honoring the context deadline, retrying
// rate-limited responses per policy. Returns the response body on 2xx.
func doGet(
	ctx context.Context,
	client *fasthttp.Client,
	url string,
	headers map[string]string,
	timeout time.Duration,
	policy retryPolicy,
	isRateLimited rateLimitCheck,
	logger *zap.Logger,
	provider string,
) ([]byte, error) {
	if isRateLimited == nil {
		isRateLimited = defaultRateLimitCheck
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := fasthttp.AcquireRequest()
		req.SetRequestURI(url)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.SetContentTypeBytes([]byte("application/json"))
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp := fasthttp.AcquireResponse()

		var err error
		if deadline, ok := ctx.Deadline(); ok {
			err = client.DoDeadline(req, resp, deadline)
		} else {
			err = client.DoTimeout(req, resp, timeout)
		}
		fasthttp.ReleaseRequest(req)

		if err != nil {
			fasthttp.ReleaseResponse(resp)
			metrics.ProviderCallsTotal.WithLabelValues(provider, "error").Inc()
			return nil, fmt.Errorf("request to %s failed: %w", url, err)
		}

		status := resp.StatusCode()
		body := append([]byte(nil), resp.Body()...)
		fasthttp.ReleaseResponse(resp)

		if isRateLimited(status, body) {
			metrics.ProviderCallsTotal.WithLabelValues(provider, "rate_limited").Inc()
			if attempt >= policy.maxRetries {
				logger.Warn("Rate limit retries exhausted",
					zap.String("url", url), zap.Int("attempts", attempt+1))
				return nil, fmt.Errorf("%w: %s", ErrRateLimited, url)
			}
			backoff := policy.delay * time.Duration(attempt+1)
			logger.Debug("Rate limited, backing off",
				zap.String("url", url), zap.Duration("backoff", backoff), zap.Int("attempt", attempt+1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		if status != fasthttp.StatusOK {
			metrics.ProviderCallsTotal.WithLabelValues(provider, "error").Inc()
			return nil, fmt.Errorf("request to %s failed with status %d: %s", url, status, string(body))
		}

		metrics.ProviderCallsTotal.WithLabelValues(provider, "ok").Inc()
		return body, nil
	}
}
