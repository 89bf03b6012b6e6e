// Package session implements the HTTP client for the Skyforge control plane.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skyforge-dev/skyforge/pkg/processing"
)

// Config holds connection settings for the control plane.
type Config struct {
	// Endpoint is the control plane base URL, e.g. https://api.skyforge.dev.
	Endpoint string
	Token    string

	// Bucket overrides the account's default staging bucket.
	Bucket string

	Timeout time.Duration
	Retries int

	// PollInterval paces describe/log polling; WaitTimeout bounds a single
	// wait call.
	PollInterval time.Duration
	WaitTimeout  time.Duration
}

// Session talks to the control plane. It is safe for sequential use; calls
// block until the remote side answers.
type Session struct {
	cfg    Config
	client *http.Client

	mu     sync.Mutex
	bucket string

	metrics Metrics
}

// New returns a session with sane transport defaults applied.
func New(cfg Config) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 24 * time.Hour
	}
	return &Session{
		cfg:    cfg,
		bucket: cfg.Bucket,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// CreateProcessingJob submits a create-job request.
func (s *Session) CreateProcessingJob(ctx context.Context, req *processing.CreateJobRequest) error {
	return s.do(ctx, http.MethodPost, "/v1/processing-jobs", req, nil)
}

// DescribeProcessingJob fetches the job description.
func (s *Session) DescribeProcessingJob(ctx context.Context, name string) (*processing.JobDescription, error) {
	var desc processing.JobDescription
	if err := s.do(ctx, http.MethodGet, "/v1/processing-jobs/"+name, nil, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// StopProcessingJob requests a stop; the control plane winds the job down
// asynchronously.
func (s *Session) StopProcessingJob(ctx context.Context, name string) error {
	return s.do(ctx, http.MethodPost, "/v1/processing-jobs/"+name+"/stop", nil, nil)
}

// DefaultBucket returns the configured staging bucket, or looks up and caches
// the account default.
func (s *Session) DefaultBucket(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucket != "" {
		return s.bucket, nil
	}
	var account struct {
		AccountID     string `json:"AccountId"`
		DefaultBucket string `json:"DefaultBucket"`
	}
	if err := s.do(ctx, http.MethodGet, "/v1/account", nil, &account); err != nil {
		return "", err
	}
	if account.DefaultBucket == "" {
		return "", fmt.Errorf("account %s has no default bucket", account.AccountID)
	}
	s.bucket = account.DefaultBucket
	return s.bucket, nil
}

// WaitForProcessingJob polls the job description until it reaches a terminal
// status.
func (s *Session) WaitForProcessingJob(ctx context.Context, name string) (*processing.JobDescription, error) {
	timeout := time.After(s.cfg.WaitTimeout)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		desc, err := s.DescribeProcessingJob(ctx, name)
		if err != nil {
			return nil, err
		}
		if processing.IsTerminalStatus(desc.JobStatus) {
			return desc, nil
		}

		select {
		case <-timeout:
			return desc, fmt.Errorf("timeout waiting for processing job %s", name)
		case <-ctx.Done():
			return desc, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Metrics returns a snapshot of request counters.
func (s *Session) Metrics() (requests, errors int64) {
	return s.metrics.Snapshot()
}

// do performs a JSON request against the control plane with bounded retries
// and linear backoff on rate limits and server errors.
func (s *Session) do(ctx context.Context, method, path string, body, result any) error {
	url := strings.TrimSuffix(s.cfg.Endpoint, "/") + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
		req.Header.Set("Content-Type", "application/json")

		s.metrics.RecordRequest()
		resp, err := s.client.Do(req)
		if err != nil {
			s.metrics.RecordError()
			lastErr = fmt.Errorf("do request: %w", err)
			continue
		}

		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			s.metrics.RecordError()
			lastErr = fmt.Errorf("skyforge api error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
			// Retry on rate limit or server errors only.
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("retrying control plane call")
				continue
			}
			return lastErr
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				resp.Body.Close()
				return fmt.Errorf("decode response: %w", err)
			}
		}
		resp.Body.Close()
		return nil
	}
	return lastErr
}
