package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// UpstashStore keeps signers in Upstash Redis through its REST API.
type UpstashStore struct {
	client *resty.Client
}

type upstashResult struct {
	Result *string `json:"result"`
}

type upstashError struct {
	Error string `json:"error"`
}

func NewUpstash(baseURL, token string, timeout time.Duration) (*UpstashStore, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("upstash url and token are required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &UpstashStore{client: client}, nil
}

func (s *UpstashStore) Save(ctx context.Context, fid, signerUUID string) error {
	fid, signerUUID, err := validate(fid, signerUUID)
	if err != nil {
		return err
	}
	var apiErr upstashError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"key": key(fid), "value": signerUUID}).
		SetError(&apiErr).
		Post("/set/{key}/{value}")
	if err != nil {
		return fmt.Errorf("upstash set: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upstash set: http %d: %s", resp.StatusCode(), apiErr.Error)
	}
	return nil
}

func (s *UpstashStore) Lookup(ctx context.Context, fid string) (string, error) {
	fid = strings.TrimSpace(fid)
	if fid == "" {
		return "", ErrNotFound
	}
	var out upstashResult
	var apiErr upstashError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("key", key(fid)).
		SetResult(&out).
		SetError(&apiErr).
		Get("/get/{key}")
	if err != nil {
		return "", fmt.Errorf("upstash get: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upstash get: http %d: %s", resp.StatusCode(), apiErr.Error)
	}
	if out.Result == nil || *out.Result == "" {
		return "", ErrNotFound
	}
	return *out.Result, nil
}

func (s *UpstashStore) Close() error { return nil }
