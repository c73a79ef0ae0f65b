// Package publish posts captions to Farcaster through the Neynar API.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"dink-feed/utils"
)

// MaxCastBytes is the Farcaster limit on cast text.
const MaxCastBytes = 1024

const DefaultBaseURL = "https://api.neynar.com"

var ErrNoSigner = errors.New("signer uuid is required")

type Cast struct {
	SignerUUID string
	Text       string
	Embeds     []string
	ChannelID  string
}

type Publisher interface {
	Publish(ctx context.Context, c Cast) (string, error)
}

type Neynar struct {
	client *resty.Client
}

type castEmbed struct {
	URL string `json:"url"`
}

type castRequest struct {
	SignerUUID string      `json:"signer_uuid"`
	Text       string      `json:"text"`
	Embeds     []castEmbed `json:"embeds,omitempty"`
	ChannelID  string      `json:"channel_id,omitempty"`
	Idem       string      `json:"idem,omitempty"`
}

type castResponse struct {
	Success bool `json:"success"`
	Cast    struct {
		Hash string `json:"hash"`
	} `json:"cast"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewNeynar(baseURL, apiKey string, timeout time.Duration) *Neynar {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		// A 5xx or timeout may follow a stored cast; only 429 is retried.
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r != nil && r.StatusCode() == http.StatusTooManyRequests
		})
	return &Neynar{client: client}
}

// Publish posts c and returns the cast hash.
func (n *Neynar) Publish(ctx context.Context, c Cast) (string, error) {
	if strings.TrimSpace(c.SignerUUID) == "" {
		return "", ErrNoSigner
	}
	body := castRequest{
		SignerUUID: c.SignerUUID,
		Text:       Truncate(c.Text, MaxCastBytes),
		ChannelID:  c.ChannelID,
		Idem:       utils.GenerateID(16),
	}
	for _, u := range c.Embeds {
		if u = strings.TrimSpace(u); u != "" {
			body.Embeds = append(body.Embeds, castEmbed{URL: u})
		}
	}

	var out castResponse
	var apiErr apiError
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v2/farcaster/cast")
	if err != nil {
		return "", fmt.Errorf("publish cast: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("publish cast: http %d: %s", resp.StatusCode(), msg)
	}
	if out.Cast.Hash == "" {
		return "", fmt.Errorf("publish cast: response carried no hash")
	}
	return out.Cast.Hash, nil
}

// Truncate cuts s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
