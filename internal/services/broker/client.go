// Package broker talks to the NGSI-LD context broker: full entity creation
// via POST and single-attribute updates via PATCH, both with linked-data
// content negotiation and a fixed request timeout.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/ngsi"
)

// Client is safe for concurrent use; dispatch workers share the one
// underlying http.Client so connections are pooled across them.
type Client struct {
	http           *http.Client
	baseURL        string
	createPath     string
	updateTemplate string
	log            zerolog.Logger
}

func NewClient(cfg config.BrokerConfig, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http:           &http.Client{Timeout: timeout},
		baseURL:        cfg.BaseURL,
		createPath:     cfg.CreatePath,
		updateTemplate: cfg.UpdatePathTemplate,
		log:            log,
	}
}

// CreateEntity POSTs a full entity body to the broker's entity collection.
func (c *Client) CreateEntity(ctx context.Context, entity interface{}) error {
	return c.send(ctx, http.MethodPost, c.baseURL+c.createPath, entity)
}

// PatchAttributes PATCHes only the changed attributes onto an existing
// entity, addressed by id through the configured path template.
func (c *Client) PatchAttributes(ctx context.Context, entityID string, attrs ngsi.AttributePatch) error {
	path := fmt.Sprintf(c.updateTemplate, url.PathEscape(entityID))
	return c.send(ctx, http.MethodPatch, c.baseURL+path, attrs)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode broker payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build broker request: %w", err)
	}
	req.Header.Set("Content-Type", ngsi.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: broker returned %d: %s", method, endpoint, resp.StatusCode, snippet)
	}

	c.log.Debug().Str("method", method).Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("Broker call succeeded")
	return nil
}
