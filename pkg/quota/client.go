// Package quota queries the external advisory service for the maximum
// permitted groups per workspace. The service is advisory only: any failure
// degrades to the locally configured default and must never trigger
// destructive action such as unpublishing.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ErrAdvisoryUnavailable marks a limit that came from the local fallback
// because the advisory service could not produce an authoritative answer.
// Callers must treat such results as "do not enforce".
var ErrAdvisoryUnavailable = errors.New("quota advisory service unavailable")

const defaultRequestTimeout = 5 * time.Second

// GroupLimit is the advisory answer. Err is non-nil whenever MaxGroups is a
// fallback rather than an authoritative limit.
type GroupLimit struct {
	MaxGroups int
	Err       error
}

// Enforceable reports whether the limit may be acted upon.
func (l GroupLimit) Enforceable() bool {
	return l.Err == nil && l.MaxGroups > 0
}

// Client talks to the quota advisory HTTP service.
type Client struct {
	baseURL      string
	apiSignature string
	defaultMax   int
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewClient(baseURL, apiSignature string, defaultMax int, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		apiSignature: apiSignature,
		defaultMax:   defaultMax,
		httpClient:   &http.Client{Timeout: defaultRequestTimeout},
		logger:       logger,
	}
}

type limitResponse struct {
	Limit *float64 `json:"limit"`
	Data  *struct {
		Limit *float64 `json:"limit"`
	} `json:"data"`
}

// CheckLimit fetches the group limit for a workspace. On any network, status
// or parse failure it returns the local default with an error marker instead
// of failing the caller.
func (c *Client) CheckLimit(ctx context.Context, workspaceID string) GroupLimit {
	url := fmt.Sprintf("%s/api/v1/item/%s/flow?max_no_components=%d", c.baseURL, workspaceID, c.defaultMax)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return c.fallback(workspaceID, fmt.Errorf("failed to build request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	if c.apiSignature != "" {
		req.Header.Set("X-API-SIGNATURE", c.apiSignature)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fallback(workspaceID, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fallback(workspaceID, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body limitResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return c.fallback(workspaceID, fmt.Errorf("failed to decode response: %w", err))
	}

	limit := body.Limit
	if body.Data != nil && body.Data.Limit != nil {
		limit = body.Data.Limit
	}

	// Missing or non-positive limits are "no authoritative limit", not zero.
	if limit == nil || *limit <= 0 {
		return c.fallback(workspaceID, errors.New("limit missing or invalid"))
	}

	return GroupLimit{MaxGroups: int(*limit)}
}

func (c *Client) fallback(workspaceID string, cause error) GroupLimit {
	c.logger.Warn("Quota advisory unavailable, using local default",
		"workspace_id", workspaceID,
		"default_max_groups", c.defaultMax,
		"error", cause,
	)

	return GroupLimit{
		MaxGroups: c.defaultMax,
		Err:       fmt.Errorf("%w: %v", ErrAdvisoryUnavailable, cause),
	}
}

// CanAddMoreGroups reports whether the workspace may grow a flow beyond its
// current group count. A fallback limit still applies here: growth beyond the
// local default is never allowed on advisory failure, it just is not treated
// as authoritative denial of existing content.
func (c *Client) CanAddMoreGroups(ctx context.Context, workspaceID string, currentGroupCount int) bool {
	limit := c.CheckLimit(ctx, workspaceID)

	if limit.MaxGroups <= 0 {
		return false
	}

	return currentGroupCount < limit.MaxGroups
}

// ShouldUnpublishFlow reports whether a published flow now exceeds its group
// limit. Ambiguous external signals never cause destructive action: any
// error-marked or non-positive limit answers false.
func (c *Client) ShouldUnpublishFlow(ctx context.Context, workspaceID string, currentGroupCount int) bool {
	limit := c.CheckLimit(ctx, workspaceID)

	if limit.Err != nil || limit.MaxGroups <= 0 {
		return false
	}

	return currentGroupCount > limit.MaxGroups
}
