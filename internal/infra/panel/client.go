package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/pkg/config"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/cenkalti/backoff/v4"
)

const (
	serversPath  = "/api/application/servers"
	externalPath = serversPath + "/external/"
)

// Recorder receives one observation per logical call.
type Recorder interface {
	ObservePanelCall(operation, result string, elapsed time.Duration)
}

// statusError is a non-2xx answer from the panel.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("panel responded %d: %s", e.status, e.body)
}

// Client calls the panel's application API. Network errors and 5xx answers are retried
// with exponential backoff; 4xx answers are returned at once.
type Client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
	recorder   Recorder
}

func NewClient(cfg config.PanelConfig, recorder Recorder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		http:       &http.Client{},
		timeout:    cfg.RequestTimeout,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		recorder:   recorder,
	}
}

var _ shared.PanelClient = (*Client)(nil)

func (c *Client) CreateServer(ctx context.Context, req shared.CreateServerRequest) (*shared.RemoteServer, error) {
	body := createServerBody{
		Name:        req.Name,
		User:        req.PanelUserID,
		Egg:         req.EggID,
		DockerImage: req.DockerImage,
		Startup:     req.Startup,
		Environment: req.Environment,
		Limits:      toLimits(req.Limits),
		Features:    toFeatures(req.Limits),
		Deploy: deploy{
			Locations: []int64{req.LocationID},
			PortRange: []string{},
		},
		ExternalID: req.ExternalID,
	}
	if body.Environment == nil {
		body.Environment = map[string]string{}
	}

	var out serverEnvelope
	var adopt beforeRetry
	if req.ExternalID != "" {
		adopt = func(ctx context.Context) (bool, error) {
			return c.findByExternalID(ctx, req.ExternalID, &out)
		}
	}
	if err := c.run(ctx, "create_server", http.MethodPost, serversPath, body, &out, adopt); err != nil {
		return nil, err
	}
	return out.Attributes.toRemote(), nil
}

// findByExternalID reports whether an earlier create attempt already produced the server.
func (c *Client) findByExternalID(ctx context.Context, externalID string, out *serverEnvelope) (bool, error) {
	err := c.attempt(ctx, http.MethodGet, externalPath+url.PathEscape(externalID), nil, out)
	var se *statusError
	switch {
	case errors.As(err, &se) && se.status == http.StatusNotFound:
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (c *Client) FetchServer(ctx context.Context, remoteID int64) (*shared.RemoteServer, error) {
	attrs, err := c.fetch(ctx, "fetch_server", remoteID)
	if err != nil {
		return nil, err
	}
	return attrs.toRemote(), nil
}

// UpdateBuild replaces the server's limits. The panel requires the current default
// allocation in the same request, so it is read first.
func (c *Client) UpdateBuild(ctx context.Context, remoteID int64, limits entitlement.Resources) (*shared.RemoteServer, error) {
	current, err := c.fetch(ctx, "update_build", remoteID)
	if err != nil {
		return nil, err
	}

	body := buildBody{
		Allocation: current.Allocation,
		Memory:     limits.MemoryMB,
		Swap:       current.Limits.Swap,
		Disk:       limits.DiskMB,
		IO:         current.Limits.IO,
		CPU:        limits.CPUPercent,
		Features:   toFeatures(limits),
	}

	var out serverEnvelope
	path := fmt.Sprintf("%s/%d/build", serversPath, remoteID)
	if err := c.do(ctx, "update_build", http.MethodPatch, path, body, &out); err != nil {
		return nil, err
	}
	return out.Attributes.toRemote(), nil
}

func (c *Client) RenameServer(ctx context.Context, remoteID int64, name string, panelUserID int64) error {
	body := detailsBody{Name: name, User: panelUserID}
	path := fmt.Sprintf("%s/%d/details", serversPath, remoteID)
	return c.do(ctx, "rename_server", http.MethodPatch, path, body, nil)
}

// DeleteServer treats an already missing server as deleted.
func (c *Client) DeleteServer(ctx context.Context, remoteID int64) error {
	path := fmt.Sprintf("%s/%d", serversPath, remoteID)
	err := c.do(ctx, "delete_server", http.MethodDelete, path, nil, nil)
	if errs.Is(err, shared.ErrRemoteNotFound) {
		return nil
	}
	return err
}

func (c *Client) SuspendServer(ctx context.Context, remoteID int64) error {
	path := fmt.Sprintf("%s/%d/suspend", serversPath, remoteID)
	return c.do(ctx, "suspend_server", http.MethodPost, path, nil, nil)
}

func (c *Client) UnsuspendServer(ctx context.Context, remoteID int64) error {
	path := fmt.Sprintf("%s/%d/unsuspend", serversPath, remoteID)
	return c.do(ctx, "unsuspend_server", http.MethodPost, path, nil, nil)
}

func (c *Client) fetch(ctx context.Context, operation string, remoteID int64) (*serverAttributes, error) {
	var out serverEnvelope
	path := fmt.Sprintf("%s/%d", serversPath, remoteID)
	if err := c.do(ctx, operation, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Attributes, nil
}

// beforeRetry runs ahead of every retried attempt. done=true ends the call successfully.
type beforeRetry func(ctx context.Context) (done bool, err error)

// do runs one logical call and maps its final failure onto the shared remote sentinels.
func (c *Client) do(ctx context.Context, operation, method, path string, in, out any) error {
	return c.run(ctx, operation, method, path, in, out, nil)
}

func (c *Client) run(ctx context.Context, operation, method, path string, in, out any, before beforeRetry) error {
	start := time.Now()

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(err, "encode panel request")
		}
		payload = b
	}

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		if attempt > 1 && before != nil {
			done, err := before(ctx)
			if err != nil || done {
				return err
			}
		}
		return c.attempt(ctx, method, path, payload, out)
	}, c.policy(ctx), func(err error, wait time.Duration) {
		slog.Warn("retrying panel request",
			"operation", operation,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err)
	})

	result, mapped := classify(err)
	if c.recorder != nil {
		c.recorder.ObservePanelCall(operation, result, time.Since(start))
	}
	if mapped != nil && result != "not_found" {
		slog.Error("panel request failed",
			"operation", operation,
			"path", path,
			"attempts", attempt,
			"error", err)
	}
	return mapped
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryBase
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.1
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, c.maxRetries), ctx)
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		se := &statusError{status: resp.StatusCode, body: truncate(string(raw), 512)}
		if resp.StatusCode >= 500 {
			return se
		}
		return backoff.Permanent(se)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return backoff.Permanent(errs.Wrap(err, "decode panel response"))
	}
	return nil
}

func classify(err error) (string, error) {
	if err == nil {
		return "ok", nil
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusNotFound:
			return "not_found", shared.ErrRemoteNotFound
		case se.status < 500:
			return "rejected", errs.Wrap(shared.ErrRemoteRejected, se.Error())
		}
	}
	return "unavailable", shared.ErrRemoteUnavailable
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
