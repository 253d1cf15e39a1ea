// Package sdapi is a client for the AUTOMATIC1111 Stable Diffusion web API.
package sdapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	apiPrefix = "/sdapi/v1"

	// Status checks should fail fast even though generation may run long.
	statusTimeout = 5 * time.Second

	maxErrorBody = 4 << 10
)

// Client talks to one Stable Diffusion web API instance.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a client for baseURL (e.g. http://localhost:7860). timeout
// bounds a whole request, including generation.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Txt2Img runs one batch and returns the decoded image bytes in the order
// the API produced them. The LoRA suffix is appended to the prompt here.
func (c *Client) Txt2Img(ctx context.Context, req Request) ([][]byte, error) {
	const op = "txt2img"

	payload := txt2imgPayload{
		Prompt:         req.Prompt + " " + LoraSuffix,
		NegativePrompt: req.NegativePrompt,
		Steps:          DefaultSteps,
		CFGScale:       DefaultCFG,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		SaveImages:     true,
		SamplerName:    SamplerName,
		Scheduler:      SchedulerName,
		RestoreFaces:   false,
		BatchSize:      max(req.BatchSize, 1),
		Seed:           req.Seed,
	}

	c.logger.Debug("sdapi request", "op", op, "batch_size", payload.BatchSize, "seed", payload.Seed)

	var resp txt2imgResponse
	if err := c.do(ctx, http.MethodPost, "/txt2img", payload, &resp, op); err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 {
		return nil, &Error{Op: op, Err: ErrNoImages}
	}

	images := make([][]byte, 0, len(resp.Images))
	for i, enc := range resp.Images {
		// Some builds prefix a data URL header.
		if _, rest, ok := strings.Cut(enc, ","); ok && strings.HasPrefix(enc, "data:") {
			enc = rest
		}
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, &Error{Op: op, Err: ErrMalformedResponse, Detail: fmt.Sprintf("image %d: %v", i, err)}
		}
		images = append(images, data)
	}
	return images, nil
}

// Progress reports the state of the current job.
func (c *Client) Progress(ctx context.Context) (*Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	var p Progress
	if err := c.do(ctx, http.MethodGet, "/progress?skip_current_image=true", nil, &p, "progress"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Available reports whether the API answers at all.
func (c *Client) Available(ctx context.Context) bool {
	_, err := c.Progress(ctx)
	if err != nil {
		c.logger.Warn("stable diffusion API not available", "error", err)
		return false
	}
	return true
}

// Models lists the installed checkpoints.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.do(ctx, http.MethodGet, "/sd-models", nil, &models, "sd-models"); err != nil {
		return nil, err
	}
	if models == nil {
		models = []Model{}
	}
	return models, nil
}

// Options returns the server's current settings.
func (c *Client) Options(ctx context.Context) (map[string]any, error) {
	var opts map[string]any
	if err := c.do(ctx, http.MethodGet, "/options", nil, &opts, "options"); err != nil {
		return nil, err
	}
	return opts, nil
}

// CurrentModel returns the loaded checkpoint name and the full settings map.
func (c *Client) CurrentModel(ctx context.Context) (string, map[string]any, error) {
	opts, err := c.Options(ctx)
	if err != nil {
		return "", nil, err
	}
	name, _ := opts["sd_model_checkpoint"].(string)
	return name, opts, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any, op string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Op: op, Err: ctxErr}
		}
		return &Error{Op: op, Err: ErrUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: op, Status: resp.StatusCode, Err: statusError(resp.StatusCode), Detail: errorDetail(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &Error{Op: op, Err: ErrMalformedResponse, Detail: err.Error()}
	}
	return nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case code == http.StatusServiceUnavailable, code == http.StatusBadGateway, code == http.StatusNotFound:
		return ErrUnavailable
	case code >= 500:
		return ErrServer
	default:
		return fmt.Errorf("sdapi: unexpected status %d", code)
	}
}

// errorDetail pulls a readable message out of an error response.
func errorDetail(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		switch {
		case eb.Errors != "":
			return eb.Errors
		case eb.Detail != nil:
			if s, ok := eb.Detail.(string); ok {
				return s
			}
			b, _ := json.Marshal(eb.Detail)
			return string(b)
		case eb.Error != "":
			return eb.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

// IsUnavailable reports whether err means the API could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
