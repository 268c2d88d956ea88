package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	obsmetrics "github.com/acknowledge-dev/acknowledge/internal/observability/metrics"
)

// AttachmentTitle is the fixed title shown on reward attachments.
const AttachmentTitle = "Acknowledge"

const defaultEndpoint = "https://api.linear.app/graphql"

var (
	ErrUserNotFound  = errors.New("linear_user_not_found")
	ErrRequestFailed = errors.New("linear_request_failed")
)

// Profile is a Linear user profile.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AttachmentUpdate mutates the display fields of an issue attachment.
type AttachmentUpdate struct {
	Title    string
	Subtitle string
	Metadata map[string]any
}

// API is the outbound surface the pipeline needs from Linear.
type API interface {
	User(ctx context.Context, id string) (*Profile, error)
	UpdateAttachment(ctx context.Context, attachmentID string, update AttachmentUpdate) error
}

// Factory builds a client scoped to one organization credential. Clients are
// stateless and constructed per call.
type Factory func(apiKey string) API

// ClientConfig configures the GraphQL client.
type ClientConfig struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
	Metrics    *obsmetrics.Metrics
}

// Client talks to the Linear GraphQL API with a single credential.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
	metrics  *obsmetrics.Metrics
}

// NewClient builds a Client from config, applying defaults.
func NewClient(cfg ClientConfig) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: endpoint,
		http:     httpClient,
		metrics:  cfg.Metrics,
	}
}

const userQuery = `query User($id: String!) {
  user(id: $id) {
    id
    name
    email
  }
}`

// User fetches a Linear user profile by id.
func (c *Client) User(ctx context.Context, id string) (*Profile, error) {
	var out struct {
		User *Profile `json:"user"`
	}
	err := c.do(ctx, "user", userQuery, map[string]any{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, ErrUserNotFound
	}
	return out.User, nil
}

const attachmentUpdateMutation = `mutation AttachmentUpdate($id: String!, $input: AttachmentUpdateInput!) {
  attachmentUpdate(id: $id, input: $input) {
    success
  }
}`

// UpdateAttachment rewrites the attachment title, subtitle and metadata.
func (c *Client) UpdateAttachment(ctx context.Context, attachmentID string, update AttachmentUpdate) error {
	input := map[string]any{
		"title":    update.Title,
		"subtitle": update.Subtitle,
	}
	if update.Metadata != nil {
		input["metadata"] = update.Metadata
	}

	var out struct {
		AttachmentUpdate struct {
			Success bool `json:"success"`
		} `json:"attachmentUpdate"`
	}
	err := c.do(ctx, "attachment_update", attachmentUpdateMutation, map[string]any{
		"id":    attachmentID,
		"input": input,
	}, &out)
	if err != nil {
		return err
	}
	if !out.AttachmentUpdate.Success {
		return fmt.Errorf("%w: attachment update rejected", ErrRequestFailed)
	}
	return nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	err := c.doOnce(ctx, query, variables, out)
	c.metrics.RecordLinearCall(ctx, operation, err == nil)
	return err
}

func (c *Client) doOnce(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, res.StatusCode)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, parsed.Errors[0].Message)
	}
	if out != nil && len(parsed.Data) > 0 {
		if err := json.Unmarshal(parsed.Data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
	}
	return nil
}
