// Package registry is the HTTP client for the skreg registry API,
// shared by the installer and the CLI.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/skregdev/skreg/internal/skill"
)

// Client talks to a skreg registry.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// New creates a client for the registry at base (scheme://host[:port]).
func New(base string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &Client{
		base: strings.TrimRight(base, "/"),
		http: rc.StandardClient(),
	}
}

// WithAPIKey returns a copy of the client authenticating as key.
func (c *Client) WithAPIKey(key string) *Client {
	cp := *c
	cp.apiKey = key
	return &cp
}

// envelope is the registry's JSON response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RemoteError is a non-2xx registry response.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("registry error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("registry error: HTTP %d", e.StatusCode)
}

// Manifest is the served metadata of a published version.
type Manifest struct {
	Namespace    string   `json:"namespace"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Category     string   `json:"category,omitempty"`
	SHA256       string   `json:"sha256"`
	Signer       string   `json:"signer"`
	CertChainPEM []string `json:"cert_chain_pem"`
	Yanked       bool     `json:"yanked,omitempty"`
}

// PublishResult is the accepted-publish response.
type PublishResult struct {
	JobID   uuid.UUID `json:"job_id"`
	Message string    `json:"message"`
}

// JobStatus is the poll view of a vetting job.
type JobStatus struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
}

// NamespaceGrant is the one-time registration response.
type NamespaceGrant struct {
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug"`
	APIKey string    `json:"api_key"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting registry: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading registry response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		// Non-JSON bodies surface as a bare status error below
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			re.Code = env.Error.Code
			re.Message = env.Error.Message
		}
		return re
	}

	if out == nil {
		return nil
	}
	if env.Data == nil {
		return fmt.Errorf("registry response has no data")
	}
	return json.Unmarshal(env.Data, out)
}

// download fetches a raw (non-enveloped) binary endpoint.
func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// Resolve fetches the manifest for a package reference. The ref's
// missing version resolves to "latest".
func (c *Client) Resolve(ctx context.Context, ref skill.PackageRef) (*Manifest, error) {
	path := fmt.Sprintf("/v1/packages/%s/%s/%s", ref.Namespace, ref.Name, ref.VersionOrLatest())
	var m Manifest
	if err := c.do(ctx, http.MethodGet, path, nil, "", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DownloadArtifact fetches the tarball bytes of a resolved version.
func (c *Client) DownloadArtifact(ctx context.Context, m *Manifest) ([]byte, error) {
	return c.download(ctx, fmt.Sprintf("/v1/download/%s/%s/%s", m.Namespace, m.Name, m.Version))
}

// DownloadSignature fetches the detached signature of a resolved version.
func (c *Client) DownloadSignature(ctx context.Context, m *Manifest) ([]byte, error) {
	return c.download(ctx, fmt.Sprintf("/v1/download/%s/%s/%s/sig", m.Namespace, m.Name, m.Version))
}

// Publish uploads a packed artifact for vetting.
func (c *Client) Publish(ctx context.Context, artifact []byte) (*PublishResult, error) {
	var res PublishResult
	err := c.do(ctx, http.MethodPost, "/v1/publish", bytes.NewReader(artifact), "application/octet-stream", &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Job polls a vetting job.
func (c *Client) Job(ctx context.Context, id uuid.UUID) (*JobStatus, error) {
	var js JobStatus
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+id.String(), nil, "", &js); err != nil {
		return nil, err
	}
	return &js, nil
}

// WaitForJob polls a job until it reaches a terminal status or ctx
// expires.
func (c *Client) WaitForJob(ctx context.Context, id uuid.UUID, interval time.Duration) (*JobStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		js, err := c.Job(ctx, id)
		if err != nil {
			return nil, err
		}
		if js.Status != "pending" {
			return js, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// RegisterNamespace registers a namespace slug and returns its
// one-time API key.
func (c *Client) RegisterNamespace(ctx context.Context, slug, email string) (*NamespaceGrant, error) {
	body, err := json.Marshal(map[string]string{"slug": slug, "email": email})
	if err != nil {
		return nil, err
	}
	var grant NamespaceGrant
	err = c.do(ctx, http.MethodPost, "/v1/namespaces", bytes.NewReader(body), "application/json", &grant)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}
