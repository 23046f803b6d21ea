package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/pkg/requestid"
)

// Producer is the client interface to the generation job producer. It owns
// no state beyond the HTTP connection; every call maps one request to one
// response.
type Producer interface {
	// Submit sends a generation request and returns the job id assigned by
	// the producer. A rejected request fails with SubmissionError and is
	// never retried here.
	Submit(ctx context.Context, request api.JobRequest) (uuid.UUID, error)
	// FetchStatus returns the current snapshot of one job. Unknown ids fail
	// with NotFoundError, network and 5xx conditions with TransientError.
	FetchStatus(ctx context.Context, id uuid.UUID) (*api.JobSnapshot, error)
	// FetchAll returns the snapshots of every job owned by the calling
	// identity. Used by the bulk reconciliation path.
	FetchAll(ctx context.Context) ([]api.JobSnapshot, error)
}

var _ Producer = (*producer)(nil)

type producer struct {
	server     string
	httpClient *http.Client
	identity   Identity
}

// Identity is attached to every outgoing request so the server can scope
// job listings to the caller.
type Identity struct {
	Username     string
	Organization string
}

func NewProducer(config *Config, identity Identity) (Producer, error) {
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	return &producer{
		server:     config.Service.Server,
		httpClient: httpClient,
		identity:   identity,
	}, nil
}

func (p *producer) Submit(ctx context.Context, request api.JobRequest) (uuid.UUID, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return uuid.Nil, NewSubmissionError(err.Error())
	}

	resp, err := p.do(ctx, http.MethodPost, p.server+"/api/v1alpha1/jobs", bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return uuid.Nil, NewSubmissionError(readErrorMessage(resp.Body))
	default:
		return uuid.Nil, NewTransientError(fmt.Errorf("submit failed: %s", resp.Status))
	}

	var created api.JobCreated
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return uuid.Nil, NewSubmissionError(fmt.Sprintf("malformed create response: %v", err))
	}
	return created.ID, nil
}

func (p *producer) FetchStatus(ctx context.Context, id uuid.UUID) (*api.JobSnapshot, error) {
	resp, err := p.do(ctx, http.MethodGet, fmt.Sprintf("%s/api/v1alpha1/jobs/%s", p.server, id), nil)
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewNotFoundError(id, "job")
	default:
		return nil, NewTransientError(fmt.Errorf("fetch status failed: %s", resp.Status))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransientError(err)
	}

	snapshot, err := ParseSnapshot(raw)
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("parsing job %s snapshot: %w", id, err))
	}
	return snapshot, nil
}

func (p *producer) FetchAll(ctx context.Context) ([]api.JobSnapshot, error) {
	resp, err := p.do(ctx, http.MethodGet, p.server+"/api/v1alpha1/jobs", nil)
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewTransientError(fmt.Errorf("list jobs failed: %s", resp.Status))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransientError(err)
	}

	return ParseSnapshotList(raw)
}

func (p *producer) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-request-id", requestid.FromContext(ctx))
	setIdentityHeaders(req, p.identity)

	return p.httpClient.Do(req)
}

func setIdentityHeaders(req *http.Request, identity Identity) {
	if identity.Username != "" {
		req.Header.Set("X-Narration-User", identity.Username)
	}
	if identity.Organization != "" {
		req.Header.Set("X-Narration-Org", identity.Organization)
	}
}

func readErrorMessage(r io.Reader) string {
	var apiErr api.Error
	if err := json.NewDecoder(r).Decode(&apiErr); err != nil || apiErr.Message == "" {
		return "bad request"
	}
	return apiErr.Message
}
