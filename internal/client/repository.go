package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/pkg/requestid"
)

// Repository is the client interface to the assignment system of record.
type Repository interface {
	ListMine(ctx context.Context, statusFilter *api.AssignmentStatus, typeFilter *api.AssignmentType) ([]api.Assignment, error)
	Create(ctx context.Context, form api.AssignmentCreate) (*api.Assignment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update api.AssignmentStatusUpdate) (*api.Assignment, error)
	UpdatePriority(ctx context.Context, id uuid.UUID, update api.AssignmentPriorityUpdate) (*api.Assignment, error)
	UpdateReader(ctx context.Context, id uuid.UUID, update api.AssignmentReaderUpdate) (*api.Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AvailableReaders(ctx context.Context) ([]api.Reader, error)
}

var _ Repository = (*repository)(nil)

type repository struct {
	server     string
	httpClient *http.Client
	identity   Identity
}

func NewRepository(config *Config, identity Identity) (Repository, error) {
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	return &repository{
		server:     config.Service.Server,
		httpClient: httpClient,
		identity:   identity,
	}, nil
}

func (r *repository) ListMine(ctx context.Context, statusFilter *api.AssignmentStatus, typeFilter *api.AssignmentType) ([]api.Assignment, error) {
	query := url.Values{}
	if statusFilter != nil {
		query.Set("status", string(*statusFilter))
	}
	if typeFilter != nil {
		query.Set("type", string(*typeFilter))
	}
	endpoint := r.server + "/api/v1alpha1/assignments"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := r.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewTransientError(fmt.Errorf("list assignments failed: %s", resp.Status))
	}

	var assignments []api.Assignment
	if err := json.NewDecoder(resp.Body).Decode(&assignments); err != nil {
		return nil, NewTransientError(fmt.Errorf("parsing assignment list: %w", err))
	}
	return assignments, nil
}

func (r *repository) Create(ctx context.Context, form api.AssignmentCreate) (*api.Assignment, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return nil, NewSubmissionError(err.Error())
	}

	resp, err := r.do(ctx, http.MethodPost, r.server+"/api/v1alpha1/assignments", bytes.NewReader(body))
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, NewSubmissionError(readErrorMessage(resp.Body))
	default:
		return nil, NewTransientError(fmt.Errorf("create assignment failed: %s", resp.Status))
	}

	return decodeAssignment(resp.Body)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, update api.AssignmentStatusUpdate) (*api.Assignment, error) {
	return r.put(ctx, fmt.Sprintf("%s/api/v1alpha1/assignments/%s/status", r.server, id), id, update)
}

func (r *repository) UpdatePriority(ctx context.Context, id uuid.UUID, update api.AssignmentPriorityUpdate) (*api.Assignment, error) {
	return r.put(ctx, fmt.Sprintf("%s/api/v1alpha1/assignments/%s/priority", r.server, id), id, update)
}

func (r *repository) UpdateReader(ctx context.Context, id uuid.UUID, update api.AssignmentReaderUpdate) (*api.Assignment, error) {
	return r.put(ctx, fmt.Sprintf("%s/api/v1alpha1/assignments/%s/reader", r.server, id), id, update)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	resp, err := r.do(ctx, http.MethodDelete, fmt.Sprintf("%s/api/v1alpha1/assignments/%s", r.server, id), nil)
	if err != nil {
		return NewTransientError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return NewNotFoundError(id, "assignment")
	default:
		return NewTransientError(fmt.Errorf("delete assignment failed: %s", resp.Status))
	}
}

func (r *repository) AvailableReaders(ctx context.Context) ([]api.Reader, error) {
	resp, err := r.do(ctx, http.MethodGet, r.server+"/api/v1alpha1/readers", nil)
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewTransientError(fmt.Errorf("list readers failed: %s", resp.Status))
	}

	var readers []api.Reader
	if err := json.NewDecoder(resp.Body).Decode(&readers); err != nil {
		return nil, NewTransientError(fmt.Errorf("parsing reader list: %w", err))
	}
	return readers, nil
}

func (r *repository) put(ctx context.Context, endpoint string, id uuid.UUID, payload any) (*api.Assignment, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewSubmissionError(err.Error())
	}

	resp, err := r.do(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewNotFoundError(id, "assignment")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, NewSubmissionError(readErrorMessage(resp.Body))
	default:
		return nil, NewTransientError(fmt.Errorf("update assignment failed: %s", resp.Status))
	}

	return decodeAssignment(resp.Body)
}

func (r *repository) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-request-id", requestid.FromContext(ctx))
	setIdentityHeaders(req, r.identity)

	return r.httpClient.Do(req)
}

func decodeAssignment(r io.Reader) (*api.Assignment, error) {
	var assignment api.Assignment
	if err := json.NewDecoder(r).Decode(&assignment); err != nil {
		return nil, NewTransientError(fmt.Errorf("parsing assignment: %w", err))
	}
	return &assignment, nil
}
