package client

import (
	"encoding/json"
	"fmt"

	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
)

// The producer's wire format is loosely typed: the result field sometimes
// arrives double-encoded, a JSON string whose content is itself JSON. The
// parse boundary lives here; nothing un-parsed ever reaches the ledger.

type snapshotWire struct {
	ID        json.RawMessage `json:"id"`
	Status    string          `json:"status"`
	Request   api.JobRequest  `json:"request"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// ParseSnapshot decodes one job snapshot, failing on anything it cannot
// fully account for.
func ParseSnapshot(raw []byte) (*api.JobSnapshot, error) {
	var snapshot api.JobSnapshot
	if err := json.Unmarshal(raw, &snapshot); err == nil {
		if snapshot.Status != api.StringToJobStatus(string(snapshot.Status)) {
			return nil, fmt.Errorf("unknown job status %q", snapshot.Status)
		}
		return &snapshot, nil
	}

	// Retry with the result treated as double-encoded.
	var wire snapshotWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	var rebuilt struct {
		api.JobSnapshot
		Result json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(raw, &rebuilt); err != nil {
		return nil, err
	}
	snapshot = rebuilt.JobSnapshot

	if len(wire.Result) > 0 {
		result, err := parseResult(wire.Result)
		if err != nil {
			return nil, fmt.Errorf("parsing result: %w", err)
		}
		snapshot.Result = result
	}
	if snapshot.Status != api.StringToJobStatus(string(snapshot.Status)) {
		return nil, fmt.Errorf("unknown job status %q", snapshot.Status)
	}
	return &snapshot, nil
}

// ParseSnapshotList decodes the bulk job listing.
func ParseSnapshotList(raw []byte) ([]api.JobSnapshot, error) {
	var wire struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, NewTransientError(fmt.Errorf("parsing job list: %w", err))
	}

	snapshots := make([]api.JobSnapshot, 0, len(wire.Jobs))
	for _, rawJob := range wire.Jobs {
		snapshot, err := ParseSnapshot(rawJob)
		if err != nil {
			return nil, NewTransientError(fmt.Errorf("parsing job list entry: %w", err))
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, nil
}

func parseResult(raw json.RawMessage) (*api.JobResult, error) {
	var result api.JobResult
	if err := json.Unmarshal(raw, &result); err == nil {
		return &result, nil
	}

	// Double-encoded: unwrap the string, then decode the payload.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("result is neither an object nor a string")
	}
	if err := json.Unmarshal([]byte(encoded), &result); err != nil {
		return nil, fmt.Errorf("double-encoded result does not contain a result object: %w", err)
	}
	return &result, nil
}
