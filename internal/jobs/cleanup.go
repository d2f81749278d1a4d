package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job type constants for cleanup jobs
const (
	JobTypeSweepGuestCarts = "cleanup:guest_carts"
)

// Defaults for the guest cart sweep.
const (
	DefaultGuestCartTTL   = 30 * 24 * time.Hour
	DefaultSweepBatchSize = 500
)

// Job is one unit of scheduled background work.
type Job struct {
	Type           string
	Payload        json.RawMessage
	TimeoutSeconds int
}

// SweepGuestCartsPayload configures a guest cart sweep.
type SweepGuestCartsPayload struct {
	// TTL is how long a guest cart may sit untouched. It matches the guest cookie lifetime,
	// so nothing can still address a cart older than this.
	TTL       time.Duration `json:"ttl"`
	BatchSize int           `json:"batch_size"`
}

// GuestCartSweeper deletes stale guest carts in batches.
type GuestCartSweeper interface {
	DeleteStaleGuestCarts(ctx context.Context, updatedBefore time.Time, limit int) (int64, error)
}

// NewSweepGuestCartsJob builds a sweep job with the given TTL.
func NewSweepGuestCartsJob(ttl time.Duration, batchSize int) (Job, error) {
	payloadJSON, err := json.Marshal(SweepGuestCartsPayload{TTL: ttl, BatchSize: batchSize})
	if err != nil {
		return Job{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return Job{
		Type:           JobTypeSweepGuestCarts,
		Payload:        payloadJSON,
		TimeoutSeconds: 60, // Allow up to 1 minute for cleanup
	}, nil
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	GuestCartsDeleted int64 `json:"guest_carts_deleted"`
}

// ProcessCleanupJob processes a cleanup job based on its type
func ProcessCleanupJob(ctx context.Context, job Job, store GuestCartSweeper, now time.Time) (*CleanupResult, error) {
	switch job.Type {
	case JobTypeSweepGuestCarts:
		var payload SweepGuestCartsPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sweep payload: %w", err)
		}
		return processSweepGuestCarts(ctx, store, payload, now)
	default:
		return nil, fmt.Errorf("unknown cleanup job type: %s", job.Type)
	}
}

// processSweepGuestCarts deletes batches until a short batch signals nothing is left.
func processSweepGuestCarts(ctx context.Context, store GuestCartSweeper, payload SweepGuestCartsPayload, now time.Time) (*CleanupResult, error) {
	if payload.TTL <= 0 {
		payload.TTL = DefaultGuestCartTTL
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = DefaultSweepBatchSize
	}

	cutoff := now.Add(-payload.TTL)
	result := &CleanupResult{}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n, err := store.DeleteStaleGuestCarts(ctx, cutoff, payload.BatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to delete stale guest carts: %w", err)
		}
		result.GuestCartsDeleted += n

		if n < int64(payload.BatchSize) {
			return result, nil
		}
	}
}

// IsCleanupJob checks if a job type is a cleanup job
func IsCleanupJob(jobType string) bool {
	switch jobType {
	case JobTypeSweepGuestCarts:
		return true
	}
	return false
}
