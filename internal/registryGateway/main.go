// --- Copyright © 2025 Gjorgji J. ---

package registrygateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// --- ErrTagAlreadyDeleting marks a tag the registry is already removing ---
// Issuing another delete would be redundant; the orchestrator reports the
// tag as skipped rather than deleted or failed.
var ErrTagAlreadyDeleting = errors.New("tag is already being deleted by the registry")

// --- TagListing is a single tag as reported by the registry ---
// CreatedAt is the registry-reported creation time; the retention engine
// derives its own timestamp from the tag name and treats that one as
// authoritative.
type TagListing struct {
	Name      string
	CreatedAt time.Time
}

// --- Gateway is the capability surface the cleaner needs from a registry ---
// ListTags must yield the complete tag list for an image before returning;
// the caller never evaluates partial listings. DeleteTag is idempotent from
// the caller's perspective: deleting an already-gone tag yields a DeleteError
// with NotFound set, which is reported but never escalated.
type Gateway interface {
	ListImages(ctx context.Context, namespace string) ([]string, error)
	ListTags(ctx context.Context, image string) ([]TagListing, error)
	DeleteTag(ctx context.Context, image string, tag string) error
	Close()
}

// --- DeleteError reports a single failed tag deletion ---
type DeleteError struct {
	Image    string
	Tag      string
	Reason   string
	NotFound bool
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete %s:%s: %s", e.Image, e.Tag, e.Reason)
}

// --- ListingError means an image's tags could not be enumerated at all ---
// The image is skipped for this run; sibling images proceed.
type ListingError struct {
	Image string
	Err   error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("failed to list tags for %s: %v", e.Image, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }
