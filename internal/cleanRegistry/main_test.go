// --- Copyright © 2025 Gjorgji J. ---

package cleanregistry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evaluateretention "registry-tag-cleaner/internal/evaluateRetention"
	matchpattern "registry-tag-cleaner/internal/matchPattern"
	registrygateway "registry-tag-cleaner/internal/registryGateway"
)

// --- in-memory gateway fake ---
type fakeGateway struct {
	mu         sync.Mutex
	namespaces map[string][]string
	tags       map[string][]registrygateway.TagListing
	listErrs   map[string]error
	deleteErrs map[string]error
	deleted    []string
}

func (f *fakeGateway) ListImages(ctx context.Context, namespace string) ([]string, error) {
	images, ok := f.namespaces[namespace]
	if !ok {
		return nil, errors.New("namespace not found")
	}
	return images, nil
}

func (f *fakeGateway) ListTags(ctx context.Context, image string) ([]registrygateway.TagListing, error) {
	if err := f.listErrs[image]; err != nil {
		return nil, err
	}
	return f.tags[image], nil
}

func (f *fakeGateway) DeleteTag(ctx context.Context, image string, tag string) error {
	if err := f.deleteErrs[image+":"+tag]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, image+":"+tag)
	return nil
}

func (f *fakeGateway) Close() {}

func epochTag(prefix string, epoch int64) registrygateway.TagListing {
	return registrygateway.TagListing{
		Name:      prefix,
		CreatedAt: time.Unix(epoch, 0).UTC(),
	}
}

func mustMatcher(t *testing.T) *matchpattern.Matcher {
	t.Helper()
	matcher, err := matchpattern.Compile(`^main-(?P<ts>[1-9][0-9]*)$`)
	require.NoError(t, err)
	return matcher
}

func TestRunDeletesOldMatchingTags(t *testing.T) {
	now := time.Now().Unix()
	old := now - int64(30*24*time.Hour/time.Second)

	gateway := &fakeGateway{
		namespaces: map[string][]string{"web": {"api"}},
		tags: map[string][]registrygateway.TagListing{
			"api": {
				epochTag("main-"+itoa(now-60), now-60),
				epochTag("main-"+itoa(old), old),
				epochTag("main-"+itoa(old-1), old-1),
				epochTag("latest", now),
			},
		},
	}

	report, plan, err := Run(context.Background(), gateway, Options{
		Namespaces: []string{"web"},
		Policy:     evaluateretention.Policy{Keep: 1, Grace: 72 * time.Hour},
		Matcher:    mustMatcher(t),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	// the fresh tag is grace-protected, keep=1 is satisfied by it, both old
	// tags go; "latest" never matches the pattern and is invisible
	assert.Equal(t, 2, plan.Size())
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, 0, report.Failed)
	assert.NotContains(t, gateway.deleted, "api:latest")
	assert.NotContains(t, gateway.deleted, "api:main-"+itoa(now-60))
	assert.Contains(t, gateway.deleted, "api:main-"+itoa(old))
	assert.Contains(t, gateway.deleted, "api:main-"+itoa(old-1))
}

func TestRunListingErrorSkipsImageOnly(t *testing.T) {
	old := time.Now().Add(-30 * 24 * time.Hour).Unix()

	gateway := &fakeGateway{
		namespaces: map[string][]string{"web": {"api", "worker"}},
		tags: map[string][]registrygateway.TagListing{
			"worker": {epochTag("main-"+itoa(old), old)},
		},
		listErrs: map[string]error{"api": errors.New("boom")},
	}

	report, _, err := Run(context.Background(), gateway, Options{
		Namespaces: []string{"web"},
		Policy:     evaluateretention.Policy{},
		Matcher:    mustMatcher(t),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	require.Len(t, report.ListingErrors, 1)
	assert.Equal(t, "api", report.ListingErrors[0].Image)
	assert.Contains(t, gateway.deleted, "worker:main-"+itoa(old))
}

func TestRunUnknownNamespaceIsReported(t *testing.T) {
	gateway := &fakeGateway{namespaces: map[string][]string{}}

	report, plan, err := Run(context.Background(), gateway, Options{
		Namespaces: []string{"ghost"},
		Policy:     evaluateretention.Policy{},
		Matcher:    mustMatcher(t),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	require.Len(t, report.ListingErrors, 1)
	assert.Equal(t, "ghost", report.ListingErrors[0].Image)
	assert.Empty(t, plan)
}

func TestRunDryRunDeletesNothing(t *testing.T) {
	old := time.Now().Add(-30 * 24 * time.Hour).Unix()

	gateway := &fakeGateway{
		namespaces: map[string][]string{"web": {"api"}},
		tags: map[string][]registrygateway.TagListing{
			"api": {epochTag("main-"+itoa(old), old)},
		},
	}

	report, plan, err := Run(context.Background(), gateway, Options{
		Namespaces: []string{"web"},
		Policy:     evaluateretention.Policy{},
		Matcher:    mustMatcher(t),
		DryRun:     true,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Size())
	assert.Equal(t, 0, report.Deleted)
	assert.Empty(t, gateway.deleted)
}

func TestRunDeleteFailureIsReportedPerRecord(t *testing.T) {
	old := time.Now().Add(-30 * 24 * time.Hour).Unix()

	gateway := &fakeGateway{
		namespaces: map[string][]string{"web": {"api"}},
		tags: map[string][]registrygateway.TagListing{
			"api": {
				epochTag("main-"+itoa(old), old),
				epochTag("main-"+itoa(old-1), old-1),
			},
		},
		deleteErrs: map[string]error{
			"api:main-" + itoa(old): &registrygateway.DeleteError{
				Image: "api", Tag: "main-" + itoa(old), Reason: "tag not found", NotFound: true,
			},
		},
	}

	report, _, err := Run(context.Background(), gateway, Options{
		Namespaces: []string{"web"},
		Policy:     evaluateretention.Policy{},
		Matcher:    mustMatcher(t),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, gateway.deleted, "api:main-"+itoa(old-1))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
