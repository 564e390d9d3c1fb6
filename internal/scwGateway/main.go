// --- Copyright © 2025 Gjorgji J. ---

package scwgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	registrygateway "registry-tag-cleaner/internal/registryGateway"
)

// --- regions the Scaleway registry API is served from ---
var regionURLs = map[string]string{
	"fr-par": "https://api.scaleway.com/registry/v1/regions/fr-par",
	"nl-ams": "https://api.scaleway.com/registry/v1/regions/nl-ams",
	"pl-waw": "https://api.scaleway.com/registry/v1/regions/pl-waw",
}

const (
	defaultRegion = "fr-par"
	userAgent     = "registry-tag-cleaner/1.0"

	tagPageSize = 100
	maxTagPages = 20

	requestTimeout = 20 * time.Second
)

// --- tag statuses reported by the registry ---
const (
	statusDeleting = "deleting"
)

// --- Config for a Scaleway gateway handle ---
// BaseURL overrides the region lookup and exists for tests.
type Config struct {
	Region    string
	SecretKey string
	BaseURL   string
	Debug     bool
	Logger    zerolog.Logger
}

// --- Gateway speaks the Scaleway registry API v1 ---
// The HTTP client is constructed once per run and closed at run end. Tag
// ids and statuses observed while listing are remembered so that deletes,
// which the API addresses by tag id, can be issued by image and tag name.
type Gateway struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
	debug   bool

	mu       sync.Mutex
	imageIDs map[string]string
	tags     map[string]tagMeta
}

type tagMeta struct {
	id     string
	status string
}

func New(cfg Config) (*Gateway, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		region := cfg.Region
		if region == "" {
			region = defaultRegion
		}
		var ok bool
		baseURL, ok = regionURLs[region]
		if !ok {
			return nil, fmt.Errorf("%s is not a valid Scaleway region", region)
		}
	}

	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &authTransport{
			secretKey: cfg.SecretKey,
			base: &retryTransport{
				base:    http.DefaultTransport,
				backoff: retryIn,
				logger:  cfg.Logger,
			},
		},
	}

	return &Gateway{
		baseURL:  baseURL,
		client:   client,
		logger:   cfg.Logger,
		debug:    cfg.Debug,
		imageIDs: make(map[string]string),
		tags:     make(map[string]tagMeta),
	}, nil
}

// --- lists the image names of a namespace ---
func (g *Gateway) ListImages(ctx context.Context, namespace string) ([]string, error) {
	var namespaces struct {
		Namespaces []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"namespaces"`
	}
	if err := g.get(ctx, "/namespaces", url.Values{"name": {namespace}}, &namespaces); err != nil {
		return nil, fmt.Errorf("failed to resolve namespace %s: %w", namespace, err)
	}
	if len(namespaces.Namespaces) == 0 {
		return nil, fmt.Errorf("namespace %s not found", namespace)
	}

	var images struct {
		Images []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"images"`
	}
	query := url.Values{"namespace_id": {namespaces.Namespaces[0].ID}}
	if err := g.get(ctx, "/images", query, &images); err != nil {
		return nil, fmt.Errorf("failed to list images of namespace %s: %w", namespace, err)
	}

	names := make([]string, 0, len(images.Images))
	g.mu.Lock()
	for _, image := range images.Images {
		g.imageIDs[image.Name] = image.ID
		names = append(names, image.Name)
	}
	g.mu.Unlock()
	sort.Strings(names)

	return names, nil
}

// --- lists every tag of an image, paging until the registry runs dry ---
func (g *Gateway) ListTags(ctx context.Context, image string) ([]registrygateway.TagListing, error) {
	g.mu.Lock()
	imageID, ok := g.imageIDs[image]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("image %s was not listed in this run", image)
	}

	var listings []registrygateway.TagListing
	complete := false
	for page := 1; page <= maxTagPages; page++ {
		var tags struct {
			Tags []struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Status    string `json:"status"`
				CreatedAt string `json:"created_at"`
			} `json:"tags"`
		}
		query := url.Values{
			"page":      {fmt.Sprintf("%d", page)},
			"page_size": {fmt.Sprintf("%d", tagPageSize)},
		}
		if err := g.get(ctx, "/images/"+imageID+"/tags", query, &tags); err != nil {
			return nil, fmt.Errorf("failed to list tags of image %s: %w", image, err)
		}
		if len(tags.Tags) == 0 {
			complete = true
			break
		}

		g.mu.Lock()
		for _, tag := range tags.Tags {
			g.tags[image+":"+tag.Name] = tagMeta{id: tag.ID, status: tag.Status}
			listings = append(listings, registrygateway.TagListing{
				Name:      tag.Name,
				CreatedAt: parseCreatedAt(tag.CreatedAt),
			})
		}
		g.mu.Unlock()
	}
	// A partial listing must never reach the evaluator: protected tags
	// hiding on unfetched pages would not count toward the keep floor.
	if !complete {
		return nil, fmt.Errorf("image %s still had tags after %d pages, refusing to act on a partial listing", image, maxTagPages)
	}

	return listings, nil
}

// --- deletes one tag by name ---
// Tags already in deleting status are left alone and reported with
// ErrTagAlreadyDeleting. A missing or already deleted tag maps to a
// not-found DeleteError, reported but never fatal.
func (g *Gateway) DeleteTag(ctx context.Context, image string, tag string) error {
	g.mu.Lock()
	meta, ok := g.tags[image+":"+tag]
	g.mu.Unlock()
	if !ok {
		return &registrygateway.DeleteError{
			Image: image, Tag: tag, Reason: "tag not found", NotFound: true,
		}
	}
	if meta.status == statusDeleting {
		g.logger.Info().Str("image", image).Str("tag", tag).Msg("tag already being deleted, skipping")
		return registrygateway.ErrTagAlreadyDeleting
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+"/tags/"+meta.id, nil)
	if err != nil {
		return &registrygateway.DeleteError{Image: image, Tag: tag, Reason: err.Error()}
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return &registrygateway.DeleteError{Image: image, Tag: tag, Reason: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) // nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &registrygateway.DeleteError{
			Image: image, Tag: tag, Reason: "tag not found", NotFound: true,
		}
	case resp.StatusCode >= 300:
		return &registrygateway.DeleteError{
			Image: image, Tag: tag, Reason: fmt.Sprintf("registry returned status %d", resp.StatusCode),
		}
	}

	g.logger.Info().Str("image", image).Str("tag", tag).Msg("deleted tag")
	return nil
}

func (g *Gateway) Close() {
	g.client.CloseIdleConnections()
}

func (g *Gateway) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if g.debug {
		g.logger.Debug().Str("url", endpoint).Str("body", string(body)).Msg("registry response")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

// --- created_at is RFC 3339, occasionally without a zone suffix ---
func parseCreatedAt(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

// --- authTransport attaches the headers needed to query Scaleway APIs ---
type authTransport struct {
	secretKey string
	base      http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	if t.secretKey != "" {
		req.Header.Set("X-Auth-Token", t.secretKey)
	}
	return t.base.RoundTrip(req)
}

// --- maximum attempts against an API in maintenance before aborting ---
const maxRetries = 3

// --- retryTransport retries requests that hit an API in maintenance ---
type retryTransport struct {
	base    http.RoundTripper
	backoff func(retry int) time.Duration
	logger  zerolog.Logger
}

func retryIn(retry int) time.Duration {
	wait := 1 << retry
	if wait > 30 {
		wait = 30
	}
	return time.Duration(wait) * time.Second
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	retry := 0
	for {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusBadGateway &&
			resp.StatusCode != http.StatusServiceUnavailable &&
			resp.StatusCode != http.StatusGatewayTimeout {
			return resp, nil
		}

		retry++
		if retry >= maxRetries {
			t.logger.Error().Int("attempts", maxRetries).Msg("API endpoint still in maintenance, stop trying")
			return resp, nil
		}
		resp.Body.Close() // nolint:errcheck

		wait := t.backoff(retry)
		t.logger.Info().Int("retry", retry).Dur("retry_in", wait).Msg("API endpoint is in maintenance, retrying")
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}
