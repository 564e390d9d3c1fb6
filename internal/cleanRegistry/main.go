// --- Copyright © 2025 Gjorgji J. ---

package cleanregistry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	evaluateretention "registry-tag-cleaner/internal/evaluateRetention"
	executeplan "registry-tag-cleaner/internal/executePlan"
	matchpattern "registry-tag-cleaner/internal/matchPattern"
	registrygateway "registry-tag-cleaner/internal/registryGateway"
)

// --- Options for one cleanup run ---
// Policy and Matcher are validated by the caller before any gateway call.
type Options struct {
	Namespaces []string
	Policy     evaluateretention.Policy
	Matcher    *matchpattern.Matcher
	DryRun     bool
	Logger     zerolog.Logger
}

// --- runs the full pass: list, match, evaluate, delete, report ---
// Namespaces are walked concurrently; an image's tag listing is always
// complete and its group fully evaluated before any of its deletions is
// issued. Images whose tags cannot be listed are skipped and reported,
// never aborting siblings.
func Run(ctx context.Context, gateway registrygateway.Gateway, opts Options) (executeplan.Report, evaluateretention.DeletionPlan, error) {
	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		records       []evaluateretention.TagRecord
		listingErrors []*registrygateway.ListingError
	)

	for _, namespace := range opts.Namespaces {
		wg.Add(1)
		go func(namespace string) {
			defer wg.Done()

			images, err := gateway.ListImages(ctx, namespace)
			if err != nil {
				opts.Logger.Error().Str("namespace", namespace).Err(err).Msg("failed to list images")
				mu.Lock()
				listingErrors = append(listingErrors, &registrygateway.ListingError{Image: namespace, Err: err})
				mu.Unlock()
				return
			}

			for _, image := range images {
				listings, err := gateway.ListTags(ctx, image)
				if err != nil {
					opts.Logger.Error().Str("image", image).Err(err).Msg("failed to list tags")
					mu.Lock()
					listingErrors = append(listingErrors, &registrygateway.ListingError{Image: image, Err: err})
					mu.Unlock()
					continue
				}

				matched := 0
				for _, listing := range listings {
					timestamp, ok := opts.Matcher.Extract(listing.Name)
					if !ok {
						continue
					}
					matched++
					mu.Lock()
					records = append(records, evaluateretention.TagRecord{
						Image:     image,
						Tag:       listing.Name,
						Timestamp: timestamp,
					})
					mu.Unlock()
				}
				opts.Logger.Info().Str("image", image).
					Int("tags", len(listings)).Int("matched", matched).
					Msg("listed tags")
			}
		}(namespace)
	}
	wg.Wait()

	sort.Slice(listingErrors, func(i, j int) bool {
		return listingErrors[i].Image < listingErrors[j].Image
	})

	groups := evaluateretention.BuildGroups(records)
	plan := evaluateretention.Evaluate(groups, opts.Policy, time.Now().UTC())
	opts.Logger.Info().Int("images", len(groups)).Int("deletions", plan.Size()).Msg("evaluated retention")

	if opts.DryRun {
		return executeplan.Report{ListingErrors: listingErrors}, plan, nil
	}

	report := executeplan.Execute(ctx, plan, gateway.DeleteTag)
	report.ListingErrors = listingErrors

	return report, plan, ctx.Err()
}
