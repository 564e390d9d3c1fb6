// --- Copyright © 2025 Gjorgji J. ---

package executeplan

import (
	"context"
	"errors"
	"sync"

	evaluateretention "registry-tag-cleaner/internal/evaluateRetention"
	registrygateway "registry-tag-cleaner/internal/registryGateway"
)

// --- deleteBatchSize bounds concurrent delete calls per image ---
const deleteBatchSize = 10

// --- DeleteFunc deletes a single tag of one image ---
type DeleteFunc func(ctx context.Context, image string, tag string) error

// --- Outcome is the per-record result; Err is nil when the tag was deleted ---
// Skipped marks a tag the registry was already removing on its own.
type Outcome struct {
	Tag     string
	Err     error
	Skipped bool
}

// --- ImageReport lists outcomes for one image in plan order ---
type ImageReport struct {
	Image    string
	Outcomes []Outcome
}

// --- Report aggregates per-record outcomes plus per-image listing failures ---
type Report struct {
	Images        []ImageReport
	ListingErrors []*registrygateway.ListingError
	Deleted       int
	Skipped       int
	Failed        int
}

// --- runs every deletion in the plan ---
// Deletes are issued in bounded concurrent batches per image. One record's
// failure never prevents attempts on the others, and the report preserves
// the plan's ordering regardless of completion order.
func Execute(ctx context.Context, plan evaluateretention.DeletionPlan, deleteOne DeleteFunc) Report {
	var report Report

	for _, image := range plan.Images() {
		records := plan[image]
		outcomes := make([]Outcome, len(records))

		for start := 0; start < len(records); start += deleteBatchSize {
			end := start + deleteBatchSize
			if end > len(records) {
				end = len(records)
			}

			var wg sync.WaitGroup
			for i := start; i < end; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := deleteOne(ctx, image, records[i].Tag)
					if errors.Is(err, registrygateway.ErrTagAlreadyDeleting) {
						outcomes[i] = Outcome{Tag: records[i].Tag, Skipped: true}
						return
					}
					outcomes[i] = Outcome{Tag: records[i].Tag, Err: err}
				}(i)
			}
			wg.Wait()
		}

		for _, outcome := range outcomes {
			switch {
			case outcome.Skipped:
				report.Skipped++
			case outcome.Err != nil:
				report.Failed++
			default:
				report.Deleted++
			}
		}
		report.Images = append(report.Images, ImageReport{Image: image, Outcomes: outcomes})
	}

	return report
}
