// --- Copyright © 2025 Gjorgji J. ---

package evaluateretention

import (
	"fmt"
	"sort"
	"time"
)

// --- TagRecord is one pattern-matched tag of one image ---
// Timestamp is recovered from the tag name itself and is authoritative over
// any registry-reported creation time. Records are rebuilt fresh every run.
type TagRecord struct {
	Image     string
	Tag       string
	Timestamp time.Time
}

// --- ImageGroup holds every matching record of one image, newest first ---
type ImageGroup struct {
	Image   string
	Records []TagRecord
}

// --- Policy combines the keep floor and the grace period ---
// Keep is the minimum number of matching tags retained per image; Grace is
// the minimum age below which a tag is exempt from deletion.
type Policy struct {
	Keep  int
	Grace time.Duration
}

func (p Policy) Validate() error {
	if p.Keep < 0 {
		return fmt.Errorf("keep must be non-negative, got %d", p.Keep)
	}
	if p.Grace < 0 {
		return fmt.Errorf("grace must be non-negative, got %s", p.Grace)
	}
	return nil
}

// --- DeletionPlan maps image names to records slated for deletion ---
// Records are ordered oldest first. The plan is built once per run and
// consumed exactly once by the orchestrator.
type DeletionPlan map[string][]TagRecord

// --- returns the plan's image names in stable sorted order ---
func (p DeletionPlan) Images() []string {
	images := make([]string, 0, len(p))
	for image := range p {
		images = append(images, image)
	}
	sort.Strings(images)
	return images
}

// --- total number of records across all images ---
func (p DeletionPlan) Size() int {
	total := 0
	for _, records := range p {
		total += len(records)
	}
	return total
}

// --- sorts records into per-image groups ordered newest first ---
// Timestamp ties are broken by tag name so that identical inputs always
// produce identical groups.
func BuildGroups(records []TagRecord) []ImageGroup {
	byImage := make(map[string][]TagRecord)
	for _, record := range records {
		byImage[record.Image] = append(byImage[record.Image], record)
	}

	groups := make([]ImageGroup, 0, len(byImage))
	for image, imageRecords := range byImage {
		sort.Slice(imageRecords, func(i, j int) bool {
			if !imageRecords[i].Timestamp.Equal(imageRecords[j].Timestamp) {
				return imageRecords[i].Timestamp.After(imageRecords[j].Timestamp)
			}
			return imageRecords[i].Tag < imageRecords[j].Tag
		})
		groups = append(groups, ImageGroup{Image: image, Records: imageRecords})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Image < groups[j].Image
	})

	return groups
}

// --- computes the deletion set for every group ---
// Per group: records younger than the grace period are never deletable this
// run. The keep floor is satisfied first by those, then topped up from the
// newest remaining candidates; whatever is left is deleted, oldest first.
func Evaluate(groups []ImageGroup, policy Policy, now time.Time) DeletionPlan {
	plan := make(DeletionPlan)

	for _, group := range groups {
		var candidates []TagRecord
		protected := 0
		for _, record := range group.Records {
			if now.Sub(record.Timestamp) < policy.Grace {
				protected++
			} else {
				candidates = append(candidates, record)
			}
		}

		topUp := policy.Keep - protected
		if topUp < 0 {
			topUp = 0
		}
		if topUp >= len(candidates) {
			continue
		}

		doomed := candidates[topUp:]
		for i, j := 0, len(doomed)-1; i < j; i, j = i+1, j-1 {
			doomed[i], doomed[j] = doomed[j], doomed[i]
		}
		plan[group.Image] = doomed
	}

	return plan
}
