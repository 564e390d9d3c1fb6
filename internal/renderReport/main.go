// --- Copyright © 2025 Gjorgji J. ---

package renderreport

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	evaluateretention "registry-tag-cleaner/internal/evaluateRetention"
	executeplan "registry-tag-cleaner/internal/executePlan"
)

// --- writes the per-record outcome table and aggregate counts ---
func Render(writer io.Writer, report executeplan.Report) {
	table := getSummaryTableWriter(writer)
	table.SetHeader([]string{"Image", "Tag", "Outcome"})

	for _, imageReport := range report.Images {
		for _, outcome := range imageReport.Outcomes {
			status := "deleted"
			switch {
			case outcome.Skipped:
				status = "skipped (already being deleted)"
			case outcome.Err != nil:
				status = fmt.Sprintf("failed: %v", outcome.Err)
			}
			table.Append([]string{imageReport.Image, outcome.Tag, status})
		}
	}
	table.Render()

	fmt.Fprintf(writer, "\nDeleted %d tags, %d skipped, %d failed\n", report.Deleted, report.Skipped, report.Failed)
	for _, listingErr := range report.ListingErrors {
		fmt.Fprintf(writer, "skipped %s: %v\n", listingErr.Image, listingErr.Err)
	}
}

// --- prints the deletion plan without touching the registry ---
func RenderPlan(writer io.Writer, plan evaluateretention.DeletionPlan) {
	fmt.Fprintf(writer, "\nTags to delete:\n\n")
	for _, image := range plan.Images() {
		if len(plan[image]) == 0 {
			continue
		}
		fmt.Fprintf(writer, "- %s:\n\n", image)
		for _, record := range plan[image] {
			fmt.Fprintf(writer, "\t%s (built %s)\n", record.Tag, record.Timestamp.Format(time.RFC3339))
		}
		fmt.Fprintln(writer)
	}
}

func getSummaryTableWriter(writer io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	return table
}
