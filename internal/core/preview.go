package core

import "time"

// DefaultPreviewSample is the number of sample rows shown when no size is
// requested.
const DefaultPreviewSample = 10

// maxErrorSamples bounds the row errors returned with a preview.
const maxErrorSamples = 20

// PreviewSummary contains the counts of the full parse.
type PreviewSummary struct {
	ValidRows   int `json:"validRows"`
	InvalidRows int `json:"invalidRows"`
	EmptyRows   int `json:"emptyRows"`
	Warnings    int `json:"warnings"`
}

// Preview is a bounded view of an import file for review before committing.
type Preview struct {
	Valid             bool                    `json:"valid"`
	Headers           []string                `json:"headers"`
	Sample            []CatalogEntryCandidate `json:"sample"`
	TotalRows         int                     `json:"totalRows"`
	Summary           PreviewSummary          `json:"summary"`
	Errors            []string                `json:"errors"`
	Warnings          []string                `json:"warnings"`
	Categories        []string                `json:"categories"`
	MissingCategories []string                `json:"missingCategories,omitempty"`
	ProcessingTimeMs  int64                   `json:"processingTimeMs"`
}

// BuildPreview parses the whole text so the counts describe the entire file,
// then keeps only the first sampleSize normalized rows and the first row
// errors.
func BuildPreview(text string, sampleSize int) Preview {
	start := time.Now()
	if sampleSize <= 0 {
		sampleSize = DefaultPreviewSample
	}

	parsed := ParseText(text)

	n := min(sampleSize, len(parsed.Rows))
	sample := make([]CatalogEntryCandidate, n)
	for i := 0; i < n; i++ {
		sample[i] = parsed.Rows[i].Candidate()
	}

	errs := parsed.Errors
	if len(errs) > maxErrorSamples {
		errs = errs[:maxErrorSamples]
	}

	return Preview{
		Valid:     parsed.Valid,
		Headers:   parsed.Headers,
		Sample:    sample,
		TotalRows: parsed.Statistics.TotalRows,
		Summary: PreviewSummary{
			ValidRows:   parsed.Statistics.ValidRows,
			InvalidRows: parsed.Statistics.InvalidRows,
			EmptyRows:   parsed.Statistics.EmptyRows,
			Warnings:    len(parsed.Warnings),
		},
		Errors:           errs,
		Warnings:         parsed.Warnings,
		Categories:       distinctCategories(parsed.Rows),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// distinctCategories returns the cleaned category names of rows, in first
// appearance order.
func distinctCategories(rows []ProductRow) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range rows {
		c := CleanCategory(r.Category)
		if c.Valid && !seen[c.String] {
			seen[c.String] = true
			out = append(out, c.String)
		}
	}
	return out
}
