// Package progress derives displayable ingestion progress from a document.
package progress

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/jackzampolin/kbase/internal/types"
)

// Report is a read-only view of a document's ingestion progress.
type Report struct {
	Status types.Status `json:"status"`
	Offset int          `json:"parse_offset"`
	Total  int          `json:"chunk_count"`
	// Partial is set while a run is active or paused, when the offset is
	// meaningful relative to the total.
	Partial bool `json:"partial"`
}

// For builds the report for doc.
func For(doc *types.Document) Report {
	return Report{
		Status:  doc.Status,
		Offset:  doc.ParseOffset,
		Total:   doc.ChunkCount,
		Partial: doc.Status == types.StatusProcessing || doc.Status == types.StatusPaused,
	}
}

// String renders "offset / total" for partial runs and the chunk count
// otherwise.
func (r Report) String() string {
	if r.Partial {
		return fmt.Sprintf("%d / %d", r.Offset, r.Total)
	}
	return strconv.Itoa(r.Total)
}

// Percent is the completed fraction in [0, 100]. Zero when the total is
// not yet known.
func (r Report) Percent() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Offset) * 100 / float64(r.Total)
}

// Bar renders successive reports for one document to a terminal.
type Bar struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	total int
	name  string
}

// NewBar creates a bar labelled with the document name.
func NewBar(w io.Writer, name string) *Bar {
	return &Bar{w: w, name: name}
}

func (b *Bar) reset(total int) {
	b.total = total
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(color.BlueString(b.name)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update draws r. The bar is rebuilt whenever the chunk count changes.
func (b *Bar) Update(r Report) error {
	if b.bar == nil || r.Total != b.total {
		b.reset(r.Total)
	}
	return b.bar.Set(r.Offset)
}

// Finish prints a final status line for r.
func (b *Bar) Finish(r Report) {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
	fmt.Fprintln(b.w)
	switch r.Status {
	case types.StatusProcessed:
		fmt.Fprintln(b.w, color.GreenString("✓ %s processed (%s chunks)", b.name, r))
	case types.StatusFailed, types.StatusCancelled:
		fmt.Fprintln(b.w, color.RedString("✗ %s %s", b.name, r.Status))
	default:
		fmt.Fprintln(b.w, color.YellowString("%s %s at %s (%.0f%%)", b.name, r.Status, r, r.Percent()))
	}
}
