package reembed

import (
	"fmt"
	"io"
	"time"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// runReport writes a run's progress as one carriage-return refreshed line.
// Positions come from the run's checkpoint, so a resumed run starts part way
// through, and its rate counts only entities embedded since it began.
type runReport struct {
	w       io.Writer
	total   int
	every   int
	resumed int
	shown   int
	start   time.Time
	now     func() time.Time
}

func newRunReport(w io.Writer, total, every int, from *core.Checkpoint) *runReport {
	if w == nil {
		w = io.Discard
	}
	r := &runReport{w: w, total: total, every: max(every, 1), now: time.Now}
	if from != nil {
		r.resumed = min(from.Processed, total)
		r.shown = r.resumed
	}
	return r
}

// begin prints the run header and starts the clock.
func (r *runReport) begin(batchSize int, after core.ID) {
	r.start = r.now()
	fmt.Fprintf(r.w, "Starting reembedding of %d entities (batch size: %d)\n", r.total, batchSize)
	if r.resumed > 0 {
		fmt.Fprintf(r.w, "Resuming after entity %d, %d already done\n", after, r.resumed)
	}
}

// batch reports the checkpoint saved after a batch, at most once per interval.
func (r *runReport) batch(cp *core.Checkpoint) {
	done := min(cp.Processed, r.total)
	if done-r.shown < r.every {
		return
	}
	r.line(done)
	r.shown = done
}

// finish prints the final position and the summary for this run.
func (r *runReport) finish(processed int) time.Duration {
	elapsed := r.now().Sub(r.start)
	r.line(r.total)
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "Reembedding complete. Processed %d entities in %v\n", processed, elapsed.Round(time.Millisecond))
	return elapsed
}

func (r *runReport) line(done int) {
	var rate float64
	if secs := r.now().Sub(r.start).Seconds(); secs > 0 {
		rate = float64(done-r.resumed) / secs
	}
	pct := 100.0
	if r.total > 0 {
		pct = float64(done) / float64(r.total) * 100
	}
	fmt.Fprintf(r.w, "\rReembedded %d/%d entities (%.1f%%) %.1f entities/s", done, r.total, pct, rate)
}
