// Package progress renders terminal progress bars for the long pipeline phases.
package progress

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Reporter receives progress updates from a pipeline phase.
type Reporter interface {
	// Increment advances the bar by one item.
	Increment()
	// SetTotal updates the expected item count.
	SetTotal(total int)
	// Done marks the phase complete.
	Done()
}

// Progress owns the bars of one process. A disabled Progress hands out
// no-op reporters.
type Progress struct {
	container *mpb.Progress
}

// New creates a Progress writing to out. When enabled is false every bar is a no-op.
func New(enabled bool, out io.Writer) *Progress {
	if !enabled {
		return &Progress{}
	}
	return &Progress{container: mpb.New(mpb.WithOutput(out), mpb.WithWidth(64))}
}

// Bar adds a bar named name. A total of zero means the item count is not
// known upfront; the bar then shows elapsed time instead of an ETA.
func (p *Progress) Bar(name string, total int) Reporter {
	if p == nil || p.container == nil {
		return Nop()
	}

	if total <= 0 {
		bar := p.container.AddBar(0,
			mpb.PrependDecorators(
				decor.Name(name+": "),
				decor.CurrentNoUnit("%d"),
			),
			mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
		)
		return &barReporter{bar: bar}
	}

	bar := p.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	return &barReporter{bar: bar}
}

// Wait blocks until every bar has been completed or aborted.
func (p *Progress) Wait() {
	if p == nil || p.container == nil {
		return
	}
	p.container.Wait()
}

type barReporter struct {
	bar *mpb.Bar
}

func (r *barReporter) Increment() {
	r.bar.Increment()
}

func (r *barReporter) SetTotal(total int) {
	r.bar.SetTotal(int64(total), false)
}

// Done completes the bar at its current count.
func (r *barReporter) Done() {
	r.bar.SetTotal(-1, true)
}

type nopReporter struct{}

func (nopReporter) Increment()   {}
func (nopReporter) SetTotal(int) {}
func (nopReporter) Done()        {}

// Nop returns a Reporter that ignores all updates.
func Nop() Reporter {
	return nopReporter{}
}

// OrNop returns r, or a no-op reporter when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop()
	}
	return r
}
