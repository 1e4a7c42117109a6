package main

import (
	"io"
	"path"
	"sync"

	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

// progressBar renders download progress on a terminal
type progressBar struct {
	once     sync.Once
	progress *mpb.Progress
	bar      *mpb.Bar
	sized    bool
}

func newProgressBar(w io.Writer, rawURL string) *progressBar {
	p := mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))

	name := path.Base(rawURL)
	if len(name) > 30 {
		name = name[:27] + "..."
	}

	bar := p.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
		),
	)

	return &progressBar{progress: p, bar: bar}
}

// Update is a port.ProgressFunc. total is -1 when the server sent no length.
func (b *progressBar) Update(written, total int64) {
	if !b.sized && total > 0 {
		b.bar.SetTotal(total, false)
		b.sized = true
	}
	b.bar.SetCurrent(written)
}

// Finish completes or aborts the bar and waits for the final render
func (b *progressBar) Finish(success bool) {
	b.once.Do(func() {
		if success {
			b.bar.SetTotal(-1, true)
		} else {
			b.bar.Abort(false)
		}
		b.progress.Wait()
	})
}
