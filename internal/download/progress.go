package download

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
)

// progress shows a spinner with the number of bytes received so far.
// The spinner library stays silent when w is not a terminal.
type progress struct {
	spinner *spinner.Spinner
	total   int64
}

func newProgress(w io.Writer, total int64) *progress {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Prefix = "Downloading: "
	p := &progress{spinner: s, total: total}
	p.update(0)
	s.Start()
	return p
}

func (p *progress) update(downloaded int64) {
	p.spinner.Lock()
	p.spinner.Suffix = " " + progressText(downloaded, p.total)
	p.spinner.Unlock()
}

func (p *progress) finish() {
	p.spinner.FinalMSG = "Download complete\n"
	p.spinner.Stop()
}

// progressText renders "1.5 MiB / 3.0 MiB (50%)", or just the byte count
// when the server did not announce a length.
func progressText(downloaded, total int64) string {
	if total <= 0 {
		return humanize.IBytes(uint64(max(downloaded, 0)))
	}
	percent := downloaded * 100 / total
	return fmt.Sprintf("%s / %s (%d%%)",
		humanize.IBytes(uint64(max(downloaded, 0))), humanize.IBytes(uint64(total)), percent)
}
