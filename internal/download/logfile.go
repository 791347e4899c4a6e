package download

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// TimeFormat is the layout of every timestamp printed by the downloader.
const TimeFormat = "2006-01-02 15:04:05"

// writeLogRecord appends the background-mode record of one finished download.
func writeLogRecord(w io.Writer, s *DownloadStats) error {
	_, err := fmt.Fprintf(w,
		"start at %s\n"+
			"sending request, awaiting response... %s\n"+
			"content size: %d [%s]\n"+
			"saving file to: %s\n"+
			"Downloaded [%s]\n"+
			"finished at %s\n\n",
		s.StartTime.Format(TimeFormat),
		s.Status,
		s.ContentLength, humanize.IBytes(uint64(s.ContentLength)),
		s.FilePath,
		s.URL,
		s.EndTime.Format(TimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to write log record: %w", err)
	}
	return nil
}
