package session

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/skyforge-dev/skyforge/pkg/processing"
)

// logPage is one page of job log output. After resumes the tail from the
// offset returned by the previous page.
type logPage struct {
	Lines     []string `json:"Lines"`
	NextToken int64    `json:"NextToken"`
	JobStatus string   `json:"JobStatus"`
}

// LogsForProcessingJob tails the job's log output to w until the job reaches
// a terminal status and all buffered lines have been drained, then returns
// the final description.
func (s *Session) LogsForProcessingJob(ctx context.Context, name string, w io.Writer) (*processing.JobDescription, error) {
	timeout := time.After(s.cfg.WaitTimeout)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	var after int64
	for {
		page, err := s.fetchLogs(ctx, name, after)
		if err != nil {
			return nil, err
		}
		for _, line := range page.Lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return nil, fmt.Errorf("write log line: %w", err)
			}
		}
		after = page.NextToken

		if processing.IsTerminalStatus(page.JobStatus) && len(page.Lines) == 0 {
			return s.DescribeProcessingJob(ctx, name)
		}

		select {
		case <-timeout:
			return nil, fmt.Errorf("timeout streaming logs for processing job %s", name)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) fetchLogs(ctx context.Context, name string, after int64) (*logPage, error) {
	var page logPage
	path := fmt.Sprintf("/v1/processing-jobs/%s/logs?after=%d", url.PathEscape(name), after)
	if err := s.do(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
