package processing

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Job is a handle to a submitted processing job. Job state lives in the
// control plane; the handle only remembers the name and the descriptors the
// job was started with.
type Job struct {
	JobName string
	Inputs  []*ProcessingInput
	Outputs []*ProcessingOutput

	session Session
}

// NewJob attaches a handle to an existing job by name.
func NewJob(sess Session, jobName string) *Job {
	return &Job{JobName: jobName, session: sess}
}

// Wait blocks until the job reaches a terminal status, streaming logs to w
// when logs is set. A job that finishes in any status other than Completed is
// reported as an error alongside its description.
func (j *Job) Wait(ctx context.Context, logs bool, w io.Writer) (*JobDescription, error) {
	var desc *JobDescription
	var err error
	if logs {
		if w == nil {
			w = os.Stdout
		}
		desc, err = j.session.LogsForProcessingJob(ctx, j.JobName, w)
	} else {
		desc, err = j.session.WaitForProcessingJob(ctx, j.JobName)
	}
	if err != nil {
		return desc, err
	}
	if desc.JobStatus != StatusCompleted {
		reason := desc.FailureReason
		if reason == "" {
			reason = desc.JobStatus
		}
		return desc, fmt.Errorf("processing job %s ended with status %s: %s", j.JobName, desc.JobStatus, reason)
	}
	return desc, nil
}

// Describe fetches the job description from the control plane.
func (j *Job) Describe(ctx context.Context) (*JobDescription, error) {
	return j.session.DescribeProcessingJob(ctx, j.JobName)
}

// Stop requests the control plane to stop the job.
func (j *Job) Stop(ctx context.Context) error {
	return j.session.StopProcessingJob(ctx, j.JobName)
}
