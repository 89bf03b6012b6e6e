// Package processing is the client surface for the Skyforge managed
// processing service. A Processor builds create-job payloads from job
// configuration and input/output descriptors, stages local artifacts through
// an Uploader, and submits the job through a Session.
package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skyforge-dev/skyforge/internal/naming"
	"github.com/skyforge-dev/skyforge/pkg/storage"
)

var (
	// ErrLogsRequireWait rejects log streaming on a fire-and-forget run.
	ErrLogsRequireWait = errors.New("logs can only be streamed when wait is enabled")

	// ErrNilInput and ErrNilOutput reject nil descriptor elements.
	ErrNilInput  = errors.New("inputs must be non-nil ProcessingInput values")
	ErrNilOutput = errors.New("outputs must be non-nil ProcessingOutput values")
)

// Session is the control-plane collaborator. *session.Session satisfies it.
type Session interface {
	DefaultBucket(ctx context.Context) (string, error)
	CreateProcessingJob(ctx context.Context, req *CreateJobRequest) error
	DescribeProcessingJob(ctx context.Context, name string) (*JobDescription, error)
	StopProcessingJob(ctx context.Context, name string) error
	WaitForProcessingJob(ctx context.Context, name string) (*JobDescription, error)
	LogsForProcessingJob(ctx context.Context, name string, w io.Writer) (*JobDescription, error)
}

// Uploader stages local artifacts; *storage.Dispatcher satisfies it.
type Uploader interface {
	Upload(ctx context.Context, localPath, destURI string) (string, error)
}

// Config holds the job configuration shared by every run of a Processor.
type Config struct {
	Role          string
	ImageURI      string
	InstanceCount int
	InstanceType  string
	Entrypoint    []string
	VolumeSizeGB  int
	VolumeKMSKey  string
	MaxRuntime    time.Duration
	BaseJobName   string
	Env           map[string]string
	Tags          []Tag
	NetworkConfig *NetworkConfig
}

// RunOptions configures a single run.
type RunOptions struct {
	Inputs    []*ProcessingInput
	Outputs   []*ProcessingOutput
	Arguments []string
	JobName   string

	// Wait blocks until the job reaches a terminal status. Logs streams the
	// job's log output while waiting and requires Wait.
	Wait bool
	Logs bool

	// LogWriter receives streamed logs; defaults to os.Stdout.
	LogWriter io.Writer
}

// Processor submits processing jobs for a fixed job configuration.
type Processor struct {
	cfg      Config
	session  Session
	uploader Uploader

	// Jobs started by this processor, most recent last.
	jobs      []*Job
	latestJob *Job

	currentJobName string
	arguments      []string
	entrypoint     []string
}

// New validates the job configuration and returns a Processor.
func New(sess Session, up Uploader, cfg Config) (*Processor, error) {
	if sess == nil {
		return nil, errors.New("processing: session is required")
	}
	if cfg.Role == "" {
		return nil, errors.New("processing: role is required")
	}
	if cfg.ImageURI == "" {
		return nil, errors.New("processing: image uri is required")
	}
	if cfg.InstanceCount <= 0 {
		cfg.InstanceCount = 1
	}
	if cfg.InstanceType == "" {
		return nil, errors.New("processing: instance type is required")
	}
	if cfg.VolumeSizeGB <= 0 {
		cfg.VolumeSizeGB = 30
	}
	if cfg.MaxRuntime <= 0 {
		cfg.MaxRuntime = 24 * time.Hour
	}
	return &Processor{cfg: cfg, session: sess, uploader: up, entrypoint: cfg.Entrypoint}, nil
}

// LatestJob returns the most recently started job, or nil.
func (p *Processor) LatestJob() *Job { return p.latestJob }

// Jobs returns every job started by this processor.
func (p *Processor) Jobs() []*Job { return p.jobs }

// Run normalizes the descriptors, submits the job and returns its handle.
// With Wait set it blocks until the job is terminal and reports a failed or
// stopped job as an error.
func (p *Processor) Run(ctx context.Context, opts RunOptions) (*Job, error) {
	if opts.Logs && !opts.Wait {
		return nil, ErrLogsRequireWait
	}

	p.currentJobName = p.resolveJobName(opts.JobName)

	inputs, err := p.normalizeInputs(ctx, opts.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := p.normalizeOutputs(ctx, opts.Outputs)
	if err != nil {
		return nil, err
	}
	p.arguments = opts.Arguments

	job, err := p.startJob(ctx, inputs, outputs)
	if err != nil {
		return nil, err
	}
	p.jobs = append(p.jobs, job)
	p.latestJob = job

	if opts.Wait {
		w := opts.LogWriter
		if w == nil {
			w = os.Stdout
		}
		if _, err := job.Wait(ctx, opts.Logs, w); err != nil {
			return job, err
		}
	}
	return job, nil
}

// resolveJobName honors an explicit name, then the configured base name, then
// a base derived from the image reference.
func (p *Processor) resolveJobName(jobName string) string {
	if jobName != "" {
		return jobName
	}
	base := p.cfg.BaseJobName
	if base == "" {
		base = naming.BaseNameFromImage(p.cfg.ImageURI)
	}
	return naming.NameFromBase(base)
}

// normalizeInputs assigns sequential default names and stages any local
// source under {bucket}/{job}/input/{name}, rewriting the source to the
// staged URI.
func (p *Processor) normalizeInputs(ctx context.Context, inputs []*ProcessingInput) ([]*ProcessingInput, error) {
	normalized := make([]*ProcessingInput, 0, len(inputs))
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("input %d: %w", i+1, ErrNilInput)
		}
		if in.InputName == "" {
			in.InputName = fmt.Sprintf("input-%d", i+1)
		}
		if !storage.IsRemoteURI(in.Source) {
			base, err := p.remoteBase(ctx)
			if err != nil {
				return nil, err
			}
			dest := storage.JoinURI(base, p.currentJobName, "input", in.InputName)
			uri, err := p.upload(ctx, in.Source, dest)
			if err != nil {
				return nil, fmt.Errorf("stage input %s: %w", in.InputName, err)
			}
			in.Source = uri
		}
		normalized = append(normalized, in)
	}
	return normalized, nil
}

// normalizeOutputs assigns sequential default names and rewrites any
// non-remote destination to {bucket}/{job}/output/{name}. Outputs are
// produced by the job, so nothing is uploaded.
func (p *Processor) normalizeOutputs(ctx context.Context, outputs []*ProcessingOutput) ([]*ProcessingOutput, error) {
	normalized := make([]*ProcessingOutput, 0, len(outputs))
	for i, out := range outputs {
		if out == nil {
			return nil, fmt.Errorf("output %d: %w", i+1, ErrNilOutput)
		}
		if out.OutputName == "" {
			out.OutputName = fmt.Sprintf("output-%d", i+1)
		}
		if !storage.IsRemoteURI(out.Destination) {
			base, err := p.remoteBase(ctx)
			if err != nil {
				return nil, err
			}
			out.Destination = storage.JoinURI(base, p.currentJobName, "output", out.OutputName)
		}
		normalized = append(normalized, out)
	}
	return normalized, nil
}

// remoteBase returns the session's default bucket as a URI. A bare bucket
// name is treated as object storage.
func (p *Processor) remoteBase(ctx context.Context) (string, error) {
	bucket, err := p.session.DefaultBucket(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve default bucket: %w", err)
	}
	if !storage.IsRemoteURI(bucket) {
		bucket = storage.SchemeS3 + "://" + bucket
	}
	return bucket, nil
}

func (p *Processor) upload(ctx context.Context, localPath, destURI string) (string, error) {
	if p.uploader == nil {
		return "", errors.New("processing: uploader is required to stage local paths")
	}
	return p.uploader.Upload(ctx, localPath, destURI)
}

// startJob serializes the request, submits it and returns the job handle.
func (p *Processor) startJob(ctx context.Context, inputs []*ProcessingInput, outputs []*ProcessingOutput) (*Job, error) {
	req, err := p.buildRequest(inputs, outputs)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("job", req.JobName).
		Int("inputs", len(inputs)).
		Int("outputs", len(outputs)).
		Msg("creating processing job")

	if err := p.session.CreateProcessingJob(ctx, req); err != nil {
		return nil, fmt.Errorf("create processing job %s: %w", req.JobName, err)
	}
	return &Job{JobName: req.JobName, Inputs: inputs, Outputs: outputs, session: p.session}, nil
}

func (p *Processor) buildRequest(inputs []*ProcessingInput, outputs []*ProcessingOutput) (*CreateJobRequest, error) {
	req := &CreateJobRequest{
		JobName: p.currentJobName,
		RoleARN: p.cfg.Role,
		ProcessingResources: ResourcesRequest{
			ClusterConfig: ClusterConfig{
				InstanceType:   p.cfg.InstanceType,
				InstanceCount:  p.cfg.InstanceCount,
				VolumeSizeInGB: p.cfg.VolumeSizeGB,
				VolumeKMSKeyID: p.cfg.VolumeKMSKey,
			},
		},
		StoppingCondition: StoppingCondition{
			MaxRuntimeInSeconds: int(p.cfg.MaxRuntime / time.Second),
		},
		AppSpecification: AppSpecification{
			ImageURI:            p.cfg.ImageURI,
			ContainerEntrypoint: p.entrypoint,
			ContainerArguments:  p.arguments,
		},
		Environment: p.cfg.Env,
		Tags:        p.cfg.Tags,
	}

	for _, in := range inputs {
		ir, err := in.ToRequest()
		if err != nil {
			return nil, err
		}
		req.ProcessingInputs = append(req.ProcessingInputs, ir)
	}
	if len(outputs) > 0 {
		cfg := &OutputConfigRequest{}
		for _, out := range outputs {
			cfg.Outputs = append(cfg.Outputs, out.ToRequest())
		}
		req.ProcessingOutputConfig = cfg
	}
	if p.cfg.NetworkConfig != nil {
		req.NetworkConfig = p.cfg.NetworkConfig.ToRequest()
	}
	return req, nil
}
