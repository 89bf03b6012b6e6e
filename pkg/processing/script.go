package processing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/skyforge-dev/skyforge/pkg/storage"
)

const (
	codeContainerBasePath = "/input"
	codeInputName         = "code"
)

var (
	// ErrScriptNameRequired rejects directory code without a script name to
	// execute inside it.
	ErrScriptNameRequired = errors.New("code is a directory, a script name inside it is required")

	// ErrCodeNotFound rejects a code path that is neither an existing local
	// file or directory nor a remote URI.
	ErrCodeNotFound = errors.New("code path is not an existing file, directory or remote uri")
)

// ScriptProcessor runs a user script inside the processing container. The
// script (or its directory) is staged as an extra input named "code" and the
// container entrypoint is composed from the interpreter command and the
// container-local script path.
type ScriptProcessor struct {
	*Processor
}

// NewScript validates the job configuration and returns a ScriptProcessor.
func NewScript(sess Session, up Uploader, cfg Config) (*ScriptProcessor, error) {
	p, err := New(sess, up, cfg)
	if err != nil {
		return nil, err
	}
	return &ScriptProcessor{Processor: p}, nil
}

// ScriptRunOptions configures a script-mode run. Command is the interpreter
// and its flags, e.g. ["python3", "-u"]. Code is a local file, a local
// directory or a remote URI. ScriptName selects the file to run when Code is
// a directory.
type ScriptRunOptions struct {
	Command    []string
	Code       string
	ScriptName string

	RunOptions
}

// Run derives the entrypoint from the code path, stages the code and submits
// the job.
func (s *ScriptProcessor) Run(ctx context.Context, opts ScriptRunOptions) (*Job, error) {
	if opts.Logs && !opts.Wait {
		return nil, ErrLogsRequireWait
	}
	if len(opts.Command) == 0 {
		return nil, errors.New("processing: command is required in script mode")
	}

	scriptName, err := resolveScriptName(opts.Code, opts.ScriptName)
	if err != nil {
		return nil, err
	}

	// Fix the job name now so the staged code and the job land under the
	// same prefix.
	jobName := s.resolveJobName(opts.JobName)
	s.currentJobName = jobName

	codeURI, err := s.uploadCode(ctx, opts.Code, jobName)
	if err != nil {
		return nil, err
	}

	inputs := append(opts.Inputs, &ProcessingInput{
		InputName:   codeInputName,
		Source:      codeURI,
		Destination: path.Join(codeContainerBasePath, codeInputName),
	})

	s.entrypoint = append(append([]string{}, opts.Command...),
		path.Join(codeContainerBasePath, codeInputName, scriptName))

	runOpts := opts.RunOptions
	runOpts.Inputs = inputs
	runOpts.JobName = jobName
	return s.Processor.Run(ctx, runOpts)
}

// resolveScriptName finds the effective script filename: an explicit name for
// directories and remote URIs, the basename for files and remote URIs
// without one.
func resolveScriptName(code, scriptName string) (string, error) {
	info, statErr := os.Stat(code)
	isDir := statErr == nil && info.IsDir()
	isFile := statErr == nil && !info.IsDir()
	isRemote := storage.IsRemoteURI(code)

	switch {
	case isDir && scriptName == "":
		return "", fmt.Errorf("%w: %s", ErrScriptNameRequired, code)
	case (isDir || isRemote) && scriptName != "":
		return scriptName, nil
	case isRemote:
		u, err := url.Parse(code)
		if err != nil {
			return "", fmt.Errorf("parse code uri %q: %w", code, err)
		}
		return path.Base(u.Path), nil
	case isFile:
		return filepath.Base(code), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrCodeNotFound, code)
	}
}

// uploadCode stages the code artifact under {bucket}/{job}/input/code. A code
// path that is already remote is used as-is.
func (s *ScriptProcessor) uploadCode(ctx context.Context, code, jobName string) (string, error) {
	if storage.IsRemoteURI(code) {
		return code, nil
	}
	base, err := s.remoteBase(ctx)
	if err != nil {
		return "", err
	}
	dest := storage.JoinURI(base, jobName, "input", codeInputName)
	uri, err := s.upload(ctx, code, dest)
	if err != nil {
		return "", fmt.Errorf("stage code %s: %w", code, err)
	}
	return uri, nil
}
