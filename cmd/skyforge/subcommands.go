package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/skyforge-dev/skyforge/internal/config"
	"github.com/skyforge-dev/skyforge/internal/store"
	"github.com/skyforge-dev/skyforge/pkg/processing"
	"github.com/skyforge-dev/skyforge/pkg/session"
	"github.com/skyforge-dev/skyforge/pkg/storage"
)

// Resolve config, session and uploader for a command invocation.
func resolveClients(cmd *cobra.Command) (config.Config, *session.Session, *storage.Dispatcher, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	sess := session.New(session.Config{
		Endpoint: cfg.Endpoint,
		Token:    cfg.Token,
		Bucket:   cfg.Bucket,
	})
	uploader, err := storage.New(cfg.Storage)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, sess, uploader, nil
}

// Submit a job from a job spec file
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <jobspec.yaml>",
		Short: "Submit a processing job from a job spec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetBool("wait")
			logs, _ := cmd.Flags().GetBool("logs")
			jobName, _ := cmd.Flags().GetString("job-name")

			cfg, sess, uploader, err := resolveClients(cmd)
			if err != nil {
				return err
			}
			spec, err := config.LoadJobSpec(args[0])
			if err != nil {
				return err
			}

			inputs, outputs := spec.Descriptors()
			runOpts := processing.RunOptions{
				Inputs:    inputs,
				Outputs:   outputs,
				Arguments: spec.Arguments,
				JobName:   jobName,
				Wait:      wait,
				Logs:      logs,
			}

			var job *processing.Job
			var runErr error
			if spec.Code != "" {
				sp, err := processing.NewScript(sess, uploader, spec.ProcessorConfig(cfg))
				if err != nil {
					return err
				}
				job, runErr = sp.Run(cmd.Context(), processing.ScriptRunOptions{
					Command:    spec.Command,
					Code:       spec.Code,
					ScriptName: spec.ScriptName,
					RunOptions: runOpts,
				})
			} else {
				p, err := processing.New(sess, uploader, spec.ProcessorConfig(cfg))
				if err != nil {
					return err
				}
				job, runErr = p.Run(cmd.Context(), runOpts)
			}
			if job != nil {
				recordSubmission(cmd.Context(), cfg, job, spec.Image, runErr)
				fmt.Println(job.JobName)
			}
			return runErr
		},
	}
	cmd.Flags().Bool("wait", true, "wait for the job to complete")
	cmd.Flags().Bool("logs", true, "stream job logs while waiting (requires --wait)")
	cmd.Flags().String("job-name", "", "explicit job name (defaults to a generated name)")
	return cmd
}

// Record the submission in the local history store. History is best effort
// and never fails the run.
func recordSubmission(ctx context.Context, cfg config.Config, job *processing.Job, image string, runErr error) {
	st, err := store.Open(cfg.HistoryPath)
	if err != nil {
		log.Warn().Err(err).Msg("open job history")
		return
	}
	defer st.Close()
	status := processing.StatusInProgress
	if runErr != nil {
		status = processing.StatusFailed
	}
	if err := st.RecordJob(ctx, store.JobRecord{
		JobName:     job.JobName,
		ImageURI:    image,
		Status:      status,
		SubmittedAt: time.Now(),
	}); err != nil {
		log.Warn().Err(err).Msg("record job history")
	}
}

// Describe a job
func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <job-name>",
		Short: "Print the control plane's description of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sess, _, err := resolveClients(cmd)
			if err != nil {
				return err
			}
			desc, err := sess.DescribeProcessingJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if st, err := store.Open(cfg.HistoryPath); err == nil {
				_ = st.UpdateStatus(cmd.Context(), desc.JobName, desc.JobStatus)
				_ = st.Close()
			}
			out, err := json.MarshalIndent(desc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// Stop a job
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <job-name>",
		Short: "Request the control plane to stop a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, _, err := resolveClients(cmd)
			if err != nil {
				return err
			}
			if err := sess.StopProcessingJob(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("stop requested for %s\n", args[0])
			return nil
		},
	}
}

// Stream job logs
func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-name>",
		Short: "Stream a job's logs until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, _, err := resolveClients(cmd)
			if err != nil {
				return err
			}
			job := processing.NewJob(sess, args[0])
			_, err = job.Wait(cmd.Context(), true, os.Stdout)
			return err
		},
	}
}

// List submitted jobs from local history
func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List jobs submitted from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer st.Close()
			jobs, err := st.ListJobs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, j := range jobs {
				fmt.Printf("%s\t%s\t%s\t%s\n", j.JobName, j.Status, j.ImageURI, j.SubmittedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 50, "maximum number of jobs to list")
	return cmd
}

// Initialize configuration
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config file. Run this the first time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			path, err := config.WriteDefault(cfgPath)
			if err != nil {
				return err
			}
			fmt.Printf("config ready at %s\n", path)
			fmt.Println("set SKYFORGE_TOKEN in secrets.env or the environment before submitting jobs")
			return nil
		},
	}
}
