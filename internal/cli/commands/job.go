package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/cli/ui"
	"github.com/astrolab/voquery/internal/tap"
)

var (
	jobWaitTimeout  time.Duration
	jobWaitInterval time.Duration
)

// jobCmd groups the asynchronous job operations
var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "manage asynchronous query jobs",
	Long: `Inspect, wait on, and control asynchronous query jobs.

Jobs are created with 'voq query --async'. A job runs on the archive
server until it reaches a terminal phase (COMPLETED, ERROR, ABORTED);
its results stay available until the job is deleted or the server
destroys it.`,
}

var jobStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "show the current state of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var jobWaitCmd = &cobra.Command{
	Use:   "wait <job-id>",
	Short: "wait for a job to finish and print its results",
	Example: `  $ voq job wait 1f6b3a9c --timeout 10m
  $ voq job wait 1f6b3a9c -a mast`,
	Args: cobra.ExactArgs(1),
	RunE: runJobWait,
}

var jobResultsCmd = &cobra.Command{
	Use:   "results <job-id>",
	Short: "fetch the results of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobResults,
}

var jobAbortCmd = &cobra.Command{
	Use:   "abort <job-id>",
	Short: "abort a running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobAbort,
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "delete a job and its results from the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobDelete,
}

func init() {
	jobWaitCmd.Flags().DurationVar(&jobWaitTimeout, "timeout", 30*time.Minute, "give up after this long")
	jobWaitCmd.Flags().DurationVar(&jobWaitInterval, "interval", time.Second, "initial poll interval")
	jobWaitCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	jobResultsCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")

	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobWaitCmd)
	jobCmd.AddCommand(jobResultsCmd)
	jobCmd.AddCommand(jobAbortCmd)
	jobCmd.AddCommand(jobDeleteCmd)

	jobCmd.SilenceUsage = true
	for _, sub := range jobCmd.Commands() {
		sub.SilenceUsage = true
	}
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	job, err := sess.tap.GetJob(ctx, args[0])
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	fmt.Print(ui.RenderJob(job))
	return nil
}

func runJobWait(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui.PrintInfo("waiting for job %s on %s", args[0], sess.desc.Name)
	job, err := sess.tap.WaitForJob(ctx, args[0], tap.WaitOptions{
		Interval: jobWaitInterval,
		Timeout:  jobWaitTimeout,
	})
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	table, err := sess.tap.JobResults(ctx, job)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	printTable(table)
	return nil
}

func runJobResults(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	job, err := sess.tap.GetJob(ctx, args[0])
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	table, err := sess.tap.JobResults(ctx, job)
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	printTable(table)
	return nil
}

func runJobAbort(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sess.tap.Abort(ctx, args[0]); err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	ui.PrintSuccess("job %s aborted", args[0])
	return nil
}

func runJobDelete(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sess.tap.DeleteJob(ctx, args[0]); err != nil {
		ui.PrintError("%s", userMessage(err))
		return err
	}
	ui.PrintSuccess("job %s deleted", args[0])
	return nil
}
