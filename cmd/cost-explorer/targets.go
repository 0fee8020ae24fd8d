package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kube-reporting/cost-explorer/pkg/explorer"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

var (
	projectID  string
	targetName string
	targetArgs targets.Target
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "manages the billing targets of a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var targetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "lists the targets of a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *explorer.Service) error {
			list, err := svc.ListTargets(ctx, projectID)
			if err != nil {
				return err
			}
			return printTargets(cmd.OutOrStdout(), list)
		})
	},
}

var targetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "provisions the billing table of a new target and stores it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		t := targetArgs
		t.Name = targetName
		return withService(func(ctx context.Context, svc *explorer.Service) error {
			added, err := svc.RegisterTarget(ctx, projectID, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target %s added to project %s\n", added.Name, projectID)
			return nil
		})
	},
}

var targetsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "changes a target and reprovisions its billing table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		u := targetUpdate(cmd.Flags(), targetArgs)
		return withService(func(ctx context.Context, svc *explorer.Service) error {
			if _, err := svc.EditTarget(ctx, projectID, targetName, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target %s updated\n", targetName)
			return nil
		})
	},
}

var targetsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "removes a target, its billing table is kept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *explorer.Service) error {
			if err := svc.DeleteTarget(ctx, projectID, targetName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target %s deleted\n", targetName)
			return nil
		})
	},
}

func init() {
	targetsCmd.PersistentFlags().StringVar(&projectID, "project", "", "the project the targets belong to")
	cobra.MarkFlagRequired(targetsCmd.PersistentFlags(), "project")

	for _, cmd := range []*cobra.Command{targetsAddCmd, targetsEditCmd, targetsDeleteCmd} {
		cmd.Flags().StringVar(&targetName, "name", "", "the name of the target")
		cobra.MarkFlagRequired(cmd.Flags(), "name")
	}
	for _, cmd := range []*cobra.Command{targetsAddCmd, targetsEditCmd} {
		addTargetFlags(cmd.Flags(), &targetArgs)
	}

	targetsCmd.AddCommand(targetsListCmd, targetsAddCmd, targetsEditCmd, targetsDeleteCmd)
}

func addTargetFlags(fs *pflag.FlagSet, t *targets.Target) {
	fs.StringVar(&t.AccessKey, "access-key", "", "the AWS access key ID of the target")
	fs.StringVar(&t.SecretKey, "secret-key", "", "the AWS secret access key of the target")
	fs.StringVar(&t.Region, "region", "", "the AWS region of the target")
	fs.StringVar(&t.InputLocation, "cur-url", "", "the s3:// location of the cost and usage report")
	fs.StringVar(&t.OutputLocation, "output", "", "the s3:// location query results are written to")
}

// targetUpdate returns an Update holding the target flags set on fs.
func targetUpdate(fs *pflag.FlagSet, t targets.Target) targets.Update {
	var u targets.Update
	set := func(name string, dst **string, v string) {
		if fs.Changed(name) {
			*dst = &v
		}
	}
	set("access-key", &u.AccessKey, t.AccessKey)
	set("secret-key", &u.SecretKey, t.SecretKey)
	set("region", &u.Region, t.Region)
	set("cur-url", &u.InputLocation, t.InputLocation)
	set("output", &u.OutputLocation, t.OutputLocation)
	return u
}

func printTargets(w io.Writer, list []targets.Target) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREGION\tCUR URL\tOUTPUT")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Region, t.InputLocation, t.OutputLocation)
	}
	return tw.Flush()
}

// withService runs fn against a service built from the resolved config and
// closes it afterwards.
func withService(fn func(ctx context.Context, svc *explorer.Service) error) error {
	logger := newLogger()
	ctx := setupSignals()
	e, err := explorer.New(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e.Service())
}
