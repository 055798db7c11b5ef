package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/penshort/budgetdesk/internal/app"
	"github.com/penshort/budgetdesk/internal/catalog"
	"github.com/penshort/budgetdesk/internal/service"
	"github.com/penshort/budgetdesk/internal/session"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The root already migrated while opening the store.
			fmt.Fprintf(cmd.OutOrStdout(), "Store %s is up to date.\n", app.RedactURL(e.cfg.DatabaseURL))
			return nil
		},
	}
}

func newIssueLinkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "issue-link <email>",
		Short: "Issue a verification link for an allow-listed email",
		Long: `Issues a verification link through the configured notification channel.

There is no session, so the per-session attempt limit does not apply. The
allow-list does. With the display channel the link is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := app.NewNotifier(cmd.Context(), e.cfg, e.awsCfg, e.logger)
			if err != nil {
				return err
			}
			svc := service.NewVerificationService(e.repo, notifier, app.VerificationConfig(e.cfg), service.WithLogger(e.logger))

			issued, err := svc.StartVerification(cmd.Context(), nil, args[0])
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, issued.Message)
			if issued.Displayed {
				fmt.Fprintln(out, issued.Link)
			} else {
				fmt.Fprintf(out, "receipt: %s\n", issued.ReceiptID)
			}
			return nil
		},
	}
}

func newVerifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <email> <token>",
		Short: "Consume a verification token and mark the user verified",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewVerificationService(e.repo, nil, app.VerificationConfig(e.cfg), service.WithLogger(e.logger))

			msg, err := svc.VerifyEmail(cmd.Context(), session.New(time.Now()), args[0], args[1])
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newAllowListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "allow-list",
		Short: "List the allow-listed emails and whether each is verified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := app.VerificationConfig(e.cfg).AllowList

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tVERIFIED")
			for _, email := range list.Emails() {
				verified, err := e.repo.IsUserVerified(cmd.Context(), email)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%t\n", email, verified)
			}
			return tw.Flush()
		},
	}
}

func newAllocationsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "allocations <email>",
		Short: "List a user's allocations and remaining budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newAllocationService(e)

			allocations, err := svc.GetUserAllocations(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			summary, err := svc.Summary(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROJECT\tAMOUNT")
			for _, id := range slices.Sorted(maps.Keys(allocations)) {
				fmt.Fprintf(tw, "%s\t%s\n", id, service.FormatCurrency(allocations[id]))
			}
			fmt.Fprintf(tw, "TOTAL\t%s\n", service.FormatCurrency(summary.TotalAllocated))
			fmt.Fprintf(tw, "REMAINING\t%s\n", service.FormatCurrency(summary.RemainingBudget))
			return tw.Flush()
		},
	}
}

func newSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <email> <project> <amount>",
		Short: "Allocate a whole number of pounds to a project",
		Long:  "Sets the allocation if the user's total stays within the budget. The check and the write are atomic.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := service.ParseAmount(args[2])
			if err != nil {
				return userError(err)
			}

			summary, err := newAllocationService(e).Allocate(cmd.Context(), args[0], args[1], amount)
			if err != nil {
				return userError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Remaining: %s\n", service.MsgAllocationSaved, service.FormatCurrency(summary.RemainingBudget))
			return nil
		},
	}
}

func newCategoriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "categories <email>",
		Short: "Show a user's allocations grouped by project category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := service.NewReportService(e.repo, loadProjects(cmd, e))

			totals, err := reports.CategoryBreakdown(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tPROJECTS")
			for _, c := range totals {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Category, service.FormatCurrency(c.TotalAmount), c.ProjectCount)
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <email>",
		Short: "Export a user's allocations joined with the project catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" && format != "csv" {
				return fmt.Errorf("unsupported format %q: want json, yaml or csv", format)
			}

			reports := service.NewReportService(e.repo, loadProjects(cmd, e))
			rows, err := reports.Export(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			return writeExport(cmd.OutOrStdout(), format, rows)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or csv")
	return cmd
}

func writeExport(w io.Writer, format string, rows []service.ExportRow) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(service.ExportHeader); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(row.Record()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
}

func newAllocationService(e *env) *service.AllocationService {
	return service.NewAllocationService(e.repo, e.cfg.TotalBudget, e.cfg.MaxProjects, service.WithLogger(e.logger))
}

func loadProjects(cmd *cobra.Command, e *env) *catalog.Projects {
	return app.LoadProjects(cmd.Context(), e.cfg, e.awsCfg, e.logger)
}
