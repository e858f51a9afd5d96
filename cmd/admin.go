package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trainmap/gymdex/internal/model"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Review scraped facility candidates",
	Long:  "Admin commands require a bearer token (GYMDEX_ADMIN_TOKEN or admin.token in config.yaml).",
}

var candidatesFlags struct {
	status string
	page   int
	limit  int
	format string
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List facility candidates awaiting review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		page, err := newClient().Candidates(ctx, model.CandidateFilter{
			Status: model.CandidateStatus(candidatesFlags.status),
			Page:   candidatesFlags.page,
			Limit:  candidatesFlags.limit,
		})
		if err != nil {
			return err
		}

		if candidatesFlags.format != "table" {
			return writeOut(candidatesFlags.format, page)
		}
		fmt.Printf("%d candidates (page %d)\n\n", page.Meta.Total, page.Meta.Page)
		for _, c := range page.Items {
			fmt.Printf("%-12s  %-10s  %-28s  %s, %s\n", c.ID, c.Status, c.Name, c.Pref, c.City)
		}
		return nil
	},
}

var editFlags struct {
	name    string
	address string
	pref    string
	city    string
}

var candidateEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a candidate before approval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		var patch model.CandidatePatch
		if cmd.Flags().Changed("name") {
			patch.Name = &editFlags.name
		}
		if cmd.Flags().Changed("address") {
			patch.Address = &editFlags.address
		}
		if cmd.Flags().Changed("pref") {
			patch.Pref = &editFlags.pref
		}
		if cmd.Flags().Changed("city") {
			patch.City = &editFlags.city
		}

		c, err := newClient().UpdateCandidate(ctx, args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("updated %s: %s (%s, %s)\n", c.ID, c.Name, c.Pref, c.City)
		return nil
	},
}

var candidateApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a candidate into the directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		c, err := newClient().ApproveCandidate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("approved %s (%s)\n", c.ID, c.Name)
		return nil
	},
}

var rejectNote string

var candidateRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, apiTimeout())
		defer cancel()

		c, err := newClient().RejectCandidate(ctx, args[0], rejectNote)
		if err != nil {
			return err
		}
		fmt.Printf("rejected %s (%s)\n", c.ID, c.Name)
		return nil
	},
}

func init() {
	f := candidatesCmd.Flags()
	f.StringVar(&candidatesFlags.status, "status", "pending", "filter by status (pending|approved|rejected)")
	f.IntVar(&candidatesFlags.page, "page", 1, "result page")
	f.IntVar(&candidatesFlags.limit, "limit", 0, "results per page")
	f.StringVar(&candidatesFlags.format, "format", "table", "output format (table|json|yaml)")

	e := candidateEditCmd.Flags()
	e.StringVar(&editFlags.name, "name", "", "facility name")
	e.StringVar(&editFlags.address, "address", "", "street address")
	e.StringVar(&editFlags.pref, "pref", "", "prefecture slug")
	e.StringVar(&editFlags.city, "city", "", "city slug")

	candidateRejectCmd.Flags().StringVar(&rejectNote, "note", "", "rejection note")

	adminCmd.AddCommand(candidatesCmd, candidateEditCmd, candidateApproveCmd, candidateRejectCmd)
	rootCmd.AddCommand(adminCmd)
}
