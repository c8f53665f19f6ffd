package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/client"
)

// --- support command ---

var supportCmd = &cobra.Command{
	Use:   "support <id> <vote|stake|interact>",
	Short: "Support an artifact on a running server",
	Args:  cobra.ExactArgs(2),
	RunE:  runSupport,
}

func runSupport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid artifact id %q", args[0])
	}
	action, err := artifact.ParseAction(args[1])
	if err != nil {
		return err
	}

	a, err := client.New(serverURL).Support(cmd.Context(), id, action)
	if err != nil {
		return fmt.Errorf("support: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: fade %d%%, risk %d%%, supporters %d\n",
		a.Title, a.FadeLevel, a.ExtinctionRisk, a.SupportCount)
	return nil
}

// --- list command ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts on a running server",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	artifacts, err := client.New(serverURL).ListArtifacts(cmd.Context())
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "The archive is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tFADE\tRISK\tSUPPORT\tTITLE")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			a.ID, a.Type, a.FadeLevel, a.ExtinctionRisk, a.SupportCount, a.Title)
	}
	return tw.Flush()
}
