package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appLog "bespreking/internal/log"
)

func newClustersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Show or edit the cluster mapping",
	}
	cmd.AddCommand(
		newClustersListCmd(),
		newClustersSetCmd(),
		newClustersDeleteCmd(),
	)
	return cmd
}

func newClustersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List base codes and the classes they expand to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, base := range cfg.Clusters.Bases() {
				fmt.Fprintf(out, "%s: %s\n", base, strings.Join(cfg.Clusters[base], ", "))
			}
			return nil
		},
	}
}

func newClustersSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set BASE CODE...",
		Short: "Replace the classes a base code expands to",
		Long: `Replace the classes a base code expands to. Codes may be given as
separate arguments or comma separated.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var codes []string
			for _, a := range args[1:] {
				codes = append(codes, strings.Split(a, ",")...)
			}
			if err := cfg.Clusters.Set(args[0], codes); err != nil {
				return err
			}
			if err := cfg.Save(flagConfig); err != nil {
				return err
			}

			base := strings.TrimSpace(args[0])
			appLog.Info("cluster mapping updated", "base", base)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", base, strings.Join(cfg.Clusters[base], ", "))
			return nil
		},
	}
}

func newClustersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete BASE",
		Short: "Remove a base code from the mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cfg.Clusters[args[0]]; !ok {
				return fmt.Errorf("cluster %q not found", args[0])
			}
			delete(cfg.Clusters, args[0])
			if err := cfg.Save(flagConfig); err != nil {
				return err
			}
			appLog.Info("cluster mapping removed", "base", args[0])
			return nil
		},
	}
}
