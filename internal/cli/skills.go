package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lbaylis/hearth/internal/skills"
)

func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect and manage installed skills",
	}
	cmd.AddCommand(newSkillsListCmd(), newSkillsInstallCmd(), newSkillsDisableCmd(), newSkillsRemoveCmd())
	return cmd
}

// readInstallRequest assembles an install request from on-disk files: a JSON
// manifest, the skill code, and optional tests.
func readInstallRequest(manifestPath, codePath, testsPath, profile string) (skills.InstallRequest, error) {
	var req skills.InstallRequest

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return req, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(raw, &req.Manifest); err != nil {
		return req, fmt.Errorf("parse manifest: %w", err)
	}

	code, err := os.ReadFile(codePath)
	if err != nil {
		return req, fmt.Errorf("read skill code: %w", err)
	}
	req.Code = string(code)

	if testsPath != "" {
		tests, err := os.ReadFile(testsPath)
		if err != nil {
			return req, fmt.Errorf("read skill tests: %w", err)
		}
		req.Tests = string(tests)
	}
	req.Profile = profile
	return req, nil
}

func newSkillsInstallCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "install <manifest.json> <code-file> [tests-file]",
		Short: "Validate, test, and install a skill from local files",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			testsPath := ""
			if len(args) == 3 {
				testsPath = args[2]
			}
			req, err := readInstallRequest(args[0], args[1], testsPath, profile)
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), NewTerminalApprover(os.Stdin, os.Stderr))
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Manager.Install(cmd.Context(), req)
			if result != nil && result.Status == skills.StatusRejected {
				return fmt.Errorf("skill %s rejected: %s", req.Manifest.Name, result.Reason)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "skill %s installed\n", req.Manifest.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "execution profile (default python)")
	return cmd
}

func newSkillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known skills and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.Manager.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no skills recorded")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tVERSION\tDESCRIPTION")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					rec.Manifest.Name, rec.Status, rec.Manifest.Version, rec.Manifest.Description)
			}
			return w.Flush()
		},
	}
}

func newSkillsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable an installed skill without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Manager.Disable(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "skill %s disabled\n", args[0])
			return nil
		},
	}
}

func newSkillsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a skill and its stored code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Manager.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "skill %s removed\n", args[0])
			return nil
		},
	}
}
