package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/preflight"
	"github.com/cameronsjo/pagewright/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project and the tools pages rely on",
	Long: `Check that the project directories exist, that input and output do not
overlap, that every program on the exec allowlist is installed, and
whether git metadata is available for the GIT_* variables.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	ui.Header("Checking %s", cfg.Root)
	checks := preflight.CheckAll(cfg)
	for _, c := range checks {
		switch c.Status {
		case preflight.Warn:
			ui.Warning("%s: %s", c.Name, c.Detail)
		case preflight.Fail:
			ui.Error("%s: %s", c.Name, c.Detail)
		default:
			ui.Success("%s: %s", c.Name, c.Detail)
		}
	}

	warnings, errors := preflight.Summarize(checks)
	fmt.Println()
	switch {
	case len(errors) > 0:
		return fmt.Errorf("%d check(s) failed", len(errors))
	case len(warnings) > 0:
		ui.Warning("%d warning(s), the site should still build", len(warnings))
	default:
		ui.Success("everything looks good")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
