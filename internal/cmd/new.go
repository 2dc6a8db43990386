package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/scaffold"
	"github.com/cameronsjo/pagewright/internal/ui"
)

var newKind string

// newCmd represents the new command.
var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Add a page to the site",
	Long: `Add a starter .page file under the input directory. The name may
contain slashes to create the page in a subdirectory:

  pagewright new about
  pagewright new docs/getting-started
  pagewright new launch --kind landing`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	dir, err := filepath.Rel(cfg.Root, cfg.InputDir())
	if err != nil {
		dir = cfg.Input
	}
	f, err := scaffold.Page(dir, args[0], newKind)
	if err != nil {
		return err
	}
	created, err := scaffold.Write(cfg.Root, []scaffold.File{f})
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return fmt.Errorf("%s already exists", f.Path)
	}
	ui.Success("Created %s", f.Path)
	ui.Info("Run 'pagewright serve' to see it.")
	return nil
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVarP(&newKind, "kind", "k", scaffold.KindPage,
		"starter kind ("+strings.Join(scaffold.Kinds(), ", ")+")")
}
