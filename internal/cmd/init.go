package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/scaffold"
	"github.com/cameronsjo/pagewright/internal/site"
	"github.com/cameronsjo/pagewright/internal/ui"
)

var initTemplate string

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a new site project",
	Long: `Initialize a new pagewright project with a configuration file, a site
directory with its metadata, and a starter front page.

This creates:
  - pagewright.yaml    Project configuration
  - site/META.yaml     Site-wide variables
  - site/index.page    The front page
  - site/about.page    A second page the front page links to
  - site/style.css     A stylesheet the pages copy into the output
  - .gitignore         Ignores the rendered output
  - README.md          Project documentation

With --template the starter files come from a git repository instead:

  pagewright init my-site --template https://github.com/example/site-template

If no directory is specified, the current directory is used. Existing
files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if initTemplate != "" {
		return initFromTemplate(cmd.Context(), abs, initTemplate)
	}

	files, err := scaffold.Project(filepath.Base(abs))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", abs, err)
	}
	created, err := scaffold.Write(abs, files)
	if err != nil {
		return err
	}
	for _, f := range created {
		ui.Success("Created %s", f)
	}
	if len(created) == 0 {
		ui.Warning("Nothing to do, every file already exists.")
		return nil
	}

	fmt.Println()
	ui.Header("Next steps:")
	fmt.Printf("  1. Edit %s\n", filepath.Join("site", site.MetaFile))
	fmt.Println("  2. Run 'pagewright serve' and open the site in a browser")
	fmt.Println("  3. Add pages with 'pagewright new <name>'")
	fmt.Println()
	ui.Info("Run 'pagewright --help' for all commands.")
	return nil
}

// initFromTemplate clones a template repository into dir and detaches it from
// the template's git history so the new project starts fresh.
func initFromTemplate(ctx context.Context, dir, url string) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return fmt.Errorf("%s is not empty, refusing to clone a template into it", dir)
	}

	ui.Info("Cloning %s", url)
	if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url}); err != nil {
		return fmt.Errorf("clone template: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(dir, ".git")); err != nil {
		return fmt.Errorf("detach template history: %w", err)
	}

	if _, err := os.Stat(filepath.Join(dir, site.ConfigFile)); err != nil {
		ui.Warning("The template has no %s, add one before building.", site.ConfigFile)
	}
	ui.Success("Created project from %s", url)
	ui.Info("Run 'pagewright build' to render it.")
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initTemplate, "template", "", "git repository to clone as the starting point")
}
