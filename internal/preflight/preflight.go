// Package preflight validates the project environment before builds, and
// backs the doctor command.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cameronsjo/pagewright/internal/gitinfo"
	"github.com/cameronsjo/pagewright/internal/site"
)

// Status classifies a check result.
type Status int

const (
	OK Status = iota
	Warn
	Fail
)

// Check is one validated aspect of the environment.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// CheckProject validates the directories and files cfg points at.
func CheckProject(cfg *site.Config) []Check {
	var checks []Check

	configPath := filepath.Join(cfg.Root, site.ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		checks = append(checks, Check{Name: "config", Status: OK, Detail: configPath})
	} else {
		checks = append(checks, Check{
			Name:   "config",
			Status: Warn,
			Detail: site.ConfigFile + " not found, using defaults",
		})
	}

	input := cfg.InputDir()
	if info, err := os.Stat(input); err != nil {
		checks = append(checks, Check{
			Name:   "input directory",
			Status: Fail,
			Detail: fmt.Sprintf("%s does not exist", input),
		})
	} else if !info.IsDir() {
		checks = append(checks, Check{
			Name:   "input directory",
			Status: Fail,
			Detail: fmt.Sprintf("%s is not a directory", input),
		})
	} else {
		checks = append(checks, Check{Name: "input directory", Status: OK, Detail: input})
	}

	output := cfg.OutputDir()
	if output == input {
		checks = append(checks, Check{
			Name:   "output directory",
			Status: Fail,
			Detail: "matches the input directory",
		})
	} else if info, err := os.Stat(output); err == nil && !info.IsDir() {
		checks = append(checks, Check{
			Name:   "output directory",
			Status: Fail,
			Detail: fmt.Sprintf("%s is not a directory", output),
		})
	} else if err == nil {
		checks = append(checks, checkWritable(output))
	} else {
		checks = append(checks, Check{
			Name:   "output directory",
			Status: OK,
			Detail: fmt.Sprintf("%s (will be created)", output),
		})
	}

	if output != input {
		switch {
		case nested(input, output):
			checks = append(checks, Check{
				Name:   "directory layout",
				Status: Warn,
				Detail: "output is inside the input directory, watch mode will rebuild on its own writes",
			})
		case nested(output, input):
			checks = append(checks, Check{
				Name:   "directory layout",
				Status: Warn,
				Detail: "input is inside the output directory",
			})
		default:
			checks = append(checks, Check{
				Name:   "directory layout",
				Status: OK,
				Detail: "input and output do not overlap",
			})
		}
	}

	metaPath := filepath.Join(input, site.MetaFile)
	if _, err := os.Stat(metaPath); err == nil {
		checks = append(checks, Check{Name: "site metadata", Status: OK, Detail: metaPath})
	} else {
		checks = append(checks, Check{Name: "site metadata", Status: OK, Detail: "no " + site.MetaFile})
	}

	return checks
}

// checkWritable probes an existing output directory with a scratch file.
func checkWritable(dir string) Check {
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Check{
			Name:   "output directory",
			Status: Fail,
			Detail: fmt.Sprintf("not writable: %v", err),
		}
	}
	f.Close()
	os.Remove(f.Name())
	return Check{Name: "output directory", Status: OK, Detail: dir}
}

// nested reports whether child sits strictly beneath parent. The comparison
// is lexical, matching how output paths are derived from input paths.
func nested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CheckBinaries reports on the programs the exec allowlist names. With shell
// commands disabled there is nothing to verify.
func CheckBinaries(cfg *site.Config) []Check {
	if !cfg.Exec.Enabled {
		return []Check{{Name: "shell commands", Status: OK, Detail: "disabled"}}
	}
	if len(cfg.Exec.Allow) == 0 {
		return []Check{{
			Name:   "shell commands",
			Status: Warn,
			Detail: "enabled with an empty allowlist, no command can run",
		}}
	}

	var checks []Check
	for _, name := range cfg.Exec.Allow {
		if IsBinaryAvailable(name) {
			checks = append(checks, Check{Name: name, Status: OK, Detail: "allowlisted and installed"})
		} else {
			checks = append(checks, Check{
				Name:   name,
				Status: Warn,
				Detail: "listed in exec.allow but not installed",
			})
		}
	}
	return checks
}

// CheckGit reports whether the GIT_* page variables will have values. A site
// outside version control is fine, the variables just interpolate to nothing.
func CheckGit(cfg *site.Config) []Check {
	vars, err := gitinfo.Vars(cfg.Root)
	if err != nil {
		return []Check{{
			Name:   "git metadata",
			Status: Warn,
			Detail: fmt.Sprintf("unreadable repository: %v", err),
		}}
	}
	if len(vars) == 0 {
		return []Check{{
			Name:   "git metadata",
			Status: OK,
			Detail: "not in a git repository, GIT_* variables will be empty",
		}}
	}

	detail := "commit " + vars[gitinfo.VarCommitShort]
	if branch, ok := vars[gitinfo.VarBranch]; ok {
		detail += " on " + branch
	}
	return []Check{{Name: "git metadata", Status: OK, Detail: detail}}
}

// CheckAll runs every check.
func CheckAll(cfg *site.Config) []Check {
	checks := CheckProject(cfg)
	checks = append(checks, CheckBinaries(cfg)...)
	checks = append(checks, CheckGit(cfg)...)
	return checks
}

// Summarize splits checks into warning and error messages.
func Summarize(checks []Check) (warnings []string, errors []string) {
	for _, c := range checks {
		msg := c.Name + ": " + c.Detail
		switch c.Status {
		case Warn:
			warnings = append(warnings, msg)
		case Fail:
			errors = append(errors, msg)
		}
	}
	return warnings, errors
}

// IsBinaryAvailable checks if a specific binary is available in PATH.
func IsBinaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
