// Package output copies a chosen template to its destination, resolving what
// to do when the destination already exists.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tormodhaugland/ignoreit/internal/templates"
)

// Strategy decides what happens when the destination already exists.
type Strategy string

const (
	StrategyPrompt    Strategy = "prompt"
	StrategyAppend    Strategy = "append"
	StrategyOverwrite Strategy = "overwrite"
	StrategySkip      Strategy = "skip"
	StrategyBackup    Strategy = "backup"
)

// Action is what Write ended up doing.
type Action int

const (
	ActionCreate Action = iota
	ActionAppend
	ActionOverwrite
	ActionSkip
	ActionBackup
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "created"
	case ActionAppend:
		return "appended to"
	case ActionOverwrite:
		return "overwrote"
	case ActionBackup:
		return "backed up and overwrote"
	default:
		return "skipped"
	}
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(message string) (bool, error)

// Result describes a completed Write.
type Result struct {
	Path       string
	Action     Action
	BackupPath string
	LinesAdded int
}

// ExistsError is returned for StrategyPrompt when there is no way to ask.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s already exists (use --append, --overwrite or --no-overwrite)", e.Path)
}

// StrategyFromFlags maps the mutually exclusive pull flags to a strategy.
func StrategyFromFlags(appendFlag, overwrite, noOverwrite, backup bool) (Strategy, error) {
	var set []Strategy
	if appendFlag {
		set = append(set, StrategyAppend)
	}
	if overwrite {
		set = append(set, StrategyOverwrite)
	}
	if noOverwrite {
		set = append(set, StrategySkip)
	}
	if backup {
		set = append(set, StrategyBackup)
	}

	switch len(set) {
	case 0:
		return StrategyPrompt, nil
	case 1:
		return set[0], nil
	default:
		return "", errors.New("only one of --append, --overwrite, --no-overwrite and --backup may be given")
	}
}

// Write copies tmpl to dest according to strategy. confirm is consulted only
// for StrategyPrompt when dest exists.
func Write(tmpl templates.Template, dest string, strategy Strategy, confirm ConfirmFunc) (Result, error) {
	content, err := tmpl.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read template %s: %w", tmpl.QualifiedName(), err)
	}

	res := Result{Path: dest}

	info, err := os.Stat(dest)
	switch {
	case os.IsNotExist(err):
		res.Action = ActionCreate
		res.LinesAdded = countLines(content)
		return res, writeFile(dest, content, 0o644)
	case err != nil:
		return res, fmt.Errorf("failed to stat %s: %w", dest, err)
	case info.IsDir():
		return res, fmt.Errorf("%s is a directory", dest)
	}

	if strategy == StrategyPrompt {
		if confirm == nil {
			return res, &ExistsError{Path: dest}
		}
		ok, err := confirm(fmt.Sprintf("%s already exists. Overwrite it?", dest))
		if err != nil {
			return res, err
		}
		if !ok {
			res.Action = ActionSkip
			return res, nil
		}
		strategy = StrategyOverwrite
	}

	switch strategy {
	case StrategySkip:
		res.Action = ActionSkip
		return res, nil

	case StrategyAppend:
		existing, err := os.ReadFile(dest)
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", dest, err)
		}
		merged := MergeGitignore(existing, content)
		res.Action = ActionAppend
		res.LinesAdded = countLines(merged) - countLines(existing)
		return res, writeFile(dest, merged, info.Mode())

	case StrategyBackup:
		backup, err := Backup(dest)
		if err != nil {
			return res, err
		}
		res.Action = ActionBackup
		res.BackupPath = backup
		res.LinesAdded = countLines(content)
		return res, writeFile(dest, content, info.Mode())

	case StrategyOverwrite:
		res.Action = ActionOverwrite
		res.LinesAdded = countLines(content)
		return res, writeFile(dest, content, info.Mode())
	}

	return res, fmt.Errorf("unknown strategy %q", strategy)
}

// MergeGitignore appends the lines of add that existing does not already
// contain, keeping the order of both. Blank lines of add are dropped and
// duplicate lines of existing are collapsed.
func MergeGitignore(existing, add []byte) []byte {
	existingLines := normalizeLines(existing)
	addLines := normalizeLines(add)

	seen := make(map[string]bool, len(existingLines))
	merged := make([]string, 0, len(existingLines)+len(addLines))

	for _, line := range existingLines {
		key := strings.TrimSpace(line)
		if key == "" {
			merged = append(merged, line)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, line)
	}

	for _, line := range addLines {
		key := strings.TrimSpace(line)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, line)
	}

	if len(merged) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(merged, "\n") + "\n")
}

// Backup copies path to the first free path.bak, path.bak.1, ... and returns
// the backup location.
func Backup(path string) (string, error) {
	backupPath := path + ".bak"
	for counter := 1; ; counter++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		if counter > 100 {
			return "", fmt.Errorf("too many backup files for %s", path)
		}
		backupPath = fmt.Sprintf("%s.bak.%d", path, counter)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat original file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading original file: %w", err)
	}
	if err := os.WriteFile(backupPath, data, info.Mode()); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	return backupPath, nil
}

func writeFile(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	if err := os.WriteFile(path, data, mode.Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func normalizeLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func countLines(data []byte) int {
	return len(normalizeLines(data))
}
