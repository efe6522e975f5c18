package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"harvestsync/internal/timeutil"
)

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

var errPromptAborted = errors.New("aborted by user")

func promptsEnabled(noInput bool) bool {
	return !noInput && stdinIsTerminal()
}

// syncPrompt lists the sync values that still need an answer. Values set on
// the command line are never asked for.
type syncPrompt struct {
	askWeek   bool
	askDryRun bool
	week      string
	dryRun    bool
}

func (p *syncPrompt) empty() bool {
	return !p.askWeek && !p.askDryRun
}

func (p *syncPrompt) form() *huh.Form {
	fields := make([]huh.Field, 0, 2)
	if p.askWeek {
		fields = append(fields, huh.NewInput().
			Title("Week start (YYYY-MM-DD)").
			Description("Entries from this day up to seven days later are synced.").
			Placeholder(p.week).
			Value(&p.week).
			Validate(validateDay))
	}
	if p.askDryRun {
		fields = append(fields, huh.NewConfirm().
			Title("Dry run?").
			Description("A dry run only logs the work logs it would create.").
			Affirmative("Yes").
			Negative("No").
			Value(&p.dryRun))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false)
}

func (p *syncPrompt) run() error {
	if p.empty() {
		return nil
	}
	if err := p.form().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errPromptAborted
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

func promptConfigPath(defaultPath string) (string, error) {
	path := defaultPath
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Config file").
				Description("No config file was found. Enter the path of an existing one.").
				Placeholder(defaultPath).
				Value(&path).
				Validate(validateExistingFile),
		),
	).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errPromptAborted
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	return strings.TrimSpace(path), nil
}

func validateDay(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("a date is required")
	}
	_, err := timeutil.ParseDay(value)
	return err
}

func validateExistingFile(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("a path is required")
	}
	info, err := os.Stat(value)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", value, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", value)
	}
	return nil
}
