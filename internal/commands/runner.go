package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/formatter"
	"github.com/desertthunder/spotkey/internal/hotkeys"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/desertthunder/spotkey/internal/store"
	"github.com/urfave/cli/v3"
)

// PromptFunc asks the user for the given settings and returns their values keyed by
// "section.key".
type PromptFunc func(settings []shared.Setting) (map[string]string, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	logger      *log.Logger
	output      io.Writer
	prompt      PromptFunc
	openBrowser func(string) error
	backend     func() hotkeys.Backend
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger      *log.Logger
	Output      io.Writer
	Prompt      PromptFunc
	OpenBrowser func(string) error
	// Backend creates the hotkey backend for `run`. The listing commands never call it.
	Backend func() hotkeys.Backend
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompt == nil {
		opts.Prompt = promptSettings
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		logger:      opts.Logger,
		output:      opts.Output,
		prompt:      opts.Prompt,
		openBrowser: opts.OpenBrowser,
		backend:     opts.Backend,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// App returns the root command. Without a subcommand it runs the daemon.
func (r *Runner) App(version string) *cli.Command {
	return &cli.Command{
		Name:     "spotkey",
		Usage:    "Control Spotify from global hotkeys",
		Version:  version,
		Flags:    runFlags(),
		Action:   r.Run,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, setupCommand, authCommand, bookmarksCommand, historyCommand, keysCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore opens the store at path and loads the configuration from it. An invalid value is
// logged and its default kept.
func (r *Runner) openStore(path string) (*store.File, *shared.Config, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}

	config, err := shared.LoadConfig(st)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidConfig) {
			return nil, nil, err
		}
		r.logger.Warn("using defaults for invalid settings", "error", err)
	}
	return st, config, nil
}

// ensureSettings prompts for every required value missing from st and persists the answers.
func (r *Runner) ensureSettings(st *store.File) error {
	missing := shared.MissingSettings(st)
	if len(missing) == 0 {
		return nil
	}

	r.logger.Info("configuration incomplete", "missing", len(missing), "path", st.Path())
	values, err := r.prompt(missing)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMissingConfig, err)
	}

	for _, s := range missing {
		v := strings.TrimSpace(values[s.Section+"."+s.Key])
		if v == "" {
			return fmt.Errorf("%w: %s.%s", shared.ErrMissingConfig, s.Section, s.Key)
		}
		if err := st.SetValue(s.Section, s.Key, v); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
		}
	}
	return nil
}

// promptSettings asks for each setting with one huh form.
func promptSettings(settings []shared.Setting) (map[string]string, error) {
	answers := make([]string, len(settings))
	fields := make([]huh.Field, len(settings))
	for i, s := range settings {
		input := huh.NewInput().
			Title(s.Title).
			Value(&answers[i]).
			Validate(func(v string) error {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("%s is required", s.Title)
				}
				return nil
			})
		if s.Secret {
			input = input.EchoMode(huh.EchoModePassword)
		}
		fields[i] = input
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(settings))
	for i, s := range settings {
		values[s.Section+"."+s.Key] = answers[i]
	}
	return values, nil
}

// emit writes rendered output to the --output file, or to the runner's output.
func (r *Runner) emit(cmd *cli.Command, data []byte) error {
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("output written", "path", path)
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
