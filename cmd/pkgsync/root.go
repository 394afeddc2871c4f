package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steelcutops/pkgsync/logger"
	"github.com/steelcutops/pkgsync/pkgsync/commandmanager"
	"github.com/steelcutops/pkgsync/pkgsync/config"
	"github.com/steelcutops/pkgsync/pkgsync/executor"
	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
	"github.com/steelcutops/pkgsync/pkgsync/reconciler"
	"github.com/steelcutops/pkgsync/pkgsync/statemanager"
)

type flags struct {
	Settings     string
	Root         string
	CacheDir     string
	Debug        bool
	LogFileName  string
	NoColor      bool
	SudoPassword bool
	Yes          bool
	Managers     []string
}

// app holds what every command needs once the global flags are parsed.
type app struct {
	flags flags

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	log      logger.Logger
	logFile  *os.File
	cfg      *config.Config
	commands *commandmanager.UnixCommandManager
	states   *statemanager.FileStateManager
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, log: logger.NewNop()}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkgsync",
		Short: "Keep installed packages in sync with version controlled package lists",
		Long: `pkgsync compares each package list with the copy saved at the last
successful run, then installs and removes the difference after asking once
per package manager.`,
		Args:              cobra.NoArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sync(cmd, a.flags.Managers...)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.Settings, "settings", config.DefaultSettingsPath, "Path to the settings file")
	pf.StringVar(&a.flags.Root, "root", "", "Directory holding the package lists")
	pf.StringVar(&a.flags.CacheDir, "cache-dir", "", "Directory holding the last synchronized copies")
	pf.BoolVar(&a.flags.Debug, "debug", false, "Enable debug log level")
	pf.StringVar(&a.flags.LogFileName, "log", "", "Append logs to this file instead of stderr")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&a.flags.SudoPassword, "sudo-password", false, "Prompt for the sudo password once")
	pf.BoolVarP(&a.flags.Yes, "yes", "y", false, "Apply changes without asking")
	pf.StringSliceVarP(&a.flags.Managers, "pm", "p", nil, "Package manager to work on (repeatable)")

	cmd.AddCommand(
		newSyncCmd(a),
		newAddCmd(a),
		newRmCmd(a),
		newEditCmd(a),
		newDiffCmd(a),
		newListCmd(a),
		newInitCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.setupLogger(); err != nil {
		return err
	}
	if a.flags.NoColor {
		color.NoColor = true
	}
	a.commands = commandmanager.NewUnixCommandManager(a.log)

	if cmd.Name() == "init" {
		return nil
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	if a.flags.SudoPassword {
		password, err := a.readSudoPassword()
		if err != nil {
			return err
		}
		a.commands.SudoPassword = password
	}
	return nil
}

func (a *app) setupLogger() error {
	opts := logger.Options{Output: a.errOut, Debug: a.flags.Debug}
	if a.flags.LogFileName != "" {
		f, err := os.OpenFile(a.flags.LogFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		opts.Output = f
	}
	a.log = logger.New(opts)
	a.log.Debug("Debug mode enabled")
	return nil
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.flags.Settings, config.Overrides{
		Root:     a.flags.Root,
		CacheDir: a.flags.CacheDir,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.states = statemanager.NewFileStateManager(cfg.Root, cfg.CacheDir, a.log)
	a.log.Debug("Loaded configuration", "root", cfg.Root, "cache", cfg.CacheDir, "managers", len(cfg.Managers))
	return nil
}

func (a *app) readSudoPassword() (string, error) {
	f, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("--sudo-password needs an interactive terminal")
	}
	fmt.Fprint(a.errOut, "Enter sudo password: ")
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("read sudo password: %w", err)
	}
	return string(password), nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) interactive() bool {
	f, ok := a.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) prompter() executor.Prompter {
	if a.flags.Yes {
		return executor.AssumeYes{Out: a.out}
	}
	if !a.interactive() {
		a.log.Warn("Standard input is not a terminal, answers are read from it")
	}
	return executor.NewLinePrompter(a.in, a.out)
}

func (a *app) reconciler() *reconciler.Reconciler {
	exec := executor.New(a.commands, a.prompter(), a.log)
	exec.In = a.in
	exec.Out = a.out
	exec.Err = a.errOut

	r := reconciler.New(a.cfg.Root, a.states, exec, a.log)
	r.Out = a.out
	return r
}

// manager resolves the single manager a manifest-editing command works on.
func (a *app) manager() (pm.Config, error) {
	if len(a.flags.Managers) != 1 {
		return pm.Config{}, fmt.Errorf("exactly one package manager is required (-p), choose from: %v", managerKeys(a.cfg))
	}
	selected, err := a.cfg.Select(a.flags.Managers...)
	if err != nil {
		return pm.Config{}, err
	}
	return selected[0], nil
}

func managerKeys(cfg *config.Config) []string {
	keys := make([]string, 0, len(cfg.Managers))
	for _, m := range cfg.Managers {
		keys = append(keys, m.Key)
	}
	return keys
}
