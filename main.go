package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hnblacklist/pkg/config"
	"hnblacklist/pkg/logger"
	"hnblacklist/pkg/rules"
	"hnblacklist/pkg/settings"
	"hnblacklist/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	fs      afero.Fs

	cfg    *config.Config
	log    *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), fs: afero.NewOsFs()}

	root := &cobra.Command{
		Use:           "hnblacklist",
		Short:         "Remove unwanted submissions from saved Hacker News listing pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "configuration file (default $HOME/.config/hnblacklist/config.toml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-file", "", "log destination: stdout, stderr or a file path")

	root.AddCommand(
		newFilterCmd(a),
		newSaveCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
	)
	return root
}

// bind maps command line flags onto configuration keys, given as flag/key
// pairs.
func (a *app) bind(flags *pflag.FlagSet, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := a.v.BindPFlag(pairs[i+1], flags.Lookup(pairs[i])); err != nil {
			return fmt.Errorf("bind flag %s: %w", pairs[i], err)
		}
	}
	return nil
}

// setup binds the flags of cmd, loads the configuration and installs the
// logger.
func (a *app) setup(cmd *cobra.Command, pairs ...string) error {
	pairs = append(pairs, "log-level", "logging.level", "log-file", "logging.file")
	if err := a.bind(cmd.Flags(), pairs...); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		return err
	}
	log, closer, err := logger.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging error:", err)
		return err
	}
	a.cfg, a.log, a.closer = cfg, log, closer
	if cfg.Source != "" {
		log.Debug("configuration loaded", "file", cfg.Source)
	}
	return nil
}

func (a *app) parseOptions() rules.ParseOptions {
	return rules.ParseOptions{Logger: a.log, ErrorLimit: a.cfg.Logging.RuleErrorLimit}
}

func (a *app) store() (*settings.FileStore, error) {
	store, err := settings.OpenFileStore(a.fs, a.cfg.Settings.Path)
	if err != nil {
		a.log.Error("failed to open settings", "path", a.cfg.Settings.Path, "error", err)
		return nil, err
	}
	return store, nil
}

// loadRules reads the rule file when one is configured and the filters kept
// in the settings store otherwise. The stored test failure override is
// returned alongside.
func (a *app) loadRules() (rules.List, bool, error) {
	store, err := a.store()
	if err != nil {
		return nil, false, err
	}
	saved, err := settings.Load(store)
	if err != nil {
		a.log.Error("failed to load settings", "error", err)
		return nil, false, err
	}
	force := saved.FilterEvenWithTestFailures || a.cfg.Filtering.FilterEvenWithTestFailures

	if path := a.cfg.Filtering.Rules; path != "" {
		list, err := rules.LoadFile(path, a.parseOptions())
		if err != nil {
			a.log.Error("failed to load rules", "file", path, "error", err)
			return nil, false, err
		}
		return list, force, nil
	}

	list, err := saved.Rules(a.parseOptions())
	if err != nil {
		a.log.Error("failed to parse saved filters", "error", err)
		return nil, false, err
	}
	return list, force, nil
}

func newSaveCmd(a *app) *cobra.Command {
	var rulesFile string
	var force bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store filters and flags in the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if rulesFile != "" {
				f, err := os.Open(rulesFile) // #nosec G304 -- path is provided by the user.
				if err != nil {
					a.log.Error("failed to open rules", "file", rulesFile, "error", err)
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				a.log.Error("failed to read filters", "error", err)
				return err
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			s := settings.Settings{Filters: string(text), FilterEvenWithTestFailures: force}
			if err := settings.Save(store, s); err != nil {
				a.log.Error("failed to save settings", "error", err)
				return err
			}

			list, _ := s.Rules(a.parseOptions())
			a.log.Info("filters saved", "path", store.Path(), "rules", len(list), "invalid", len(list.Invalid()))
			fmt.Fprintln(cmd.OutOrStdout(), "Filters saved!")
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "rule file to save (default stdin)")
	cmd.Flags().BoolVar(&force, "filter-even-with-test-failures", false, "filter even when self tests fail")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [rule...]",
		Short: "Compile rules and report invalid entries and warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, "rules", "filtering.rules"); err != nil {
				return err
			}

			var list rules.List
			if len(args) > 0 {
				var err error
				list, err = rules.ParseText(strings.Join(args, "\n"), a.parseOptions())
				if err != nil {
					return err
				}
			} else {
				var err error
				list, _, err = a.loadRules()
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, r := range list {
				if !r.Valid() {
					fmt.Fprintf(out, "invalid  %s\n", rules.InvalidMessage(r))
					continue
				}
				fmt.Fprintf(out, "%-8s %s\n", r.Kind, r.Raw)
				for _, w := range rules.Lint(r) {
					fmt.Fprintf(out, "warning  %s: %s\n", r.Raw, w)
				}
			}

			if n := len(list.Invalid()); n > 0 {
				return fmt.Errorf("%d of %d rules are invalid", n, len(list))
			}
			fmt.Fprintf(out, "%d rules valid\n", len(list))
			return nil
		},
	}
	cmd.Flags().String("rules", "", "rule file to check (default the saved filters)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hnblacklist", version.HNBlacklistVersion)
		},
	}
}
