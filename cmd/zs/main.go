package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/app"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appFlags are the root persistent flags shared by every command.
var appFlags struct {
	verbose  bool
	logLevel string
	sandbox  bool
}

// newApp reads the config and creates a ZSApp. The caller must defer a.Close().
func newApp() (*app.ZSApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no config at %s: run 'zs config init' first", defaults.ConfigPath)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if appFlags.sandbox {
		cfg.Zenodo.Sandbox = true
	}

	a, err := app.NewZSApp(cfg, app.Options{
		LogLevel: appFlags.logLevel,
		Verbose:  appFlags.verbose,
		Prompt:   prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// prompt reads secrets from the terminal, or line by line when stdin is piped.
func prompt() app.PromptFunc {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return app.TerminalPrompt
	}
	return app.ReaderPrompt(os.Stdin)
}

var rootCmd = &cobra.Command{
	Use:          "zs",
	Short:        "Archive PUDL raw inputs on Zenodo",
	SilenceUsage: true,
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive DATASET",
	Short: "Create or update the Zenodo archive of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initialize, _ := cmd.Flags().GetBool("initialize")
		noop, _ := cmd.Flags().GetBool("noop")
		noPublish, _ := cmd.Flags().GetBool("no-publish")
		files, _ := cmd.Flags().GetStringSlice("files")
		dir, _ := cmd.Flags().GetString("dir")
		format, _ := cmd.Flags().GetString("format")

		if len(files) == 0 && dir == "" {
			return fmt.Errorf("one of --files or --dir is required")
		}
		if format != "" && format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q: use json or yaml", format)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Archive(cmd.Context(), app.ArchiveRequest{
			Dataset:    args[0],
			Files:      files,
			Dir:        dir,
			Initialize: initialize,
			DryRun:     noop,
			NoPublish:  noPublish,
		})
		if err != nil {
			return err
		}

		rep := newReport(args[0], a.RunID(), res)
		if noop && format == "" {
			format = "json"
		}
		if format != "" {
			return writeReport(cmd.OutOrStdout(), rep, format)
		}
		return writeSummary(cmd.OutOrStdout(), rep)
	},
}

// datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List supported datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		datasets, err := a.Datasets()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATASET\tKEYWORD\tTITLE")
		for _, ds := range datasets {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ds.ID, ds.Keyword, ds.Metadata().Title)
		}
		return w.Flush()
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View archive run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return fmt.Errorf("getting history: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archive runs.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSTARTED\tDATASET\tOPERATION\tSTATUS\t+/~/-\tDEPOSITION")
		for _, r := range runs {
			target := r.DepositionURL
			if r.Error != "" {
				target = r.Error
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d/%d/%d\t%s\n",
				r.ID, r.StartedAt.Local().Format(time.DateTime), r.Dataset, r.Operation,
				r.Status, r.Created, r.Updated, r.Deleted, target)
		}
		return w.Flush()
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# Configuration from %s\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(cmd.OutOrStdout(), cfg)
	},
}

// token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the Zenodo access token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Encrypt and store the Zenodo access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ask := prompt()
		token, err := ask("Zenodo access token: ")
		if err != nil {
			return err
		}
		passphrase, err := ask("Passphrase: ")
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			confirm, err := ask("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return fmt.Errorf("passphrases do not match")
			}
		}

		if err := a.SetToken(strings.TrimSpace(token), passphrase); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
		return nil
	},
}

// mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Read mirrored manifests",
}

var mirrorGetCmd = &cobra.Command{
	Use:   "get DATASET VERSION",
	Short: "Print the mirrored datapackage.json of a dataset version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.MirrorGet(args[0], args[1], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&appFlags.verbose, "verbose", "v", false, "Copy log output to stderr")
	rootCmd.PersistentFlags().StringVar(&appFlags.logLevel, "loglevel", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&appFlags.sandbox, "sandbox", false, "Use the Zenodo sandbox server")

	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().Bool("initialize", false, "Create the first deposition of the dataset")
	archiveCmd.Flags().Bool("noop", false, "Print the planned changes without touching Zenodo")
	archiveCmd.Flags().Bool("no-publish", false, "Leave the updated draft unpublished for review")
	archiveCmd.Flags().StringSlice("files", nil, "Files to archive")
	archiveCmd.Flags().String("dir", "", "Archive the regular files directly inside this directory")
	archiveCmd.Flags().String("format", "", "Output format: json or yaml")

	rootCmd.AddCommand(datasetsCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)

	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.AddCommand(mirrorGetCmd)
}
