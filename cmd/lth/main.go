package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lth-go/internal/app"
	"lth-go/internal/config"
	"lth-go/internal/hist"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Track", "Watch").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// unlockIfNeeded prompts for the passphrase when the history is encrypted.
func unlockIfNeeded(a *app.App) error {
	if !a.NeedsUnlock() {
		return nil
	}
	passphrase, err := readPassphrase("Passphrase: ")
	if err != nil {
		return err
	}
	return a.Unlock(passphrase)
}

// readPassphrase reads a passphrase from the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(raw), nil
}

// statsBadge renders the per-version diff summary.
func statsBadge(stats *hist.DiffStats) string {
	if stats == nil {
		return "initial"
	}
	return fmt.Sprintf("+%d -%d", stats.Added, stats.Removed)
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid version index: %s", arg)
	}
	return index, nil
}

var rootCmd = &cobra.Command{
	Use:   "lth",
	Short: "Local text file history",
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

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
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

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Database:     %s\n", cfg.Database.Type)
		if len(cfg.Vaults) > 0 {
			fmt.Printf("Vault:        %s (%s)\n", cfg.Vaults[0].Name, cfg.Vaults[0].Type)
		}
		fmt.Printf("Encryption:   %v\n", cfg.Encryption.Enabled)
		fmt.Printf("Max Versions: %d\n", cfg.History.MaxVersions)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("KeysInit")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Encryption keys generated. Enable encryption in the config to use them.")
		return nil
	},
}

// track command
var trackRecursive bool

var trackCmd = &cobra.Command{
	Use:   "track [dir]",
	Short: "Track a directory (defaults to the current directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Track")
		if err != nil {
			return err
		}
		defer a.Close()

		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		abs, err := a.Track(path, trackRecursive)
		if err != nil {
			return fmt.Errorf("tracking directory: %w", err)
		}

		fmt.Printf("Tracking directory: %s\n", abs)
		return nil
	},
}

// save command
var saveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Capture a version of a file now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Save")
		if err != nil {
			return err
		}
		defer a.Close()

		saved, err := a.SaveFile(args[0])
		if err != nil {
			return fmt.Errorf("saving version: %w", err)
		}

		if saved {
			fmt.Printf("Version captured: %s\n", args[0])
		} else {
			fmt.Printf("Unchanged since last version: %s\n", args[0])
		}
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch tracked directories and capture changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
		return a.Watch(ctx)
	},
}

// tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show tracked files grouped by recency",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Tree")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfNeeded(a); err != nil {
			return err
		}

		groups, err := a.RootGroups()
		if err != nil {
			return fmt.Errorf("building groups: %w", err)
		}
		if len(groups) == 0 {
			fmt.Println("No tracked files yet.")
			return nil
		}

		for _, group := range groups {
			fmt.Println(group.Label)
			for _, file := range group.Files {
				versions, err := a.VersionList(file)
				if err != nil {
					return fmt.Errorf("listing versions of %s: %w", file, err)
				}
				if len(versions) == 0 {
					fmt.Printf("  %s (no versions)\n", file)
					continue
				}
				latest := versions[0]
				fmt.Printf("  %s (%d versions, latest %s)\n", file, len(versions), statsBadge(latest.Stats))
			}
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "List all versions of a file, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfNeeded(a); err != nil {
			return err
		}

		versions, err := a.VersionList(args[0])
		if err != nil {
			return fmt.Errorf("listing versions: %w", err)
		}
		if len(versions) == 0 {
			fmt.Printf("No versions recorded for %s\n", args[0])
			return nil
		}

		for _, v := range versions {
			fmt.Printf("[%d] Version %d  %s  %s\n",
				v.Index, v.Number, v.Timestamp.Local().Format("2006-01-02 15:04:05"), statsBadge(v.Stats))
		}
		return nil
	},
}

// diff command
var diffCmd = &cobra.Command{
	Use:   "diff <file> [index]",
	Short: "Estimate line changes of a version against its predecessor",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Diff")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfNeeded(a); err != nil {
			return err
		}

		index := 0
		if len(args) == 2 {
			if index, err = parseIndex(args[1]); err != nil {
				return err
			}
		}

		stats, err := a.DiffStats(args[0], index)
		if err != nil {
			return fmt.Errorf("estimating diff: %w", err)
		}

		fmt.Printf("+%d -%d\n", stats.Added, stats.Removed)
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show <file> <index>",
	Short: "Print the stored content of a version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfNeeded(a); err != nil {
			return err
		}

		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}

		content, err := a.VersionContent(args[0], index)
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}

		os.Stdout.Write(content)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore <file> <index>",
	Short: "Write a stored version back over the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfNeeded(a); err != nil {
			return err
		}

		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}

		abs, err := a.Restore(args[0], index)
		if err != nil {
			return fmt.Errorf("restoring version: %w", err)
		}

		fmt.Printf("Restored %s to version index %d\n", abs, index)
		return nil
	},
}

func init() {
	trackCmd.Flags().BoolVarP(&trackRecursive, "recursive", "r", true, "watch subdirectories too")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	keysCmd.AddCommand(keysInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(restoreCmd)
}
