package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
	"github.com/XRed8X/PDB-Engine/internal/config"
	"github.com/XRed8X/PDB-Engine/internal/form"
	"github.com/XRed8X/PDB-Engine/internal/gateway"
	"github.com/XRed8X/PDB-Engine/internal/history"
	"github.com/XRed8X/PDB-Engine/internal/logging"
	"github.com/XRed8X/PDB-Engine/internal/session"
	"github.com/XRed8X/PDB-Engine/internal/tui"
)

var (
	runArgPairs []string
	runFlags    []string
	runFile     string
	runPreview  bool
	runOutput   string

	commandsVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pdbengine",
	Short: "Terminal client for the PDB Engine protein design service",
	Long: `pdbengine talks to a remote PDB Engine instance: pick a command,
fill in its arguments and flags, optionally attach a structure file,
and the result archive is saved into your downloads directory.

Run without arguments to start the interactive interface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var runCmd = &cobra.Command{
	Use:   "run [command]",
	Short: "Execute one engine command and save the result archive",
	Long: `Executes a single engine command without the interactive interface.

Examples:
  pdbengine run Minimize --arg prefix=min1 --flag physics --file 1abc.pdb
  pdbengine run ProteinDesign --arg prefix=des1 --preview`,
	Args: cobra.ExactArgs(1),
	RunE: runOnce,
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands the engine accepts",
	RunE:  listCommands,
}

func init() {
	runCmd.Flags().StringArrayVar(&runArgPairs, "arg", nil, "Argument as name=value (repeatable)")
	runCmd.Flags().StringArrayVar(&runFlags, "flag", nil, "Flag to enable (repeatable)")
	runCmd.Flags().StringVar(&runFile, "file", "", "Structure file to attach (.pdb)")
	runCmd.Flags().BoolVar(&runPreview, "preview", false, "Print the serialized command line and exit")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Directory for the result archive (default from config)")

	commandsCmd.Flags().BoolVarP(&commandsVerbose, "verbose", "v", false, "Show each command's arguments and flags")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(commandsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// appEnv bundles everything a command needs after wiring.
type appEnv struct {
	cfg  config.Config
	log  *zap.Logger
	sess *session.Session
}

func buildEnv(downloadDir string) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if downloadDir != "" {
		cfg.Downloads.Dir = downloadDir
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
	}

	client := gateway.New(gateway.Options{
		BaseURL:    cfg.Engine.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Engine.Timeout()},
		Logger:     logger.Named("gateway"),
	})
	hist := history.New(history.Options{
		DownloadDir: cfg.Downloads.Dir,
		StagingDir:  cfg.Staging.Dir,
		Logger:      logger.Named("history"),
	})
	sess := session.New(cat, client, hist, logger.Named("session"))

	return &appEnv{cfg: cfg, log: logger, sess: sess}, nil
}

func (e *appEnv) close() {
	if err := e.sess.Close(); err != nil {
		e.log.Warn("session close", zap.Error(err))
	}
	_ = e.log.Sync()
}

func runTUI() error {
	env, err := buildEnv("")
	if err != nil {
		return err
	}
	defer env.close()

	ctx := context.Background()
	p := tea.NewProgram(tui.New(ctx, env.sess, env.cfg.PDB.Dir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// runOnce drives a full submission from flags: select, populate, submit,
// report the saved archive path.
func runOnce(cmd *cobra.Command, args []string) error {
	env, err := buildEnv(runOutput)
	if err != nil {
		return err
	}
	defer env.close()

	name := args[0]
	env.sess.SelectCommand(name)
	if env.sess.SelectedCommand() == "" {
		if sug := env.sess.Suggestion(); sug != "" {
			return fmt.Errorf("unknown command %q (did you mean %s?)", name, sug)
		}
		return fmt.Errorf("unknown command %q", name)
	}

	if err := populateForm(env.sess, runArgPairs, runFlags, runFile); err != nil {
		return err
	}

	if runPreview {
		fmt.Println(env.sess.Preview())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), env.cfg.Engine.Timeout())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("Running %s against %s...\n", name, env.cfg.Engine.BaseURL)
	rec, err := env.sess.Submit(ctx)
	if err != nil {
		return fmt.Errorf("%s failed after %.2fs: %s", name, rec.ExecutionSeconds, err)
	}
	fmt.Printf("Finished in %.2fs\n", rec.ExecutionSeconds)
	fmt.Printf("Saved %s\n", env.sess.SavedPath(rec))
	return nil
}

// populateForm applies --arg, --flag, and --file values onto the active
// form, honoring each field's declared kind.
func populateForm(sess *session.Session, argPairs, flags []string, file string) error {
	for _, pair := range argPairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed --arg %q, want name=value", pair)
		}
		if err := sess.SetText(key, value); err != nil {
			return fmt.Errorf("--arg %s: %w", key, err)
		}
	}
	for _, flag := range flags {
		if err := sess.SetFlag(flag, true); err != nil {
			return fmt.Errorf("--flag %s: %w", flag, err)
		}
	}
	if file != "" {
		target := fileField(sess)
		if target == "" {
			return fmt.Errorf("%s takes no structure file", sess.SelectedCommand())
		}
		ref := &form.FileRef{Name: filepath.Base(file), Path: file}
		if err := sess.SetFile(target, ref); err != nil {
			return fmt.Errorf("--file: %w", err)
		}
	}
	return nil
}

// fileField returns the name of the active command's structure-file
// argument, "" when it has none.
func fileField(sess *session.Session) string {
	for _, name := range sess.Fields() {
		if v, ok := sess.FieldValue(name); ok && v.Kind == form.KindFile {
			return name
		}
	}
	return ""
}

func listCommands(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return err
		}
	}

	for _, name := range cat.Names() {
		fmt.Println(name)
		if !commandsVerbose {
			continue
		}
		entry, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		if len(entry.Arguments) > 0 {
			fmt.Printf("  arguments: %s\n", strings.Join(entry.Arguments, ", "))
		}
		if len(entry.Flags) > 0 {
			fmt.Printf("  flags:     %s\n", strings.Join(entry.Flags, ", "))
		}
	}
	return nil
}
