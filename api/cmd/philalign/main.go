package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"philalign/api/internal/apperr"
	"philalign/api/internal/config"
	"philalign/api/internal/engines"
	"philalign/api/internal/ledger"
	"philalign/api/internal/llm"
	"philalign/api/internal/logging"
	"philalign/api/internal/prompt"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfgPath string
	envFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

func main() {
	a := &app{out: os.Stdout}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "philalign",
		Short:         "Compare how LLM providers reason through ethical dilemmas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(a),
		newAskCmd(a),
		newTestCmd(a),
		newScenariosCmd(a),
		newModelsCmd(a),
		newListCmd(a),
		newViewCmd(a),
		newClearCmd(a),
		newBackupCmd(a),
		newSummarizeCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newBotCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	if a.envFile != "" {
		// a missing .env is normal; anything else is worth reporting
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return apperr.Configuration("load %s: %v", a.envFile, err)
		}
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.log == nil {
		log, err := logging.New(a.verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a.log = log
	}
	return nil
}

// clients builds the configured senders. Missing providers are logged by
// engines.New and only matter when nothing is configured.
func (a *app) clients() llm.Clients {
	c, _ := engines.New(a.cfg, a.log)
	return c
}

// systemPrompts gives OpenAI the default system message and the other
// providers only an explicit override.
func (a *app) systemPrompts() map[llm.Provider]string {
	out := map[llm.Provider]string{}
	for _, p := range llm.Providers() {
		s := prompt.SystemOverride(a.cfg.PromptDir, string(p))
		if p == llm.OpenAI {
			s = prompt.SystemPrompt(a.cfg.PromptDir, string(p))
		}
		if s != "" {
			out[p] = s
		}
	}
	return out
}

func (a *app) policy() llm.Policy {
	return llm.Policy{MaxRetries: a.cfg.MaxRetries, Delay: a.cfg.CallDelay, Timeout: a.cfg.CallTimeout}
}

func (a *app) catalog() *ledger.Catalog {
	return ledger.NewCatalog(a.cfg.ResultsDir)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
