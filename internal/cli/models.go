package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/postguard/internal/classify"
	"github.com/dshills/postguard/internal/config"
	"github.com/dshills/postguard/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

// Small, fast models suit short posts; the larger ones are listed for
// users who prefer recall over latency.
var knownModels = []modelInfo{
	{
		Provider: "gemini",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-flash-lite",
			"gemini-2.5-pro",
		},
	},
	{
		Provider: "anthropic",
		Models: []string{
			"claude-haiku-4-5",
			"claude-sonnet-4-5",
		},
	},
	{
		Provider: "openai",
		Models: []string{
			"gpt-4.1-mini",
			"gpt-4.1",
			"gpt-4o-mini",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"llama3.2",
			"llama3.1",
			"qwen2.5",
			"mistral",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range knownModels {
			fmt.Fprintf(os.Stdout, "%s:\n", info.Provider)
			for _, m := range info.Models {
				fmt.Fprintf(os.Stdout, "  - %s\n", m)
			}
			fmt.Fprintln(os.Stdout)
		}
	},
}

// doctorSample is classified by `models doctor`; it carries one phone
// number so a working provider must return at least one element.
const doctorSample = "Call me tonight at 555-867-5309, I'm home alone all weekend."

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Classify a sample post to check credentials and reply format",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Checking %s (%s)...\n", cfg.Provider, cfg.Model)

		completer, err := providers.New(cfg.Provider, cfg.Model, providers.Options{Retries: cfg.Retries})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = errorExitCode(err)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		start := time.Now()
		a, err := classify.New(completer, classify.WithRepair(cfg.Repair)).Classify(ctx, doctorSample)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if classify.IsParseError(err) {
				fmt.Fprintln(os.Stderr, "The model answered but its reply did not match the expected JSON shape; try another model.")
			}
			exitCode = errorExitCode(err)
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s replied in %s with %s risk and %d element(s)\n",
			cfg.Provider, time.Since(start).Round(time.Millisecond), a.Level, len(a.Elements))
		if len(a.Elements) == 0 {
			fmt.Fprintln(os.Stdout, "WARNING: the sample contains a phone number but nothing was flagged")
		}
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
