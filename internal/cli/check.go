package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/postguard/internal/config"
	"github.com/dshills/postguard/internal/output"
	"github.com/dshills/postguard/internal/pipeline"
)

var flagConcurrency int

// input is one text to check.
type input struct {
	name string
	text string
}

func readInputs(args []string, stdin io.Reader) ([]input, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []input{{name: "stdin", text: string(data)}}, nil
	}
	inputs := make([]input, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{name: path, text: string(data)})
	}
	return inputs, nil
}

// runCheck classifies every input through its own pipeline over the
// engine's shared cache, then writes the frames in input order.
func runCheck(ctx context.Context, e *engine, inputs []input, w output.Writer, out io.Writer, concurrency int) (int, error) {
	frames := make([]pipeline.Frame, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, in := range inputs {
		g.Go(func() error {
			p := e.pipeline(in.name)
			outcome, err := p.Edit(ctx, in.text).Wait(ctx)
			if err != nil && outcome.Frame.Err == nil {
				// ctx ended before the classifier answered
				outcome.Frame = pipeline.Frame{Text: in.text, Source: pipeline.SourceNone, Err: err}
			}
			frames[i] = outcome.Frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ExitRuntimeError, err
	}

	code := ExitSuccess
	for i, f := range frames {
		if err := w.Write(out, output.Report{Name: inputs[i].name, Frame: f}); err != nil {
			return ExitRuntimeError, fmt.Errorf("writing output: %w", err)
		}
		code = worstExitCode(code, frameExitCode(f, e.cfg.FailOn))
	}
	return code, nil
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check one or more drafts (stdin when no files are given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		inputs, err := readInputs(args, cmd.InOrStdin())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		e, err := newEngine(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = errorExitCode(err)
			return nil
		}

		out, closeOut, err := openOut()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer closeOut()

		w, err := e.writer(out)
		if err != nil {
			return err
		}

		code, err := runCheck(cmd.Context(), e, inputs, w, out, flagConcurrency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		exitCode = code
		return nil
	},
}

func init() {
	addClassifyFlags(checkCmd)
	checkCmd.Flags().IntVar(&flagConcurrency, "concurrency", 4, "Maximum inputs classified at once")
}
