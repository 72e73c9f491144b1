package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/postguard/internal/config"
	"github.com/dshills/postguard/internal/output"
	"github.com/dshills/postguard/internal/pipeline"
	"github.com/dshills/postguard/internal/watch"
)

var flagDebounce time.Duration

// runWatch feeds every settled write to the pipeline until ctx ends or the
// watcher closes, then waits for in-flight classifications.
func runWatch(ctx context.Context, p *pipeline.Pipeline, events <-chan watch.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			p.Wait()
			return
		case ev, ok := <-events:
			if !ok {
				p.Wait()
				return
			}
			p.Edit(ctx, ev.Text)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.WithError(err).Warn("watch error")
		}
	}
}

func printStats(w io.Writer, s pipeline.Stats) {
	fmt.Fprintf(w, "Edits: %s, classifier calls: %s, failures: %s, stale responses dropped: %s\n",
		humanize.Comma(int64(s.Edits)), humanize.Comma(int64(s.APICalls)),
		humanize.Comma(int64(s.Failures)), humanize.Comma(int64(s.StaleDrops)))
	fmt.Fprintf(w, "Cache: %d/%d entries, %s%% hit rate (%d hits, %d misses)\n",
		s.Cache.Size, s.Cache.Capacity, humanize.FtoaWithDigits(s.Cache.HitRate()*100, 1),
		s.Cache.Hits, s.Cache.Misses)
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-check a draft every time it is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagDebounce > 0 {
			overrides["debounceMs"] = fmt.Sprintf("%d", flagDebounce.Milliseconds())
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
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

		watcher, err := watch.New(args[0], cfg.Debounce())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer watcher.Stop()
		if err := watcher.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := e.pipeline(args[0], pipeline.WithRenderer(output.NewFrameRenderer(args[0], w, out)))
		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", watcher.Path())
		runWatch(ctx, p, watcher.Events(), watcher.Errors())

		printStats(os.Stderr, p.Stats())
		return nil
	},
}

func init() {
	addClassifyFlags(watchCmd)
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 0, "Quiet period after a write before re-checking (default from config)")
}
