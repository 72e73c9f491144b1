package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/mattn/go-isatty"

	"github.com/dshills/postguard/internal/pipeline"
)

// Report is one rendered buffer: the frame plus where the text came from.
type Report struct {
	Name  string
	Frame pipeline.Frame
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, r Report) error
}

// Options tune the writers.
type Options struct {
	// Color enables ANSI styling in the text writer.
	Color bool
	// ConfidenceThreshold hides the classifier's confidence below this value.
	ConfidenceThreshold int
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Color: opts.Color, ConfidenceThreshold: opts.ConfidenceThreshold, now: time.Now}, nil
	case "json":
		return &JSONWriter{ConfidenceThreshold: opts.ConfidenceThreshold}, nil
	case "markdown":
		return &MarkdownWriter{ConfidenceThreshold: opts.ConfidenceThreshold}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ColorEnabled resolves a color mode (auto, always, never) for f.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FrameRenderer adapts a Writer to pipeline.Renderer.
type FrameRenderer struct {
	mu     sync.Mutex
	name   string
	writer Writer
	out    io.Writer
}

// NewFrameRenderer writes every frame it receives to out.
func NewFrameRenderer(name string, writer Writer, out io.Writer) *FrameRenderer {
	return &FrameRenderer{name: name, writer: writer, out: out}
}

func (r *FrameRenderer) Render(f pipeline.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Write(r.out, Report{Name: r.name, Frame: f}); err != nil {
		log.WithError(err).Error("writing frame")
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
