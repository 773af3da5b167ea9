// Command researchagent answers research questions using an LLM that can
// search the web through the Brave Search API.
//
//	researchagent -q "What changed in Go 1.25?"
//	researchagent -search-only -max-results 5 -q "golang generics"
//	researchagent -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/leofalp/researchagent/agents/research"
	"github.com/leofalp/researchagent/internal/config"
	"github.com/leofalp/researchagent/providers/observability/promobs"
	"github.com/leofalp/researchagent/providers/observability/slogobs"
	"github.com/leofalp/researchagent/providers/tool/bravesearch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, surveyPrompter{}))
}

// prompter reads questions in interactive mode.
type prompter interface {
	AskInput(label string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) AskInput(label string) (string, error) {
	var ans string
	prompt := &survey.Input{Message: label}
	if err := survey.AskOne(prompt, &ans); err != nil {
		return "", err
	}
	return ans, nil
}

type cliOptions struct {
	query       string
	configPath  string
	maxResults  int
	searchOnly  bool
	interactive bool
	metricsAddr string
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("researchagent", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &cliOptions{}
	fs.StringVar(&opts.query, "q", "", "research question")
	fs.StringVar(&opts.configPath, "config", "", "optional YAML settings file (overrides "+config.ConfigFileEnv+")")
	fs.IntVar(&opts.maxResults, "max-results", bravesearch.DefaultMaxResults, "results per search in -search-only mode (1-20)")
	fs.BoolVar(&opts.searchOnly, "search-only", false, "print raw search results without asking the model")
	fs.BoolVar(&opts.interactive, "interactive", false, "ask questions in a loop")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides METRICS_ADDR)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.query == "" && fs.NArg() > 0 {
		opts.query = strings.Join(fs.Args(), " ")
	}
	if opts.query == "" {
		opts.interactive = true
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, p prompter) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var loadOpts []config.Option
	if opts.configPath != "" {
		loadOpts = append(loadOpts, config.WithFile(opts.configPath))
	}
	settings, err := config.Load(loadOpts...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opts.metricsAddr != "" {
		settings.MetricsAddr = opts.metricsAddr
	}

	base := newObserver(settings, stderr)
	logger := base.Logger()
	observer := promobs.New(base)

	if settings.MetricsAddr != "" {
		go func() {
			if err := observer.Serve(ctx, settings.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Debug("settings loaded", slog.Any("settings", settings))

	deps, err := research.NewDependencies(settings, "")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer deps.Close()

	agent, err := research.New(settings, deps, research.WithObserver(observer))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ask := func(query string) error {
		if opts.searchOnly {
			out, err := agent.SearchWeb(ctx, query, opts.maxResults)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, out)
			return nil
		}
		result, err := agent.Run(ctx, query)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, result.Answer)
		return nil
	}

	if !opts.interactive {
		if err := ask(opts.query); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	}

	return interactive(ctx, p, ask, opts.query, stdout, stderr)
}

// interactive keeps asking until the user enters an empty line, presses
// Ctrl-C or the context ends. Failed questions are reported and the loop
// continues.
func interactive(ctx context.Context, p prompter, ask func(string) error, first string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "Brave Search research agent. Empty line or Ctrl-C to quit.")

	query := first
	for {
		if query == "" {
			var err error
			query, err = p.AskInput("Research question:")
			if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
				return 0
			}
			if err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return 1
			}
		}
		if strings.TrimSpace(query) == "" {
			return 0
		}

		if err := ask(query); err != nil {
			if ctx.Err() != nil {
				return 130
			}
			fmt.Fprintln(stderr, "error:", err)
		}
		if ctx.Err() != nil {
			return 130
		}
		query = ""
	}
}

func newObserver(settings *config.Settings, w io.Writer) *slogobs.Observer {
	level, err := slogobs.ParseLevel(settings.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if settings.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slogobs.New(
		slogobs.WithFormat(slogobs.ParseFormat(settings.LogFormat)),
		slogobs.WithLevel(level),
		slogobs.WithOutput(w),
	)
}
