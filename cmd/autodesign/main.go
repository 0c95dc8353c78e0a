// Command autodesign submits a kitchen design from the terminal, or resumes
// one by request id, and prints the generated result.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/autodesign/internal/config"
	"github.com/kiranshivaraju/autodesign/internal/designapi"
	"github.com/kiranshivaraju/autodesign/internal/session"
	"github.com/kiranshivaraju/autodesign/internal/tracker"
	"github.com/kiranshivaraju/autodesign/internal/ui"
	"github.com/kiranshivaraju/autodesign/pkg/models"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitStopped = 3
)

type options struct {
	Selection models.Selection
	RequestID string
	Plain     bool
	Verbose   bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "autodesign: %v\n", err)
		return exitUsage
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "autodesign: load config: %v\n", err)
		return exitFailed
	}

	client, err := designapi.NewHTTPClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	if err != nil {
		fmt.Fprintf(stderr, "autodesign: init design api client: %v\n", err)
		return exitFailed
	}
	jobs := tracker.New(client,
		tracker.WithInterval(cfg.Polling.Interval),
		tracker.WithMaxPolls(cfg.Polling.MaxAttempts),
	)

	return design(ctx, jobs, opts, stdout, stderr)
}

// design starts or resumes a job, watches it to a terminal state and prints
// the outcome.
func design(ctx context.Context, jobs *tracker.Tracker, opts options, stdout, stderr io.Writer) int {
	sess := session.New("cli-"+uuid.NewString(), jobs.Interval())

	if opts.RequestID != "" {
		if err := jobs.Resume(sess, opts.RequestID); err != nil {
			fmt.Fprintf(stderr, "autodesign: %v\n", err)
			return exitUsage
		}
	} else if err := jobs.Submit(ctx, sess, opts.Selection); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(stderr, "autodesign: %s\n", verr.Message)
			return exitUsage
		}
		fmt.Fprintf(stderr, "autodesign: submit design: %v\n", err)
		return exitFailed
	}

	if !sess.State.Terminal() {
		fmt.Fprintf(stderr, "Request ID: %s\n", sess.RequestID())
		if stopped := watch(ctx, jobs, sess, opts.Plain, stderr); stopped {
			return exitStopped
		}
	}

	return report(sess, stdout, stderr)
}

// watch drives sess until it is terminal. It reports true when watching
// stopped early; the job keeps running server-side and can be resumed.
func watch(ctx context.Context, jobs *tracker.Tracker, sess *session.Session, plain bool, stderr io.Writer) bool {
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()

	initial := tracker.Update{State: sess.State, RequestID: sess.RequestID()}
	updates := jobs.Watch(watchCtx, sess)

	if plain {
		ui.Plain(stderr, updates, initial)
	} else if _, err := ui.Run(watchCtx, stderr, updates, initial); err != nil {
		slog.Debug("progress view ended", "error", err)
	}

	// Watch owns sess until its channel closes.
	stop()
	for range updates {
	}

	if sess.State.Terminal() {
		return false
	}
	if id := sess.RequestID(); id != "" {
		fmt.Fprintf(stderr, "Stopped watching. Resume with: autodesign -request-id %s\n", id)
	}
	return true
}

// report prints the result document to stdout and returns the exit code.
func report(sess *session.Session, stdout, stderr io.Writer) int {
	if sess.Result != nil {
		payload := sess.Result.Body
		if sess.Result.Succeeded() && len(sess.Result.Result) > 0 {
			payload = sess.Result.Result
		}
		writeJSON(stdout, payload)
	}

	if sess.State == models.JobStateFailed {
		if sess.LastError != "" {
			fmt.Fprintf(stderr, "autodesign: %s\n", sess.LastError)
		} else if sess.Result != nil {
			fmt.Fprintf(stderr, "autodesign: design finished with status %q\n", sess.Result.CodeMajor)
		}
		return exitFailed
	}
	return exitOK
}

func writeJSON(w io.Writer, raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, _ = w.Write(buf.Bytes())
}

func parseFlags(args []string, output io.Writer) (options, error) {
	def := models.DefaultSelection()

	fs := flag.NewFlagSet("autodesign", flag.ContinueOnError)
	fs.SetOutput(output)

	layout := fs.String("layout", def.Layout, "kitchen layout")
	width := fs.Int("width", def.Width, "room width in mm")
	depth := fs.Int("depth", def.Depth, "room depth in mm")
	appliances := fs.String("appliances", strings.Join(def.Appliances, ","), "comma-separated appliances")
	plumbing := fs.String("plumbing", strings.Join(def.PlumbingFixtures, ","), "comma-separated plumbing fixtures")
	cabinets := fs.String("cabinets", strings.Join(def.Cabinets, ","), "comma-separated cabinet types")
	worktop := fs.String("worktop", def.Worktop, "worktop material")
	requestID := fs.String("request-id", "", "resume an existing job instead of submitting")
	plain := fs.Bool("plain", false, "print one line per status check instead of a spinner")
	verbose := fs.Bool("v", false, "debug logging on stderr")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return options{
		Selection: models.Selection{
			Layout:           *layout,
			Width:            *width,
			Depth:            *depth,
			Appliances:       splitList(*appliances),
			PlumbingFixtures: splitList(*plumbing),
			Cabinets:         splitList(*cabinets),
			Worktop:          *worktop,
		},
		RequestID: strings.TrimSpace(*requestID),
		Plain:     *plain,
		Verbose:   *verbose,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
