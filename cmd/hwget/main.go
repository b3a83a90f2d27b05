// Command hwget is a small fetch tool exercising the httpwire stack: it
// assembles a client from flags and an optional YAML config, dispatches one
// request, streams progress to stderr and writes the response body to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/marrek/httpwire"
	"github.com/marrek/httpwire/config"
	"github.com/marrek/httpwire/wire"
)

type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	if !strings.Contains(value, ":") {
		return fmt.Errorf("header must be Name: Value, got %q", value)
	}
	*h = append(*h, value)
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML client config")
		method     = flag.String("X", "GET", "request method")
		body       = flag.String("d", "", "request body")
		bodyType   = flag.String("content-type", "application/json", "request body content type")
		timeout    = flag.Duration("timeout", 30*time.Second, "overall request timeout")
		progress   = flag.Bool("progress", false, "report transfer progress on stderr")
		verbose    = flag.Bool("v", false, "verbose logging")
		headers    headerFlags
	)
	flag.Var(&headers, "H", "request header (Name: Value), repeatable")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hwget [flags] URL")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	timeoutSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			timeoutSet = true
		}
	})

	if err := run(flag.Arg(0), *configPath, *method, *body, *bodyType, *timeout, timeoutSet, *progress, headers, logger); err != nil {
		logger.Error("request failed", "error", err)
		os.Exit(1)
	}
}

// run assembles the client and performs the dispatch. Built-in defaults come
// first, config values override them, and an explicitly passed -timeout flag
// wins over everything.
func run(url, configPath, method, body, bodyType string, timeout time.Duration, timeoutSet bool, progress bool, headers headerFlags, logger *slog.Logger) error {
	opts := []httpwire.ClientOption{
		httpwire.WithLogger(logger),
		httpwire.WithTimeout(timeout),
		httpwire.WithUserAgent("hwget/1.0"),
	}

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		configured, err := cfg.ClientOptions(config.Dependencies{Logger: logger})
		if err != nil {
			return err
		}
		opts = append(opts, configured...)
		if timeoutSet {
			opts = append(opts, httpwire.WithTimeout(timeout))
		}
	}

	client, err := httpwire.NewClient(opts...)
	if err != nil {
		return err
	}

	reqOpts := []wire.RequestOption{}
	for _, h := range headers {
		name, value, _ := strings.Cut(h, ":")
		reqOpts = append(reqOpts, wire.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	if body != "" {
		reqOpts = append(reqOpts, wire.WithBody([]byte(body), bodyType))
	}
	if progress {
		reqOpts = append(reqOpts, wire.WithReportProgress())
	}

	req, err := wire.NewRequest(method, url, reqOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := client.Events(ctx, req)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				return wire.ErrTruncatedStream
			}
			switch t := ev.(type) {
			case *wire.Sent:
				logger.Debug("request sent", "method", method, "url", url)
			case *wire.UploadProgress:
				fmt.Fprintf(os.Stderr, "\rupload: %d/%d bytes", t.Loaded, t.Total)
			case *wire.DownloadProgress:
				fmt.Fprintf(os.Stderr, "\rdownload: %d/%d bytes", t.Loaded, t.Total)
			case *wire.ResponseHeaders:
				logger.Debug("response headers", "statusCode", t.Status)
			case *wire.Response:
				if progress {
					fmt.Fprintln(os.Stderr)
				}
				fmt.Fprintf(os.Stderr, "%d %s\n", t.Status, url)
				if _, err := os.Stdout.Write(t.Body); err != nil {
					return err
				}
				return t.StatusError()
			case *wire.Failure:
				if progress {
					fmt.Fprintln(os.Stderr)
				}
				return t.Err
			}
		}
	}
}
