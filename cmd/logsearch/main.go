// Command logsearch finds a term across every page of a NetSuite script
// execution log and highlights each occurrence.
//
// Usage:
//
//	logsearch -config logsearch.yaml -term "INVALID_FLD"   # live search, results to sinks
//	logsearch -url https://1234.app.netsuite.com/... -term error
//	logsearch -url ... -term error -once                   # displayed page only
//	logsearch -file export.html -term error -out hl.html   # saved page or http(s) export
//	logsearch -config logsearch.yaml -serve :8088          # HTTP dispatch API
//	logsearch -config logsearch.yaml -mcp                  # MCP tools on stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/logsearch/logsearch"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

type options struct {
	configPath string
	url        string
	term       string
	once       bool
	file       string
	out        string
	serve      string
	mcp        bool
	attach     bool
	remote     string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to logsearch.yaml")
	flag.StringVar(&o.url, "url", "", "log page to open (overrides target.url)")
	flag.StringVar(&o.term, "term", "", "text to search for")
	flag.BoolVar(&o.once, "once", false, "search the displayed page only")
	flag.StringVar(&o.file, "file", "", "search a saved page (path or http(s) URL) instead of a live tab")
	flag.StringVar(&o.out, "out", "", "with -file: write the highlighted page here")
	flag.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address (overrides http.addr)")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools on stdio")
	flag.BoolVar(&o.attach, "attach", false, "reuse an open tab on the target instead of opening one")
	flag.StringVar(&o.remote, "remote", "", "DevTools URL of a running Chrome (overrides browser.remote)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("logsearch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	sinks, err := logsearch.SinksFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	var f *logsearch.Finder
	var doc *logsearch.Document
	if o.file != "" {
		doc, err = logsearch.OpenDocument(ctx, o.file, logger)
		if err != nil {
			return err
		}
		f = logsearch.NewOffline(doc, cfg, logger, sinks...)
	} else {
		if cfg.Target.URL == "" {
			return errors.New("usage: logsearch -config <file> | -url <url> | -file <path>, with -term, -serve or -mcp")
		}
		f = logsearch.New(cfg, logger, sinks...)
		if err := f.Start(ctx); err != nil {
			return err
		}
	}
	defer f.Stop()

	switch {
	case o.mcp:
		return serveMCP(ctx, f)
	case o.serve != "" || (o.term == "" && cfg.HTTP.Addr != ""):
		addr := o.serve
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		return serveHTTP(ctx, logger, f, addr)
	case o.term != "":
		return searchOnce(ctx, logger, f, doc, o)
	}
	return errors.New("nothing to do: give -term, -serve or -mcp")
}

func loadConfig(o options) (*logsearch.Config, error) {
	cfg := logsearch.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = logsearch.LoadConfigFile(o.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if o.url != "" {
		cfg.Target.URL = o.url
	}
	if o.attach {
		cfg.Target.Attach = true
	}
	if o.remote != "" {
		cfg.Browser.Remote = o.remote
	}
	return cfg, nil
}

func searchOnce(ctx context.Context, logger *slog.Logger, f *logsearch.Finder, doc *logsearch.Document, o options) error {
	var (
		res match.Result
		err error
	)
	if o.once {
		res, err = f.ScanOnce(ctx, o.term)
	} else {
		res, err = f.Search(ctx, o.term)
	}
	if err != nil {
		return err
	}
	logger.Info("logsearch: " + res.Status())

	if o.out != "" {
		if doc == nil {
			return errors.New("-out needs -file")
		}
		if err := doc.WriteFile(o.out); err != nil {
			return err
		}
		logger.Info("logsearch: highlighted page written", "path", o.out)
	}
	return nil
}

func serveHTTP(ctx context.Context, logger *slog.Logger, f *logsearch.Finder, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           f.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("logsearch: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}

func serveMCP(ctx context.Context, f *logsearch.Finder) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "logsearch", Version: "1.0.0"}, nil)
	f.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}
