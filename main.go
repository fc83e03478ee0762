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

	"golang.org/x/sync/errgroup"

	"auto_wordpress_article_publisher/apiclient"
	"auto_wordpress_article_publisher/auth"
	"auto_wordpress_article_publisher/backend"
	"auto_wordpress_article_publisher/composer"
	"auto_wordpress_article_publisher/config"
	"auto_wordpress_article_publisher/logging"
	"auto_wordpress_article_publisher/server"
	"auto_wordpress_article_publisher/ui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start the proxy server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	clientConfig := flag.String("client-config", "", "path to the composer TOML config")
	proxy := flag.String("proxy", "", "proxy URL for the composer (overrides client config)")
	logFile := flag.String("log-file", "logs/composer.log", "composer log file")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *serve {
		err = runServer(ctx, *configPath, *addr, *verbose)
	} else {
		err = runComposer(ctx, *clientConfig, *proxy, *logFile, *verbose)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, configPath, addr string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}

	if cfg.UsesDefaultCredentials() {
		logger.Warn("using default credentials admin/admin; set AUTH_USERNAME and AUTH_PASSWORD")
	}
	if cfg.Auth.SessionSecret == config.DefaultSessionSecret {
		logger.Warn("using the default session secret; set SESSION_SECRET")
	}

	gate, err := auth.NewGate(auth.Options{
		Username:     cfg.Auth.Username,
		PasswordHash: cfg.Auth.PasswordHash,
		Password:     cfg.Auth.Password,
		Secret:       []byte(cfg.Auth.SessionSecret),
		TTL:          cfg.Auth.SessionTTL.Std(),
		LoginRate:    cfg.Auth.LoginRate,
		LoginBurst:   cfg.Auth.LoginBurst,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	upstream := backend.NewClient(cfg.RemoteServerURL, backend.Budgets{
		Generate:    cfg.Timeouts.Generate.Std(),
		ConfirmPost: cfg.Timeouts.ConfirmPost.Std(),
		Regenerate:  cfg.Timeouts.Regenerate.Std(),
		Health:      cfg.Timeouts.Health.Std(),
		Debug:       cfg.Timeouts.Debug.Std(),
	}, nil)

	srv, err := server.New(server.Options{
		Backend:   upstream,
		Gate:      gate,
		Logger:    logger,
		StaticDir: cfg.StaticDir,
		ProbeRate: cfg.ProbeRate(),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("proxy listening", "addr", cfg.ServerAddr, "backend", cfg.RemoteServerURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runComposer(ctx context.Context, configPath, proxyURL, logFile string, verbose bool) error {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return err
	}
	if proxyURL != "" {
		cfg.ProxyURL = proxyURL
	}

	// the terminal belongs to the UI, so logs go to a file
	logCfg := logging.DefaultConfig()
	logCfg.Output = "file"
	logCfg.FilePath = logFile
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.Init(logCfg)
	if err != nil {
		return err
	}

	client, err := apiclient.NewClient(cfg.ProxyURL, nil)
	if err != nil {
		return err
	}
	if cfg.Username != "" {
		loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := client.Login(loginCtx, cfg.Username, cfg.Password)
		cancel()
		if err != nil {
			return fmt.Errorf("login to %s: %w", client.BaseURL(), err)
		}
		logger.Info("signed in", "proxy", client.BaseURL(), "username", cfg.Username)
	}

	session, err := composer.New(composer.Options{
		API:     client,
		Logger:  logger,
		Context: ctx,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	return ui.Run(ui.Options{
		Context:  ctx,
		Session:  session,
		Health:   client,
		ProxyURL: client.BaseURL(),
		Theme:    cfg.Theme,
	}, session.OnChange)
}
