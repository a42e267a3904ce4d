package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sklinet.org/web/internal/blocks"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/config"
	"sklinet.org/web/internal/handlers"
	"sklinet.org/web/internal/i18n"
	mw "sklinet.org/web/internal/middleware"
	"sklinet.org/web/internal/observability"
	"sklinet.org/web/internal/pages"
	"sklinet.org/web/internal/render"
)

var cli struct {
	Config  string `short:"c" help:"Site configuration file" default:"site.config.yaml"`
	EnvFile string `help:"Optional .env file with local overrides" default:".env"`

	Serve struct{} `cmd:"" default:"1" help:"Serve the site over HTTP"`

	Export struct {
		Out string `short:"o" help:"Output directory for the static export" default:"./out"`
	} `cmd:"" help:"Render every static page to disk"`
}

func main() {
	kctx := kong.Parse(&cli, kong.Name("web"), kong.Description("Sklinet CMS-backed website"))

	cfg, err := config.Load(config.WithConfigFile(cli.Config), config.WithEnvFile(cli.EnvFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch kctx.Command() {
	case "export":
		err = runExport(ctx, cfg, logger, cli.Export.Out)
	default:
		err = runServe(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		os.Exit(1)
	}
}

// site holds the wired components shared by the serve and export commands.
type site struct {
	cfg       config.Config
	logger    *zap.Logger
	provider  cms.Provider
	cache     *cms.Cached
	bundle    *i18n.Bundle
	engine    *render.Engine
	resolver  *pages.Resolver
	renderer  *pages.Renderer
	generator *pages.Generator
	cookies   *mw.PreviewCookies
}

func newSite(cfg config.Config, logger *zap.Logger) (*site, error) {
	var upstream cms.Provider
	if cfg.CMS.BaseURL != "" {
		upstream = cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.Token, cfg.CMS.Timeout)
		logger.Info("using remote CMS", zap.String("url", cfg.CMS.BaseURL))
	} else {
		upstream = cms.NewLocalStore(cfg.Site.ContentDir)
		logger.Info("using local content", zap.String("dir", cfg.Site.ContentDir))
	}
	cache := cms.NewCached(upstream, cfg.CMS.CacheTTL)

	bundle, err := i18n.LoadEmbedded(cfg.I18n.DefaultLocale, cfg.I18n.Locales)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	engine, err := render.New(render.Options{
		Dir:  cfg.Server.TemplatesDir,
		Dev:  cfg.IsDevelopment() && cfg.Server.TemplatesDir != "",
		I18n: bundle,
	})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	fallback, err := pages.ParseFallback(cfg.SSG.Fallback)
	if err != nil {
		return nil, err
	}
	enumerator := pages.NewEnumerator(cache, pages.EnumeratorConfig{
		StaticGeneration: cfg.SSG.StaticGeneration,
		Development:      cfg.IsDevelopment(),
		Fallback:         fallback,
	})
	resolver := pages.NewResolver(cache, blocks.Default(), cfg.Site.TimeZone)
	renderer := pages.NewRenderer(engine, pages.RendererConfig{
		TimeZone:      cfg.Site.TimeZone,
		GTMCode:       cfg.GTM.Code,
		ProgressColor: cfg.Site.ProgressColor,
		GridHelper:    cfg.Preview.GridHelper,
	})
	generator := pages.NewGenerator(enumerator, resolver, renderer, pages.NewStore(), pages.Site{
		Locales:       cfg.I18n.Locales,
		DefaultLocale: cfg.I18n.DefaultLocale,
		Hostname:      cfg.Site.Hostname,
	}, logger)

	return &site{
		cfg:       cfg,
		logger:    logger,
		provider:  cache,
		cache:     cache,
		bundle:    bundle,
		engine:    engine,
		resolver:  resolver,
		renderer:  renderer,
		generator: generator,
		cookies:   mw.NewPreviewCookies(cfg.Preview.SigningKey, !cfg.IsDevelopment(), logger),
	}, nil
}

func (s *site) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
	r.Use(middleware.RealIP)
	r.Use(observability.Trace)
	r.Use(observability.InjectLogger(s.logger))
	r.Use(observability.RequestLogger)
	r.Use(observability.Recovery)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	r.Handle("/assets/*", mw.Assets(filepath.Join(s.cfg.Server.PublicDir, "assets"), "/assets", s.cfg.IsDevelopment()))

	preview := &handlers.Preview{
		Secret:   s.cfg.Preview.Secret,
		Cookies:  s.cookies,
		Provider: s.provider,
		Bundle:   s.bundle,
	}
	r.Get("/api/preview", preview.Enter)
	r.Get("/api/exit-preview", preview.Exit)

	pageHandler := &handlers.Pages{
		Generator:     s.generator,
		Resolver:      s.resolver,
		Renderer:      s.renderer,
		Engine:        s.engine,
		DefaultLocale: s.cfg.I18n.DefaultLocale,
		Hostname:      s.cfg.Site.Hostname,
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.Locale(s.bundle, s.cfg.I18n.LocaleDetection))
		r.Use(mw.VaryLocale)
		r.Use(mw.Preview(s.cookies))
		r.Method(http.MethodGet, "/*", pageHandler)
		r.Method(http.MethodHead, "/*", pageHandler)
	})
	return r
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	s, err := newSite(cfg, logger)
	if err != nil {
		return err
	}
	if s.generator.Static() {
		if _, err := s.generator.Prerender(ctx); err != nil {
			return err
		}
		if cfg.SSG.Revalidate > 0 {
			rv, err := pages.NewRevalidator(s.generator, cfg.SSG.Revalidate, s.cache.Purge, logger)
			if err != nil {
				return err
			}
			rv.Start()
			defer func() {
				if err := rv.Stop(); err != nil {
					logger.Warn("stop revalidation", zap.Error(err))
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("env", cfg.Env),
			zap.Bool("static", s.generator.Static()),
			zap.String("fallback", string(s.generator.Fallback())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.generator.Wait()
	return nil
}

func runExport(ctx context.Context, cfg config.Config, logger *zap.Logger, out string) error {
	cfg.SSG.StaticGeneration = true
	cfg.Env = "production"
	s, err := newSite(cfg, logger)
	if err != nil {
		return err
	}
	_, err = s.generator.Export(ctx, out)
	return err
}
