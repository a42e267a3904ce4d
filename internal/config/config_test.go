package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithConfigFile(""), WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.I18n.DefaultLocale != "cs" || len(cfg.I18n.Locales) != 1 {
		t.Errorf("unexpected locales: default=%s locales=%v", cfg.I18n.DefaultLocale, cfg.I18n.Locales)
	}
	if !cfg.SSG.StaticGeneration {
		t.Errorf("expected static generation enabled by default")
	}
	if cfg.SSG.Fallback != "false" {
		t.Errorf("expected fallback false, got %s", cfg.SSG.Fallback)
	}
	if cfg.Site.TimeZone != defaultTimeZone {
		t.Errorf("expected default tz, got %s", cfg.Site.TimeZone)
	}
	if cfg.GTM.Code != "" {
		t.Errorf("expected empty gtm code, got %q", cfg.GTM.Code)
	}
	if cfg.IsDevelopment() {
		t.Errorf("expected production env by default")
	}
}

func TestLoadReadsSiteConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.config.yaml")
	contents := `
gtm:
  code: GTM-ABC123
tz: Europe/London
ssg:
  staticGeneration: false
  fallback: blocking
  revalidate: 10m
i18n:
  locales: [cs, en]
  defaultLocale: cs
site:
  hostname: https://www.example.com/
preview:
  gridHelper: true
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(WithConfigFile(path), WithEnvFile(""), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GTM.Code != "GTM-ABC123" {
		t.Errorf("unexpected gtm code %q", cfg.GTM.Code)
	}
	if cfg.Site.TimeZone != "Europe/London" {
		t.Errorf("unexpected tz %s", cfg.Site.TimeZone)
	}
	if cfg.SSG.StaticGeneration {
		t.Errorf("expected static generation disabled")
	}
	if cfg.SSG.Fallback != "blocking" || cfg.SSG.Revalidate != 10*time.Minute {
		t.Errorf("unexpected ssg config %+v", cfg.SSG)
	}
	if cfg.Site.Hostname != "https://www.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Site.Hostname)
	}
	if len(cfg.I18n.Locales) != 2 || cfg.I18n.Locales[1] != "en" {
		t.Errorf("unexpected locales %v", cfg.I18n.Locales)
	}
	if !cfg.Preview.GridHelper {
		t.Errorf("expected grid helper enabled")
	}
}

func TestEnvironmentOverridesFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WEB_GTM_CODE=GTM-DOTENV\nWEB_TZ=UTC\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	cfg, err := Load(
		WithConfigFile(""),
		WithEnvFile(envPath),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"WEB_GTM_CODE":              "GTM-ENV",
			"WEB_LOCALES":               "cs, en ,de",
			"WEB_SSG_STATIC_GENERATION": "off",
			"PORT":                      "9090",
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GTM.Code != "GTM-ENV" {
		t.Errorf("expected env map to win, got %s", cfg.GTM.Code)
	}
	if cfg.Site.TimeZone != "UTC" {
		t.Errorf("expected dotenv tz UTC, got %s", cfg.Site.TimeZone)
	}
	if len(cfg.I18n.Locales) != 3 || cfg.I18n.Locales[1] != "en" {
		t.Errorf("unexpected locales %v", cfg.I18n.Locales)
	}
	if cfg.SSG.StaticGeneration {
		t.Errorf("expected static generation disabled via env")
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr from PORT, got %s", cfg.Server.Addr)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(
		WithConfigFile(""),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"WEB_LOCALES":        "en",
			"WEB_DEFAULT_LOCALE": "cs",
			"WEB_TZ":             "Mars/Olympus",
			"WEB_SSG_FALLBACK":   "sometimes",
		}),
	)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := vErr.Fields()
	want := map[string]bool{"I18n.DefaultLocale": true, "Site.TimeZone": true, "SSG.Fallback": true}
	if len(fields) != len(want) {
		t.Fatalf("unexpected invalid fields %v", fields)
	}
	for _, f := range fields {
		if !want[f] {
			t.Errorf("unexpected invalid field %s", f)
		}
	}
}
