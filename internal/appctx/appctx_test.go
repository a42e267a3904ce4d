package appctx

import "testing"

func TestCanonicalURL(t *testing.T) {
	cases := []struct {
		app  App
		want string
	}{
		{App{Hostname: "https://www.example.com/", CurrentURL: ""}, "https://www.example.com/"},
		{App{Hostname: "https://www.example.com", CurrentURL: "/en/about"}, "https://www.example.com/en/about"},
	}
	for _, tc := range cases {
		if got := tc.app.CanonicalURL(); got != tc.want {
			t.Errorf("CanonicalURL() = %q, want %q", got, tc.want)
		}
	}
	app := App{CurrentURL: "/kontakt"}
	app.Site.Hostname = "https://site.example"
	if got := app.CanonicalURL(); got != "https://site.example/kontakt" {
		t.Errorf("expected site hostname fallback, got %q", got)
	}
}

func TestLocalePrefix(t *testing.T) {
	if got := LocalePrefix("cs", "cs"); got != "" {
		t.Errorf("default locale prefix should be empty, got %q", got)
	}
	if got := LocalePrefix("en", "cs"); got != "/en" {
		t.Errorf("unexpected prefix %q", got)
	}
	a := New()
	if a.RenderID == "" || New().RenderID == a.RenderID {
		t.Errorf("expected unique render ids")
	}
}
