package browser

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/browserutils/kooky"
)

func TestParseBrowser(t *testing.T) {
	tests := []struct {
		input    string
		expected SupportedBrowser
		wantErr  bool
	}{
		{"auto", BrowserAuto, false},
		{"", BrowserAuto, false},
		{" Chrome ", BrowserChrome, false},
		{"google-chrome", BrowserChrome, false},
		{"chromium", BrowserChromium, false},
		{"mozilla", BrowserFirefox, false},
		{"msedge", BrowserEdge, false},
		{"opera", BrowserOpera, false},
		{"safari", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBrowser(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBrowser(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseBrowser(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseBrowser(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestAllSupportedBrowsers(t *testing.T) {
	browsers := AllSupportedBrowsers()
	if len(browsers) != 5 {
		t.Fatalf("expected 5 browsers, got %d", len(browsers))
	}
	if browsers[0] != BrowserChrome {
		t.Errorf("expected chrome first, got %s", browsers[0])
	}
}

func TestMatchesBrowser(t *testing.T) {
	tests := []struct {
		browserName string
		target      SupportedBrowser
		expected    bool
	}{
		{"Google Chrome", BrowserChrome, true},
		{"chromium", BrowserChrome, false},
		{"Chromium", BrowserChromium, true},
		{"Mozilla Firefox", BrowserFirefox, true},
		{"Microsoft Edge", BrowserEdge, true},
		{"Opera", BrowserOpera, true},
		{"safari", BrowserChrome, false},
		{"chrome", BrowserAuto, false},
	}

	for _, tt := range tests {
		t.Run(tt.browserName+"_"+tt.target.String(), func(t *testing.T) {
			if got := matchesBrowser(tt.browserName, tt.target); got != tt.expected {
				t.Errorf("matchesBrowser(%q, %v) = %v, want %v", tt.browserName, tt.target, got, tt.expected)
			}
		})
	}
}

func TestDomainMatches(t *testing.T) {
	tests := []struct {
		domain, host string
		want         bool
	}{
		{"example.com", "example.com", true},
		{".example.com", "chat.example.com", true},
		{"Example.com", "example.COM", true},
		{"chat.example.com", "example.com", false},
		{"ample.com", "example.com", false},
		{"", "example.com", false},
		{"127.0.0.1", "127.0.0.1", true},
	}

	for _, tt := range tests {
		if got := domainMatches(tt.domain, tt.host); got != tt.want {
			t.Errorf("domainMatches(%q, %q) = %v, want %v", tt.domain, tt.host, got, tt.want)
		}
	}
}

func TestHostname(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8000":   "127.0.0.1",
		"chat.example.com": "chat.example.com",
		"[::1]:8000":       "::1",
		" localhost:8000 ": "localhost",
		"":                 "",
	}
	for in, want := range tests {
		if got := hostname(in); got != want {
			t.Errorf("hostname(%q) = %q, want %q", in, got, want)
		}
	}
}

func kookyCookie(name, value, domain, path string) *kooky.Cookie {
	return &kooky.Cookie{Cookie: http.Cookie{Name: name, Value: value, Domain: domain, Path: path}}
}

func TestSelectCookies(t *testing.T) {
	cookies := []*kooky.Cookie{
		kookyCookie("sessionid", "parent", ".example.com", "/"),
		kookyCookie("csrftoken", "tok", "chat.example.com", ""),
		kookyCookie("sessionid", "exact", "chat.example.com", "/"),
		kookyCookie("other", "x", "notexample.com", "/"),
		nil,
	}

	got := selectCookies(cookies, "chat.example.com")
	if len(got) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(got))
	}

	if got[0].Name != "sessionid" || got[0].Value != "exact" {
		t.Errorf("expected most specific sessionid, got %s=%s", got[0].Name, got[0].Value)
	}
	if got[1].Name != "csrftoken" || got[1].Path != "/" {
		t.Errorf("expected csrftoken with default path, got %+v", got[1])
	}
	for _, c := range got {
		if c.Domain != "" {
			t.Errorf("expected host-only cookie, got domain %q", c.Domain)
		}
	}

	// Inputs are not mutated
	if cookies[2].Domain != "chat.example.com" {
		t.Error("selectCookies mutated its input")
	}
}

func TestSelectCookies_NoMatch(t *testing.T) {
	got := selectCookies([]*kooky.Cookie{kookyCookie("a", "b", "other.org", "/")}, "example.com")
	if len(got) != 0 {
		t.Errorf("expected no cookies, got %d", len(got))
	}
}

func TestExtractSessionCookies_EmptyHost(t *testing.T) {
	if _, err := ExtractSessionCookies(context.Background(), BrowserChrome, ""); err == nil {
		t.Error("expected error for empty host")
	}
}

func TestExtractSessionCookies_UnknownBrowser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := ExtractSessionCookies(ctx, "nonexistent", "127.0.0.1:8000"); err == nil {
		t.Error("expected error for unknown browser")
	}
}

func TestListAvailableBrowsers(t *testing.T) {
	// Result depends on the machine; only check it does not panic
	browsers := ListAvailableBrowsers(context.Background())
	t.Logf("Found %d browsers: %v", len(browsers), browsers)
}
