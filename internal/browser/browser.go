// Package browser extracts chat server session cookies from local web browsers.
package browser

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// AllSupportedBrowsers returns the browsers in the order auto mode tries them
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserFirefox,
		BrowserEdge,
		BrowserChromium,
		BrowserOpera,
	}
}

func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult contains the result of cookie extraction
type ExtractResult struct {
	Cookies     []*http.Cookie
	BrowserName string
}

// ExtractSessionCookies reads the cookies a browser holds for host.
// host may carry a port, which is ignored.
func ExtractSessionCookies(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	host = hostname(host)
	if host == "" {
		return nil, fmt.Errorf("no host to extract cookies for")
	}

	if browser == BrowserAuto {
		var lastErr error
		for _, b := range AllSupportedBrowsers() {
			result, err := extractFromBrowser(ctx, b, host)
			if err == nil {
				return result, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		}
		return nil, fmt.Errorf("could not find cookies for %s in any browser: %w", host, lastErr)
	}
	return extractFromBrowser(ctx, browser, host)
}

// extractFromBrowser tries every profile of one browser until one holds
// cookies for host
func extractFromBrowser(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	var matching []kooky.CookieStore
	for _, store := range kooky.FindAllCookieStores(ctx) {
		if matchesBrowser(store.Browser(), browser) {
			matching = append(matching, store)
		} else {
			_ = store.Close()
		}
	}
	defer func() {
		for _, s := range matching {
			_ = s.Close()
		}
	}()

	if len(matching) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	for _, store := range matching {
		var found []*kooky.Cookie
		for cookie := range store.TraverseCookies(kooky.Valid, kooky.DomainContains(host)).OnlyCookies() {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			found = append(found, cookie)
		}

		if cookies := selectCookies(found, host); len(cookies) > 0 {
			name := store.Browser()
			if p := store.Profile(); p != "" {
				name = fmt.Sprintf("%s (profile: %s)", name, p)
			}
			return &ExtractResult{Cookies: cookies, BrowserName: name}, nil
		}
	}

	return nil, fmt.Errorf("no cookies for %s in %s. Please open the chat page in that browser first", host, browser)
}

// selectCookies keeps cookies whose domain covers host, one per name,
// preferring the most specific domain. The returned cookies are host-only.
func selectCookies(cookies []*kooky.Cookie, host string) []*http.Cookie {
	best := make(map[string]*kooky.Cookie)
	var order []string

	for _, c := range cookies {
		if c == nil || !domainMatches(c.Domain, host) {
			continue
		}
		prev, ok := best[c.Name]
		if !ok {
			order = append(order, c.Name)
		}
		if !ok || len(strings.TrimPrefix(c.Domain, ".")) > len(strings.TrimPrefix(prev.Domain, ".")) {
			best[c.Name] = c
		}
	}

	result := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		c := best[name].Cookie
		c.Domain = ""
		if c.Path == "" {
			c.Path = "/"
		}
		result = append(result, &c)
	}
	return result
}

// domainMatches follows cookie domain matching: the domain equals host or
// is a parent domain of it
func domainMatches(domain, host string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	host = strings.ToLower(host)
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func hostname(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.Trim(hostport, "[]")
}

// matchesBrowser checks if a browser name matches the target browser
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

// ListAvailableBrowsers returns the browsers that have cookie stores
func ListAvailableBrowsers(ctx context.Context) []string {
	var browsers []string
	seen := make(map[string]bool)
	for _, store := range kooky.FindAllCookieStores(ctx) {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		_ = store.Close()
	}
	return browsers
}
