package comment

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/youtube-transcript-mcp/internal/acquisition"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

var randUA = rand.New(rand.NewSource(time.Now().UnixNano()))

func newDownloaderHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(&url.URL{Scheme: "https", Host: "www.youtube.com"}, []*http.Cookie{
		{Name: "CONSENT", Value: "YES+cb", Domain: ".youtube.com", Path: "/"},
	})

	transport := &http.Transport{}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &http.Client{Timeout: timeout, Jar: jar, Transport: transport}, nil
}

func withScrapeHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[randUA.Intn(len(userAgents))])
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

func fetchWatchPage(ctx context.Context, client *http.Client, videoID string) ([]byte, error) {
	const name = "watch-page"
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, acquisition.Transient(name, "request build failed", err)
	}
	withScrapeHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, acquisition.Transient(name, "watch page request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, acquisition.Transient(name, "unexpected watch page status", nil)
	}
	return io.ReadAll(resp.Body)
}

func looksLikeBotChallenge(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "sign in to confirm you're not a bot") ||
		strings.Contains(lower, "unusual traffic")
}
