package transcript

import (
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// userAgents mirrors the original service's fixed rotation of realistic
// desktop User-Agent strings, used to reduce the odds of a single UA
// getting flagged.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// randUA is seeded once per process (not per-request) from the start
// time, so the User-Agent sequence differs from one run to the next.
var randUA = rand.New(rand.NewSource(time.Now().UnixNano()))

func pickUserAgent() string {
	return userAgents[randUA.Intn(len(userAgents))]
}

// newHTTPClient builds a client carrying the EU consent-wall bypass
// cookie the original service always attaches, optionally routed through
// a proxy URL.
func newHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
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

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

func withCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", pickUserAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
