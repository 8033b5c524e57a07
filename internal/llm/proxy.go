package llm

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// newProxyFunc resolves proxies from explicit settings, falling back to
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY when none are given. NO_PROXY is
// honoured in both cases.
func newProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" || httpsProxy != "" {
		cfg = &httpproxy.Config{
			HTTPProxy:  httpProxy,
			HTTPSProxy: httpsProxy,
			NoProxy:    noProxy,
		}
	} else if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxy := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// newHTTPClient builds the client shared by the HTTP-based providers
func newHTTPClient(config Config, defaultTimeout time.Duration) *http.Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = newProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
