package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsGate answers robots.txt questions, caching one group per host.
type RobotsGate struct {
	client    *http.Client
	userAgent string

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

// NewRobotsGate builds a gate that identifies itself with userAgent.
func NewRobotsGate(client *http.Client, userAgent string) *RobotsGate {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
		groups:    map[string]*robotstxt.Group{},
	}
}

// Allowed reports whether pageURL may be fetched. Unreachable robots files allow everything.
func (g *RobotsGate) Allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}

	group, err := g.group(ctx, u)
	if err != nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path), nil
}

func (g *RobotsGate) group(ctx context.Context, u *url.URL) (*robotstxt.Group, error) {
	host := u.Scheme + "://" + u.Host

	g.mu.Lock()
	cached, ok := g.groups[host]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request robots: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	group := data.FindGroup(g.userAgent)

	g.mu.Lock()
	g.groups[host] = group
	g.mu.Unlock()
	return group, nil
}
