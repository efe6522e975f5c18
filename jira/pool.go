package jira

import (
	"strings"
	"time"
)

// Pool hands out one client per Jira site and account so that projects
// sharing credentials reuse the same client.
type Pool struct {
	userAgent  string
	timeout    time.Duration
	httpClient httpDoer
	clients    map[string]*HTTPClient
}

type PoolConfig struct {
	UserAgent  string
	Timeout    time.Duration
	HTTPClient httpDoer
}

func NewPool(cfg PoolConfig) *Pool {
	return &Pool{
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		clients:    make(map[string]*HTTPClient),
	}
}

func (p *Pool) Client(domain, email, token string) (*HTTPClient, error) {
	key := strings.ToLower(strings.TrimSpace(domain)) + "\x00" + strings.TrimSpace(email) + "\x00" + strings.TrimSpace(token)
	if client, ok := p.clients[key]; ok {
		return client, nil
	}
	client, err := NewClient(ClientConfig{
		Domain:     domain,
		Email:      email,
		Token:      token,
		UserAgent:  p.userAgent,
		Timeout:    p.timeout,
		HTTPClient: p.httpClient,
	})
	if err != nil {
		return nil, err
	}
	p.clients[key] = client
	return client, nil
}
