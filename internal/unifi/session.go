package unifi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/auto-dns/docker-unifi-sync/internal/config"
	"github.com/rs/zerolog"
)

// Session is an authenticated connection to one controller. It owns the
// cookie jar and the header set the chosen auth strategy produced, so it is
// built fresh per request cycle and never shared.
type Session struct {
	cfg     *config.UnifiConfig
	http    *http.Client
	headers http.Header
	logger  zerolog.Logger
}

func NewSession(cfg *config.UnifiConfig, logger zerolog.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifySSL},
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	return &Session{
		cfg: cfg,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
		},
		headers: headers,
		logger:  logger,
	}, nil
}

// strategy is one way of obtaining controller credentials. Strategies run in
// declaration order; a terminal strategy that succeeds ends negotiation, and
// a best-effort strategy may fail without failing the session.
type strategy struct {
	name       string
	applies    func() bool
	login      func(ctx context.Context) error
	terminal   bool
	bestEffort bool
}

func (s *Session) strategies() []strategy {
	return []strategy{
		{
			name:     "api-key",
			applies:  func() bool { return s.cfg.APIKey != "" },
			login:    s.loginAPIKey,
			terminal: true,
		},
		{
			name:    "credentials",
			applies: func() bool { return s.cfg.Username != "" },
			login:   s.loginCredentials,
		},
		{
			// Some controller builds gate the network application behind a
			// second login. Others reject the call outright, so a failure
			// here is swallowed and any real auth problem surfaces at the
			// next REST call instead.
			name:       "network-app",
			applies:    func() bool { return s.cfg.Username != "" },
			login:      s.loginNetworkApp,
			bestEffort: true,
		},
	}
}

// Authenticate negotiates controller access. Controller software has
// diverged across versions with incompatible auth flows; rather than detect
// the version, the session layers every applicable strategy and lets the
// downstream REST call be the real correctness check.
func (s *Session) Authenticate(ctx context.Context) error {
	for _, st := range s.strategies() {
		if !st.applies() {
			continue
		}
		if err := st.login(ctx); err != nil {
			if st.bestEffort {
				s.logger.Debug().Err(err).Str("strategy", st.name).Msg("Best-effort login failed")
				continue
			}
			return err
		}
		s.logger.Debug().Str("strategy", st.name).Msg("Auth strategy applied")
		if st.terminal {
			return nil
		}
	}
	return nil
}

func (s *Session) loginAPIKey(ctx context.Context) error {
	s.headers.Set("X-API-KEY", s.cfg.APIKey)
	return nil
}

func (s *Session) loginCredentials(ctx context.Context) error {
	body := map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	}
	resp, err := s.do(ctx, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return newRemoteTransportError("login", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return newRemoteStatusError("login", resp.StatusCode, string(text))
	}
	s.promoteCookies()
	return nil
}

// promoteCookies mirrors session cookies into the headers some controller
// builds insist on: the CSRF cookie into its header for writes, and the
// bearer-token cookie into an Authorization header with Origin/Referer set
// to the controller host (required by API layers behind SSO).
func (s *Session) promoteCookies() {
	base, err := url.Parse(s.cfg.Host)
	if err != nil {
		return
	}
	for _, cookie := range s.http.Jar.Cookies(base) {
		switch cookie.Name {
		case "csrf_token":
			s.headers.Set("X-Csrf-Token", cookie.Value)
		case "TOKEN":
			s.headers.Set("Authorization", "Bearer "+cookie.Value)
			s.headers.Set("Origin", s.cfg.Host)
			s.headers.Set("Referer", s.cfg.Host+"/")
		}
	}
}

func (s *Session) loginNetworkApp(ctx context.Context) error {
	body := map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	}
	resp, err := s.do(ctx, http.MethodPost, "/proxy/network/api/login", body)
	if err != nil {
		return newRemoteTransportError("network login", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return newRemoteStatusError("network login", resp.StatusCode, string(text))
	}
	return nil
}

// do issues one request against the controller with the session's headers
// and an optional JSON body.
func (s *Session) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.Host+path, body)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
	return s.http.Do(req)
}
