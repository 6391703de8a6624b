// Package portal implements supplier portal sessions over HTTP.
package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	domainErrors "github.com/wekeepgrowing/billsync/internal/domain/errors"
	"github.com/wekeepgrowing/billsync/internal/domain/portal"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"go.uber.org/zap"
)

const (
	maxRedirects = 10
	maxBodyBytes = 32 << 20
)

// HTTPSession is a cookie-based portal session. It is used by a single
// supplier task; tenant switches are serialized.
type HTTPSession struct {
	cfg       *supplier.Config
	base      *url.URL
	client    *http.Client
	jar       http.CookieJar
	userAgent string
	logger    *zap.Logger

	tenantMu sync.Mutex

	mu        sync.Mutex
	redirects []string
	username  string
	password  string
}

var _ portal.Session = (*HTTPSession)(nil)

func newHTTPSession(cfg *supplier.Config, timeouts Timeouts, userAgent string, logger *zap.Logger) (*HTTPSession, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url for %s: %w", cfg.ID, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &HTTPSession{
		cfg:       cfg,
		base:      base,
		jar:       jar,
		userAgent: userAgent,
		logger:    logger.With(zap.String("supplier", cfg.ID)),
	}
	s.client = &http.Client{
		Transport:     newTransport(timeouts),
		Jar:           jar,
		CheckRedirect: s.checkRedirect,
	}
	return s, nil
}

func (s *HTTPSession) BaseURL() string {
	return s.base.String()
}

func (s *HTTPSession) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	s.mu.Lock()
	s.redirects = append(s.redirects, req.URL.String())
	s.mu.Unlock()
	return nil
}

func (s *HTTPSession) takeRedirects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.redirects
	s.redirects = nil
	return chain
}

func (s *HTTPSession) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return s.base.ResolveReference(u).String()
}

// Login submits the portal login form, keeping every pre-filled field.
func (s *HTTPSession) Login(ctx context.Context, username, password string) error {
	login := &s.cfg.Login
	loginURL := s.resolve(login.URL)

	page, err := s.do(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return domainErrors.NewNetworkError(s.cfg.ID, 0, fmt.Errorf("failed to parse login page: %w", err))
	}

	form := findLoginForm(doc, login.FormSelector)
	values := formValues(form)
	values.Set(login.UsernameField(), username)
	values.Set(login.PasswordField(), password)
	for name, value := range login.ExtraFields {
		values.Set(name, value)
	}

	action := page.URL
	if form.Length() > 0 {
		if a := strings.TrimSpace(form.AttrOr("action", "")); a != "" {
			action = resolveAgainst(page.URL, a)
		}
	}

	s.takeRedirects()
	result, err := s.do(ctx, http.MethodPost, action, values)
	if err != nil {
		return err
	}
	chain := s.takeRedirects()

	if !s.loginSucceeded(result, chain) {
		s.logger.Warn("Portal login rejected",
			zap.Int("status", result.StatusCode),
			zap.String("final_url", result.URL),
		)
		return domainErrors.NewAuthError(s.cfg.ID, "portal rejected the credentials")
	}

	s.mu.Lock()
	s.username, s.password = username, password
	s.mu.Unlock()

	s.logger.Debug("Portal login succeeded", zap.String("final_url", result.URL))
	return nil
}

func findLoginForm(doc *goquery.Document, selector string) *goquery.Selection {
	if selector != "" {
		return doc.Find(selector).First()
	}
	return doc.Find("form").FilterFunction(func(_ int, f *goquery.Selection) bool {
		return f.Find(`input[type="password"]`).Length() > 0
	}).First()
}

// formValues collects what a browser would submit for the form.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
		name, ok := field.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(field) {
		case "select":
			option := field.Find("option[selected]").First()
			if option.Length() == 0 {
				option = field.Find("option").First()
			}
			values.Add(name, option.AttrOr("value", strings.TrimSpace(option.Text())))
		case "textarea":
			values.Add(name, field.Text())
		default:
			switch strings.ToLower(field.AttrOr("type", "text")) {
			case "submit", "button", "image", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := field.Attr("checked"); !checked {
					return
				}
				values.Add(name, field.AttrOr("value", "on"))
			default:
				values.Add(name, field.AttrOr("value", ""))
			}
		}
	})
	return values
}

// loginSucceeded accepts any of: a redirect matching the configured
// pattern, the configured success indicator, or a logout affordance on a
// page without login fields.
func (s *HTTPSession) loginSucceeded(result *portal.Document, chain []string) bool {
	login := &s.cfg.Login

	if login.SuccessRedirectPattern != "" {
		if re, err := regexp.Compile(login.SuccessRedirectPattern); err == nil {
			for _, u := range append(chain, result.URL) {
				if re.MatchString(u) {
					return true
				}
			}
		}
	}

	if result.StatusCode >= http.StatusBadRequest {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return false
	}

	if ind := login.SuccessIndicator; ind != nil && ind.Value != "" {
		switch ind.Kind {
		case supplier.IndicatorURL:
			if strings.Contains(result.URL, ind.Value) {
				return true
			}
		case supplier.IndicatorText:
			if strings.Contains(doc.Text(), ind.Value) {
				return true
			}
		default:
			if doc.Find(ind.Value).Length() > 0 {
				return true
			}
		}
	}

	loginFields := fmt.Sprintf(`input[name=%q], input[name=%q]`, login.UsernameField(), login.PasswordField())
	return doc.Find(login.LogoutSelector()).Length() > 0 && doc.Find(loginFields).Length() == 0
}

// Fetch loads a page. A 401 triggers one re-login and one retry.
func (s *HTTPSession) Fetch(ctx context.Context, ref string) (*portal.Document, error) {
	target := s.resolve(ref)

	doc, err := s.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	if doc.StatusCode == http.StatusUnauthorized {
		if err := s.relogin(ctx); err != nil {
			return nil, err
		}
		doc, err = s.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
	}

	if doc.StatusCode >= http.StatusBadRequest {
		return nil, domainErrors.NewNetworkError(s.cfg.ID, doc.StatusCode, nil)
	}
	return doc, nil
}

func (s *HTTPSession) FetchBinary(ctx context.Context, ref string) ([]byte, error) {
	doc, err := s.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

func (s *HTTPSession) relogin(ctx context.Context) error {
	s.mu.Lock()
	username, password := s.username, s.password
	s.mu.Unlock()

	if username == "" {
		return domainErrors.NewNetworkError(s.cfg.ID, http.StatusUnauthorized, nil)
	}

	s.logger.Info("Portal session expired, logging in again")
	return s.Login(ctx, username, password)
}

// SelectTenant writes the tenant cookies for associationID and, when given,
// apartmentID. Templates needing an apartment are skipped without one.
func (s *HTTPSession) SelectTenant(associationID, apartmentID string) bool {
	if associationID == "" || s.cfg.Tenant == nil {
		return false
	}

	s.tenantMu.Lock()
	defer s.tenantMu.Unlock()

	var cookies []*http.Cookie
	for _, tpl := range s.cfg.Tenant.CookieTemplates {
		if strings.Contains(tpl.Value, supplier.PlaceholderApartmentID) && apartmentID == "" {
			continue
		}
		value := strings.ReplaceAll(tpl.Value, supplier.PlaceholderAssociationID, associationID)
		value = strings.ReplaceAll(value, supplier.PlaceholderApartmentID, apartmentID)

		path := tpl.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{
			Name:   tpl.Name,
			Value:  value,
			Path:   path,
			Domain: tpl.Domain,
		})
	}
	if len(cookies) == 0 {
		return false
	}

	s.jar.SetCookies(s.base, cookies)
	s.logger.Debug("Tenant selected",
		zap.String("association_id", associationID),
		zap.String("apartment_id", apartmentID),
	)
	return true
}

func (s *HTTPSession) do(ctx context.Context, method, target string, form url.Values) (*portal.Document, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, domainErrors.NewNetworkError(s.cfg.ID, 0, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	return &portal.Document{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func (s *HTTPSession) classify(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domainErrors.NewTimeoutError(s.cfg.ID, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return domainErrors.NewTimeoutError(s.cfg.ID, err)
	default:
		return domainErrors.NewNetworkError(s.cfg.ID, 0, err)
	}
}

func resolveAgainst(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
