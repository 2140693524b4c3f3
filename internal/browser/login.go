package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

var ErrLoginFailed = errors.New("login failed")

const (
	LoginPath        = "/login"
	usernameSelector = `input[name="input-username"]`
	passwordSelector = `input[name="input-password"]`
	submitSelector   = `button:has-text("SIGN IN"), input[type="submit"][value="SIGN IN"]`
)

var homeURL = regexp.MustCompile(`/home(?:[/?#].*)?$`)

type Credentials struct {
	Username string
	Password string
}

// LoginOptions controls the sign-in flow.
type LoginOptions struct {
	BaseURL string
	// Timeout bounds the wait for the post-login redirect to /home.
	Timeout time.Duration
	// Attempts is how often the login page load is tried before giving up.
	Attempts int
}

// Login signs the session in. Every failure wraps ErrLoginFailed; the crawl
// cannot proceed without an authenticated session.
func (s *Session) Login(ctx context.Context, creds Credentials, opts LoginOptions) error {
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("%w: missing credentials", ErrLoginFailed)
	}

	loginURL := strings.TrimRight(opts.BaseURL, "/") + LoginPath
	if err := s.navigateWithRetry(ctx, loginURL, opts.Attempts); err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if err := s.page.Locator(usernameSelector).Fill(creds.Username); err != nil {
		return fmt.Errorf("%w: failed to fill username: %w", ErrLoginFailed, err)
	}
	if err := s.page.Locator(passwordSelector).Fill(creds.Password); err != nil {
		return fmt.Errorf("%w: failed to fill password: %w", ErrLoginFailed, err)
	}
	if err := s.page.Locator(submitSelector).First().Click(); err != nil {
		return fmt.Errorf("%w: failed to submit: %w", ErrLoginFailed, err)
	}

	err := s.page.WaitForURL(homeURL, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(float64(opts.Timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: no redirect to home within %s: %w", ErrLoginFailed, opts.Timeout, err)
	}

	s.logger.Info("logged in", "user", creds.Username)
	return nil
}

// navigateWithRetry is used for session setup only; crawl pages are visited
// once.
func (s *Session) navigateWithRetry(ctx context.Context, url string, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			s.logger.Info("retrying navigation", "attempt", i+1, "url", url)
			if err := s.Settle(ctx, time.Duration(i)*time.Second); err != nil {
				return err
			}
		}

		err := s.Visit(ctx, url)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Error("navigation failed", "error", err, "attempt", i+1)
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
