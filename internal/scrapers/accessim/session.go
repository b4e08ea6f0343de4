package accessim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/telemetry"

	"github.com/playwright-community/playwright-go"
)

const (
	report_session_init    = "session.initialize"
	report_session_close   = "session.close"
	report_session_console = "session.console"
	report_session_error   = "session.page-error"
)

var ErrNotInitialized = errors.New("browser session is not initialized")

type SessionOptions struct {
	// Install downloads the chromium build playwright expects before
	// launching.
	Install   bool
	UserAgent string
	Timeout   time.Duration
	SlowMo    time.Duration
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SlowMo <= 0 {
		o.SlowMo = DefaultDebugSlowMo
	}
	return o
}

// Session owns one browser, one context and the single page a batch drives.
type Session struct {
	opts  SessionOptions
	tel   telemetry.API
	creds Credentials

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func NewSession(opts SessionOptions, tel telemetry.API) *Session {
	assert.NotNil(tel)
	return &Session{
		opts: opts.withDefaults(),
		tel:  telemetry.NewScopedAPI("accessim", tel),
	}
}

func (s *Session) Initialize(ctx context.Context, debug bool) error {
	if s.page != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.opts.Install {
		err := playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  debug,
		})
		if err != nil {
			return fmt.Errorf("install chromium: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	s.pw = pw

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!debug),
		Args:     []string{"--no-sandbox", "--disable-setuid-sandbox"},
	}
	if debug {
		launch.SlowMo = millis(s.opts.SlowMo)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		s.tel.ReportBroken(report_session_init, err)
		return errors.Join(fmt.Errorf("launch chromium: %w", err), s.Close())
	}
	s.browser = browser

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(s.opts.UserAgent),
		Viewport: &playwright.Size{
			Width:  1366,
			Height: 768,
		},
		DeviceScaleFactor: playwright.Float(2),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		s.tel.ReportBroken(report_session_init, err)
		return errors.Join(fmt.Errorf("create browser context: %w", err), s.Close())
	}
	s.context = bctx

	page, err := bctx.NewPage()
	if err != nil {
		s.tel.ReportBroken(report_session_init, err)
		return errors.Join(fmt.Errorf("open page: %w", err), s.Close())
	}
	timeout := float64(s.opts.Timeout.Milliseconds())
	page.SetDefaultTimeout(timeout)
	page.SetDefaultNavigationTimeout(timeout)

	if debug {
		page.OnConsole(func(msg playwright.ConsoleMessage) {
			s.tel.ReportDebug(report_session_console, msg.Type(), msg.Text())
		})
		page.OnPageError(func(err error) {
			s.tel.ReportWarning(report_session_error, err)
		})
	}

	s.page = page
	s.tel.ReportDebug("browser session initialized", "debug", debug)
	return nil
}

func (s *Session) SetCredentials(creds Credentials) {
	s.creds = creds
}

func (s *Session) Credentials() Credentials {
	return s.creds
}

func (s *Session) Page() (Page, error) {
	if s.page == nil {
		return nil, ErrNotInitialized
	}
	return livePage{page: s.page, timeout: s.opts.Timeout}, nil
}

// Close tears down whatever was started, it is safe to call more than once
// and on a session that was never initialized.
func (s *Session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser context: %w", err))
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
		s.pw = nil
	}

	err := errors.Join(errs...)
	if err != nil {
		s.tel.ReportWarning(report_session_close, err)
	}
	return err
}
