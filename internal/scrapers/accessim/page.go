package accessim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Element is a live region of the rendered page.
type Element interface {
	Tag() (string, error)
	Text() (string, error)
	// Query returns the descendants matching selector in document order.
	Query(selector string) ([]Element, error)
	FollowingSiblings() ([]Element, error)
	// Screenshot captures the element with `padding` pixels of white space
	// around it, the element's style is restored afterwards.
	Screenshot(padding int) ([]byte, error)
}

// AuthPage is what the per-page authenticator needs from a page.
type AuthPage interface {
	// WaitVisible reports false (without an error) when nothing matching
	// selector became visible within timeout.
	WaitVisible(selector string, timeout time.Duration) (bool, error)
	Click(selector string) error
	Fill(selector, value string) error
	// WaitUnlocked waits until the cool-down no longer asks to sign in.
	WaitUnlocked(timeout time.Duration) error
}

// CapturePage is what the screenshot capturer needs from a page.
type CapturePage interface {
	// Region returns the first element matching selector, nil when there
	// is none.
	Region(selector string) (Element, error)
	RemoveOverlays(selectors []string) (int, error)
	FullScreenshot() ([]byte, error)
}

// Page is the single browser tab a batch drives.
type Page interface {
	AuthPage
	CapturePage
	Navigate(ctx context.Context, url string) error
	// Settle waits for late rendering (math typesetting, lazy images).
	Settle(ctx context.Context, delay time.Duration) error
	Content() (string, error)
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

type livePage struct {
	page    playwright.Page
	timeout time.Duration
}

func (p livePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   millis(p.timeout),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p livePage) Settle(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p livePage) Content() (string, error) {
	return p.page.Content()
}

func (p livePage) WaitVisible(selector string, timeout time.Duration) (bool, error) {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p livePage) Click(selector string) error {
	return p.page.Locator(selector).First().Click()
}

func (p livePage) Fill(selector, value string) error {
	return p.page.Locator(selector).First().Fill(value)
}

const unlockedScript = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) return false;
	return !/sign in to (access|view)/i.test(el.innerText || "");
}`

func (p livePage) WaitUnlocked(timeout time.Duration) error {
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}
	_, err = p.page.WaitForFunction(unlockedScript, SelectorCooldown, playwright.PageWaitForFunctionOptions{
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("wait for unlocked content: %w", err)
	}
	return nil
}

func (p livePage) Region(selector string) (Element, error) {
	loc := p.page.Locator(selector).First()
	count, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return liveElement{loc: loc}, nil
}

const removeOverlaysScript = `(selectors) => {
	let removed = 0;
	for (const selector of selectors) {
		document.querySelectorAll(selector).forEach((el) => {
			el.remove();
			removed++;
		});
	}
	return removed;
}`

func (p livePage) RemoveOverlays(selectors []string) (int, error) {
	result, err := p.page.Evaluate(removeOverlaysScript, selectors)
	if err != nil {
		return 0, err
	}
	switch n := result.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, nil
	}
}

func (p livePage) FullScreenshot() ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

type liveElement struct {
	loc playwright.Locator
}

func (e liveElement) Tag() (string, error) {
	result, err := e.loc.Evaluate("(el) => el.tagName.toLowerCase()", nil)
	if err != nil {
		return "", err
	}
	tag, _ := result.(string)
	return tag, nil
}

func (e liveElement) Text() (string, error) {
	return e.loc.TextContent()
}

func wrapAll(locs []playwright.Locator) []Element {
	out := make([]Element, len(locs))
	for i, l := range locs {
		out[i] = liveElement{loc: l}
	}
	return out
}

func (e liveElement) Query(selector string) ([]Element, error) {
	locs, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	return wrapAll(locs), nil
}

func (e liveElement) FollowingSiblings() ([]Element, error) {
	locs, err := e.loc.Locator("xpath=following-sibling::*").All()
	if err != nil {
		return nil, err
	}
	return wrapAll(locs), nil
}

const padScript = `(el, padding) => {
	el.dataset.cooldownPrevStyle = el.getAttribute("style") || "";
	el.style.padding = padding + "px";
	el.style.backgroundColor = "white";
}`

const restoreScript = `(el) => {
	const prev = el.dataset.cooldownPrevStyle;
	if (prev) {
		el.setAttribute("style", prev);
	} else {
		el.removeAttribute("style");
	}
	delete el.dataset.cooldownPrevStyle;
}`

func (e liveElement) Screenshot(padding int) ([]byte, error) {
	if padding > 0 {
		_, err := e.loc.Evaluate(padScript, padding)
		if err != nil {
			return nil, fmt.Errorf("pad element: %w", err)
		}
		defer e.loc.Evaluate(restoreScript, nil)
	}
	return e.loc.Screenshot()
}
