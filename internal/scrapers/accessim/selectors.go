package accessim

import (
	"time"

	"curriculum-scraper/internal/cooldown"
)

const (
	SelectorCooldown    = cooldown.SelectorCooldown
	SelectorHighlight   = cooldown.SelectorHighlight
	SelectorHeadings    = cooldown.SelectorHeadings
	SelectorMathProcess = `[data-mathjax-div="process"]`
	SelectorFigureImage = ".im-c-figure img"

	SelectorSignIn   = `#cooldown a:has-text("Sign in"), #cooldown button:has-text("Sign in")`
	SelectorEmail    = `input[type="email"]`
	SelectorPassword = `input[type="password"]`
	SelectorSubmit   = `button[type="submit"]`
)

// InterferingSelectors cover overlays that sit on top of the cool-down in
// screenshots (accessibility widgets, the sticky header, expand buttons).
var InterferingSelectors = []string{
	`[data-uw-rm-form]`,
	`.uwy`,
	`#uw-main`,
	`.userway_buttons_wrapper`,
	`.im-c-header`,
	`.im-c-sticky-bar`,
	`.im-c-expand-button`,
	`.im-c-card__expand`,
	`[class*="cookie-banner"]`,
}

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	DefaultTimeout        = 30 * time.Second
	DefaultSettleDelay    = 2 * time.Second
	DefaultDebugSlowMo    = 250 * time.Millisecond
	DefaultCapturePadding = 20
)
