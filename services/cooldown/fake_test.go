package cooldown

import (
	"context"
	"errors"
	"time"

	"curriculum-scraper/internal/scrapers/accessim"
)

const lessonPage = `<html><body>
<div id="cooldown" class="im-c-card">
	<h2 class="im-c-card-heading__title">Cool-down: Unit Rates</h2>
	<div class="im-c-highlight">
		<p>Find <span class="math">3/4</span> of 12.</p>
	</div>
	<h3>Student Response</h3>
	<p>9</p>
</div>
</body></html>`

const emptyPage = `<html><body><p>No cool-down here.</p></body></html>`

// fakePage serves canned content per url and asks to sign in on the urls
// listed in signIn.
type fakePage struct {
	current     string
	content     map[string]string
	navigateErr map[string]error
	signIn      map[string]bool
	unlockErr   map[string]error
	panicOn     map[string]bool

	visits []string
}

func newFakePage() *fakePage {
	return &fakePage{
		content:     map[string]string{},
		navigateErr: map[string]error{},
		signIn:      map[string]bool{},
		unlockErr:   map[string]error{},
		panicOn:     map[string]bool{},
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.visits = append(p.visits, url)
	p.current = url
	return p.navigateErr[url]
}

func (p *fakePage) Settle(ctx context.Context, delay time.Duration) error {
	return nil
}

func (p *fakePage) Content() (string, error) {
	if p.panicOn[p.current] {
		panic("renderer crashed")
	}
	content, ok := p.content[p.current]
	if !ok {
		return emptyPage, nil
	}
	return content, nil
}

func (p *fakePage) WaitVisible(selector string, timeout time.Duration) (bool, error) {
	if selector == accessim.SelectorSignIn {
		return p.signIn[p.current], nil
	}
	return true, nil
}

func (p *fakePage) Click(selector string) error {
	return nil
}

func (p *fakePage) Fill(selector, value string) error {
	return nil
}

func (p *fakePage) WaitUnlocked(timeout time.Duration) error {
	return p.unlockErr[p.current]
}

func (p *fakePage) Region(selector string) (accessim.Element, error) {
	return nil, nil
}

func (p *fakePage) RemoveOverlays(selectors []string) (int, error) {
	return 0, nil
}

func (p *fakePage) FullScreenshot() ([]byte, error) {
	return []byte("full page"), nil
}

type fakeBrowser struct {
	page    *fakePage
	initErr error
	creds   accessim.Credentials

	initialized bool
	closed      int
}

func (b *fakeBrowser) Initialize(ctx context.Context, debug bool) error {
	if b.initErr != nil {
		return b.initErr
	}
	b.initialized = true
	return nil
}

func (b *fakeBrowser) SetCredentials(creds accessim.Credentials) {
	b.creds = creds
}

func (b *fakeBrowser) Credentials() accessim.Credentials {
	return b.creds
}

func (b *fakeBrowser) Page() (accessim.Page, error) {
	if !b.initialized {
		return nil, accessim.ErrNotInitialized
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closed++
	return nil
}

type memorySink struct {
	stored map[string][]byte
}

func (s *memorySink) Store(ctx context.Context, contents []byte, name string) (string, error) {
	if s.stored == nil {
		s.stored = map[string][]byte{}
	}
	s.stored[name] = contents
	return name, nil
}

var errNavigation = errors.New("net::ERR_NAME_NOT_RESOLVED")
