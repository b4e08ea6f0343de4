package accessim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type fakeAuthPage struct {
	visible   map[string]bool
	failClick map[string]error
	unlockErr error

	clicks []string
	fills  map[string]string
}

func newFakeAuthPage() *fakeAuthPage {
	return &fakeAuthPage{
		visible:   map[string]bool{},
		failClick: map[string]error{},
		fills:     map[string]string{},
	}
}

func (p *fakeAuthPage) WaitVisible(selector string, timeout time.Duration) (bool, error) {
	return p.visible[selector], nil
}

func (p *fakeAuthPage) Click(selector string) error {
	p.clicks = append(p.clicks, selector)
	return p.failClick[selector]
}

func (p *fakeAuthPage) Fill(selector, value string) error {
	p.fills[selector] = value
	return nil
}

func (p *fakeAuthPage) WaitUnlocked(timeout time.Duration) error {
	return p.unlockErr
}

// fakeElement is a static tree standing in for a live region.
type fakeElement struct {
	tag      string
	text     string
	children map[string][]*fakeElement
	siblings []*fakeElement
	shotErr  error
	shots    *int
}

func (e *fakeElement) Tag() (string, error) {
	return e.tag, nil
}

func (e *fakeElement) Text() (string, error) {
	return e.text, nil
}

func (e *fakeElement) Query(selector string) ([]Element, error) {
	var out []Element
	for _, c := range e.children[selector] {
		out = append(out, c)
	}
	return out, nil
}

func (e *fakeElement) FollowingSiblings() ([]Element, error) {
	var out []Element
	for _, s := range e.siblings {
		out = append(out, s)
	}
	return out, nil
}

func (e *fakeElement) Screenshot(padding int) ([]byte, error) {
	if e.shotErr != nil {
		return nil, e.shotErr
	}
	if e.shots != nil {
		*e.shots++
	}
	return []byte(fmt.Sprintf("%s:%d", e.tag, padding)), nil
}

type fakeCapturePage struct {
	region     *fakeElement
	overlayErr error
	removed    []string
}

func (p *fakeCapturePage) Region(selector string) (Element, error) {
	if p.region == nil {
		return nil, nil
	}
	return p.region, nil
}

func (p *fakeCapturePage) RemoveOverlays(selectors []string) (int, error) {
	p.removed = append(p.removed, selectors...)
	return len(selectors), p.overlayErr
}

func (p *fakeCapturePage) FullScreenshot() ([]byte, error) {
	return []byte("full page"), nil
}

type memorySink struct {
	stored  map[string][]byte
	failFor map[string]bool
}

func newMemorySink() *memorySink {
	return &memorySink{stored: map[string][]byte{}, failFor: map[string]bool{}}
}

func (s *memorySink) Store(ctx context.Context, contents []byte, name string) (string, error) {
	for prefix := range s.failFor {
		if strings.HasPrefix(name, prefix) {
			return "", errors.New("disk full")
		}
	}
	s.stored[name] = contents
	return name, nil
}
