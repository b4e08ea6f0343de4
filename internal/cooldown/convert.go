package cooldown

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Converter turns zone markup into markdown. Placeholder spans are written
// out verbatim so the "[Math Expression n]" text is never escaped.
type Converter struct {
	md *md.Converter
}

func NewConverter() Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})
	conv.AddRules(md.Rule{
		Filter: []string{"span"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if !selec.HasClass(PlaceholderClass) {
				return &content
			}
			return md.String(selec.Text())
		},
	})
	return Converter{md: conv}
}

func (c Converter) Convert(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	out, err := c.md.ConvertString(fragment)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
