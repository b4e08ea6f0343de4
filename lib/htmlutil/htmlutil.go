package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("curriculum.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters, trims the ends and collapses
// runs of whitespace into a single space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return s
}

// GetAttr returns the value of the attribute `key` on the node, the boolean
// is false if the attribute is not present.
func GetAttr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

type Image struct {
	Url string
	Alt string
}

// GetImages collects the images in `sel`, images without a src are skipped.
// The alt text falls back to `data-uw-rm-alt-original` which is where some
// accessibility overlays move the original alt text to.
func GetImages(ctx context.Context, sel *goquery.Selection) []Image {
	ctx, span := tracer.Start(ctx, "GetImages")
	defer span.End()

	images := []Image{}
	for _, n := range sel.Nodes {
		src, _ := GetAttr(n, "src")
		if src == "" {
			continue
		}

		// src is kept as written, a url that does not parse is only flagged
		_, err := url.Parse(src)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing image url")
		}

		alt, _ := GetAttr(n, "alt")
		if alt == "" {
			alt, _ = GetAttr(n, "data-uw-rm-alt-original")
		}
		alt = CleanText(alt)

		images = append(images, Image{
			Url: src,
			Alt: alt,
		})
		span.AddEvent("image", trace.WithAttributes(
			attribute.String("alt", alt),
			attribute.String("url", src),
		))
	}

	return images
}
