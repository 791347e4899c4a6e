package mirror

import (
	"bytes"
	"iter"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks returns the values of href and src attributes found in body,
// in the order they first occur. Values are yielded unresolved, exactly as
// written in the markup after entity decoding. Repeated values are yielded once.
//
// The sequence is lazy and can be ranged over any number of times; each range
// tokenizes body again. Malformed markup never fails, it just yields fewer links.
// Contents of <script> and <style> are raw text to the tokenizer, so attribute
// lookalikes inside them are ignored.
func ExtractLinks(body []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		z := html.NewTokenizer(bytes.NewReader(body))
		seen := make(map[string]struct{})

		for {
			switch z.Next() {
			case html.ErrorToken:
				return
			case html.StartTagToken, html.SelfClosingTagToken:
				_, hasAttr := z.TagName()
				for hasAttr {
					var key, val []byte
					// The tokenizer lowercases attribute names.
					key, val, hasAttr = z.TagAttr()
					if !isLinkAttr(key) {
						continue
					}
					link := strings.TrimSpace(string(val))
					if link == "" {
						continue
					}
					if _, dup := seen[link]; dup {
						continue
					}
					seen[link] = struct{}{}
					if !yield(link) {
						return
					}
				}
			}
		}
	}
}

func isLinkAttr(key []byte) bool {
	return string(key) == "href" || string(key) == "src"
}
