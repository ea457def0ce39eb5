package document

import "strings"

// RewriteRootRelativeLinks prefixes origin to the href of every anchor
// whose href starts with "/". Absolute, relative-to-page, fragment and
// empty hrefs are left alone, as are anchors without an href. It returns
// the number of anchors changed.
//
// A protocol-relative href such as "//cdn.example" also starts with "/"
// and is rewritten to origin + "//cdn.example".
func RewriteRootRelativeLinks(d *Document, origin string) int {
	rewritten := 0
	for _, a := range d.ElementsWithAttr("a", "href") {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, "/") {
			continue
		}
		a.SetAttr("href", origin+href)
		rewritten++
	}
	return rewritten
}
