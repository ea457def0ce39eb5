package document

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const origin = "https://duckduckgo.com"

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return doc
}

func hrefs(d *Document) []string {
	var out []string
	for _, a := range d.ElementsWithAttr("a", "href") {
		v, _ := a.Attr("href")
		out = append(out, v)
	}
	return out
}

func TestElementsWithAttr(t *testing.T) {
	t.Parallel()

	t.Run("returns matching elements in document order", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body>
			<a href="/first">1</a>
			<a name="anchor">no href</a>
			<div><a href="/second">2</a></div>
			<link href="/style.css">
		</body></html>`)

		got := hrefs(doc)
		if len(got) != 2 || got[0] != "/first" || got[1] != "/second" {
			t.Errorf("expected [/first /second], got %v", got)
		}
	})

	t.Run("tag and attribute names are case-insensitive", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<A HREF="/upper">x</A>`)
		elems := doc.ElementsWithAttr("A", "HREF")
		if len(elems) != 1 {
			t.Fatalf("expected 1 element, got %d", len(elems))
		}
		if elems[0].Tag() != "a" {
			t.Errorf("expected tag a, got %q", elems[0].Tag())
		}
	})

	t.Run("empty document has no matches", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, "")
		if n := len(doc.ElementsWithAttr("a", "href")); n != 0 {
			t.Errorf("expected no elements, got %d", n)
		}
	})
}

func TestElementAttr(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<a href="" class="result">x</a>`)
	elems := doc.ElementsWithAttr("a", "class")
	if len(elems) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elems))
	}
	a := elems[0]

	if v, ok := a.Attr("href"); !ok || v != "" {
		t.Errorf("expected present empty href, got %q, %v", v, ok)
	}
	if _, ok := a.Attr("title"); ok {
		t.Error("expected title to be absent")
	}

	a.SetAttr("title", "added")
	if v, ok := a.Attr("title"); !ok || v != "added" {
		t.Errorf("expected added title, got %q, %v", v, ok)
	}

	a.SetAttr("class", "changed")
	if v, _ := a.Attr("class"); v != "changed" {
		t.Errorf("expected class to be replaced, got %q", v)
	}
}

func TestRewriteRootRelativeLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "root-relative path", href: "/x/y", want: origin + "/x/y"},
		{name: "root with query", href: "/l/?uddg=https%3A%2F%2Fgo.dev", want: origin + "/l/?uddg=https%3A%2F%2Fgo.dev"},
		{name: "bare slash", href: "/", want: origin + "/"},
		{name: "protocol-relative", href: "//cdn.example/a", want: origin + "//cdn.example/a"},
		{name: "absolute https", href: "https://go.dev/", want: "https://go.dev/"},
		{name: "absolute http", href: "http://example.com", want: "http://example.com"},
		{name: "page-relative", href: "next.html", want: "next.html"},
		{name: "fragment", href: "#top", want: "#top"},
		{name: "empty", href: "", want: ""},
		{name: "javascript", href: "javascript:void(0)", want: "javascript:void(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := mustParse(t, `<a href="`+tt.href+`">link</a>`)
			RewriteRootRelativeLinks(doc, origin)

			got := hrefs(doc)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("expected %q, got %v", tt.want, got)
			}
		})
	}
}

func TestRewriteRootRelativeLinks_SkipsNonAnchors(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><head><link rel="stylesheet" href="/s.css"></head>
		<body><a>no href</a><img src="/i.png"><form action="/html/"></form>
		<a href="/keep">k</a></body></html>`)

	n := RewriteRootRelativeLinks(doc, origin)
	if n != 1 {
		t.Errorf("expected 1 rewrite, got %d", n)
	}

	out, err := doc.String()
	if err != nil {
		t.Fatal(err)
	}
	for _, unchanged := range []string{`href="/s.css"`, `src="/i.png"`, `action="/html/"`} {
		if !strings.Contains(out, unchanged) {
			t.Errorf("expected %s to be left alone in %s", unchanged, out)
		}
	}
	if !strings.Contains(out, `href="`+origin+`/keep"`) {
		t.Errorf("expected rewritten anchor in %s", out)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("fragment is wrapped into a full document", func(t *testing.T) {
		t.Parallel()

		out, err := mustParse(t, `<p>hi</p>`).String()
		if err != nil {
			t.Fatal(err)
		}
		if out != "<html><head></head><body><p>hi</p></body></html>" {
			t.Errorf("unexpected render: %q", out)
		}
	})

	t.Run("doctype and text are preserved", func(t *testing.T) {
		t.Parallel()

		in := `<!DOCTYPE html><html><head><title>q at DuckDuckGo</title></head><body><div class="result">Go &amp; Rust</div></body></html>`
		out, err := mustParse(t, in).String()
		if err != nil {
			t.Fatal(err)
		}
		if out != in {
			t.Errorf("expected round trip\n got: %s\nwant: %s", out, in)
		}
	})

	t.Run("malformed markup is repaired, not rejected", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<div><a href="/x">unclosed<div></span>`)
		if n := RewriteRootRelativeLinks(doc, origin); n != 1 {
			t.Errorf("expected 1 rewrite, got %d", n)
		}
	})

	t.Run("writer errors are returned", func(t *testing.T) {
		t.Parallel()

		err := mustParse(t, `<p>hi</p>`).Render(failingWriter{})
		if !errors.Is(err, errWrite) {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("render writes to any writer", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := mustParse(t, `<a href="/x">x</a>`).Render(&buf); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), `<a href="/x">x</a>`) {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

var errWrite = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }
