package locator

import (
	"strings"
	"testing"

	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/memdom"
)

const fixture = `<html><body>
<div id="app">
  <section class="cards grid wide">
    <div class="card kai-hover">A</div>
    <div class="card">B</div>
  </section>
  <span>solo</span>
</div>
<div><span>other</span></div>
<main>
  <p>x</p>
  <p class="lead">y</p>
</main>
<div id="1st item"><em>escaped</em></div>
</body></html>`

func setup(t *testing.T, src string) (*memdom.Document, *Resolver) {
	t.Helper()
	d, err := memdom.ParseString(src, dom.Size{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d, New(d, Config{})
}

func TestLocator_IDShortCircuit(t *testing.T) {
	d, r := setup(t, fixture)
	app := d.QueryFirst("div")
	if got := r.Locator(app); got != "#app" {
		t.Fatalf("Locator = %q, want #app", got)
	}
}

func TestLocator_Cases(t *testing.T) {
	d, r := setup(t, fixture)

	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"nth-of-type then parent", "section > div:nth-of-type(2)", "section.cards.grid > div.card:nth-of-type(2)"},
		{"internal class skipped", "section > div:nth-of-type(1)", "section.cards.grid > div.card:nth-of-type(1)"},
		{"unique class", "p.lead", "p.lead"},
		{"tag disambiguated", "main > p:nth-of-type(1)", "main > p:nth-of-type(1)"},
		{"ancestor id terminates", "#app > span", "#app > span"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			el := d.QueryFirst(tc.query)
			if el == nil {
				t.Fatalf("fixture query %q matched nothing", tc.query)
			}
			got := r.Locator(el)
			if got != tc.want {
				t.Fatalf("Locator = %q, want %q", got, tc.want)
			}
			if !d.Same(r.Resolve(got), el) {
				t.Fatalf("Resolve(%q) did not round-trip", got)
			}
		})
	}
}

func TestLocator_EscapedID(t *testing.T) {
	d, r := setup(t, fixture)
	em := d.QueryFirst("em")
	host := d.Parent(em)

	loc := r.Locator(host)
	if loc != `#\31 st\ item` {
		t.Fatalf("Locator = %q", loc)
	}
	if !d.Same(r.Resolve(loc), host) {
		t.Fatal("escaped id did not resolve")
	}
	if !d.Same(r.Resolve(r.Locator(em)), em) {
		t.Fatalf("child of escaped id did not round-trip: %q", r.Locator(em))
	}
}

// Every element whose locator is unique must resolve back to itself.
func TestLocator_RoundTrip(t *testing.T) {
	d, r := setup(t, fixture)

	var walk func(el dom.Element)
	checked := 0
	walk = func(el dom.Element) {
		loc := r.Locator(el)
		if d.CountMatches(loc) == 1 {
			checked++
			if !d.Same(r.Resolve(loc), el) {
				t.Errorf("Resolve(Locator(%s)) = other element (locator %q)", d.TagName(el), loc)
			}
		}
		for _, c := range d.Children(el) {
			walk(c)
		}
	}
	walk(d.Body())
	if checked < 10 {
		t.Fatalf("only %d elements had unique locators", checked)
	}
}

func TestLocator_DepthCap(t *testing.T) {
	deep := `<html><body>` +
		strings.Repeat(`<div>`, 6) + `<i>a</i>` + strings.Repeat(`</div>`, 6) +
		strings.Repeat(`<div>`, 6) + `<i>b</i>` + strings.Repeat(`</div>`, 6) +
		`</body></html>`
	d, r := setup(t, deep)
	el := d.QueryFirst("i")

	loc := r.Locator(el)
	if n := len(strings.Split(loc, " > ")); n > DefaultMaxDepth {
		t.Fatalf("locator %q has %d levels, cap is %d", loc, n, DefaultMaxDepth)
	}
	if d.CountMatches(loc) < 2 {
		t.Fatalf("expected a best-effort ambiguous locator, got %q", loc)
	}
	// Ambiguous locators resolve to the first match in document order.
	if !d.Same(r.Resolve(loc), el) {
		t.Fatal("ambiguous locator should resolve to the first match")
	}
}

func TestLocator_BodyAndMissing(t *testing.T) {
	d, r := setup(t, fixture)
	if got := r.Locator(d.Body()); got != "body" {
		t.Errorf("Locator(body) = %q", got)
	}
	if r.Resolve("") != nil || r.Resolve("div.nope") != nil || r.Resolve("::bogus((") != nil {
		t.Error("unresolvable locators must return nil")
	}
}

func TestDisplayPath(t *testing.T) {
	d, r := setup(t, fixture)
	el := d.QueryFirst("section > div:nth-of-type(1)")
	want := "body › div › section.cards.grid › div.card"
	if got := r.DisplayPath(el); got != want {
		t.Fatalf("DisplayPath = %q, want %q", got, want)
	}
}

func TestEscapeIdent(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"a.b":     `a\.b`,
		"9lives":  `\39 lives`,
		"-":       `\-`,
		"-1x":     `-\31 x`,
		"sm:flex": `sm\:flex`,
		"héllo":   "héllo",
	}
	for in, want := range cases {
		if got := EscapeIdent(in); got != want {
			t.Errorf("EscapeIdent(%q) = %q, want %q", in, got, want)
		}
	}
}
