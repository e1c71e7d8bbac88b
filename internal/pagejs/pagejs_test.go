package pagejs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/reconcile"
)

func TestOverlay_Embedded(t *testing.T) {
	for _, want := range []string{"window.__kai", "window." + Binding, "NS + 'root'", "NS + 'fab'"} {
		if !strings.Contains(Overlay, want) {
			t.Errorf("overlay script lacks %q", want)
		}
	}
	ns := strings.TrimSuffix(strings.TrimPrefix(OwnRoot, "#"), "root")
	if !strings.Contains(Overlay, "const NS = '"+ns+"'") {
		t.Errorf("OwnRoot %q does not match the script's namespace", OwnRoot)
	}
}

func TestAsThis(t *testing.T) {
	got := AsThis(TagName)
	if !strings.HasPrefix(got, "function(...args)") || !strings.Contains(got, "(this, ...args)") {
		t.Fatalf("AsThis = %q", got)
	}
	if !strings.Contains(got, TagName) {
		t.Error("expression not embedded")
	}
}

func TestOverlay_ReadsStackFields(t *testing.T) {
	raw, err := json.Marshal(reconcile.Stack{
		Key: "a,b", Expanded: true, ExpandRight: true,
		Members: []reconcile.Marker{{Index: 1}, {Index: 2}},
		Slots:   []dom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"key", "members", "expanded", "slots", "left", "top"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("stack JSON has no %q", f)
		}
		if !strings.Contains(Overlay, "s."+f) {
			t.Errorf("overlay script never reads s.%s", f)
		}
	}
	// Stack nodes are reused across frames, not rebuilt.
	for _, want := range []string{"stacks.get(s.key)", "dataset.stack", "p.x, p.y"} {
		if !strings.Contains(Overlay, want) {
			t.Errorf("overlay script lacks %q", want)
		}
	}
}
