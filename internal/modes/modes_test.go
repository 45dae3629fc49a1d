package modes_test

import (
	"strings"
	"testing"

	"github.com/eburon/artifact-web-ui/internal/modes"
)

func TestCatalog(t *testing.T) {
	all := modes.All()
	if len(all) == 0 {
		t.Fatal("All() returned no modes")
	}

	seen := make(map[string]bool)
	for _, m := range all {
		if seen[m.Key] {
			t.Errorf("duplicate mode key %q", m.Key)
		}
		seen[m.Key] = true

		if m.Name == "" || m.SystemInstruction == "" {
			t.Errorf("mode %q is missing a name or a system instruction", m.Key)
		}
	}
	if !seen[modes.DefaultKey] {
		t.Errorf("default mode %q is not in the catalog", modes.DefaultKey)
	}

	// All hands out a copy.
	all[0].Name = "changed"
	if modes.All()[0].Name == "changed" {
		t.Error("All() should return a copy of the catalog")
	}
}

func TestGet(t *testing.T) {
	if got := modes.Get("svg").Key; got != "svg" {
		t.Errorf("Get(svg).Key = %q, want svg", got)
	}
	if got := modes.Get("unknown").Key; got != modes.DefaultKey {
		t.Errorf("Get(unknown).Key = %q, want %q", got, modes.DefaultKey)
	}
	if _, ok := modes.Lookup("unknown"); ok {
		t.Error("Lookup(unknown) ok = true, want false")
	}
}

func TestSystemInstructionsUseCanvasSize(t *testing.T) {
	for _, key := range []string{"p5", "svg"} {
		m, ok := modes.Lookup(key)
		if !ok {
			t.Fatalf("Lookup(%s) failed", key)
		}
		if !strings.Contains(m.SystemInstruction, "800") || !strings.Contains(m.SystemInstruction, "600") {
			t.Errorf("%s instruction does not mention the 800x600 canvas", key)
		}
	}
}

func TestTitle(t *testing.T) {
	ui := modes.Get("ui")
	svg := modes.Get("svg")

	tests := []struct {
		name   string
		mode   modes.Mode
		prompt string
		want   string
	}{
		{name: "Prefixed", mode: ui, prompt: " a login form ", want: "Build a login form"},
		{name: "Draw", mode: svg, prompt: "a crab", want: "Draw a crab"},
		{name: "Empty prompt", mode: ui, want: "Build tailwind ui"},
		{name: "No prefix", mode: modes.Mode{Name: "Images"}, prompt: "a cat", want: "a cat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.Title(tt.prompt); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"ui":    "html",
		"p5":    "js",
		"svg":   "svg",
		"html":  "html",
		"image": "png",
	}
	for key, want := range tests {
		if got := modes.Get(key).Extension(); got != want {
			t.Errorf("Get(%s).Extension() = %q, want %q", key, got, want)
		}
	}
}

func TestPresets(t *testing.T) {
	want := map[string]int{
		"p5":    14,
		"svg":   13,
		"html":  11,
		"three": 9,
		"image": 0,
	}
	for key, n := range want {
		if got := len(modes.Get(key).Presets); got != n {
			t.Errorf("Get(%s) has %d presets, want %d", key, got, n)
		}
	}
}

func TestImageFallbackInstructions(t *testing.T) {
	for _, key := range []string{"html", "three"} {
		m := modes.Get(key)
		for _, s := range []string{"window.__imgOk", "picsum.photos", `id="heroLink"`} {
			if !strings.Contains(m.SystemInstruction, s) {
				t.Errorf("%s instruction does not contain %q", key, s)
			}
		}
		if strings.Contains(m.SystemInstruction, "%!") {
			t.Errorf("%s instruction has a formatting error", key)
		}
	}
}
