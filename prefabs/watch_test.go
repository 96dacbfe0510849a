package prefabs

import "testing"

func TestClassifyReload(t *testing.T) {
	cases := []struct {
		path string
		kind ReloadKind
		ok   bool
	}{
		{"prefabs/planet.yaml", ReloadSpec, true},
		{"prefabs/PLANET.YML", ReloadSpec, true},
		{"prefabs/scripts/inverse_square.tengo", ReloadScript, true},
		{"prefabs/notes.txt", 0, false},
		{"prefabs/planet.yaml.swp", 0, false},
	}
	for _, c := range cases {
		kind, ok := classifyReload(c.path)
		if ok != c.ok {
			t.Fatalf("classifyReload(%q): expected ok=%v, got %v", c.path, c.ok, ok)
		}
		if ok && kind != c.kind {
			t.Fatalf("classifyReload(%q): expected kind %v, got %v", c.path, c.kind, kind)
		}
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(".")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatal("expected events channel closed")
	}
}
