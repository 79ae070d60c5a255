package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCatalogCounts(t *testing.T) {
	out, err := execute(t, "catalog", "--spells", "testdata/spells.yaml")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, want := range []string{"spells:      3", "beneficial:  3", "bard songs:  1", "song window: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			"first empty base slot",
			[]string{"--spell", "278", "--caster-id", "77"},
			"spell 278 (Spirit of Wolf): slot 1 (empty)",
		},
		{
			"song window",
			[]string{"--spell", "717", "--caster-id", "5", "--caster-class", "8"},
			"spell 717 (Selo's Accelerando): slot 15 (empty)",
		},
		{
			"no song window negotiated",
			[]string{"--spell", "717", "--caster-id", "5", "--caster-class", "8", "--songs", "0"},
			"spell 717 (Selo's Accelerando): slot 1 (empty)",
		},
		{
			"refresh in place",
			[]string{"--spell", "219", "--caster-id", "77"},
			"spell 219 (Center): slot 0 (replaces spell 219)",
		},
		{
			"unknown spell",
			[]string{"--spell", "4000"},
			"spell 4000 (?): blocked",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"resolve", "--spells", "testdata/spells.yaml", "--fixture", "testdata/ranger.yaml"}, tt.args...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("got %q, want %q", strings.TrimSpace(out), tt.want)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("name: X\nbuffs:\n  - {slot: 2, spell: 999}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		args []string
	}{
		{"missing fixture flag", []string{"resolve", "--spell", "278"}},
		{"missing fixture file", []string{"resolve", "--spells", "testdata/spells.yaml", "--fixture", "nope.yaml", "--spell", "278"}},
		{"unknown fixture spell", []string{"resolve", "--spells", "testdata/spells.yaml", "--fixture", bad, "--spell", "278"}},
		{"bad caster kind", []string{"resolve", "--spells", "testdata/spells.yaml", "--fixture", "testdata/ranger.yaml", "--spell", "278", "--caster-kind", "pet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
