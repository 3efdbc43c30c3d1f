package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/catht823/journal-club-calendar-bot/config"
)

const testCategoriesYAML = "categories:\n" +
	"  Synaptic Plasticity:\n" +
	"    keywords: [synaptic plasticity, ltp]\n" +
	"  Imaging:\n" +
	"    keywords: [two-photon, microscopy]\n" +
	"fallback_category: General\n"

func writeCategoriesFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte(testCategoriesYAML), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func categoriesDeps() *CategoriesCommandDeps {
	return &CategoriesCommandDeps{
		LoadConfig: func() (*config.Config, error) { return config.DefaultConfig(), nil },
	}
}

func TestCategoriesCheck(t *testing.T) {
	path := writeCategoriesFile(t)

	cmd := NewCategoriesCommand(categoriesDeps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "2 categories OK") {
		t.Errorf("output = %q, want category count", out.String())
	}
}

func TestCategoriesCheck_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	bad := "categories:\n  Empty:\n    keywords: []\n"
	if err := os.WriteFile(path, []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := NewCategoriesCommand(categoriesDeps())
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"check", path})

	if err := cmd.Execute(); err == nil {
		t.Error("Execute() expected error for category without keywords")
	}
}

func TestCategoriesShow_PreservesOrder(t *testing.T) {
	path := writeCategoriesFile(t)

	cmd := NewCategoriesCommand(categoriesDeps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"show", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	text := out.String()
	first := strings.Index(text, "Synaptic Plasticity")
	second := strings.Index(text, "Imaging")
	if first < 0 || second < 0 || first > second {
		t.Errorf("output does not preserve declaration order:\n%s", text)
	}
	if !strings.Contains(text, "fallback: General") {
		t.Errorf("output = %q, want fallback line", text)
	}
}

func TestCategoriesTest_ClassifiesText(t *testing.T) {
	path := writeCategoriesFile(t)

	cmd := NewCategoriesCommand(categoriesDeps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"test", "--file", path, "two-photon imaging of ltp"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got := strings.TrimSpace(out.String())
	if !strings.Contains(got, "Synaptic Plasticity") || !strings.Contains(got, "Imaging") {
		t.Errorf("output = %q, want both matching categories", got)
	}
}

func TestCategoriesTest_Fallback(t *testing.T) {
	path := writeCategoriesFile(t)

	cmd := NewCategoriesCommand(categoriesDeps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"test", "--file", path, "annual lab outing"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "General" {
		t.Errorf("output = %q, want fallback category", out.String())
	}
}
