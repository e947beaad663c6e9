package homepage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "bookmarks.yaml")

	yamlContent := `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go docs:
        - abbr: GO
          href: https://go.dev/doc/
- Social:
    - Reddit:
        - abbr: RE
          href: https://reddit.com/
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath)
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(config) != 2 {
		t.Fatalf("Load() returned %d groups, want 2", len(config))
	}
	if got := len(config[0]["Developer"]); got != 2 {
		t.Errorf("Developer group has %d bookmarks, want 2", got)
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "bookmarks.yaml")

	yamlContent := `---
- Private:
    - Wiki:
        - abbr: WK
          href: {{HOMEPAGE_VAR_WIKI_URL}}
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	config, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entry := config[0]["Private"][0]["Wiki"][0]
	if entry.Href != "" {
		t.Errorf("template variable not stripped, href = %q", entry.Href)
	}
}

func TestLoaderLoadMissingFile(t *testing.T) {
	loader := NewLoader("/nonexistent/bookmarks.yaml")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "bookmarks.yaml")
	if err := os.WriteFile(yamlPath, []byte("- [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	if _, err := NewLoader(yamlPath).Load(); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestLoaderResolvesTemplateVariables(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "bookmarks.yaml")
	secretPath := filepath.Join(tmpDir, "wiki_url")

	if err := os.WriteFile(secretPath, []byte("https://wiki.lan/\n"), 0o600); err != nil {
		t.Fatalf("Failed to write secret file: %v", err)
	}

	yamlContent := `---
- Private:
    - Wiki:
        - abbr: WK
          href: {{HOMEPAGE_FILE_WIKI}}
    - Git:
        - abbr: GT
          href: {{ HOMEPAGE_VAR_GIT_URL }}
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	env := map[string]string{
		"HOMEPAGE_FILE_WIKI":   secretPath,
		"HOMEPAGE_VAR_GIT_URL": "https://git.lan/: weird",
	}
	loader := NewLoader(yamlPath)
	loader.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	group := config[0]["Private"]
	if got := group[0]["Wiki"][0].Href; got != "https://wiki.lan/" {
		t.Errorf("file variable resolved to %q", got)
	}
	if got := group[1]["Git"][0].Href; got != "https://git.lan/: weird" {
		t.Errorf("env variable resolved to %q", got)
	}
}
