package homepage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxFileBytes bounds the bookmarks file the importer accepts.
const MaxFileBytes = 4 << 20

// templateVar matches Homepage substitutions like {{HOMEPAGE_VAR_WIKI_URL}}.
var templateVar = regexp.MustCompile(`\{\{\s*(HOMEPAGE_(?:VAR|FILE)_[A-Z0-9_]+)\s*\}\}`)

// Loader reads a Homepage bookmarks.yaml.
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath, lookup: os.LookupEnv}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load parses the file after resolving template variables the way Homepage
// does: HOMEPAGE_VAR_X takes the value of the env var, HOMEPAGE_FILE_X the
// content of the file it points to. Unresolved variables become empty strings.
func (l *Loader) Load() (BookmarksConfig, error) {
	info, err := os.Stat(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("stat bookmarks file: %w", err)
	}
	if info.Size() > MaxFileBytes {
		return nil, fmt.Errorf("bookmarks file is %d bytes, limit is %d", info.Size(), MaxFileBytes)
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks file: %w", err)
	}

	var config BookmarksConfig
	if err := yaml.Unmarshal(l.resolve(data), &config); err != nil {
		return nil, fmt.Errorf("parse bookmarks yaml: %w", err)
	}
	return config, nil
}

func (l *Loader) resolve(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(templateVar.FindSubmatch(m)[1])
		val, ok := l.lookup(name)
		if ok && strings.HasPrefix(name, "HOMEPAGE_FILE_") {
			content, err := os.ReadFile(val)
			val, ok = string(bytes.TrimSpace(content)), err == nil
		}
		if !ok || val == "" {
			return []byte(`""`)
		}
		// a JSON string is a valid YAML double-quoted scalar
		quoted, err := json.Marshal(val)
		if err != nil {
			return []byte(`""`)
		}
		return quoted
	})
}
