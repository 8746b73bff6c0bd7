package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves message keys per language. Command responses are
// localized to each recipient's forum language, so one Translator holds
// every available locale and picks at call time.
type Translator struct {
	locales     map[string]map[string]string
	defaultLang string
}

// NewTranslator loads every *.yaml locale under locales/ from fsys.
// defaultLang is the fallback when a language or key is missing.
func NewTranslator(fsys fs.FS, defaultLang string) (*Translator, error) {
	entries, err := fs.ReadDir(fsys, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	locales := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		locales[strings.TrimSuffix(name, ".yaml")] = messages
	}

	if _, ok := locales[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no locale file", defaultLang)
	}
	return &Translator{locales: locales, defaultLang: defaultLang}, nil
}

// T translates key into lang, falling back to the default language and
// finally to the key itself. Unknown keys therefore pass through, which
// keeps forum-supplied plain text intact.
func (t *Translator) T(lang, key string, args ...interface{}) string {
	format, ok := t.lookup(lang, key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) lookup(lang, key string) (string, bool) {
	if messages, ok := t.locales[lang]; ok {
		if format, ok := messages[key]; ok {
			return format, true
		}
	}
	if lang != t.defaultLang {
		if format, ok := t.locales[t.defaultLang][key]; ok {
			return format, true
		}
	}
	return "", false
}

// Languages lists the loaded locale tags.
func (t *Translator) Languages() []string {
	out := make([]string, 0, len(t.locales))
	for lang := range t.locales {
		out = append(out, lang)
	}
	return out
}
