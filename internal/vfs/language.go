package vfs

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var languagesYAML []byte

// LanguagePlaintext is the language of folder markers and unknown text files.
const LanguagePlaintext = "plaintext"

// mediaClass maps a set of extensions to one media language
type mediaClass struct {
	Language   string   `yaml:"language"`
	Extensions []string `yaml:"extensions"`
}

// LanguageTable is the static extension to language classification.
type LanguageTable struct {
	TextDefault  string            `yaml:"text_default"`
	Text         map[string]string `yaml:"text"`
	MediaDefault string            `yaml:"media_default"`
	Media        []mediaClass      `yaml:"media"`

	media map[string]bool
}

// ParseLanguageTable decodes a classification table from YAML.
func ParseLanguageTable(data []byte) (*LanguageTable, error) {
	var t LanguageTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal language table: %w", err)
	}
	if t.TextDefault == "" || t.MediaDefault == "" {
		return nil, fmt.Errorf("language table: text_default and media_default are required")
	}

	t.media = map[string]bool{t.MediaDefault: true}
	for _, class := range t.Media {
		t.media[class.Language] = true
	}
	return &t, nil
}

var languages = mustParseLanguages()

func mustParseLanguages() *LanguageTable {
	t, err := ParseLanguageTable(languagesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// Languages returns the embedded classification table.
func Languages() *LanguageTable {
	return languages
}

// TextLanguage classifies an editable record by its name.
func (t *LanguageTable) TextLanguage(name string) string {
	if lang, ok := t.Text[Extension(name)]; ok {
		return lang
	}
	return t.TextDefault
}

// MediaLanguage classifies an uploaded asset by its filename.
func (t *LanguageTable) MediaLanguage(name string) string {
	ext := Extension(name)
	if ext == "" {
		return t.MediaDefault
	}
	for _, class := range t.Media {
		for _, e := range class.Extensions {
			if e == ext {
				return class.Language
			}
		}
	}
	return t.MediaDefault
}

// IsMedia reports whether lang designates an uploaded asset.
func (t *LanguageTable) IsMedia(lang string) bool {
	return t.media[lang]
}

// Classify picks the language for name given whether the record is an asset.
func (t *LanguageTable) Classify(name string, asset bool) string {
	if asset {
		return t.MediaLanguage(name)
	}
	return t.TextLanguage(name)
}

// Extension returns the lowercase extension of the final segment, without the dot.
func Extension(name string) string {
	base := Base(name)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
