// Package crosstem holds what every crosstem component shares: the table of
// supported languages and their productivity thresholds, word normalization,
// configuration and the sentinel errors.
package crosstem

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Version returns the current version of the module.
func Version() string { return "0.2.0" }

//go:embed languages.yaml
var languagesYAML []byte

// Thresholds is the pair of minimum productivities a parent word must reach
// before the stemmer accepts it as a root candidate.
type Thresholds struct {
	Verb  int `yaml:"verb"`
	Other int `yaml:"other"`
}

// For returns the threshold that applies to an edge with the given POS tag.
func (t Thresholds) For(pos string) int {
	if pos == "V" {
		return t.Verb
	}
	return t.Other
}

// Language describes one supported language.
type Language struct {
	Code       string     `yaml:"code"`
	Name       string     `yaml:"name"`
	Snowball   string     `yaml:"snowball"`
	Thresholds Thresholds `yaml:"thresholds"`
}

type languageTable struct {
	DefaultThresholds Thresholds `yaml:"default_thresholds"`
	Languages         []Language `yaml:"languages"`
}

// DefaultThresholds applies to any code missing from the table.
var DefaultThresholds = Thresholds{Verb: 3, Other: 5}

var languages map[string]Language

func init() {
	table, err := parseLanguageTable(languagesYAML)
	if err != nil {
		panic(fmt.Sprintf("crosstem: embedded languages.yaml: %v", err))
	}
	DefaultThresholds = table.DefaultThresholds
	languages = make(map[string]Language, len(table.Languages))
	for _, l := range table.Languages {
		languages[l.Code] = l
	}
}

func parseLanguageTable(data []byte) (languageTable, error) {
	var table languageTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return table, err
	}
	seen := make(map[string]bool, len(table.Languages))
	for _, l := range table.Languages {
		if l.Code == "" || l.Name == "" {
			return table, fmt.Errorf("language entry missing code or name: %+v", l)
		}
		if seen[l.Code] {
			return table, fmt.Errorf("duplicate language code %q", l.Code)
		}
		seen[l.Code] = true
	}
	return table, nil
}

// SupportedLanguages returns a copy of the code → name mapping.
func SupportedLanguages() map[string]string {
	out := make(map[string]string, len(languages))
	for code, l := range languages {
		out[code] = l.Name
	}
	return out
}

// LanguageCodes returns the supported codes in sorted order.
func LanguageCodes() []string {
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// LookupLanguage returns the language for code or an error wrapping
// ErrLanguageNotSupported that lists the available codes.
func LookupLanguage(code string) (Language, error) {
	l, ok := languages[code]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q (available languages: %s)",
			ErrLanguageNotSupported, code, strings.Join(LanguageCodes(), ", "))
	}
	return l, nil
}

// IsSupported reports whether code names a supported language.
func IsSupported(code string) bool {
	_, ok := languages[code]
	return ok
}

// ThresholdsFor returns the productivity thresholds for code, falling back to
// DefaultThresholds for unknown codes.
func ThresholdsFor(code string) Thresholds {
	if l, ok := languages[code]; ok {
		return l.Thresholds
	}
	return DefaultThresholds
}

// LanguageName returns the English name of code, or code itself when unknown.
// Etymology data is keyed by these names rather than by ISO codes.
func LanguageName(code string) string {
	if l, ok := languages[code]; ok {
		return l.Name
	}
	return code
}
