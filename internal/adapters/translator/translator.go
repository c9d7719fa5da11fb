// Package translator localizes user-facing texts from YAML locale files.
package translator

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"userbot/internal/core/port"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Locale is the content of one locale file. Plural entries are keyed by the
// English singular and map CLDR plural categories ("one", "few", "other", ...)
// to texts.
type Locale struct {
	Messages map[string]string            `yaml:"messages"`
	Plurals  map[string]map[string]string `yaml:"plurals"`
}

// Catalog holds every loaded locale and hands out translators.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	locales  map[language.Tag]*Locale
	matcher  language.Matcher
}

// NewCatalog loads the built-in locales, then every "<lang>.yaml" in dir,
// which override built-in entries. dir may be empty.
func NewCatalog(fallback string, dir string) (*Catalog, error) {
	tag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", fallback, err)
	}

	c := &Catalog{fallback: tag, locales: make(map[language.Tag]*Locale)}

	if err := c.loadFS(builtin, "locales"); err != nil {
		return nil, err
	}

	if dir != "" {
		if err := c.loadFS(os.DirFS(dir), "."); err != nil {
			return nil, err
		}
	}

	c.tags = append([]language.Tag{tag}, c.tags...)
	c.matcher = language.NewMatcher(c.tags)

	return c, nil
}

func (c *Catalog) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading locales: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		content, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		if err := c.Add(strings.TrimSuffix(entry.Name(), ".yaml"), content); err != nil {
			return err
		}
	}

	return nil
}

// Add merges a YAML locale into the catalog.
func (c *Catalog) Add(lang string, content []byte) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("invalid locale name %q: %w", lang, err)
	}

	var loc Locale
	if err := yaml.Unmarshal(content, &loc); err != nil {
		return fmt.Errorf("parsing locale %s: %w", lang, err)
	}

	existing, ok := c.locales[tag]
	if !ok {
		existing = &Locale{Messages: make(map[string]string), Plurals: make(map[string]map[string]string)}
		c.locales[tag] = existing
		c.tags = append(c.tags, tag)
	}

	for k, v := range loc.Messages {
		existing.Messages[k] = v
	}
	for k, v := range loc.Plurals {
		existing.Plurals[k] = v
	}

	log.Debug().Str("language", tag.String()).Int("messages", len(loc.Messages)).Int("plurals", len(loc.Plurals)).
		Msg("loaded locale")

	return nil
}

// For returns the translator for a language code such as "de" or "pt-BR".
// Unknown or empty codes get the default language.
func (c *Catalog) For(lang string) port.Translator {
	tag, supported := c.fallback, c.fallback
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			matched, index, confidence := c.matcher.Match(parsed)
			if confidence != language.No {
				tag, supported = matched, c.tags[index]
			}
		}
	}

	if loc, ok := c.locales[supported]; ok {
		return &Translator{tag: tag, locale: loc}
	}

	// c.tags keeps load order, so locales sharing a base resolve the same way every time.
	base, _ := supported.Base()
	for _, t := range c.tags {
		if b, _ := t.Base(); b == base {
			if loc, ok := c.locales[t]; ok {
				return &Translator{tag: tag, locale: loc}
			}
		}
	}

	return &Translator{tag: tag}
}

// Translator translates into one language. Missing entries come back untranslated.
type Translator struct {
	tag    language.Tag
	locale *Locale
}

func (t *Translator) Gettext(msg string) string {
	if t.locale != nil {
		if translated, ok := t.locale.Messages[msg]; ok {
			return translated
		}
	}

	return msg
}

func (t *Translator) Ngettext(singular, pluralText string, n int) string {
	if t.locale != nil {
		if forms, ok := t.locale.Plurals[singular]; ok {
			if translated, ok := forms[category(t.tag, n)]; ok {
				return translated
			}
			if translated, ok := forms["other"]; ok {
				return translated
			}
		}
	}

	if category(language.English, n) == "one" {
		return singular
	}

	return pluralText
}

// category returns the CLDR cardinal plural category of n in lang.
func category(lang language.Tag, n int) string {
	if n < 0 {
		n = -n
	}

	switch plural.Cardinal.MatchPlural(lang, n, 0, 0, 0, 0) {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}
