// Package i18n resolves message keys to localized strings.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed translations/*.yaml
var translationFS embed.FS

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = "en"

// Translator resolves message keys for one language.
type Translator interface {
	Translate(key string) string
	Language() string
}

// Catalog holds the messages of one language. Keys missing from the
// catalog fall back to the parent catalog, then to the key itself.
type Catalog struct {
	tag      language.Tag
	messages map[string]string
	parent   *Catalog
}

// Translate implements Translator.
func (c *Catalog) Translate(key string) string {
	for cat := c; cat != nil; cat = cat.parent {
		if msg, ok := cat.messages[key]; ok {
			return msg
		}
	}
	return key
}

// Language implements Translator.
func (c *Catalog) Language() string {
	return c.tag.String()
}

// Bundle holds every loaded catalog and picks one per request.
type Bundle struct {
	catalogs []*Catalog // index-aligned with the matcher's tags, preferred first
	matcher  language.Matcher
}

// Load reads the embedded catalogs. preferred names the language used when
// a request expresses no usable preference.
func Load(preferred string) (*Bundle, error) {
	return LoadFS(translationFS, "translations", preferred)
}

// LoadFS reads every <lang>.yaml file in dir of fsys.
func LoadFS(fsys fs.FS, dir, preferred string) (*Bundle, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	sort.Strings(files)

	byLang := make(map[string]*Catalog, len(files))
	for _, file := range files {
		lang := strings.TrimSuffix(path.Base(file), ".yaml")
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid translation file name %q: %w", file, err)
		}

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read translations: %s - %w", file, err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse translations: %s - %w", file, err)
		}

		messages := make(map[string]string)
		flatten("", tree, messages)
		byLang[tag.String()] = &Catalog{tag: tag, messages: messages}
	}

	base, ok := byLang[DefaultLanguage]
	if !ok {
		return nil, fmt.Errorf("missing %s translations", DefaultLanguage)
	}

	first := base
	if preferred != "" {
		tag, err := language.Parse(preferred)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", preferred, err)
		}
		cat, ok := byLang[tag.String()]
		if !ok {
			return nil, fmt.Errorf("no translations for language %q", preferred)
		}
		first = cat
	}

	// The matcher falls back to its first tag.
	b := &Bundle{catalogs: []*Catalog{first}}
	for _, file := range files {
		lang := strings.TrimSuffix(path.Base(file), ".yaml")
		tag, _ := language.Parse(lang)
		cat := byLang[tag.String()]
		if cat != first {
			b.catalogs = append(b.catalogs, cat)
		}
	}

	tags := make([]language.Tag, 0, len(b.catalogs))
	for _, cat := range b.catalogs {
		if cat != base {
			cat.parent = base
		}
		tags = append(tags, cat.tag)
	}
	b.matcher = language.NewMatcher(tags)

	return b, nil
}

// Localize returns the catalog best matching an Accept-Language header.
func (b *Bundle) Localize(acceptLanguage string) Translator {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.catalogs[0]
	}
	_, idx, confidence := b.matcher.Match(tags...)
	if confidence == language.No {
		return b.catalogs[0]
	}
	return b.catalogs[idx]
}

// Languages returns the available languages, preferred first.
func (b *Bundle) Languages() []string {
	langs := make([]string, 0, len(b.catalogs))
	for _, cat := range b.catalogs {
		langs = append(langs, cat.Language())
	}
	return langs
}

// flatten turns nested maps into dotted keys.
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
