// Package i18n translates item material ids into display names for the
// viewer's locale, using catalogs embedded in the binary.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/memohai/chatmanager/internal/snapshot"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale string            `yaml:"locale"`
	Items  map[string]string `yaml:"items"`
}

// Catalog holds item names per locale.
type Catalog struct {
	tags    []language.Tag
	items   []map[string]string
	matcher language.Matcher
}

// LoadEmbedded loads the catalogs shipped with the binary.
func LoadEmbedded() (*Catalog, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads every locales/*.yaml file of fsys.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob item catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no item catalogs found")
	}
	sort.Strings(paths)

	base := language.MustParse(BaseLocale)
	byTag := map[language.Tag]map[string]string{}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		tag, err := language.Parse(strings.TrimSpace(file.Locale))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: invalid locale %q: %w", path, file.Locale, err)
		}
		if _, exists := byTag[tag]; exists {
			return nil, fmt.Errorf("catalog %s: locale %s defined twice", path, tag)
		}
		items := make(map[string]string, len(file.Items))
		for material, name := range file.Items {
			items[normalizeMaterial(material)] = name
		}
		byTag[tag] = items
	}
	if _, ok := byTag[base]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The matcher falls back to the first tag, so the base locale leads.
	c := &Catalog{}
	c.tags = append(c.tags, base)
	c.items = append(c.items, byTag[base])
	delete(byTag, base)
	rest := make([]language.Tag, 0, len(byTag))
	for tag := range byTag {
		rest = append(rest, tag)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	for _, tag := range rest {
		c.tags = append(c.tags, tag)
		c.items = append(c.items, byTag[tag])
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Locales lists the loaded locales, base locale first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, tag := range c.tags {
		out[i] = tag.String()
	}
	return out
}

// Match returns the loaded locale that best serves a client locale such as
// "de_de" or "pt-BR".
func (c *Catalog) Match(locale string) string {
	return c.tags[c.match(locale)].String()
}

func (c *Catalog) match(locale string) int {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	tag, err := language.Parse(locale)
	if err != nil {
		return 0
	}
	_, idx, _ := c.matcher.Match(tag)
	return idx
}

// ItemName returns the name to show for item. A custom name wins; otherwise
// the material is translated for locale, then for the base locale, and
// finally derived from the material id.
func (c *Catalog) ItemName(locale string, item snapshot.Item) string {
	if name := strings.TrimSpace(item.Name); name != "" {
		return name
	}
	material := normalizeMaterial(item.Material)
	if name, ok := c.items[c.match(locale)][material]; ok {
		return name
	}
	if name, ok := c.items[0][material]; ok {
		return name
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(material, "_", " "))
}

func normalizeMaterial(material string) string {
	material = strings.ToLower(strings.TrimSpace(material))
	return strings.TrimPrefix(material, "minecraft:")
}
