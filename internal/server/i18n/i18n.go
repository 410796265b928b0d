// Package i18n holds the message catalogs used for validation messages.
// Each catalog file is a flat JSON object named after its language tag,
// for example en.json or pt-BR.json.
package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const DefaultLang = "en"

//go:embed en.json
var defaultMessages []byte

type Catalog struct {
	langs map[string]map[string]string
}

// Default returns a catalog holding only the built-in English messages.
func Default() *Catalog {
	c := &Catalog{langs: make(map[string]map[string]string)}
	if err := c.merge(DefaultLang, defaultMessages); err != nil {
		panic(fmt.Sprintf("i18n: embedded catalog: %v", err))
	}
	return c
}

// Load starts from Default and merges every file in paths over it.
func Load(paths []string) (*Catalog, error) {
	c := Default()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		lang := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if err := c.merge(lang, data); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
	}
	return c, nil
}

func (c *Catalog) merge(lang string, data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	dst, ok := c.langs[lang]
	if !ok {
		dst = make(map[string]string, len(m))
		c.langs[lang] = dst
	}
	for k, v := range m {
		dst[k] = v
	}
	return nil
}

// T translates key for lang. Unknown keys fall back to English and then to
// the key itself.
func (c *Catalog) T(lang, key string) string {
	if v, ok := c.langs[lang][key]; ok {
		return v
	}
	if v, ok := c.langs[DefaultLang][key]; ok {
		return v
	}
	return key
}

// Match picks the first language of an Accept-Language header that the
// catalog knows, trying the base language when the region is unknown.
func (c *Catalog) Match(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		if _, ok := c.langs[tag]; ok {
			return tag
		}
		if base, _, found := strings.Cut(tag, "-"); found {
			if _, ok := c.langs[base]; ok {
				return base
			}
		}
	}
	return DefaultLang
}
