package config

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Files holds the resolved paths of every asset category.
type Files struct {
	Seeds      []string
	I18n       []string
	Public     []string
	Migrations []string
}

func (f Files) clone() Files {
	return Files{
		Seeds:      slices.Clone(f.Seeds),
		I18n:       slices.Clone(f.I18n),
		Public:     slices.Clone(f.Public),
		Migrations: slices.Clone(f.Migrations),
	}
}

func resolveFiles(a Assets) (Files, error) {
	var (
		f   Files
		err error
	)
	if f.Seeds, err = globbedPaths(a.Seeds); err != nil {
		return Files{}, err
	}
	if f.I18n, err = globbedPaths(a.I18n); err != nil {
		return Files{}, err
	}
	if f.Public, err = globbedPaths(a.Public); err != nil {
		return Files{}, err
	}
	if f.Migrations, err = globbedPaths(a.Migrations); err != nil {
		return Files{}, err
	}
	return f, nil
}

// globbedPaths expands the patterns in order, dropping duplicates.
// URL patterns are kept verbatim.
func globbedPaths(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range patterns {
		if isURL(p) {
			add(p)
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, doublestar.ErrBadPattern
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
