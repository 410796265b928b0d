// Package seed loads YAML seed files into the database. Each file lists
// collections by model name; a collection can be skipped as a whole when
// its skip.when filter matches existing documents, and each document is
// either inserted, skipped when it already exists, or replaced when marked
// overwrite.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
	"gopkg.in/yaml.v3"
)

var timeNow = time.Now

type Options struct {
	LogResults *bool `yaml:"logResults"`
}

// merge returns o with the fields set in over replacing its own.
func (o Options) merge(over *Options) Options {
	if over != nil && over.LogResults != nil {
		o.LogResults = over.LogResults
	}
	return o
}

func (o Options) logResults() bool {
	return o.LogResults != nil && *o.LogResults
}

type File struct {
	Options     *Options     `yaml:"options"`
	Collections []Collection `yaml:"collections"`
}

type Collection struct {
	Model   string   `yaml:"model"`
	Options *Options `yaml:"options"`
	Skip    *Skip    `yaml:"skip"`
	Docs    []Doc    `yaml:"docs"`
}

// Skip.When is a model-specific filter, for users e.g. {role: admin}.
type Skip struct {
	When yaml.Node `yaml:"when"`
}

type Doc struct {
	Overwrite bool      `yaml:"overwrite"`
	Data      yaml.Node `yaml:"data"`
}

func (d Doc) hasData() bool { return !d.Data.IsZero() }

// seeder knows how to filter and insert documents of one model.
type seeder interface {
	skip(ctx context.Context, when *yaml.Node) (bool, error)
	seed(ctx context.Context, data *yaml.Node, overwrite bool) (string, error)
}

var seeders = map[string]func(r repomanager.Repositories) seeder{
	"User":  func(r repomanager.Repositories) seeder { return &userSeeder{repo: r.Users} },
	"Admin": func(r repomanager.Repositories) seeder { return &adminSeeder{repo: r.Admins} },
}

// Load reads the given seed files into one File: collections are
// concatenated in order and a later file's options replace earlier ones.
func Load(paths []string) (*File, error) {
	out := &File{}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("error reading seed file %s: %w", p, err)
		}

		var f File
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("error parsing seed file %s: %w", p, err)
		}

		if f.Options != nil {
			o := Options{}.merge(out.Options).merge(f.Options)
			out.Options = &o
		}
		out.Collections = append(out.Collections, f.Collections...)
	}
	return out, nil
}

// Run seeds the collections of f in order and stops at the first failing
// collection. defaults apply where f does not set an option.
func Run(ctx context.Context, r repomanager.Repositories, f *File, defaults Options, logger logging.Logger) error {
	logger = logger.With("module", "seed")

	if f == nil || len(f.Collections) == 0 {
		return nil
	}
	opts := defaults.merge(f.Options)

	for _, c := range f.Collections {
		if c.Model == "" {
			continue
		}
		if err := runCollection(ctx, r, c, opts.merge(c.Options), logger); err != nil {
			if opts.logResults() {
				logger.Error(ctx, "Database Seeding: Mongo Seed Failed!")
				logger.Error(ctx, "Database Seeding: "+err.Error())
			}
			return err
		}
	}

	if opts.logResults() {
		logger.Info(ctx, "Database Seeding: Mongo Seed complete!")
	}
	return nil
}

func runCollection(ctx context.Context, r repomanager.Repositories, c Collection, opts Options, logger logging.Logger) error {
	factory, ok := seeders[c.Model]
	if !ok {
		return fmt.Errorf("Database Seeding: Invalid Model Configuration - %s.seed() not implemented", c.Model)
	}
	s := factory(r)

	if len(c.Docs) == 0 {
		return nil
	}

	if c.Skip != nil && !c.Skip.When.IsZero() {
		skip, err := s.skip(ctx, &c.Skip.When)
		if err != nil {
			return err
		}
		if skip {
			if opts.logResults() {
				logger.Info(ctx, fmt.Sprintf("Database Seeding: %s collection skipped", c.Model))
			}
			return nil
		}
	}

	var errs []error
	for _, d := range c.Docs {
		if !d.hasData() {
			continue
		}
		msg, err := s.seed(ctx, &d.Data, d.Overwrite)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if opts.logResults() {
			logger.Info(ctx, msg)
		}
	}
	return errors.Join(errs...)
}
