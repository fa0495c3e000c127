/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command catalogdump prints the entity catalog of the types linked into the
// binary as YAML: tables, keys, properties and the includes a query for each
// entity receives.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitybind"
	"github.com/suparena/entitybind/catalog"
	"github.com/suparena/entitybind/config"
	"github.com/suparena/entitybind/observability"
	"github.com/suparena/entitybind/query"

	// Sample domain; link your own entity packages the same way.
	_ "github.com/suparena/entitybind/datastore/testmodels"
	_ "github.com/suparena/entitybind/datastore/testmodels/entities"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configPath  = flag.String("config", "", "YAML configuration file")
	rootFlag    = flag.String("root", "", "Root module to discover (overrides configuration)")
	areaFlag    = flag.String("area", "", "Entity area package name (overrides configuration)")
)

type propertyDump struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Readonly   bool   `yaml:"readonly,omitempty"`
	Navigable  bool   `yaml:"navigable,omitempty"`
	Collection bool   `yaml:"collection,omitempty"`
	Target     string `yaml:"target,omitempty"`
}

type entityDump struct {
	Type       string         `yaml:"type"`
	Table      string         `yaml:"table"`
	Key        string         `yaml:"key,omitempty"`
	Includes   []string       `yaml:"includes,omitempty"`
	Properties []propertyDump `yaml:"properties"`
}

type catalogDump struct {
	Root     string       `yaml:"root"`
	Area     string       `yaml:"area"`
	Entities []entityDump `yaml:"entities"`
}

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := entitybind.GetVersionInfo()
		fmt.Printf("entitybind catalogdump version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "catalogdump: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if *rootFlag != "" {
		cfg.RootModule = *rootFlag
	}
	if *areaFlag != "" {
		cfg.EntityArea = *areaFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat := catalog.New(cfg.RootModule,
		catalog.WithArea(cfg.EntityArea),
		catalog.WithLogger(logger))
	augmenter := query.NewAugmenter(cat, query.WithLogger(logger))

	dump, err := buildDump(cat, augmenter)
	if err != nil {
		return err
	}
	logger.Debug("catalog dumped", zap.Int("entities", len(dump.Entities)))

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

func buildDump(cat *catalog.Catalog, augmenter *query.Augmenter) (catalogDump, error) {
	out := catalogDump{Root: cat.Root(), Area: cat.Context().Area}
	for _, t := range cat.Types() {
		d, err := cat.Describe(t)
		if err != nil {
			return catalogDump{}, err
		}

		e := entityDump{
			Type:     t.String(),
			Table:    d.Table,
			Key:      d.KeyProperty,
			Includes: augmenter.AutoInclude(t, query.New()).Includes(),
		}
		for _, p := range d.Properties {
			pd := propertyDump{
				Name:       p.Name,
				Type:       p.Type.String(),
				Readonly:   !p.Writable,
				Navigable:  p.Navigable,
				Collection: p.Collection,
			}
			if p.Target != nil {
				pd.Target = p.Target.String()
			}
			e.Properties = append(e.Properties, pd)
		}
		out.Entities = append(out.Entities, e)
	}
	return out, nil
}
