package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/entmigrate/entity"
	"github.com/vk/entmigrate/internal/ctxlog"
	"github.com/vk/entmigrate/manifest"
	hclmanifest "github.com/vk/entmigrate/manifest/hcl"
	yamlmanifest "github.com/vk/entmigrate/manifest/yaml"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: manifests loaded and compiled once at construction, then any
// number of documents migrated through Run.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	entities map[string]*entity.Entity
}

// defaultLoaders covers both supported manifest formats; each loader picks
// up its own files from the shared paths.
func defaultLoaders() []manifest.Loader {
	return []manifest.Loader{hclmanifest.NewLoader(), yamlmanifest.NewLoader()}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the compiled
// entity set. Failures to load or build manifests are fatal startup errors
// and panic; the CLI entrypoint recovers them into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loaders ...manifest.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(loaders) == 0 {
		loaders = defaultLoaders()
	}

	// Merge every loader's view of the manifest paths into one set.
	set := &manifest.Set{Entities: make(map[string]*manifest.EntityDef)}
	for _, loader := range loaders {
		part, err := loader.Load(ctx, appConfig.ManifestPaths...)
		if err != nil {
			panic(fmt.Errorf("failed to load manifests: %w", err))
		}
		if err := set.Merge(part); err != nil {
			panic(fmt.Errorf("failed to merge manifests: %w", err))
		}
	}
	if len(set.Entities) == 0 {
		panic(fmt.Errorf("no entities found under %v", appConfig.ManifestPaths))
	}
	logger.Debug("Manifests loaded.", "entities", len(set.Entities))

	entities, err := manifest.Build(ctx, set)
	if err != nil {
		// A broken manifest is an authoring error, not a runtime condition.
		panic(fmt.Errorf("failed to build entities: %w", err))
	}
	logger.Debug("Entity set compiled.")

	return &App{outW: outW, logger: logger, entities: entities}
}

// Entities returns the compiled entity set. This is primarily for testing.
func (a *App) Entities() map[string]*entity.Entity { return a.entities }

// Run reads one JSON document, parses it as the configured entity and
// migrates it to the latest version, then writes the migrated document as
// JSON to the application's output writer.
func (a *App) Run(ctx context.Context, appConfig *Config, inR io.Reader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	ent, ok := a.entities[appConfig.EntityName]
	if !ok {
		return fmt.Errorf("entity %q is not defined by the loaded manifests", appConfig.EntityName)
	}

	src, err := readInput(appConfig.InputPath, inR)
	if err != nil {
		return err
	}

	input, err := decodeJSON(src)
	if err != nil {
		return fmt.Errorf("failed to decode input document: %w", err)
	}

	out, err := ent.SafeParse(input)
	if err != nil {
		var pe *entity.ParseError
		if errors.As(err, &pe) && pe.Kind.Defect() {
			return fmt.Errorf("entity definition defect: %w", err)
		}
		return fmt.Errorf("input rejected: %w", err)
	}
	a.logger.Debug("Input migrated.", "entity", ent.Name(), "latest", ent.Latest())

	buf, err := ctyjson.Marshal(out, out.Type())
	if err != nil {
		return fmt.Errorf("failed to encode migrated document: %w", err)
	}
	fmt.Fprintln(a.outW, string(buf))
	return nil
}

// readInput loads the document from the configured path, treating "" and
// "-" as stdin (or whatever reader the caller supplied).
func readInput(path string, inR io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		src, err := io.ReadAll(inR)
		if err != nil {
			return nil, fmt.Errorf("reading input document: %w", err)
		}
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input document: %w", err)
	}
	return src, nil
}

// decodeJSON turns a raw JSON document into a cty value using its implied
// type, which keeps objects as objects rather than uniform maps.
func decodeJSON(src []byte) (cty.Value, error) {
	t, err := ctyjson.ImpliedType(src)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(src, t)
}
