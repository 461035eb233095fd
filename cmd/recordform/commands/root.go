// Package commands implements the recordform CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rero/recordform/config"
	"github.com/rero/recordform/jsonschema"
	"github.com/rero/recordform/recordstore"
)

var version = "dev"

// globals holds the persistent flags.
type globals struct {
	configFile string
	verbose    bool
}

// newRootCmd builds the command tree. Each call returns fresh commands so
// tests can run them independently.
func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "recordform",
		Short: "Inspect and validate records against editor schema forms",
		Long: `recordform builds the field tree of a record editor schema form, shows which
fields an editor would display or hide, and validates records with the
validators the schema declares.

Schemas and records are JSON or YAML files. With store.base_url configured,
--type fetches the schema form from the record store instead.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (YAML, JSON or TOML)")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "debug logging")

	root.AddCommand(newTreeCmd(g), newValidateCmd(g))
	return root
}

// Execute runs the CLI.
func Execute() error {
	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return err
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	client *recordstore.Client
}

func (g *globals) env() (*env, error) {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, client: cfg.Client(log)}, nil
}

// store returns the configured record store, or nil.
func (e *env) store() recordstore.Store {
	if e.client == nil {
		return nil
	}
	return e.client
}

// schema reads the schema file at path, or fetches the schema form of
// recordType from the record store.
func (e *env) schema(ctx context.Context, path, recordType string) (*jsonschema.Node, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if isYAML(path) {
			return jsonschema.ParseYAML(data)
		}
		return jsonschema.Parse(data)
	}
	if recordType == "" {
		return nil, errors.New("a schema file or --type is required")
	}
	if e.client == nil {
		return nil, errors.New("--type needs store.base_url")
	}
	return e.client.GetSchemaForm(ctx, recordType)
}

// readRecord decodes a JSON or YAML record file. A record wrapped in a
// `metadata` member, as served by the REST API, is unwrapped.
func readRecord(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if isYAML(path) {
		v, err = jsonschema.DecodeYAMLValue(data)
	} else {
		err = json.Unmarshal(data, &v)
	}
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record %s: not an object", path)
	}
	if md, ok := m["metadata"].(map[string]any); ok {
		return md, nil
	}
	return m, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
