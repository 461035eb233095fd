package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rero/recordform"
	"github.com/rero/recordform/recordstore"
	"github.com/rero/recordform/validation"
)

type validateOptions struct {
	recordType string
	pid        string
	output     string
}

// errInvalid is returned when the record has issues; they are already
// printed.
type errInvalid struct{ n int }

func (e errInvalid) Error() string { return fmt.Sprintf("%d issue(s) found", e.n) }

func newValidateCmd(g *globals) *cobra.Command {
	o := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [SCHEMA] RECORD",
		Short: "Validate a record against a schema form",
		Long: `Validate a record with the checks and validators its schema form declares,
the way the editor does on submission.

valueAlreadyExists lookups query the configured record store; without one
they fail and are reported.

Examples:
  # Validate against a local schema
  recordform validate documents.json doc.json

  # Validate an existing record against the schema served by the store
  recordform validate --type documents --pid 1 doc.yaml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema string
			if len(args) == 2 {
				schema = args[0]
			}
			return runValidate(cmd, g, o, schema, args[len(args)-1])
		},
	}
	cmd.Flags().StringVar(&o.recordType, "type", "", "record type; fetches its schema form when no SCHEMA is given")
	cmd.Flags().StringVar(&o.pid, "pid", "", "pid of the record, excluded from uniqueness lookups")
	cmd.Flags().StringVarP(&o.output, "output", "o", "text", "output format: text or json")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globals, o *validateOptions, schema, record string) error {
	if o.output != "text" && o.output != "json" {
		return fmt.Errorf("unknown output format %q", o.output)
	}
	e, err := g.env()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	node, err := e.schema(cmd.Context(), schema, o.recordType)
	if err != nil {
		return err
	}
	data, err := readRecord(record)
	if err != nil {
		return err
	}
	recordType := o.recordType
	if recordType == "" {
		recordType = strings.TrimSuffix(filepath.Base(schema), filepath.Ext(schema))
	}

	cfg := e.cfg.Form(e.log)
	cfg.PID = o.pid
	cfg.Extensions = []recordform.Extension{
		validation.NewBinder(e.store(), recordType, o.pid, e.log),
		recordstore.RemoteOptions{Store: e.store(), Endpoints: e.cfg.Endpoints()},
	}
	tree, err := recordform.Build(node, cfg)
	if err != nil {
		return err
	}
	defer tree.Close()
	if err := tree.SetModel(data); err != nil {
		return err
	}
	issues := tree.Validate(cmd.Context())
	if err := printIssues(cmd.OutOrStdout(), o.output, issues); err != nil {
		return err
	}
	if len(issues) > 0 {
		return errInvalid{n: len(issues)}
	}
	return nil
}

func printIssues(w io.Writer, format string, issues recordform.Issues) error {
	if format == "json" {
		if issues == nil {
			issues = recordform.Issues{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(issues)
	}
	if len(issues) == 0 {
		fmt.Fprintln(w, "valid")
		return nil
	}
	for _, is := range issues {
		fmt.Fprintf(w, "%s: %s (%s)\n", is.Path, is.Message, is.Code)
	}
	return nil
}
