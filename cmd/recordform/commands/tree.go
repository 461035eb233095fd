package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rero/recordform"
	"github.com/rero/recordform/recordstore"
)

type treeOptions struct {
	recordType string
	record     string
	pid        string
	long       bool
	short      bool
}

func newTreeCmd(g *globals) *cobra.Command {
	o := &treeOptions{}
	cmd := &cobra.Command{
		Use:   "tree [SCHEMA]",
		Short: "Print the field tree of a schema form",
		Long: `Print the field tree of a schema form with the kind of every field and
whether an editor would show it.

Examples:
  # Tree of a new record
  recordform tree documents.json

  # Fields an editor would hide when editing an existing record
  recordform tree documents.yaml --record doc-1.json --pid 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runTree(cmd, g, o, path)
		},
	}
	cmd.Flags().StringVar(&o.recordType, "type", "", "record type whose schema form is fetched from the store")
	cmd.Flags().StringVar(&o.record, "record", "", "record file loaded into the form")
	cmd.Flags().StringVar(&o.pid, "pid", "", "pid of the record, enables edit mode")
	cmd.Flags().BoolVar(&o.long, "long", false, "force long mode")
	cmd.Flags().BoolVar(&o.short, "short", false, "force short mode, nothing is auto-hidden")
	cmd.MarkFlagsMutuallyExclusive("long", "short")
	return cmd
}

func runTree(cmd *cobra.Command, g *globals, o *treeOptions, path string) error {
	e, err := g.env()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	node, err := e.schema(cmd.Context(), path, o.recordType)
	if err != nil {
		return err
	}
	data, err := readRecord(o.record)
	if err != nil {
		return err
	}
	cfg := e.cfg.Form(e.log)
	cfg.PID = o.pid
	switch {
	case o.long:
		cfg.LongMode = true
	case o.short:
		cfg.LongMode = false
	}
	cfg.Extensions = []recordform.Extension{recordstore.RemoteOptions{Store: e.store(), Endpoints: e.cfg.Endpoints()}}
	tree, err := recordform.Build(node, cfg)
	if err != nil {
		return err
	}
	defer tree.Close()
	if err := tree.SetModel(data); err != nil {
		return err
	}
	printTree(cmd.OutOrStdout(), tree)
	return nil
}

func printTree(w io.Writer, tree *recordform.Tree) {
	root := tree.Root()
	depth := strings.Count(root.ID(), "/")
	root.Walk(func(f *recordform.Field) bool {
		indent := strings.Repeat("  ", strings.Count(f.ID(), "/")-depth)
		key, _ := f.Key()
		name := key.String()
		if f.IsRoot() {
			name = f.ID()
		}
		var marks []string
		if f.Required() {
			marks = append(marks, "required")
		}
		if f.Hidden() {
			marks = append(marks, "hidden")
		}
		line := fmt.Sprintf("%s%s (%s)", indent, name, f.Kind)
		if f.Label != "" && f.Label != name {
			line += " " + fmt.Sprintf("%q", f.Label)
		}
		if len(marks) > 0 {
			line += " [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintln(w, line)
		return true
	})
	var hidden []string
	for _, f := range tree.HiddenFields() {
		key, _ := f.Key()
		hidden = append(hidden, key.String())
	}
	if len(hidden) > 0 {
		fmt.Fprintf(w, "\nhidden fields: %s\n", strings.Join(hidden, ", "))
	}
}
