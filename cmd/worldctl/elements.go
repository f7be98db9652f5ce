package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sumandas0/worldkit/pkg/sdk"
)

func typesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the element types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), opts.output)
			if err != nil {
				return err
			}
			return p.types()
		},
	}
}

func listCmd(opts *rootOptions) *cobra.Command {
	var filters []string
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List the elements of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAssignments(filters)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				elements, err := a.client.Elements.List(ctx, args[0], sdk.Filters(parsed))
				if err != nil {
					return err
				}
				return a.printer.elements(args[0], elements)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as key=value, repeatable")
	return cmd
}

func getCmd(opts *rootOptions) *cobra.Command {
	var (
		resolve bool
		fields  []string
	)
	cmd := &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show one element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				element, err := a.client.Elements.Get(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if resolve || len(fields) > 0 {
					if len(fields) == 0 {
						fields = a.client.Elements.ReferenceFields(element)
					}
					element = a.client.Elements.ResolveReferences(ctx, element, fields...)
				}
				return a.printer.element(element)
			})
		},
	}
	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "Resolve every reference field")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Resolve only these reference fields")
	return cmd
}

func createCmd(opts *rootOptions) *cobra.Command {
	var input elementInput
	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := input.load()
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				element, err := a.client.Elements.Create(ctx, args[0], sdk.ElementFromMap(data))
				if err != nil {
					return err
				}
				return a.printer.element(element)
			})
		},
	}
	input.bind(cmd)
	return cmd
}

func updateCmd(opts *rootOptions) *cobra.Command {
	var input elementInput
	cmd := &cobra.Command{
		Use:   "update <type> <id>",
		Short: "Change some attributes of an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := input.load()
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				return fmt.Errorf("nothing to update: pass --set or --file")
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				element, err := a.client.Elements.Update(ctx, args[0], args[1], updates)
				if err != nil {
					return err
				}
				return a.printer.element(element)
			})
		},
	}
	input.bind(cmd)
	return cmd
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.client.Elements.Delete(ctx, args[0], args[1]); err != nil {
					return err
				}
				return a.printer.message("Deleted %s %s", args[0], args[1])
			})
		},
	}
}

func searchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <type> <term>",
		Short: "Find elements whose name contains a term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				elements, err := a.client.Elements.Search(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return a.printer.elements(args[0], elements)
			})
		},
	}
}

func countsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Count the elements of every type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				counts, err := a.client.Elements.Counts(ctx)
				if err != nil {
					return err
				}
				return a.printer.counts(counts)
			})
		},
	}
}

// elementInput collects attributes from --file and --set, --set winning
type elementInput struct {
	file        string
	assignments []string
}

func (in *elementInput) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.file, "file", "", "YAML or JSON file with attributes")
	cmd.Flags().StringArrayVarP(&in.assignments, "set", "s", nil, "Attribute as key=value, repeatable; values are parsed as YAML")
}

func (in *elementInput) load() (map[string]any, error) {
	data := map[string]any{}
	if in.file != "" {
		raw, err := os.ReadFile(in.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", in.file, err)
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", in.file, err)
		}
	}

	assigned, err := parseAssignments(in.assignments)
	if err != nil {
		return nil, err
	}
	for key, value := range assigned {
		data[key] = value
	}
	return data, nil
}

// parseAssignments turns key=value pairs into typed values, so level=3 is a
// number and species_ids=[a, b] a list. Anything that would decode to a
// mapping stays a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: want key=value", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		switch value.(type) {
		case map[string]any:
			value = raw
		case nil:
			if raw != "" && raw != "null" && raw != "~" {
				value = raw
			}
		}
		out[key] = value
	}
	return out, nil
}
