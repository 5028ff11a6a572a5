package commands

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/catalog"
	"github.com/satishbabariya/sqlstudio/cli/internal/config"
	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/query/builder"
	"github.com/satishbabariya/sqlstudio/query/spec"
)

const noneOption = "(none)"

func newQueryInteractiveCommand(a *app) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Compose a SELECT step by step",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("no tables available")
			}

			ui.PrintBanner("Query builder", fmt.Sprintf("%d tables available", cat.Len()))

			b := builder.New(nil)
			b.Subscribe(func(_ spec.QuerySpec, sql string) {
				if sql != "" {
					fmt.Println(ui.Muted("  " + sql))
				}
			})

			if err := promptSpec(b, cat); err != nil {
				return err
			}

			s := b.Spec()
			ui.PrintSection("Query")
			if err := rf.show(s); err != nil {
				return err
			}

			run := rf.execute
			if !run {
				if err := survey.AskOne(&survey.Confirm{Message: "Execute now?", Default: true}, &run); err != nil {
					return err
				}
			}
			if run {
				res, err := rf.run(cmd.Context(), a, s)
				if err != nil {
					return err
				}
				ui.PrintResult(res)
			}

			var path string
			if err := survey.AskOne(&survey.Input{Message: "Save spec to file (blank to skip):"}, &path); err != nil {
				return err
			}
			if path = strings.TrimSpace(path); path != "" {
				if err := spec.Save(config.AppFs, path, s); err != nil {
					return err
				}
				ui.PrintSuccess("Saved spec to %s", path)
			}
			return nil
		},
	}

	rf.register(cmd)
	return cmd
}

// promptSpec walks the builder through table, columns, conditions,
// ordering and limit.
func promptSpec(b *builder.Builder, cat *catalog.Catalog) error {
	var table string
	if err := survey.AskOne(&survey.Select{Message: "Table:", Options: cat.Tables()}, &table); err != nil {
		return err
	}
	b.SelectTable(table)

	columns := cat.Columns(table)
	if len(columns) > 0 {
		var picked []string
		if err := survey.AskOne(&survey.MultiSelect{Message: "Columns (none selects *):", Options: columns}, &picked); err != nil {
			return err
		}
		if len(picked) > 0 {
			b.SetColumns(picked...)
		}
	}

	for {
		more := false
		if err := survey.AskOne(&survey.Confirm{Message: "Add a condition?"}, &more); err != nil {
			return err
		}
		if !more {
			break
		}
		c, err := promptCondition(columns)
		if err != nil {
			return err
		}
		b.AddCondition(c)
	}

	if len(columns) > 0 {
		var orderBy string
		opts := append([]string{noneOption}, columns...)
		if err := survey.AskOne(&survey.Select{Message: "Order by:", Options: opts, Default: noneOption}, &orderBy); err != nil {
			return err
		}
		if orderBy != noneOption {
			var dir string
			if err := survey.AskOne(&survey.Select{Message: "Direction:", Options: []string{string(spec.Asc), string(spec.Desc)}}, &dir); err != nil {
				return err
			}
			b.SetOrderBy(orderBy, spec.Direction(dir))
		}
	}

	var limit string
	if err := survey.AskOne(&survey.Input{Message: "Limit (blank for none):"}, &limit); err != nil {
		return err
	}
	if limit = strings.TrimSpace(limit); limit != "" {
		b.SetLimit(limit)
	}
	return nil
}

func promptCondition(columns []string) (spec.Condition, error) {
	var c spec.Condition

	if len(columns) > 0 {
		if err := survey.AskOne(&survey.Select{Message: "Column:", Options: columns}, &c.Column); err != nil {
			return c, err
		}
	} else if err := survey.AskOne(&survey.Input{Message: "Column:"}, &c.Column, survey.WithValidator(survey.Required)); err != nil {
		return c, err
	}

	ops := make([]string, len(spec.Operators))
	for i, op := range spec.Operators {
		ops[i] = string(op)
	}
	var op string
	if err := survey.AskOne(&survey.Select{Message: "Operator:", Options: ops}, &op); err != nil {
		return c, err
	}
	c.Operator = spec.Operator(op)

	switch c.Operator.Class() {
	case spec.ClassNullTest:
		return c, nil
	case spec.ClassList:
		err := survey.AskOne(&survey.Input{Message: "Values (comma separated, quote text):", Help: "1, 2, 'three'"}, &c.Value)
		return c, err
	default:
		err := survey.AskOne(&survey.Input{Message: "Value:"}, &c.Value)
		return c, err
	}
}
