package cmd

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/entity"
	"github.com/smart715/jobsify/pkg/listing"
	"github.com/smart715/jobsify/pkg/runtime"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/spf13/cobra"
)

// opened is one entity controller along with what was needed to build it.
type opened struct {
	entity  config.Entity
	records *entity.Records
	logger  *runtime.Logger
}

func (o *opened) Close() {
	o.records.Dispose()
	_ = o.logger.Close()
}

// fail turns err into the message the TUI would show, keeping the detail in
// the debug log.
func (o *opened) fail(err error) error {
	o.logger.WithError(err).Debug("request failed")
	return errors.New(db.UserMessage(err))
}

func open(flags *rootFlags, name string) (*opened, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	e, err := cfg.Entity(name)
	if err != nil {
		return nil, errors.Wrapf(err, "known entities are %s", strings.Join(cfg.EntityNames(), ", "))
	}
	logger, err := runtime.NewLogger(cfg, runtime.CLI, flags.Debug)
	if err != nil {
		return nil, err
	}
	deps := entity.Deps{Log: logrus.NewEntry(logger.Logger).WithField("entity", e.Name)}
	client, err := entity.RESTClient(cfg.API, e, deps)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	records, err := entity.NewRecords(e, cfg.UI, client, deps)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	return &opened{entity: e, records: records, logger: logger}, nil
}

func newEntitiesCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the configured entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.ConfigFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range cfg.Entities {
				fmt.Fprintf(out, "%s\t%s\n", e.Name, e.DisplayLabel())
			}
			return nil
		},
	}
}

type listFlags struct {
	Query    string
	Where    []string
	Sort     string
	Page     int
	PageSize int
	Output   string
}

func newListCommand(flags *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list ENTITY",
		Short: "Print one page of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := open(flags, args[0])
			if err != nil {
				return err
			}
			defer o.Close()
			c := o.records

			if err := c.Load(cmd.Context()); err != nil {
				return o.fail(err)
			}
			c.SetQuery(lf.Query)
			for _, w := range lf.Where {
				k, v, ok := strings.Cut(w, "=")
				if !ok {
					return errors.Errorf("--where %q is not key=value", w)
				}
				if err := c.SetEquals(k, v); err != nil {
					return err
				}
			}
			if lf.Sort != "" {
				if err := c.SetSort(listing.ParseSort(lf.Sort)); err != nil {
					return err
				}
			}
			if lf.PageSize != 0 {
				if err := c.SetPageSize(lf.PageSize); err != nil {
					return err
				}
			}
			if lf.Page > 1 {
				c.SetPage(lf.Page - 1)
			}

			v := c.View()
			switch lf.Output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), v)
			case "table", "":
				return writeTable(cmd.OutOrStdout(), c, v)
			}
			return errors.Errorf("unknown output %q", lf.Output)
		},
	}
	cmd.Flags().StringVarP(&lf.Query, "query", "q", "", "filter text, key:value tokens filter a column")
	cmd.Flags().StringArrayVarP(&lf.Where, "where", "w", nil, "only rows where key=value, repeatable")
	cmd.Flags().StringVarP(&lf.Sort, "sort", "s", "", "sort by key, key:desc for descending")
	cmd.Flags().IntVarP(&lf.Page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&lf.PageSize, "page-size", 0, "rows per page, one of 10 25 50")
	cmd.Flags().StringVarP(&lf.Output, "output", "o", "table", "table or json")
	return cmd
}

// parseAssignments reads field=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("%q is not field=value", a)
		}
		out[k] = v
	}
	return out, nil
}

func submit(cmd *cobra.Command, o *opened, fields map[string]string) error {
	c := o.records
	known := map[string]bool{}
	for _, f := range c.Form().Fields() {
		known[f.Name] = true
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		if !known[k] {
			return errors.Errorf("%s has no field %q", o.entity.Name, k)
		}
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		c.SetField(k, fields[k])
	}

	saved, err := c.Submit(cmd.Context())
	if err != nil {
		s := c.Session()
		if len(s.Errors) == 0 {
			return o.fail(err)
		}
		bad := make([]string, 0, len(s.Errors))
		for k := range s.Errors {
			bad = append(bad, k)
		}
		sort.Strings(bad)
		for _, k := range bad {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", k, s.Errors[k])
		}
		return errors.Errorf("%s not saved", strings.ToLower(o.entity.DisplayLabel()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s saved\n", o.entity.DisplayLabel(), c.Identify(saved))
	return nil
}

func newCreateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create ENTITY [field=value...]",
		Short: "Create a record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			o, err := open(flags, args[0])
			if err != nil {
				return err
			}
			defer o.Close()

			o.records.OpenCreate()
			return submit(cmd, o, fields)
		},
	}
}

func newUpdateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update ENTITY ID [field=value...]",
		Short: "Change fields of a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			o, err := open(flags, args[0])
			if err != nil {
				return err
			}
			defer o.Close()

			if err := o.records.Load(cmd.Context()); err != nil {
				return o.fail(err)
			}
			if _, err := o.records.OpenEdit(v1.ID(args[1])); err != nil {
				return err
			}
			return submit(cmd, o, fields)
		},
	}
}

func newDeleteCommand(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ENTITY ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := open(flags, args[0])
			if err != nil {
				return err
			}
			defer o.Close()

			id := v1.ID(args[1])
			label := strings.ToLower(o.entity.DisplayLabel())
			req := o.records.PrepareDelete(id)
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %s %s? (y/N) ", label, id)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(cmd.OutOrStdout(), "Not deleted")
					return nil
				}
			}
			req.Confirm()
			if err := o.records.Delete(cmd.Context(), req); err != nil {
				return o.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", label, id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
