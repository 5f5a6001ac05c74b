package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/dbcon"
	"github.com/syssam/dbcon/config"
)

type rootOptions struct {
	ConfigFile string
	Debug      bool
}

// filterOptions are the clauses shared by every subcommand.
type filterOptions struct {
	Where  []string
	Order  []string
	Limit  int
	Offset int
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:           "dbcon",
		Short:         "Run SQL statements built from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "dbcon.yaml", "Path to the connection config file")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Log every statement to stderr")

	cmd.AddCommand(newGetCmd(&opts))
	cmd.AddCommand(newQueryCmd(&opts))
	cmd.AddCommand(newExecCmd(&opts))
	return cmd
}

func addFilterFlags(cmd *cobra.Command, f *filterOptions) {
	cmd.Flags().StringArrayVar(&f.Where, "where", nil, "Equality filter as column=value, repeatable")
	cmd.Flags().StringArrayVar(&f.Order, "order", nil, "Sort column as column[:asc|desc], repeatable")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "Rows to skip, requires --limit")
}

func newGetCmd(root *rootOptions) *cobra.Command {
	var (
		f       filterOptions
		columns string
		groupBy string
	)
	cmd := &cobra.Command{
		Use:   "get TABLE",
		Short: "Select rows from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, root, func(ctx context.Context, db *dbcon.DB) error {
				if columns != "" {
					db.Select(columns)
				}
				if groupBy != "" {
					db.GroupBy(groupBy)
				}
				if err := f.apply(db); err != nil {
					return err
				}
				res, err := db.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), rows(res))
			})
		},
	}
	cmd.Flags().StringVar(&columns, "select", "", "Comma separated columns, each may carry AS alias")
	cmd.Flags().StringVar(&groupBy, "group", "", "Comma separated GROUP BY columns")
	addFilterFlags(cmd, &f)
	return cmd
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	var f filterOptions
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a statement and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, root, func(ctx context.Context, db *dbcon.DB) error {
				if err := f.apply(db); err != nil {
					return err
				}
				res, err := db.Query(ctx, args[0])
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), rows(res))
			})
		},
	}
	addFilterFlags(cmd, &f)
	return cmd
}

func newExecCmd(root *rootOptions) *cobra.Command {
	var f filterOptions
	cmd := &cobra.Command{
		Use:   "exec SQL",
		Short: "Run a statement that returns no rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, root, func(ctx context.Context, db *dbcon.DB) error {
				if err := f.apply(db); err != nil {
					return err
				}
				if err := db.Exec(ctx, args[0]); err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), map[string]int64{
					"rows_affected":  db.RowsAffected(),
					"last_insert_id": db.LastInsertID(),
				})
			})
		},
	}
	addFilterFlags(cmd, &f)
	return cmd
}

func (f filterOptions) apply(db *dbcon.DB) error {
	for _, w := range f.Where {
		col, val, ok := strings.Cut(w, "=")
		if !ok {
			return fmt.Errorf("invalid --where %q, expected column=value", w)
		}
		db.Where(col, val)
	}
	for _, o := range f.Order {
		col, dir, _ := strings.Cut(o, ":")
		db.OrderBy(col, dir)
	}
	switch {
	case f.Offset > 0 && f.Limit == 0:
		return fmt.Errorf("--offset requires --limit")
	case f.Offset > 0:
		db.Limit(f.Limit, f.Offset)
	case f.Limit > 0:
		db.Limit(f.Limit)
	}
	return nil
}

// withDB loads the config, runs fn on a new DB and closes it.
func withDB(cmd *cobra.Command, root *rootOptions, fn func(context.Context, *dbcon.DB) error) (err error) {
	cfg, err := config.Load(root.ConfigFile)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	var opts []dbcon.Option
	if root.Debug {
		level = slog.LevelDebug
		opts = append(opts, dbcon.WithDebug())
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	db := dbcon.New(cfg, append(opts, dbcon.WithLogger(logger))...)
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, db)
}

// rows returns the result rows with keys in column order.
func rows(res *dbcon.Result) []*yaml.Node {
	out := make([]*yaml.Node, 0, res.Len())
	for _, row := range res.Rows() {
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range res.Columns() {
			var k, v yaml.Node
			k.SetString(c)
			if err := v.Encode(row[c]); err != nil {
				v.SetString(fmt.Sprint(row[c]))
			}
			n.Content = append(n.Content, &k, &v)
		}
		out = append(out, n)
	}
	return out
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
