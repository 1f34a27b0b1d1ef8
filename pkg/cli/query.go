package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nimburion/asyncrepo/pkg/reactive"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

// queryFlags are the table and filter flags shared by the read commands.
type queryFlags struct {
	table    string
	idColumn string
	columns  []string
	where    []string
	orderBy  []string
	output   string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.table, "table", "t", "", "table to read (required)")
	fs.StringVar(&f.idColumn, "id-column", "id", "primary key column")
	fs.StringSliceVar(&f.columns, "columns", nil, "projected columns, all when empty")
	fs.StringArrayVarP(&f.where, "where", "w", nil, "equality filter column=value, repeatable")
	fs.StringArrayVar(&f.orderBy, "order-by", nil, "sort column, suffix :desc for descending, repeatable")
	fs.StringVarP(&f.output, "output", "o", "json", "output format (json, yaml)")
}

// query builds the QueryWrapper described by the flags.
func (f *queryFlags) query() (*repository.QueryWrapper, error) {
	if strings.TrimSpace(f.table) == "" {
		return nil, fmt.Errorf("--table is required")
	}

	q := repository.NewQuery()
	if len(f.columns) > 0 {
		q.Select(f.columns...)
	}
	for _, w := range f.where {
		column, value, ok := strings.Cut(w, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid --where %q (expected column=value)", w)
		}
		q.Where(repository.Eq(column, value))
	}
	for _, o := range f.orderBy {
		column, direction, _ := strings.Cut(o, ":")
		column = strings.TrimSpace(column)
		if column == "" {
			return nil, fmt.Errorf("invalid --order-by %q", o)
		}
		switch strings.ToLower(direction) {
		case "", "asc":
			q.OrderBy(column, false)
		case "desc":
			q.OrderBy(column, true)
		default:
			return nil, fmt.Errorf("invalid --order-by direction %q (expected asc or desc)", direction)
		}
	}
	return q, nil
}

// readCommand wires a read command: it parses the flags, opens the runtime and
// hands run a Row service, the query and a printer.
func readCommand(
	use, short string,
	load configLoader,
	flags *queryFlags,
	run func(ctx context.Context, svc *reactive.Service[repository.Row, any], query *repository.QueryWrapper, p *printer) error,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := flags.query()
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd.OutOrStdout(), flags.output)
			if err != nil {
				return err
			}
			defer p.Close()

			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd, cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(cmd.Context()))

			return run(cmd.Context(), rt.service(flags.table, flags.idColumn), query, p)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newListCommand(load configLoader) *cobra.Command {
	flags := &queryFlags{}
	var limit int64
	cmd := readCommand("list", "Stream the matching rows", load, flags,
		func(ctx context.Context, svc *reactive.Service[repository.Row, any], query *repository.QueryWrapper, p *printer) error {
			if limit > 0 {
				query.Limit(0, limit)
			}
			return svc.List(query).Each(ctx, func(row repository.Row) error {
				return p.Print(row)
			})
		})
	cmd.Flags().Int64Var(&limit, "limit", 0, "maximum number of rows, unbounded when 0")
	return cmd
}

func newPageCommand(load configLoader) *cobra.Command {
	flags := &queryFlags{}
	var (
		number   int64
		size     int64
		noCount  bool
		rawCount bool
	)
	cmd := readCommand("page", "Read one page of the matching rows", load, flags,
		func(ctx context.Context, svc *reactive.Service[repository.Row, any], query *repository.QueryWrapper, p *printer) error {
			page := repository.NewPage[repository.Row](number, size)
			page.RawCount = rawCount

			records, err := svc.Page(page, query, !noCount).Collect(ctx)
			if err != nil {
				return err
			}
			page.Records = records
			if page.Records == nil {
				page.Records = []repository.Row{}
			}
			return p.Print(page)
		})
	cmd.Flags().Int64Var(&number, "page", 1, "page number, starting at 1")
	cmd.Flags().Int64Var(&size, "size", 0, "page size, the configured default when 0")
	cmd.Flags().BoolVar(&noCount, "no-count", false, "skip counting the total rows")
	cmd.Flags().BoolVar(&rawCount, "raw-count", false, "count over the full select instead of the bare filter")
	return cmd
}

type countView struct {
	Count int64 `json:"count" yaml:"count"`
}

func newCountCommand(load configLoader) *cobra.Command {
	return readCommand("count", "Count the matching rows", load, &queryFlags{},
		func(ctx context.Context, svc *reactive.Service[repository.Row, any], query *repository.QueryWrapper, p *printer) error {
			n, err := svc.Count(query).Block(ctx)
			if err != nil {
				return err
			}
			return p.Print(countView{Count: n})
		})
}

type existsView struct {
	Exists bool `json:"exists" yaml:"exists"`
}

func newExistsCommand(load configLoader) *cobra.Command {
	return readCommand("exists", "Report whether any row matches", load, &queryFlags{},
		func(ctx context.Context, svc *reactive.Service[repository.Row, any], query *repository.QueryWrapper, p *printer) error {
			ok, err := svc.Exists(query).Block(ctx)
			if err != nil {
				return err
			}
			return p.Print(existsView{Exists: ok})
		})
}
