package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mudrockdev/schemadiff/populator"
)

// Exit codes.
const (
	exitOK          = 0
	exitDifferences = 1
	exitFatal       = 2
)

const longHelp = `Compare the structure of two database schemas and print every difference.

A DSN is a comma separated list of key=value parts:
  h  host
  u  user
  p  password
  P  port
  D  database (for sqlite, the database file)
Commas inside values are escaped as "\,".

DSN 1 must name a database. When DSN 2 names none, the schema of DSN 1 is
compared with every database on the DSN 2 server that passes the database
filters.

Exit status is 0 when no difference was found, 1 when there were
differences and 2 on errors.`

func newRootCmd(stdout io.Writer, code *int) *cobra.Command {
	cfg := NewConfig()

	cmd := &cobra.Command{
		Use:   "schemadiff [flags] <dsn1> <dsn2>",
		Short: "Compare the structure of database schemas",
		Long:  longHelp,
		Example: `  schemadiff h=127.0.0.1,u=root,p=secret,D=shop h=10.0.0.2,u=root,p=secret,D=shop
  schemadiff --ignore-tables=shop.sessions h=db1,D=shop h=db2
  schemadiff --driver=sqlite D=a.db D=b.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       loadConfig(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return errors.Trace(err)
			}
			defer log.Sync()
			log.Debug("configuration", zap.Stringer("config", cfg))

			c, err := newComparison(cfg, stdout, log)
			if err != nil {
				return errors.Trace(err)
			}
			found, err := c.run(cmd.Context(), args[0], args[1])
			if err != nil {
				log.Error("comparison failed", zap.String("error", sanitize(err.Error())))
				return err
			}
			if found {
				*code = exitDifferences
			}
			return nil
		},
	}

	cfg.bindPersistentFlags(cmd.PersistentFlags())
	cfg.bindFlags(cmd.Flags())
	cmd.AddCommand(newPopulateCmd(cfg))
	return cmd
}

func newPopulateCmd(cfg *Config) *cobra.Command {
	opts := populator.Options{Rows: 100, Seed: 1}
	variant := populator.VariantA

	cmd := &cobra.Command{
		Use:   "populate <sqlite-file>",
		Short: "Write a SQLite database with a fixture schema",
		Long: "Write a SQLite database with a fixture schema. Variants a and b differ in a\n" +
			"few tables, columns and indexes, which makes them a quick way to try out\n" +
			"the comparison with --driver=sqlite.",
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return errors.Trace(err)
			}
			defer log.Sync()

			opts.Log = log
			return populator.Create(cmd.Context(), args[0], variant, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&variant, "variant", variant, fmt.Sprintf("fixture variant, one of %v", populator.Variants()))
	fs.IntVar(&opts.Rows, "rows", opts.Rows, "rows inserted into every table")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "seed of the generated row data")
	return cmd
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := exitOK
	cmd := newRootCmd(stdout, &code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", sanitize(err.Error()))
		return exitFatal
	}
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
