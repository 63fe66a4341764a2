// Package main contains the cli implementation of the tool. It uses the
// cobra package for cli tool implementation, the same way the teacher's
// own command-line entrypoint is built.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inibase"
	"inibase/internal/importsql"
	"inibase/internal/importsql/mysqlsrc"
	"inibase/internal/importsql/sqlitesrc"
	"inibase/internal/output"
	"inibase/internal/query"
	"inibase/internal/schema"
)

type rootFlags struct {
	dbRoot string
	format string
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "inibase",
		Short: "Serverless, file-based relational store",
	}
	rootCmd.PersistentFlags().StringVar(&flags.dbRoot, "db", "./db", "database root directory")
	rootCmd.PersistentFlags().StringVarP(&flags.format, "format", "f", "", "output format: table, json, or summary")

	rootCmd.AddCommand(
		createTableCmd(flags),
		getTableCmd(flags),
		updateTableCmd(flags),
		getCmd(flags),
		postCmd(flags),
		putCmd(flags),
		deleteCmd(flags),
		sumCmd(flags),
		maxCmd(flags),
		minCmd(flags),
		clearCacheCmd(flags),
		importDDLCmd(flags),
		importMySQLCmd(flags),
		importSQLiteCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openEngine(flags *rootFlags) (*inibase.Engine, error) {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	return inibase.Open(flags.dbRoot, log)
}

func formatterFor(flags *rootFlags) (output.Formatter, error) {
	return output.NewFormatter(flags.format)
}

type tableFlags struct {
	schemaFile  string
	compression bool
	cache       bool
	prepend     bool
	rename      string
}

func createTableCmd(flags *rootFlags) *cobra.Command {
	tf := &tableFlags{}
	cmd := &cobra.Command{
		Use:   "createtable <name>",
		Short: "Create a table from a JSON schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fields, err := readSchemaFile(tf.schemaFile)
			if err != nil {
				return err
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			return e.CreateTable(args[0], fields, inibase.TableConfig{
				Compression: tf.compression, Cache: tf.cache, Prepend: tf.prepend,
			})
		},
	}
	bindTableFlags(cmd, tf, true)
	return cmd
}

func getTableCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gettable <name>",
		Short: "Show a table's schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			fields, _, err := e.GetTable(args[0])
			if err != nil {
				return err
			}
			formatter, err := formatterFor(flags)
			if err != nil {
				return err
			}
			out, err := formatter.FormatSchema(args[0], fields)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	return cmd
}

func updateTableCmd(flags *rootFlags) *cobra.Command {
	tf := &tableFlags{}
	cmd := &cobra.Command{
		Use:   "updatetable <name>",
		Short: "Replace a table's schema and/or config flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fields, err := readSchemaFile(tf.schemaFile)
			if err != nil {
				return err
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			return e.UpdateTable(args[0], fields, inibase.TableConfig{
				Compression: tf.compression, Cache: tf.cache, Prepend: tf.prepend, Name: tf.rename,
			})
		},
	}
	bindTableFlags(cmd, tf, false)
	cmd.Flags().StringVar(&tf.rename, "rename", "", "rename the table to this name")
	return cmd
}

func bindTableFlags(cmd *cobra.Command, tf *tableFlags, required bool) {
	cmd.Flags().StringVarP(&tf.schemaFile, "schema", "s", "", "path to a JSON schema file")
	cmd.Flags().BoolVar(&tf.compression, "compression", false, "store columns gzip-compressed")
	cmd.Flags().BoolVar(&tf.cache, "cache", false, "cache sorted line orders under .cache/")
	cmd.Flags().BoolVar(&tf.prepend, "prepend", false, "store new records at the head of each column")
	if required {
		_ = cmd.MarkFlagRequired("schema")
	}
}

func readSchemaFile(path string) (schema.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	var fields schema.Schema
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	return fields, nil
}

type queryFlags struct {
	where   string
	sort    string
	page    int
	perPage int
	columns string
}

func getCmd(flags *rootFlags) *cobra.Command {
	qf := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Query records from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			where, err := parseJSONArg(qf.where)
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}
			var sort any
			if qf.sort != "" {
				if sort, err = parseJSONArg(qf.sort); err != nil {
					return fmt.Errorf("--sort: %w", err)
				}
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			opts := inibase.Options{
				Page: qf.page, PerPage: qf.perPage,
				Columns: splitCSV(qf.columns), Sort: sort,
			}
			records, page, err := e.Get(args[0], where, opts)
			if err != nil {
				return err
			}
			return printRecords(flags, records, page)
		},
	}
	bindQueryFlags(cmd, qf)
	return cmd
}

func bindQueryFlags(cmd *cobra.Command, qf *queryFlags) {
	cmd.Flags().StringVarP(&qf.where, "where", "w", "", "JSON where clause: a value, a {key: value} object, or an id/array of ids")
	cmd.Flags().StringVar(&qf.sort, "sort", "", "JSON sort spec: a column, array of columns, or {column: \"asc\"|\"desc\"} map")
	cmd.Flags().IntVar(&qf.page, "page", 1, "page number")
	cmd.Flags().IntVar(&qf.perPage, "per-page", 15, "records per page")
	cmd.Flags().StringVar(&qf.columns, "columns", "", "comma-separated columns to include (prefix with ! to exclude)")
}

func printRecords(flags *rootFlags, records []map[string]any, page query.PageInfo) error {
	formatter, err := formatterFor(flags)
	if err != nil {
		return err
	}
	out, err := formatter.FormatRecords(records, page)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

type writeFlags struct {
	data      string
	where     string
	returnRec bool
}

func postCmd(flags *rootFlags) *cobra.Command {
	wf := &writeFlags{}
	cmd := &cobra.Command{
		Use:   "post <name>",
		Short: "Insert one or more records",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			records, err := parseRecords(wf.data)
			if err != nil {
				return fmt.Errorf("--data: %w", err)
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			posted, err := e.Post(context.Background(), args[0], records, wf.returnRec)
			if err != nil {
				return err
			}
			if wf.returnRec {
				return printRecords(flags, posted, query.PageInfo{Page: 1, PerPage: len(posted), Total: len(posted), TotalPages: 1})
			}
			fmt.Printf("posted %d record(s)\n", len(records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&wf.data, "data", "d", "", "JSON record or array of records")
	cmd.Flags().BoolVarP(&wf.returnRec, "return", "r", false, "print the posted records")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func putCmd(flags *rootFlags) *cobra.Command {
	wf := &writeFlags{}
	cmd := &cobra.Command{
		Use:   "put <name>",
		Short: "Update records matching a where clause",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var data map[string]any
			if err := json.Unmarshal([]byte(wf.data), &data); err != nil {
				return fmt.Errorf("--data: %w", err)
			}
			where, err := parseJSONArg(wf.where)
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			updated, err := e.Put(context.Background(), args[0], data, where, wf.returnRec)
			if err != nil {
				return err
			}
			if wf.returnRec {
				return printRecords(flags, updated, query.PageInfo{Page: 1, PerPage: len(updated), Total: len(updated), TotalPages: 1})
			}
			fmt.Println("update applied")
			return nil
		},
	}
	cmd.Flags().StringVarP(&wf.data, "data", "d", "", "JSON object of fields to update")
	cmd.Flags().StringVarP(&wf.where, "where", "w", "", "JSON where clause (defaults to data.id)")
	cmd.Flags().BoolVarP(&wf.returnRec, "return", "r", false, "print the updated records")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func deleteCmd(flags *rootFlags) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete records matching a where clause (omit --where to delete all)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			w, err := parseJSONArg(where)
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			if err := e.Delete(context.Background(), args[0], w); err != nil {
				return err
			}
			fmt.Println("delete applied")
			return nil
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "JSON where clause")
	return cmd
}

func aggregateCmd(use, short string, run func(e *inibase.Engine, table string, cols []string) (map[string]float64, error)) func(*rootFlags) *cobra.Command {
	return func(flags *rootFlags) *cobra.Command {
		var columns string
		cmd := &cobra.Command{
			Use:   use + " <name>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				e, err := openEngine(flags)
				if err != nil {
					return err
				}
				result, err := run(e, args[0], splitCSV(columns))
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			},
		}
		cmd.Flags().StringVarP(&columns, "columns", "c", "", "comma-separated numeric columns")
		_ = cmd.MarkFlagRequired("columns")
		return cmd
	}
}

func sumCmd(flags *rootFlags) *cobra.Command {
	return aggregateCmd("sum", "Sum one or more numeric columns", (*inibase.Engine).Sum)(flags)
}

func maxCmd(flags *rootFlags) *cobra.Command {
	return aggregateCmd("max", "Find the maximum of one or more numeric columns", (*inibase.Engine).Max)(flags)
}

func minCmd(flags *rootFlags) *cobra.Command {
	return aggregateCmd("min", "Find the minimum of one or more numeric columns", (*inibase.Engine).Min)(flags)
}

func clearCacheCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clearcache <name>",
		Short: "Invalidate a table's cached sort orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			return e.ClearCache(args[0])
		},
	}
	return cmd
}

func parseJSONArg(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s, nil
	}
	return v, nil
}

func parseRecords(s string) ([]map[string]any, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var recs []map[string]any
		if err := json.Unmarshal([]byte(s), &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, err
	}
	return []map[string]any{rec}, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func importDDLCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ddl <schema.sql>",
		Short: "Create tables from CREATE TABLE statements in a SQL dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			tables, err := importsql.FromDDL(string(data))
			if err != nil {
				return err
			}
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			for name, fields := range tables {
				if err := e.CreateTable(name, fields, inibase.TableConfig{}); err != nil {
					return fmt.Errorf("import-ddl: create table %s: %w", name, err)
				}
				fmt.Printf("created table %s (%d fields)\n", name, len(fields))
			}
			return nil
		},
	}
	return cmd
}

func importMySQLCmd(flags *rootFlags) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import-mysql <table>",
		Short: "Import a table and its rows from a live MySQL database",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fields, rows, err := mysqlsrc.Import(context.Background(), dsn, args[0])
			if err != nil {
				return err
			}
			return createAndLoad(flags, args[0], fields, rows)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "MySQL data source name (required)")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func importSQLiteCmd(flags *rootFlags) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import-sqlite <table>",
		Short: "Import a table and its rows from a SQLite database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fields, rows, err := sqlitesrc.Import(context.Background(), path, args[0])
			if err != nil {
				return err
			}
			return createAndLoad(flags, args[0], fields, rows)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "path to the SQLite database file (required)")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func createAndLoad(flags *rootFlags, table string, fields schema.Schema, rows []map[string]any) error {
	e, err := openEngine(flags)
	if err != nil {
		return err
	}
	if err := e.CreateTable(table, fields, inibase.TableConfig{}); err != nil {
		return fmt.Errorf("import: create table %s: %w", table, err)
	}
	if len(rows) > 0 {
		if _, err := e.Post(context.Background(), table, rows, false); err != nil {
			return fmt.Errorf("import: load rows into %s: %w", table, err)
		}
	}
	fmt.Printf("imported table %s: %d fields, %d rows\n", table, len(fields), len(rows))
	return nil
}
