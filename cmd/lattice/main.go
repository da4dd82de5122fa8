package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/arrowio"
	"github.com/latticedata/lattice/pkg/compress"
	"github.com/latticedata/lattice/pkg/config"
	"github.com/latticedata/lattice/pkg/display"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/ingest"
	"github.com/latticedata/lattice/pkg/join"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/reshape"
	"github.com/latticedata/lattice/pkg/vector"
	"github.com/latticedata/lattice/pkg/window"
)

var version = "0.1.0"

// engineCfg is resolved once in the root PersistentPreRunE: defaults, then
// the --config file, then flag/env overrides bound through viper.
var engineCfg = config.Default()

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "lattice",
		Short: "Lattice - in-memory columnar frame engine",
		Long: `Lattice is an in-memory, column-oriented tabular data engine.
It reads frames from CSV, JSON and Arrow IPC files, runs relational and
reshaping operators over them (join, pivot, melt, rolling windows) and writes
the result back out in any supported format.`,
	}

	root.PersistentFlags().String("config", "", "Path to engine configuration YAML file (optional)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-encoding", "", "Log encoding (json, console)")

	_ = viper.BindPFlags(root.PersistentFlags())
	viper.SetEnvPrefix("LATTICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initEngine()
	}

	root.AddCommand(
		newVersionCmd(),
		newDescribeCmd(),
		newJoinCmd(),
		newPivotCmd(),
		newMeltCmd(),
		newRollCmd(),
		newConvertCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initEngine resolves the engine configuration and initializes the global
// logger. Flag and LATTICE_* environment overrides win over the config file.
func initEngine() error {
	if path := viper.GetString("config"); path != "" {
		if err := config.Load(path, engineCfg); err != nil {
			return err
		}
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		engineCfg.Logging.Level = lvl
	}
	if enc := viper.GetString("log-encoding"); enc != "" {
		engineCfg.Logging.Encoding = enc
	}
	if err := engineCfg.Validate(); err != nil {
		return err
	}
	return logger.Init(logger.Config{
		Level:       engineCfg.Logging.Level,
		Encoding:    engineCfg.Logging.Encoding,
		Development: engineCfg.Logging.Development,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Lattice v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newDescribeCmd() *cobra.Command {
	var input, format, codec string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Summarize the numeric columns of a frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readFrame(cmd.Context(), input, format, codec)
			if err != nil {
				return err
			}
			stats, err := f.Describe()
			if err != nil {
				return err
			}
			fmt.Printf("columns: %s\n", strings.Join(dtypeTags(f), ", "))
			return display.Render(os.Stdout, stats, displayOpts(false))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input frame file (required)")
	_ = cmd.MarkFlagRequired("input")
	addFormatFlags(cmd, &format, &codec)
	return cmd
}

func newJoinCmd() *cobra.Command {
	var left, right, kindName, suffix, output, codec string
	var on []string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Hash equi-join two frames on key columns",
		Long: `Join two frames on one or more key columns. Kinds: inner, left,
right, outer. Colliding non-key column names from the right frame are
renamed with the suffix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := join.ParseKind(kindName)
			if err != nil {
				return err
			}
			lf, err := readFrame(ctx, left, "", codec)
			if err != nil {
				return fmt.Errorf("left frame: %w", err)
			}
			rf, err := readFrame(ctx, right, "", codec)
			if err != nil {
				return fmt.Errorf("right frame: %w", err)
			}

			start := time.Now()
			out, err := join.Join(ctx, lf, rf, join.Options{
				Kind:   kind,
				On:     on,
				Suffix: suffix,
			})
			if err != nil {
				return err
			}
			logger.Op("cli.join").Info("join completed",
				zap.String("kind", kindName),
				zap.Int("rows", out.RowCount()),
				zap.Duration("duration", time.Since(start)))
			return emit(ctx, out, output, codec)
		},
	}

	cmd.Flags().StringVarP(&left, "left", "l", "", "Left frame file (required)")
	cmd.Flags().StringVarP(&right, "right", "r", "", "Right frame file (required)")
	cmd.Flags().StringSliceVar(&on, "on", nil, "Key columns shared by both frames (required)")
	cmd.Flags().StringVarP(&kindName, "kind", "k", "inner", "Join kind (inner, left, right, outer)")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix for colliding right columns (default \"_right\")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; prints a table when omitted")
	cmd.Flags().StringVar(&codec, "codec", "", "Compression codec for Arrow files (none, gzip, snappy, s2, lz4, zstd)")
	_ = cmd.MarkFlagRequired("left")
	_ = cmd.MarkFlagRequired("right")
	_ = cmd.MarkFlagRequired("on")
	return cmd
}

func newPivotCmd() *cobra.Command {
	var input, value, output, codec string
	var index, columns, aggs []string

	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Spread a long frame into a wide one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := readFrame(ctx, input, "", codec)
			if err != nil {
				return err
			}
			out, err := reshape.Pivot(ctx, f, reshape.PivotOptions{
				Index:   index,
				Columns: columns,
				Value:   value,
				Aggs:    aggs,
			})
			if err != nil {
				return err
			}
			logger.Op("cli.pivot").Info("pivot completed",
				zap.Int("rows", out.RowCount()),
				zap.Int("cols", out.NumCols()))
			return emit(ctx, out, output, codec)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input frame file (required)")
	cmd.Flags().StringSliceVar(&index, "index", nil, "Index columns forming row identity (required)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Pivot columns spread into output columns (required)")
	cmd.Flags().StringVar(&value, "value", "", "Numeric column to aggregate (required)")
	cmd.Flags().StringSliceVar(&aggs, "agg", nil, "Aggregations to apply (sum, mean, min, max, median, count, std, var, first, last)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; prints a table when omitted")
	cmd.Flags().StringVar(&codec, "codec", "", "Compression codec for Arrow files")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("index")
	_ = cmd.MarkFlagRequired("columns")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newMeltCmd() *cobra.Command {
	var input, varName, valueName, output, codec string
	var idVars, valueVars []string

	cmd := &cobra.Command{
		Use:   "melt",
		Short: "Unpivot a wide frame into long form",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := readFrame(ctx, input, "", codec)
			if err != nil {
				return err
			}
			out, err := reshape.Melt(ctx, f, reshape.MeltOptions{
				IDVars:    idVars,
				ValueVars: valueVars,
				VarName:   varName,
				ValueName: valueName,
			})
			if err != nil {
				return err
			}
			logger.Op("cli.melt").Info("melt completed",
				zap.Int("rows", out.RowCount()))
			return emit(ctx, out, output, codec)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input frame file (required)")
	cmd.Flags().StringSliceVar(&idVars, "id-vars", nil, "Columns carried through unchanged")
	cmd.Flags().StringSliceVar(&valueVars, "value-vars", nil, "Columns to unpivot (default: all non-id columns)")
	cmd.Flags().StringVar(&varName, "var-name", "", "Name of the variable column (default \"variable\")")
	cmd.Flags().StringVar(&valueName, "value-name", "", "Name of the value column (default \"value\")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; prints a table when omitted")
	cmd.Flags().StringVar(&codec, "codec", "", "Compression codec for Arrow files")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newRollCmd() *cobra.Command {
	var input, column, aggName, as, output, codec string
	var windowSize, minPeriods int
	var center bool

	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Compute a rolling aggregate over a numeric column",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := readFrame(ctx, input, "", codec)
			if err != nil {
				return err
			}
			result, err := window.Rolling(ctx, f, window.RollingOptions{
				Column:     column,
				Window:     windowSize,
				Agg:        aggName,
				Center:     center,
				MinPeriods: minPeriods,
			})
			if err != nil {
				return err
			}
			name := as
			if name == "" {
				agg := aggName
				if agg == "" {
					agg = "mean"
				}
				name = column + "_" + agg
			}
			out, err := f.WithColumn(name, result)
			if err != nil {
				return err
			}
			logger.Op("cli.roll").Info("rolling aggregate completed",
				zap.String("column", column),
				zap.Int("window", windowSize))
			return emit(ctx, out, output, codec)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input frame file (required)")
	cmd.Flags().StringVarP(&column, "column", "c", "", "Numeric column to roll over (required)")
	cmd.Flags().IntVarP(&windowSize, "window", "w", 0, "Rows per window (required)")
	cmd.Flags().StringVar(&aggName, "agg", "mean", "Window aggregation (sum, mean, min, max, median, count, std, var, first, last)")
	cmd.Flags().BoolVar(&center, "center", false, "Center each window on its row")
	cmd.Flags().IntVar(&minPeriods, "min-periods", 0, "Minimum non-null values per window (default: window size)")
	cmd.Flags().StringVar(&as, "as", "", "Name for the result column (default <column>_<agg>)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; prints a table when omitted")
	cmd.Flags().StringVar(&codec, "codec", "", "Compression codec for Arrow files")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("window")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var input, output, inputFormat, outputFormat, codec string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a frame between CSV, JSON and Arrow IPC",
		Long: `Convert a frame from one interchange format to another. Formats are
inferred from file extensions (.csv, .json, .ndjson/.jsonl, .arrow/.feather/
.ipc) unless overridden. Arrow payloads may be compressed with --codec.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := readFrame(ctx, input, inputFormat, codec)
			if err != nil {
				return err
			}
			start := time.Now()
			if err := writeFrame(ctx, output, f, outputFormat, codec); err != nil {
				return err
			}
			logger.Op("cli.convert").Info("conversion completed",
				zap.String("input", input),
				zap.String("output", output),
				zap.Int("rows", f.RowCount()),
				zap.Duration("duration", time.Since(start)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input frame file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output frame file (required)")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Override input format (csv, json, lines, arrow)")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "Override output format (csv, json, lines, arrow)")
	cmd.Flags().StringVar(&codec, "codec", "", "Compression codec for Arrow files (none, gzip, snappy, s2, lz4, zstd)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// addFormatFlags attaches the shared --format/--codec pair used by commands
// that read a single input.
func addFormatFlags(cmd *cobra.Command, format, codec *string) {
	cmd.Flags().StringVar(format, "format", "", "Override input format (csv, json, lines, arrow)")
	cmd.Flags().StringVar(codec, "codec", "", "Compression codec for Arrow files (none, gzip, snappy, s2, lz4, zstd)")
}

func vectorOpts() vector.Options {
	return vector.Options{
		PreferArrow: engineCfg.Vector.PreferArrow,
		NeverArrow:  engineCfg.Vector.NeverArrow,
		SampleSize:  engineCfg.Vector.SampleSize,
	}
}

func displayOpts(showDtypes bool) display.Options {
	return display.Options{
		MaxRows:     engineCfg.Display.MaxRows,
		MaxColWidth: engineCfg.Display.MaxColWidth,
		ShowDtypes:  showDtypes,
	}
}

// detectFormat resolves a frame file format from an override or the file
// extension.
func detectFormat(path, override string) (string, error) {
	if override != "" {
		switch override {
		case "csv", "json", "lines", "arrow":
			return override, nil
		default:
			return "", fmt.Errorf("unknown format %q (want csv, json, lines or arrow)", override)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv", nil
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "lines", nil
	case ".arrow", ".feather", ".ipc":
		return "arrow", nil
	default:
		return "", fmt.Errorf("cannot infer format of %q; pass an explicit format flag", path)
	}
}

// resolveCodec picks the effective Arrow payload codec: the flag when given,
// the config default otherwise.
func resolveCodec(flag string) (compress.Codec, error) {
	name := flag
	if name == "" {
		name = engineCfg.Compress.Codec
	}
	return compress.ParseCodec(name)
}

func readFrame(ctx context.Context, path, format, codec string) (*frame.Frame, error) {
	kind, err := detectFormat(path, format)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "csv":
		return ingest.ReadCSVFile(ctx, path, ingest.CSVOptions{Vector: vectorOpts()})
	case "json":
		return ingest.ReadJSONFile(ctx, path, ingest.JSONOptions{Format: ingest.JSONArray, Vector: vectorOpts()})
	case "lines":
		return ingest.ReadJSONFile(ctx, path, ingest.JSONOptions{Format: ingest.JSONLines, Vector: vectorOpts()})
	default: // arrow
		c, err := resolveCodec(codec)
		if err != nil {
			return nil, err
		}
		in, err := os.Open(path) //nolint:gosec // G304: path comes from the CLI user
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer in.Close() //nolint:errcheck // read-only descriptor
		return arrowio.Read(ctx, in, arrowio.Options{
			Codec: c,
			Level: compress.Level(engineCfg.Compress.Level),
		})
	}
}

func writeFrame(ctx context.Context, path string, f *frame.Frame, format, codec string) error {
	kind, err := detectFormat(path, format)
	if err != nil {
		return err
	}
	switch kind {
	case "csv":
		return ingest.WriteCSVFile(ctx, path, f, ingest.CSVOptions{})
	case "json":
		return ingest.WriteJSONFile(ctx, path, f, ingest.JSONOptions{Format: ingest.JSONArray})
	case "lines":
		return ingest.WriteJSONFile(ctx, path, f, ingest.JSONOptions{Format: ingest.JSONLines})
	default: // arrow
		c, err := resolveCodec(codec)
		if err != nil {
			return err
		}
		out, err := os.Create(path) //nolint:gosec // G304: path comes from the CLI user
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := arrowio.Write(ctx, out, f, arrowio.Options{
			Codec: c,
			Level: compress.Level(engineCfg.Compress.Level),
		}); err != nil {
			out.Close() //nolint:errcheck,gosec // already failing
			return err
		}
		return out.Close()
	}
}

// emit writes the frame to a file, or renders it to stdout when no output
// path was given.
func emit(ctx context.Context, f *frame.Frame, path, codec string) error {
	if path == "" {
		return display.Render(os.Stdout, f, displayOpts(false))
	}
	return writeFrame(ctx, path, f, "", codec)
}

// dtypeTags renders "name (dtype)" pairs in column order for describe.
func dtypeTags(f *frame.Frame) []string {
	dtypes := f.Dtypes()
	out := make([]string, 0, f.NumCols())
	for _, name := range f.Names() {
		out = append(out, name+" ("+dtypes[name]+")")
	}
	return out
}
