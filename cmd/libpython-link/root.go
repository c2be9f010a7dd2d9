package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	libpython "github.com/contriboss/libpython-go"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LIBPYTHON"

// Flag names, also used as viper keys and LIBPYTHON_* env suffixes.
const (
	flagConfig      = "config"
	flagDescription = "description"
	flagOutDir      = "out-dir"
	flagFormat      = "format"
	flagGoPackage   = "go-package"
	flagOutput      = "output"
	flagTmpDir      = "tmp-dir"
	flagMetricsFile = "metrics-file"
	flagVerbosity   = "verbosity"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "libpython-link",
		Short: "Build a static libpython for embedding and print its link directives",
		Long: `Compiles the inittab for the described built-in extensions, archives the
Python object files into a static library and prints the ordered linker
directives the final executable link must apply.

Host, target and optimization level missing from the description are taken
from the HOST, TARGET and OPT_LEVEL environment variables.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	addFlags(cmd.Flags())

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func addFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, "", "Config file providing defaults for these flags.")
	flags.StringP(flagDescription, "d", "", "Build description file (YAML or JSON).")
	flags.StringP(flagOutDir, "o", "", "Directory receiving the static libraries.")
	flags.StringP(flagFormat, "f", string(libpython.FormatCargo), "Directive format: cargo, ldflags or cgo.")
	flags.String(flagGoPackage, "main", "Package name of the generated file for --format=cgo.")
	flags.String(flagOutput, "", "Write directives to this file instead of stdout.")
	flags.String(flagTmpDir, "", "Base directory for the temporary staging directory.")
	flags.String(flagMetricsFile, "", "Write Prometheus metrics in textfile format to this file.")
	flags.StringP(flagVerbosity, "v", "info", "Log level (debug, info, warn, error, fatal, panic).")
}

func setup(cmd *cobra.Command, v *viper.Viper) error {
	if cfg := v.GetString(flagConfig); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s failed: %w", cfg, err)
		}
	}

	lvl, err := log.ParseLevel(v.GetString(flagVerbosity))
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	setupLogOutput(cmd.ErrOrStderr())
	return nil
}

// setupLogOutput enables colored logs only when stderr is a terminal.
func setupLogOutput(w io.Writer) {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		log.SetOutput(w)
		log.SetFormatter(&log.TextFormatter{DisableColors: true})
		return
	}
	log.SetOutput(colorable.NewColorable(f))
	log.SetFormatter(&log.TextFormatter{ForceColors: true})
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	descPath := v.GetString(flagDescription)
	if descPath == "" {
		return fmt.Errorf("--%s is required", flagDescription)
	}
	outDir := v.GetString(flagOutDir)
	if outDir == "" {
		return fmt.Errorf("--%s is required", flagOutDir)
	}

	format := libpython.DirectiveFormat(v.GetString(flagFormat))
	switch format {
	case libpython.FormatCargo, libpython.FormatLDFlags, libpython.FormatCgo:
	default:
		return fmt.Errorf("unknown directive format %q", format)
	}

	desc, err := libpython.LoadBuildDescription(descPath)
	if err != nil {
		return err
	}

	pc := desc.PlatformContext()
	if err := pc.ApplyDefaults(libpython.PlatformContextFromEnv()); err != nil {
		return err
	}

	var metrics *libpython.Metrics
	metricsFile := v.GetString(flagMetricsFile)
	if metricsFile != "" {
		metrics = libpython.NewMetrics()
	}

	result, err := libpython.LinkLibpython(cmd.Context(), desc.BuildContext(), pc, outDir, libpython.Options{
		Logger:     log.NewEntry(log.StandardLogger()),
		TmpBaseDir: v.GetString(flagTmpDir),
		Metrics:    metrics,
	})

	if metrics != nil {
		if merr := metrics.WriteTextfile(metricsFile); merr != nil {
			log.WithError(merr).Warn("failed to write metrics")
		}
	}
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), v.GetString(flagOutput), func(w io.Writer) error {
		return libpython.WriteDirectives(w, result.Directives, format, v.GetString(flagGoPackage))
	})
}

func writeOutput(stdout io.Writer, path string, write func(w io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
