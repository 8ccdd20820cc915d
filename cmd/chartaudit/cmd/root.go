package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ggvfx/precision-color-auditor/pkg/audit"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logSink *lumberjack.Logger

	cmd := &cobra.Command{
		Use:   "chartaudit",
		Short: "audit images of color reference charts",
		Long:  "Measures a Macbeth or grayscale chart in an image, reports Delta E 2000 against the reference values, and solves for a CDL that would neutralize the drift.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logFile, _ := cmd.Flags().GetString("log-file")
			if logFile != "" {
				logSink = &lumberjack.Logger{
					Filename:   logFile,
					MaxSize:    10, // megabytes
					MaxBackups: 5,
					MaxAge:     28, // days
				}
				log.SetOutput(io.MultiWriter(os.Stderr, logSink))
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logSink != nil {
				log.SetOutput(os.Stderr)
				logSink.Close()
				logSink = nil
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewAuditCmd(ctx),
		NewBatchCmd(ctx),
		NewChartsCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-file", "", "also log to this file, rotated")
	pf.IntP("verbosity", "v", 0, "how verbose to get")
	pf.String("config", "", "YAML config file")
	pf.String("chart", "", "chart type (see 'charts')")
	pf.String("source-space", "", "color space of the image pixels, or 'auto' to guess from the file")
	pf.String("audit-space", "", "color space to audit in")
	pf.Float64("tolerance", 0, "pass if mean Delta E 2000 is at most this")
	pf.Float64("inset", 0, "fraction of each patch to discard, per side")
	pf.Int("min-valid", 0, "fewest valid patches for a meaningful audit")
	pf.Bool("reorder-corners", false, "accept corners in any order")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// loadConfig reads --config (if any), then applies the flags that were set.
func loadConfig(cmd *cobra.Command) (audit.Config, error) {
	cfg := audit.NewConfig()
	if filename, _ := cmd.Flags().GetString("config"); filename != "" {
		var err error
		if cfg, err = audit.LoadConfig(filename); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("verbosity") {
		cfg.Verbosity, _ = f.GetInt("verbosity")
	}
	if f.Changed("chart") {
		cfg.ChartType, _ = f.GetString("chart")
	}
	if f.Changed("source-space") {
		cfg.SourceColorSpace, _ = f.GetString("source-space")
	}
	if f.Changed("audit-space") {
		cfg.AuditColorSpace, _ = f.GetString("audit-space")
	}
	if f.Changed("tolerance") {
		tol, _ := f.GetFloat64("tolerance")
		cfg.ToleranceDeltaE = audit.Float64(tol)
	}
	if f.Changed("inset") {
		inset, _ := f.GetFloat64("inset")
		cfg.SamplingInsetRatio = audit.Float64(inset)
	}
	if f.Changed("min-valid") {
		cfg.MinValidPatches, _ = f.GetInt("min-valid")
	}
	if f.Changed("reorder-corners") {
		cfg.ReorderCorners, _ = f.GetBool("reorder-corners")
	}

	if cfg.Verbosity > 1 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}
	return cfg, nil
}

// parseCorners reads "x,y x,y x,y x,y", clockwise from top-left.
func parseCorners(s string) (emath.Quad, error) {
	q := emath.Quad{}
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return q, fmt.Errorf("corners: want 4 'x,y' pairs, have %d", len(fields))
	}
	for i, field := range fields {
		xy := strings.Split(field, ",")
		if len(xy) != 2 {
			return q, fmt.Errorf("corners: bad pair %q", field)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return q, fmt.Errorf("corners: %q: %v", field, err)
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return q, fmt.Errorf("corners: %q: %v", field, err)
		}
		q[i] = orb.Point{x, y}
	}
	return q, nil
}
