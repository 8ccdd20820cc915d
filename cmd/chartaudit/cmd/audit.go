package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggvfx/precision-color-auditor/pkg/audit"
	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// NewAuditCmd audits a single image, given either as an image file plus
// --corners, or as a job file.
func NewAuditCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [image|job.yaml]",
		Short: "audit one image",
		Long:  "Audits one image. Pass an image and --corners, or a job YAML file that names both.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			qcPrefix, _ := cmd.Flags().GetString("qc")
			if cmd.Flags().Changed("tonemapper") {
				cfg.QCTonemapper, _ = cmd.Flags().GetString("tonemapper")
			}

			job := audit.Job{Filename: args[0], Config: cfg}
			if ext := strings.ToLower(filepath.Ext(args[0])); ext == ".yaml" || ext == ".yml" {
				if job, err = audit.LoadJobFile(args[0], cfg); err != nil {
					return err
				}
			} else {
				cornerStr, _ := cmd.Flags().GetString("corners")
				if job.Corners, err = parseCorners(cornerStr); err != nil {
					return err
				}
			}

			return runAudit(job, qcPrefix)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("corners", "", "chart corners in pixels, clockwise from top-left: \"x,y x,y x,y x,y\"")
	pf.String("qc", "", "write QC images with this filename prefix")
	pf.String("tonemapper", "clip", "how to render the QC overlay, one of "+audit.ListTonemappers())

	return cmd
}

func runAudit(job audit.Job, qcPrefix string) error {
	loaded, err := audit.LoadImage(job.Filename)
	if err != nil {
		return err
	}
	cfg, err := loaded.ResolveSpace(job.Config)
	if err != nil {
		return err
	}

	res, err := audit.Run(loaded.Buffer, job.Corners, cfg)
	res.Name = job.Filename
	if err != nil {
		if res.Record.Patches != nil {
			printRecord(res.Record)
		}
		return err
	}

	for _, w := range res.Signal.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	printRecord(res.Record)
	fmt.Printf("%s\n", res)

	if qcPrefix != "" {
		ch, _ := chart.Lookup(cfg.ChartType)
		if err := audit.WriteQC(res, loaded.Buffer, ch.Layout, cfg, qcPrefix); err != nil {
			return err
		}
	}
	return nil
}

func printRecord(rec audit.Record) {
	fmt.Printf("%-3s %-16s %-4s %8s  %-30s %s\n", "#", "patch", "", "ΔE2000", "sampled", "deviation")
	for _, p := range rec.Patches {
		tag := ""
		if p.Neutral {
			tag = "N"
		}
		if p.DeltaE == nil {
			fmt.Printf("%-3d %-16s %-4s %8s  (%s)\n", p.Index+1, p.Name, tag, "-", p.InvalidReason)
			continue
		}
		fmt.Printf("%-3d %-16s %-4s %8.3f  %-30s %s\n", p.Index+1, p.Name, tag, *p.DeltaE, vecStr(p.Sampled), vecStr(p.Deviation))
	}
}

func vecStr(v emath.Vec3) string {
	return fmt.Sprintf("(%+.4f %+.4f %+.4f)", v[0], v[1], v[2])
}
