package audit

import (
	"fmt"
	"log"
	"sort"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A PatchRecord is the audit of one patch. Invalid patches keep a row, with
// a nil DeltaE, so reports can show which physical patches failed.
type PatchRecord struct {
	Index         int
	Name          string
	Neutral       bool
	Valid         bool
	InvalidReason string

	Sampled      emath.Vec3 // audit space
	SampledLab   emath.Vec3
	Reference    emath.Vec3 // audit space
	ReferenceLab emath.Vec3
	DeltaE       *float64
	Deviation    emath.Vec3 // Sampled - Reference, audit space
}

// A Record is the audit of a whole chart. Aggregates cover valid patches only.
type Record struct {
	Chart      string
	AuditSpace ecolor.Space
	Patches    []PatchRecord

	MeanDeltaE   float64
	MaxDeltaE    float64
	WorstPatch   int // -1 if nothing was valid
	ValidCount   int
	InvalidCount int
	Neutrals     []int // The patches treated as neutral

	Tolerance float64
	Pass      bool
}

func (r Record) String() string {
	verdict := "FAIL"
	if r.Pass {
		verdict = "PASS"
	}
	return fmt.Sprintf("audit[%s in %s: %s meanΔE=%.3f maxΔE=%.3f (worst #%d), valid %d/%d, tol %.2f]",
		r.Chart, r.AuditSpace, verdict, r.MeanDeltaE, r.MaxDeltaE, r.WorstPatch+1,
		r.ValidCount, r.ValidCount+r.InvalidCount, r.Tolerance)
}

// How many patches to treat as neutral when a layout doesn't say
const fallbackNeutralCount = 6

// Audit compares the samples (already normalized into the audit space)
// with the reference values. It returns an InsufficientDataError, holding
// the partial record, if too few patches (or too few neutrals) are valid.
func Audit(samples []PatchSample, layout chart.Layout, ref chart.Reference, tr ecolor.Transformer, cfg Config) (Record, error) {
	tol, err := cfg.Tolerance()
	if err != nil {
		return Record{}, err
	}
	space, err := ecolor.ParseSpace(cfg.AuditColorSpace)
	if err != nil {
		return Record{}, err
	}
	if len(samples) != len(layout.Patches) || len(ref.Lab) != len(layout.Patches) {
		return Record{}, fmt.Errorf("audit: %d samples and %d references for %d patches",
			len(samples), len(ref.Lab), len(layout.Patches))
	}

	rec := Record{
		Chart:      layout.Name,
		AuditSpace: space,
		WorstPatch: -1,
		Tolerance:  tol,
	}

	sum := 0.0
	for i, s := range samples {
		pr := PatchRecord{
			Index:         i,
			Name:          layout.Patches[i].Name,
			Valid:         s.Valid,
			InvalidReason: s.InvalidReason,
			ReferenceLab:  ref.Lab[i],
		}
		if pr.Reference, err = tr.Transform(ref.Lab[i], ecolor.LabD50, space); err != nil {
			return Record{}, fmt.Errorf("audit reference %d: %w", i, err)
		}

		if s.Valid {
			if s.Space != space {
				return Record{}, fmt.Errorf("audit: patch %d is in %s, not the audit space %s", i, s.Space, space)
			}
			pr.Sampled = s.Mean
			if pr.SampledLab, err = tr.Transform(s.Mean, space, ecolor.LabD50); err != nil {
				return Record{}, fmt.Errorf("audit sample %d: %w", i, err)
			}
			de := DeltaE2000(pr.SampledLab, pr.ReferenceLab)
			pr.DeltaE = &de
			pr.Deviation = pr.Sampled.Sub(pr.Reference)

			sum += de
			rec.ValidCount++
			if de > rec.MaxDeltaE || rec.WorstPatch < 0 {
				rec.MaxDeltaE = de
				rec.WorstPatch = i
			}
		} else {
			rec.InvalidCount++
		}

		rec.Patches = append(rec.Patches, pr)
	}

	if rec.ValidCount > 0 {
		rec.MeanDeltaE = sum / float64(rec.ValidCount)
	}
	rec.Pass = rec.ValidCount > 0 && rec.MeanDeltaE <= tol

	rec.Neutrals = append([]int{}, layout.Neutrals...)
	if len(rec.Neutrals) == 0 {
		rec.Neutrals = leastSaturated(rec.Patches, fallbackNeutralCount)
		if cfg.Verbosity > 0 {
			log.Printf("layout %s has no neutrals, using least saturated patches %v\n", layout.Name, rec.Neutrals)
		}
	}
	validNeutrals := 0
	for _, n := range rec.Neutrals {
		rec.Patches[n].Neutral = true
		if rec.Patches[n].Valid {
			validNeutrals++
		}
	}

	switch {
	case rec.ValidCount < cfg.MinValidPatches:
		rec.Pass = false
		return rec, &InsufficientDataError{
			Reason:  fmt.Sprintf("%d valid patches, need %d", rec.ValidCount, cfg.MinValidPatches),
			Samples: samples,
			Partial: &rec,
		}
	case validNeutrals < cfg.MinNeutralPatches:
		rec.Pass = false
		return rec, &InsufficientDataError{
			Reason:  fmt.Sprintf("%d valid neutral patches, need %d", validNeutrals, cfg.MinNeutralPatches),
			Samples: samples,
			Partial: &rec,
		}
	}

	return rec, nil
}

// leastSaturated picks the n valid patches with the smallest spread
// between their max and min channels.
func leastSaturated(patches []PatchRecord, n int) []int {
	idx := []int{}
	for _, p := range patches {
		if p.Valid {
			idx = append(idx, p.Index)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return patches[idx[i]].Sampled.MaxMinSpread() < patches[idx[j]].Sampled.MaxMinSpread()
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	sort.Ints(idx)
	return idx
}

// NeutralPairs returns the sampled and reference values (audit space) of
// the valid neutral patches, ready for the CDL solver.
func (r Record) NeutralPairs() ([]emath.Vec3, []emath.Vec3) {
	sampled, refs := []emath.Vec3{}, []emath.Vec3{}
	for _, n := range r.Neutrals {
		if p := r.Patches[n]; p.Valid {
			sampled = append(sampled, p.Sampled)
			refs = append(refs, p.Reference)
		}
	}
	return sampled, refs
}
