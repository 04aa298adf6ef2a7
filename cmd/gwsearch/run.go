package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/transform"
	"github.com/cwbudde/algo-cbc/dsp/waveform"
	"github.com/cwbudde/algo-cbc/internal/config"
	"github.com/cwbudde/algo-cbc/internal/logging"
	"github.com/cwbudde/algo-cbc/internal/synth"
	"github.com/cwbudde/algo-cbc/search"
	"github.com/cwbudde/algo-cbc/search/trigger"
)

type runOptions struct {
	configPath string
	seed       int64
	snr        float64
	injectTime float64
	mass1      float64
	mass2      float64
	fLow       float64
	bankMasses []float64
	sparse     bool
	tolerance  float64
	top        int
	logLevel   string
	dev        bool
}

func newRunCmd() *cobra.Command {
	o := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inject a chirp into coloured noise and search it with a small bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&o.configPath, "config", "", "YAML configuration file (defaults when empty)")
	fl.Int64Var(&o.seed, "seed", 1, "noise seed")
	fl.Float64Var(&o.snr, "snr", 12, "optimal SNR of the injection, 0 for noise only")
	fl.Float64Var(&o.injectTime, "inject-time", 2, "injection time in seconds from the segment start")
	fl.Float64Var(&o.mass1, "mass1", 10, "injected primary mass in solar masses")
	fl.Float64Var(&o.mass2, "mass2", 10, "injected secondary mass in solar masses")
	fl.Float64Var(&o.fLow, "f-low", 40, "template starting frequency in Hz")
	fl.Float64SliceVar(&o.bankMasses, "bank", []float64{6, 8, 10, 12, 14}, "component masses of the equal-mass bank")
	fl.BoolVar(&o.sparse, "sparse", false, "compress bank templates and reconstruct them during the search")
	fl.Float64Var(&o.tolerance, "tolerance", 0.01, "relative tolerance for --sparse compression")
	fl.IntVar(&o.top, "top", 10, "number of triggers to print, 0 for all")
	fl.StringVar(&o.logLevel, "log-level", "", "log level (overrides the configuration file)")
	fl.BoolVar(&o.dev, "dev", false, "human-readable development logging")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) error {
	f := config.Default()
	if o.configPath != "" {
		var err error
		if f, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	level := f.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logging.New(level, f.Log.Development || o.dev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := f.SearchConfig()
	if err != nil {
		return err
	}
	eng, err := transform.New(f.Engine.Size)
	if err != nil {
		return err
	}

	deltaF := f.DeltaF()
	bins := eng.Bins()
	psd := synth.InitialLIGO(bins, deltaF, cfg.LowFrequency)
	seg, err := o.segment(psd, deltaF, bins)
	if err != nil {
		return err
	}
	bank, err := o.bank(deltaF, bins)
	if err != nil {
		return err
	}

	logger.Info("synthetic segment ready",
		zap.String(logging.FieldSegment, seg.ID),
		zap.Float64("snr", o.snr),
		zap.Float64("inject_time", o.injectTime),
		zap.Int("bank", len(bank)),
	)

	sc, err := search.NewScanner(cfg, eng, search.WithLogger(logger))
	if err != nil {
		return err
	}
	trigs, err := sc.Scan(cmd.Context(), []search.Segment{seg}, bank)
	if err != nil {
		return err
	}
	if o.top > 0 && len(trigs) > o.top {
		trigs = trigs[:o.top]
	}
	return printTriggers(cmd.OutOrStdout(), trigs)
}

func (o *runOptions) segment(psd *series.PowerSpectrum, deltaF float64, bins int) (search.Segment, error) {
	strain := synth.GaussianNoise(psd, o.seed, 0)
	if o.snr > 0 {
		h := synth.Chirp{Mass1: o.mass1, Mass2: o.mass2, FLow: o.fLow}.Frequency(deltaF, bins)
		sigma := synth.Sigma(h, psd, 0)
		if sigma == 0 {
			return search.Segment{}, errors.New("injection has no power above the PSD cutoff")
		}
		strain = synth.Add(strain, synth.Shift(h.Scaled(complex(o.snr/sigma, 0)), o.injectTime))
	}
	return search.Segment{ID: fmt.Sprintf("synthetic-%d", o.seed), Strain: strain, PSD: psd}, nil
}

func (o *runOptions) bank(deltaF float64, bins int) ([]waveform.Template, error) {
	bank := make([]waveform.Template, 0, len(o.bankMasses))
	for _, m := range o.bankMasses {
		id := fmt.Sprintf("m%g+m%g", m, m)
		h := synth.Chirp{Mass1: m, Mass2: m, FLow: o.fLow}.Frequency(deltaF, bins)
		if !o.sparse {
			bank = append(bank, waveform.Template{ID: id, Dense: h})
			continue
		}
		sp, err := waveform.Compress(h, o.tolerance)
		if err != nil {
			return nil, fmt.Errorf("compress %s: %w", id, err)
		}
		bank = append(bank, waveform.Template{ID: id, Sparse: sp})
	}
	return bank, nil
}

func printTriggers(w io.Writer, trigs []trigger.Trigger) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Rank\tTime [s]\t|SNR|\tPhase\tChiSq_r\tNewSNR\tTemplate\tSegment\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "----\t--------\t-----\t-----\t-------\t------\t--------\t-------\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, t := range trigs {
		chi := "-"
		if t.ChiSq != nil {
			chi = fmt.Sprintf("%.3f", t.ChiSq.Reduced())
		}
		if _, err := fmt.Fprintf(tw, "%d\t%.4f\t%.3f\t%+.3f\t%s\t%.3f\t%s\t%s\n",
			i+1, t.Time, t.Abs(), t.Phase(), chi, t.NewSNR(), t.TemplateID, t.SegmentID,
		); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}
