package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/transform"
	"github.com/cwbudde/algo-cbc/dsp/waveform"
	"github.com/cwbudde/algo-cbc/internal/logging"
	"github.com/cwbudde/algo-cbc/search/chisq"
	"github.com/cwbudde/algo-cbc/search/events"
	"github.com/cwbudde/algo-cbc/search/filter"
	"github.com/cwbudde/algo-cbc/search/trigger"
)

// Segment is one stretch of detector data: its one-sided
// spectrum and the PSD estimated for it.
type Segment struct {
	ID     string
	Strain *series.FrequencySeries
	PSD    *series.PowerSpectrum
}

// IsPairError reports whether err only affects a single (segment, template)
// pair, so the scan can skip that pair and continue.
func IsPairError(err error) bool {
	for _, target := range []error{
		waveform.ErrInvalidTemplate,
		series.ErrDimensionMismatch,
		series.ErrIncompatibleResolution,
		filter.ErrNoSupport,
		chisq.ErrDegenerateBands,
		transform.ErrInvalidBand,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Scanner runs a bank over a set of segments. It is safe for concurrent use.
type Scanner struct {
	cfg       Config
	filter    *filter.Filter
	veto      *chisq.Veto
	extractor *events.Extractor
	logger    *zap.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner returns a scanner for segments of eng.Size() samples.
func NewScanner(cfg Config, eng *transform.Engine, opts ...ScannerOption) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, fmt.Errorf("%w: nil transform engine", ErrInvalidConfig)
	}
	f := filter.New(eng,
		filter.WithLowFrequency(cfg.LowFrequency),
		filter.WithHighFrequency(cfg.HighFrequency),
	)
	s := &Scanner{
		cfg:       cfg,
		filter:    f,
		veto:      chisq.New(f, cfg.SubBandCount),
		extractor: events.NewExtractor(cfg.Threshold, cfg.ClusterWindow),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Config returns the scan configuration.
func (s *Scanner) Config() Config { return s.cfg }

// Scan filters every template against every segment and returns the ranked
// triggers. Pairs failing with a pair-local error are logged and skipped.
// Cancellation is checked between pairs.
func (s *Scanner) Scan(ctx context.Context, segments []Segment, templates []waveform.Template) ([]trigger.Trigger, error) {
	if len(segments) == 0 || len(templates) == 0 {
		return nil, nil
	}

	log := s.logger.With(zap.String(logging.FieldRun, uuid.NewString()))
	log.Info("scan started",
		zap.Int("segments", len(segments)),
		zap.Int("templates", len(templates)),
		zap.Int("workers", s.cfg.workers()),
	)
	start := time.Now()

	results := make([][]trigger.Trigger, len(segments)*len(templates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.workers())

launch:
	for si := range segments {
		for ti := range templates {
			if gctx.Err() != nil {
				break launch
			}
			slot := si*len(templates) + ti
			seg, tmpl := &segments[si], &templates[ti]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				trigs, err := s.scanPair(log, seg, tmpl)
				if err != nil {
					if IsPairError(err) {
						log.Warn("skipping pair",
							zap.String(logging.FieldTemplate, tmpl.ID),
							zap.String(logging.FieldSegment, seg.ID),
							zap.Error(err),
						)
						return nil
					}
					return fmt.Errorf("search: segment %q template %q: %w", seg.ID, tmpl.ID, err)
				}
				log.Debug("pair filtered",
					zap.String(logging.FieldTemplate, tmpl.ID),
					zap.String(logging.FieldSegment, seg.ID),
					zap.Int(logging.FieldTriggers, len(trigs)),
				)
				results[slot] = trigs
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []trigger.Trigger
	for _, r := range results {
		all = append(all, r...)
	}
	if s.cfg.ClusterAcrossTemplates {
		all = events.ClusterTriggers(all, s.cfg.ClusterWindow, nil)
	}
	trigger.Rank(all)

	log.Info("scan finished",
		zap.Int(logging.FieldTriggers, len(all)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return all, nil
}

// ScanPair runs one (segment, template) pair. Triggers come back in time
// order with the veto attached when sub-bands are configured.
func (s *Scanner) ScanPair(seg *Segment, tmpl *waveform.Template) ([]trigger.Trigger, error) {
	return s.scanPair(s.logger, seg, tmpl)
}

func (s *Scanner) scanPair(log *zap.Logger, seg *Segment, tmpl *waveform.Template) ([]trigger.Trigger, error) {
	if seg == nil || seg.Strain == nil || seg.PSD == nil {
		return nil, fmt.Errorf("%w: segment without strain or PSD", series.ErrDimensionMismatch)
	}
	h, err := tmpl.Materialize(seg.Strain.DeltaF, seg.Strain.Len(), s.cfg.Interpolation)
	if err != nil {
		return nil, err
	}
	res, err := s.filter.Run(seg.Strain, h, seg.PSD)
	if err != nil {
		return nil, err
	}

	n := res.SNR.Len()
	pad := events.WindowSamples(s.cfg.Pad, res.SNR.Delta)
	if 2*pad >= n {
		return nil, fmt.Errorf("%w: pad %v leaves no samples in segment %q of %d",
			ErrInvalidConfig, s.cfg.Pad, seg.ID, n)
	}
	trigs, err := s.extractor.ExtractRange(res.SNR, pad, n-pad, tmpl.ID, res.Sigma())
	if err != nil {
		return nil, err
	}
	for i := range trigs {
		trigs[i].SegmentID = seg.ID
	}
	if len(trigs) == 0 || s.cfg.SubBandCount == 0 {
		return trigs, nil
	}

	part, err := s.partition(tmpl, h, seg.PSD, res.Band)
	if err != nil {
		if errors.Is(err, chisq.ErrDegenerateBands) {
			log.Debug("veto skipped",
				zap.String(logging.FieldTemplate, tmpl.ID),
				zap.String(logging.FieldSegment, seg.ID),
				zap.Error(err),
			)
			return trigs, nil
		}
		return nil, err
	}
	if err := s.veto.Attach(chisq.NewAccumulator(), trigs, res, part); err != nil {
		return nil, err
	}
	return trigs, nil
}

func (s *Scanner) partition(tmpl *waveform.Template, h *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) (*chisq.Partition, error) {
	if edges := tmpl.BandEdges(); len(edges) > 2 {
		part, err := chisq.PartitionFromEdges(edges, h, psd, band)
		if err == nil {
			return part, nil
		}
	}
	return chisq.NewPartition(h, psd, band, s.cfg.SubBandCount)
}
