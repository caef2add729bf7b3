// Package features maps the latest indicator row to bounded directional
// features in [-1, 1].
package features

import (
	"errors"
	"fmt"
	"math"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/pkg/logger"
)

// Defaults for the normalization rules.
const (
	DefaultTrendThreshold = 25.0
	DefaultVolumeSpikeZ   = 1.5
	macdMinHistory        = 10
	obvWindow             = 20
	atrTargetRatio        = 0.02
)

var errUndefined = errors.New("input undefined")

// extractor computes one feature from the latest row and the full row history.
type extractor func(last *models.IndicatorRow, rows []models.IndicatorRow) (float64, error)

type rule struct {
	name    string
	extract extractor
}

// Normalizer turns indicator rows into a FeatureSet. It holds no mutable state
// and is safe for concurrent use.
type Normalizer struct {
	trendThreshold float64
	volumeSpikeZ   float64
	rules          []rule
	logger         *logger.Logger
}

type Option func(*Normalizer)

// WithTrendThreshold sets the ADX level that maps to a neutral ADX feature.
func WithTrendThreshold(v float64) Option {
	return func(n *Normalizer) {
		if v > 0 {
			n.trendThreshold = v
		}
	}
}

// WithVolumeSpikeZ sets the volume z-score above which VOL_Z takes the sign of the return.
func WithVolumeSpikeZ(v float64) Option {
	return func(n *Normalizer) {
		if v > 0 {
			n.volumeSpikeZ = v
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		trendThreshold: DefaultTrendThreshold,
		volumeSpikeZ:   DefaultVolumeSpikeZ,
		logger:         logger.NewNop(),
	}
	for _, o := range opts {
		o(n)
	}
	n.rules = []rule{
		{models.FeatureSMATrend, smaTrend},
		{models.FeatureEMATrend, emaTrend},
		{models.FeatureMACD, macdZ},
		{models.FeatureADX, n.adx},
		{models.FeatureRSI, rsi},
		{models.FeatureATR, atrRelative},
		{models.FeatureBOLL, bollPosition},
		{models.FeatureOBV, obvVsMean},
		{models.FeatureCMF, cmf},
		{models.FeatureMFI, mfi},
		{models.FeatureSTOCH, stoch},
		{models.FeatureCCI, cci},
		{models.FeatureVolZ, n.volumeSpike},
	}
	return n
}

// Normalize computes the features of the most recent row. It fails only when
// rows is empty or the latest close is undefined; any other failing rule
// falls back to 0 and is listed in Degraded.
func (n *Normalizer) Normalize(rows []models.IndicatorRow) (models.FeatureSet, error) {
	if len(rows) == 0 {
		return models.FeatureSet{}, fmt.Errorf("normalize features: %w", models.ErrInsufficientData)
	}
	last := &rows[len(rows)-1]
	if !finite(last.Close) {
		return models.FeatureSet{}, fmt.Errorf("normalize features: %w", models.ErrMissingPriceData)
	}

	set := models.FeatureSet{
		Features: make(models.FeatureVector, len(n.rules)),
		RetZ:     last.RetZ,
		VolZ:     last.VolZ,
	}
	for _, r := range n.rules {
		v, err := computeOrDefault(r.extract, last, rows)
		if err != nil {
			set.Degraded = append(set.Degraded, r.name)
			n.logger.Debug("feature degraded to neutral",
				logger.String("feature", r.name),
				logger.Error(err),
			)
		}
		set.Features[r.name] = v
	}
	return set, nil
}

// computeOrDefault runs fn and maps a panic, an error or a non-finite result to 0.
func computeOrDefault(fn extractor, last *models.IndicatorRow, rows []models.IndicatorRow) (v float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v, err = 0, fmt.Errorf("recovered: %v", rec)
		}
	}()
	v, err = fn(last, rows)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, fmt.Errorf("non-finite value %v", v)
	}
	return v, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
