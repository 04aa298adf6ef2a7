// Package synth generates synthetic inputs for tests and the command-line
// demo: leading-order inspiral templates, analytic noise curves, coloured
// Gaussian noise and injections. It is not a template bank generator.
package synth

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-cbc/dsp/series"
)

// solarMassSeconds is G·M_sun/c³.
const solarMassSeconds = 4.925491025543576e-6

// Chirp describes a leading-order (Newtonian) stationary-phase inspiral.
type Chirp struct {
	Mass1, Mass2 float64 // solar masses
	FLow         float64 // starting frequency in Hz
	Amplitude    float64 // overall scale, 1 when zero
	Phase        float64 // coalescence phase in radians
}

// ChirpMass returns the chirp mass in solar masses.
func (c Chirp) ChirpMass() float64 {
	m := c.Mass1 + c.Mass2
	return math.Pow(c.Mass1*c.Mass2, 0.6) / math.Pow(m, 0.2)
}

// ISCO returns the innermost stable circular orbit frequency, where the
// waveform is truncated.
func (c Chirp) ISCO() float64 {
	m := (c.Mass1 + c.Mass2) * solarMassSeconds
	return 1 / (math.Pow(6, 1.5) * math.Pi * m)
}

// Duration returns the time from FLow to coalescence.
func (c Chirp) Duration() float64 {
	mc := c.ChirpMass() * solarMassSeconds
	return 5.0 / 256.0 * math.Pow(math.Pi*c.FLow, -8.0/3.0) * math.Pow(mc, -5.0/3.0)
}

// Frequency returns the one-sided template with coalescence at t=0, so the
// inspiral wraps to the end of the analysis segment.
func (c Chirp) Frequency(deltaF float64, bins int) *series.FrequencySeries {
	out := series.NewFrequencySeries(bins, deltaF, 0)
	amp := c.Amplitude
	if amp == 0 {
		amp = 1
	}
	mc := c.ChirpMass() * solarMassSeconds
	fHigh := c.ISCO()

	for k := range out.Data {
		f := float64(k) * deltaF
		if f < c.FLow || f > fHigh || f <= 0 {
			continue
		}
		psi := 3.0/128.0*math.Pow(math.Pi*mc*f, -5.0/3.0) - math.Pi/4 - c.Phase
		a := amp * math.Pow(f, -7.0/6.0)
		s, co := math.Sincos(-psi)
		out.Data[k] = complex(a*co, a*s)
	}
	return out
}

// Shift delays a one-sided spectrum by t seconds.
func Shift(fs *series.FrequencySeries, t float64) *series.FrequencySeries {
	out := fs.Clone()
	for k := range out.Data {
		s, c := math.Sincos(-2 * math.Pi * float64(k) * fs.DeltaF * t)
		out.Data[k] *= complex(c, s)
	}
	return out
}

// Add returns a+b bin by bin. Both must share length and resolution.
func Add(a, b *series.FrequencySeries) *series.FrequencySeries {
	out := a.Clone()
	for k := range out.Data {
		out.Data[k] += b.Data[k]
	}
	return out
}

// Sigma returns sqrt(4Δf Σ|h|²/S) over bins with valid PSD at or above fLow.
func Sigma(h *series.FrequencySeries, psd *series.PowerSpectrum, fLow float64) float64 {
	var acc float64
	for k, v := range h.Data {
		if float64(k)*h.DeltaF < fLow || !psd.Valid(k) {
			continue
		}
		acc += (real(v)*real(v) + imag(v)*imag(v)) / psd.Data[k]
	}
	return math.Sqrt(4 * h.DeltaF * acc)
}

// InitialLIGO returns the analytic initial-LIGO noise curve, zero below fLow.
func InitialLIGO(bins int, deltaF, fLow float64) *series.PowerSpectrum {
	p := series.NewPowerSpectrum(bins, deltaF)
	for k := range p.Data {
		f := float64(k) * deltaF
		if f < fLow || f <= 0 {
			continue
		}
		x := f / 150
		p.Data[k] = 9e-46 * (math.Pow(4.49*x, -56) + 0.16*math.Pow(x, -4.52) + 0.52 + 0.32*x*x)
	}
	return p
}

// GaussianNoise draws a one-sided noise realisation with the given PSD in
// continuous Fourier units. Bins with invalid PSD are zero.
func GaussianNoise(psd *series.PowerSpectrum, seed int64, epoch float64) *series.FrequencySeries {
	rng := rand.New(rand.NewSource(seed))
	out := series.NewFrequencySeries(psd.Len(), psd.DeltaF, epoch)
	last := psd.Len() - 1
	for k := range out.Data {
		if !psd.Valid(k) {
			continue
		}
		sigma := math.Sqrt(psd.Data[k] / (4 * psd.DeltaF))
		if k == 0 || k == last {
			out.Data[k] = complex(math.Sqrt2*sigma*rng.NormFloat64(), 0)
			continue
		}
		out.Data[k] = complex(sigma*rng.NormFloat64(), sigma*rng.NormFloat64())
	}
	return out
}
