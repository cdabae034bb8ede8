package features

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tphakala/esc50-go/internal/myaudio"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Per-frame descriptors summarised by mean and standard deviation.
//
//   - RMS energy
//   - zero crossing rate
//   - spectral centroid, bandwidth and 85% rolloff, normalised by Nyquist
//   - spectral flatness and normalised entropy
//
// The vector ends with the mean log energy of each log-spaced band.
const frameDescriptors = 7

const (
	rolloffThreshold = 0.85
	minBandFreq      = 20.0 // Hz, lower edge of the first band
	logFloor         = 1e-10
)

// Dimension returns the feature vector length for the given band count.
func Dimension(bands int) int {
	return 2*frameDescriptors + bands
}

// analyzer computes frame features for one clip. It owns an FFT plan
// and scratch buffers and is not safe for concurrent use.
type analyzer struct {
	frameSize int
	hopSize   int
	bands     int

	fft    *fourier.FFT
	window []float64
	frame  []float64
	coeffs []complex128
	mag    []float64
}

func newAnalyzer(frameSize, hopSize, bands int) *analyzer {
	return &analyzer{
		frameSize: frameSize,
		hopSize:   hopSize,
		bands:     bands,
		fft:       fourier.NewFFT(frameSize),
		window:    hannWindow(frameSize),
		frame:     make([]float64, frameSize),
		coeffs:    make([]complex128, frameSize/2+1),
		mag:       make([]float64, frameSize/2+1),
	}
}

// hannWindow returns a symmetric Hann window of length n
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Vector computes the clip feature vector from mono samples.
func (a *analyzer) Vector(samples myaudio.Samples) ([]float64, error) {
	if len(samples.Data) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}
	if samples.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", samples.SampleRate)
	}

	data := samples.Data
	if len(data) < a.frameSize {
		padded := make([]float64, a.frameSize)
		copy(padded, data)
		data = padded
	}

	nyquist := float64(samples.SampleRate) / 2
	binHz := float64(samples.SampleRate) / float64(a.frameSize)
	edges := bandEdges(a.bands, len(a.mag), binHz, nyquist)

	var sum, sumSq [frameDescriptors]float64
	bandSum := make([]float64, a.bands)
	frames := 0

	for start := 0; start+a.frameSize <= len(data); start += a.hopSize {
		raw := data[start : start+a.frameSize]
		desc := a.frameFeatures(raw, binHz, nyquist)

		for i, v := range desc {
			sum[i] += v
			sumSq[i] += v * v
		}
		for b := range a.bands {
			var energy float64
			for k := edges[b]; k < edges[b+1]; k++ {
				energy += a.mag[k] * a.mag[k]
			}
			bandSum[b] += math.Log(energy + logFloor)
		}
		frames++
	}

	n := float64(frames)
	vec := make([]float64, 0, Dimension(a.bands))
	for i := range frameDescriptors {
		mean := sum[i] / n
		variance := math.Max(sumSq[i]/n-mean*mean, 0)
		vec = append(vec, mean, math.Sqrt(variance))
	}
	for b := range a.bands {
		vec = append(vec, bandSum[b]/n)
	}

	return vec, nil
}

// frameFeatures windows raw, fills a.mag and returns the frame descriptors
func (a *analyzer) frameFeatures(raw []float64, binHz, nyquist float64) [frameDescriptors]float64 {
	rms := rootMeanSquare(raw)
	zcr := zeroCrossingRate(raw)

	for i, v := range raw {
		a.frame[i] = v * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)
	for i, c := range a.coeffs {
		a.mag[i] = cmplx.Abs(c)
	}

	centroid := spectralCentroid(a.mag, binHz)
	bandwidth := spectralBandwidth(a.mag, binHz, centroid)
	rolloff := spectralRolloff(a.mag, binHz, rolloffThreshold)

	return [frameDescriptors]float64{
		rms,
		zcr,
		clamp01(centroid / nyquist),
		clamp01(bandwidth / nyquist),
		clamp01(rolloff / nyquist),
		spectralFlatness(a.mag),
		spectralEntropy(a.mag),
	}
}

// bandEdges splits the spectrum bins into log-spaced bands between
// minBandFreq and nyquist. Every band covers at least one bin.
func bandEdges(bands, bins int, binHz, nyquist float64) []int {
	edges := make([]int, bands+1)
	lo := math.Log(minBandFreq)
	hi := math.Log(nyquist)

	for i := range edges {
		freq := math.Exp(lo + (hi-lo)*float64(i)/float64(bands))
		edges[i] = int(math.Round(freq / binHz))
	}
	edges[0] = max(edges[0], 1) // skip DC
	for i := 1; i <= bands; i++ {
		edges[i] = max(edges[i], edges[i-1]+1)
	}
	for i := range edges {
		edges[i] = min(edges[i], bins)
	}
	return edges
}

func rootMeanSquare(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) <= 1 {
		return 0
	}
	var count float64
	for i := 1; i < len(samples); i++ {
		if samples[i-1] == 0 || samples[i] == 0 {
			continue
		}
		if (samples[i-1] > 0) != (samples[i] > 0) {
			count++
		}
	}
	return count / float64(len(samples)-1)
}

func spectralCentroid(magnitude []float64, binHz float64) float64 {
	var weightedSum, total float64
	for i, mag := range magnitude {
		weightedSum += mag * float64(i) * binHz
		total += mag
	}
	if total == 0 {
		return 0
	}
	return weightedSum / total
}

func spectralBandwidth(magnitude []float64, binHz, centroid float64) float64 {
	var variance, total float64
	for i, mag := range magnitude {
		deviation := float64(i)*binHz - centroid
		variance += mag * deviation * deviation
		total += mag
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(variance / total)
}

func spectralRolloff(magnitude []float64, binHz, threshold float64) float64 {
	var total float64
	for _, mag := range magnitude {
		total += mag
	}
	last := float64(len(magnitude)-1) * binHz
	if total == 0 {
		return last
	}

	target := threshold * total
	var cumulative float64
	for i, mag := range magnitude {
		cumulative += mag
		if cumulative >= target {
			return float64(i) * binHz
		}
	}
	return last
}

func spectralFlatness(magnitude []float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}
	const eps = 1e-12
	var logSum, arithmetic float64
	for _, mag := range magnitude {
		value := mag + eps
		logSum += math.Log(value)
		arithmetic += value
	}
	n := float64(len(magnitude))
	return math.Exp(logSum/n) / (arithmetic / n)
}

func spectralEntropy(magnitude []float64) float64 {
	if len(magnitude) <= 1 {
		return 0
	}
	var powerSum float64
	for _, mag := range magnitude {
		powerSum += mag * mag
	}
	if powerSum == 0 {
		return 0
	}

	var entropy float64
	for _, mag := range magnitude {
		if p := mag * mag / powerSum; p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy / math.Log2(float64(len(magnitude)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
