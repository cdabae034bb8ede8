package myaudio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/flac"
)

// Samples holds decoded mono audio normalized to [-1, 1].
type Samples struct {
	Data       []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (s Samples) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.SampleRate)
}

// IsSupportedFile reports whether DecodeFile can read the file, by extension.
func IsSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".flac", ".ogg":
		return true
	default:
		return false
	}
}

// DecodeFile decodes a wav, flac or ogg vorbis file into mono samples.
// Multi-channel audio is mixed down by averaging the channels.
func DecodeFile(path string) (Samples, error) {
	file, err := os.Open(path)
	if err != nil {
		return Samples{}, errors.FileError(err, path)
	}
	defer file.Close()

	var samples Samples
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		samples, err = decodeWAV(file)
	case ".flac":
		samples, err = decodeFLAC(file)
	case ".ogg":
		samples, err = decodeOgg(file)
	default:
		err = fmt.Errorf("unsupported audio file type %q", ext)
	}
	if err != nil {
		return Samples{}, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			FileContext(path).
			Build()
	}

	return samples, nil
}

// getAudioDivisor returns the full scale value for the bit depth
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio bit depth: %d", bitDepth)
	}
}

func decodeWAV(r io.ReadSeeker) (Samples, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return Samples{}, fmt.Errorf("input is not a valid WAV audio file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Samples{}, fmt.Errorf("reading WAV samples: %w", err)
	}

	divisor, err := getAudioDivisor(int(decoder.BitDepth))
	if err != nil {
		return Samples{}, err
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return Samples{}, fmt.Errorf("invalid WAV channel count: %d", channels)
	}

	data := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		var sum float64
		for c := range channels {
			v := float64(buf.Data[i+c])
			if decoder.BitDepth == 8 {
				v -= 128 // 8-bit WAV is unsigned
			}
			sum += v
		}
		data = append(data, sum/float64(channels)/divisor)
	}

	return Samples{Data: data, SampleRate: int(decoder.SampleRate)}, nil
}

func decodeFLAC(r io.Reader) (Samples, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return Samples{}, err
	}

	divisor, err := getAudioDivisor(decoder.BitsPerSample)
	if err != nil {
		return Samples{}, err
	}

	bytesPerSample := decoder.BitsPerSample / 8
	channels := decoder.NChannels
	stride := bytesPerSample * channels
	if stride == 0 {
		return Samples{}, fmt.Errorf("invalid FLAC stream layout")
	}

	var data []float64
	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return Samples{}, err
		}

		for i := 0; i+stride <= len(frame); i += stride {
			var sum float64
			for c := range channels {
				sum += float64(readPCMSample(frame[i+c*bytesPerSample:], decoder.BitsPerSample))
			}
			data = append(data, sum/float64(channels)/divisor)
		}
	}

	return Samples{Data: data, SampleRate: decoder.SampleRate}, nil
}

// readPCMSample reads one little-endian signed PCM sample
func readPCMSample(b []byte, bitDepth int) int32 {
	switch bitDepth {
	case 8:
		return int32(int8(b[0]))
	case 16:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF // sign extend
		}
		return v
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}

func decodeOgg(r io.Reader) (Samples, error) {
	decoder, err := oggvorbis.NewReader(r)
	if err != nil {
		return Samples{}, fmt.Errorf("failed to create OGG decoder: %w", err)
	}

	channels := decoder.Channels()
	if channels < 1 {
		return Samples{}, fmt.Errorf("invalid OGG channel count: %d", channels)
	}

	var data []float64
	buffer := make([]float32, 16384*channels)
	for {
		n, err := decoder.Read(buffer)
		for i := 0; i+channels <= n; i += channels {
			var sum float64
			for c := range channels {
				sum += float64(buffer[i+c])
			}
			data = append(data, sum/float64(channels))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Samples{}, fmt.Errorf("failed to read OGG data: %w", err)
		}
	}

	return Samples{Data: data, SampleRate: decoder.SampleRate()}, nil
}
