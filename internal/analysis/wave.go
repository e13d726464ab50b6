package analysis

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Frame sizes for RMS energy, matching the sizes commonly used for 16kHz
// speech analysis.
const (
	rmsFrameLength = 2048
	rmsHopLength   = 512
)

// volumeVariation computes the standard deviation of frame RMS energy over
// a 16-bit PCM WAV file. Samples are normalized to [-1, 1] first.
func volumeVariation(wavPath string) (float64, error) {
	samples, err := readPCM16(wavPath)
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return 0, nil
	}

	var rms []float64
	for start := 0; start < len(samples); start += rmsHopLength {
		end := start + rmsFrameLength
		if end > len(samples) {
			end = len(samples)
		}
		sum := 0.0
		for _, s := range samples[start:end] {
			sum += s * s
		}
		rms = append(rms, math.Sqrt(sum/float64(end-start)))
	}

	mean := 0.0
	for _, r := range rms {
		mean += r
	}
	mean /= float64(len(rms))

	variance := 0.0
	for _, r := range rms {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rms))

	return math.Sqrt(variance), nil
}

// readPCM16 reads the data chunk of a RIFF/WAVE file as normalized floats.
// Only 16-bit PCM is expected; the extractor always produces pcm_s16le.
func readPCM16(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file: %s", path)
	}

	// Walk chunks until the data chunk.
	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if chunkID == "data" {
			end := body + chunkSize
			if end > len(raw) {
				end = len(raw)
			}
			data := raw[body:end]
			samples := make([]float64, 0, len(data)/2)
			for i := 0; i+1 < len(data); i += 2 {
				s := int16(binary.LittleEndian.Uint16(data[i : i+2]))
				samples = append(samples, float64(s)/32768.0)
			}
			return samples, nil
		}
		// Chunks are word-aligned.
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}
	return nil, fmt.Errorf("no data chunk in %s", path)
}
