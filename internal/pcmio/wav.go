// Package pcmio implements the PCM Loader (component A): it turns a
// waveform container into a mono signal at the source's native sample
// rate. It is deliberately tolerant of partial/truncated input, since a
// waveform file may still be growing while it is read.
package pcmio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidesound/soundprint/internal/model"
)

// Signal is a mono PCM signal in 16-bit sample units ([-32768, 32767]),
// at its source rate.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Empty reports whether the signal has zero samples.
func (s Signal) Empty() bool { return len(s.Samples) == 0 }

type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// LoadWAV reads a RIFF/WAVE file containing interleaved 16-bit PCM and
// returns a mono float64 signal. Any structural problem, a short read,
// a missing chunk, an unrecognized header, is treated as the file not
// being ready yet and mapped to an empty Signal rather than
// model.ErrDecode, per the caller contract that partial/growing files
// produce an empty result to retry later. A file that parses cleanly
// but encodes a format this loader cannot represent (not PCM, not
// 16-bit, zero channels) is a genuine model.ErrDecode. Any channel
// count of one or more is downmixed to mono.
func LoadWAV(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, nil //nolint:nilerr // growing/missing file maps to empty
	}
	defer f.Close()

	format, data, err := scan(f)
	if err != nil {
		if errors.Is(err, errUnsupportedFormat) {
			return Signal{}, fmt.Errorf("%w: %v", model.ErrDecode, err)
		}
		return Signal{}, nil
	}

	samples, err := toMonoFloat64(data, format.NumChannels)
	if err != nil {
		return Signal{}, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}

	return Signal{Samples: samples, SampleRate: int(format.SampleRate)}, nil
}

var errUnsupportedFormat = errors.New("unsupported wav encoding")

func readRIFFHeader(r io.Reader) error {
	var riff, wave [4]byte
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &wave); err != nil {
		return err
	}
	if string(riff[:]) != "RIFF" || string(wave[:]) != "WAVE" {
		return errors.New("not a RIFF/WAVE stream")
	}
	return nil
}

func readFmtChunk(r io.ReadSeeker, chunkSize uint32) (wavFormat, error) {
	var fmtChunk struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &fmtChunk); err != nil {
		return wavFormat{}, err
	}
	if remaining := int64(chunkSize) - 16; remaining > 0 {
		if _, err := r.Seek(remaining, io.SeekCurrent); err != nil {
			return wavFormat{}, err
		}
	}
	return wavFormat{
		AudioFormat:   fmtChunk.AudioFormat,
		NumChannels:   fmtChunk.NumChannels,
		SampleRate:    fmtChunk.SampleRate,
		BitsPerSample: fmtChunk.BitsPerSample,
	}, nil
}

// scan walks the RIFF chunk list looking for "fmt " and "data". Any
// truncation mid-chunk surfaces as a plain io error, which the caller
// maps to an empty signal rather than a hard decode failure.
func scan(f *os.File) (wavFormat, []byte, error) {
	if err := readRIFFHeader(f); err != nil {
		return wavFormat{}, nil, err
	}

	var format wavFormat
	var data []byte
	haveFmt, haveData := false, false

	for !haveFmt || !haveData {
		var id [4]byte
		var size uint32
		if err := binary.Read(f, binary.LittleEndian, &id); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return wavFormat{}, nil, err
		}
		if err := binary.Read(f, binary.LittleEndian, &size); err != nil {
			return wavFormat{}, nil, err
		}

		switch string(id[:]) {
		case "fmt ":
			fc, err := readFmtChunk(f, size)
			if err != nil {
				return wavFormat{}, nil, err
			}
			format, haveFmt = fc, true
		case "data":
			buf := make([]byte, size)
			if _, err := io.ReadFull(f, buf); err != nil {
				return wavFormat{}, nil, err
			}
			data, haveData = buf, true
		default:
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return wavFormat{}, nil, err
			}
		}

		if size%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return wavFormat{}, nil, err
			}
		}
	}

	if !haveFmt || !haveData {
		return wavFormat{}, nil, errors.New("incomplete wav stream")
	}
	if format.AudioFormat != 1 {
		return wavFormat{}, nil, fmt.Errorf("%w: audio format %d is not PCM", errUnsupportedFormat, format.AudioFormat)
	}
	if format.BitsPerSample != 16 {
		return wavFormat{}, nil, fmt.Errorf("%w: %d-bit samples unsupported", errUnsupportedFormat, format.BitsPerSample)
	}
	return format, data, nil
}

// toMonoFloat64 downmixes interleaved int16 PCM by arithmetic mean
// across channels, keeping 16-bit sample units (no normalization).
func toMonoFloat64(data []byte, numChannels uint16) ([]float64, error) {
	if numChannels == 0 {
		return nil, errors.New("zero channel count")
	}
	sampleCount := len(data) / 2
	raw := make([]int16, sampleCount)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("decoding PCM samples: %w", err)
	}

	nc := int(numChannels)
	frames := len(raw) / nc
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < nc; c++ {
			sum += float64(raw[i*nc+c])
		}
		out[i] = sum / float64(nc)
	}
	return out, nil
}
