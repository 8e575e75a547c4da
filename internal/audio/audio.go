// Package audio renders podcast scripts to MP3 speech.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ContentType is the media type of every rendered artifact.
const ContentType = "audio/mpeg"

// ErrEmptyText is returned when there is nothing to speak after cleanup.
var ErrEmptyText = errors.New("no text to synthesize")

// Engine is a text-to-speech provider that renders one chunk at a time.
type Engine interface {
	SynthesizeChunk(ctx context.Context, text, voice string) ([]byte, error)
	// MaxChunkBytes is the largest input the provider accepts in one request.
	MaxChunkBytes() int
}

// Speech is a rendered script.
type Speech struct {
	Data            []byte
	Ext             string
	ContentType     string
	DurationSeconds int
}

// Synthesizer cleans a script, renders it chunk by chunk and measures the result.
type Synthesizer struct {
	engine Engine
	logger *slog.Logger
}

func NewSynthesizer(engine Engine, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{engine: engine, logger: logger}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (Speech, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return Speech{}, ErrEmptyText
	}

	chunks := SplitChunks(cleaned, s.engine.MaxChunkBytes())
	var buf bytes.Buffer
	for i, chunk := range chunks {
		s.logger.Debug("synthesizing chunk", "index", i+1, "total", len(chunks), "bytes", len(chunk))
		data, err := s.engine.SynthesizeChunk(ctx, chunk, voice)
		if err != nil {
			return Speech{}, fmt.Errorf("synthesize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		buf.Write(data)
	}
	if buf.Len() == 0 {
		return Speech{}, errors.New("synthesizer returned no audio")
	}

	duration, err := MeasureMP3(buf.Bytes())
	if err != nil || duration == 0 {
		s.logger.Warn("failed to measure mp3 duration, estimating from text", "error", err)
		duration = EstimateDuration(cleaned)
	}

	return Speech{
		Data:            buf.Bytes(),
		Ext:             "mp3",
		ContentType:     ContentType,
		DurationSeconds: duration,
	}, nil
}
