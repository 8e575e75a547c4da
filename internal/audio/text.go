package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tcolgate/mp3"
)

const (
	wordsPerMinute     = 150
	pauseFactor        = 1.2
	minEstimateSeconds = 10
)

// CleanText collapses whitespace and makes sure the text ends with sentence punctuation.
func CleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return ""
	}
	switch cleaned[len(cleaned)-1] {
	case '.', '!', '?':
		return cleaned
	}
	return cleaned + "."
}

// EstimateDuration approximates the spoken length of text in seconds.
func EstimateDuration(text string) int {
	words := len(strings.Fields(text))
	seconds := int(float64(words) / wordsPerMinute * 60 * pauseFactor)
	if seconds < minEstimateSeconds {
		return minEstimateSeconds
	}
	return seconds
}

// SplitChunks cuts text into pieces of at most maxBytes, preferring sentence boundaries
// and never splitting a UTF-8 sequence.
func SplitChunks(text string, maxBytes int) []string {
	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxBytes {
			chunks = append(chunks, remaining)
			break
		}

		cut := maxBytes
		for i := maxBytes; i > 0; i-- {
			if c := remaining[i-1]; c == '.' || c == '!' || c == '?' || c == '\n' {
				cut = i
				break
			}
		}
		for cut > 0 && cut < len(remaining) && remaining[cut]&0xC0 == 0x80 {
			cut--
		}
		if cut == 0 {
			cut = maxBytes
		}

		chunk := strings.TrimSpace(remaining[:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimLeft(remaining[cut:], " ")
	}

	return chunks
}

var errNoFrames = errors.New("no mp3 frames found")

// MeasureMP3 decodes every frame of data and returns the total playing time in whole seconds.
func MeasureMP3(data []byte) (int, error) {
	d := mp3.NewDecoder(bytes.NewReader(data))
	var (
		frame   mp3.Frame
		skipped int
		total   float64
		frames  int
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("decode mp3 frame: %w", err)
		}
		total += frame.Duration().Seconds()
		frames++
	}
	if frames == 0 {
		return 0, errNoFrames
	}
	return int(math.Round(total)), nil
}
