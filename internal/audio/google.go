package audio

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// Google requests are limited to 5000 bytes of input.
const googleMaxChunkBytes = 4500

// Google renders speech with Google Cloud Text-to-Speech.
type Google struct {
	client *texttospeech.Client
}

// NewGoogle creates a client from service account JSON, or from application default
// credentials when credentialsJSON is empty.
func NewGoogle(ctx context.Context, credentialsJSON string) (*Google, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech client: %w", err)
	}
	return &Google{client: client}, nil
}

func (g *Google) MaxChunkBytes() int { return googleMaxChunkBytes }

func (g *Google) SynthesizeChunk(ctx context.Context, text, voice string) ([]byte, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode(voice),
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  1.0,
		},
	}
	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.AudioContent, nil
}

func (g *Google) Close() error {
	return g.client.Close()
}

// languageCode extracts "en-US" from a voice name such as "en-US-Neural2-F".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
