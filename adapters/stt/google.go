package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/meomirror/server/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud. Chunks are
// short (a few seconds), so the synchronous Recognize call is sufficient and
// the provider bounds its own latency.
type GoogleSpeechToText struct {
	client *speech.Client
}

// NewGoogleSpeechToText creates the adapter with a long-lived client.
// Credentials come from the environment (GOOGLE_APPLICATION_CREDENTIALS).
func NewGoogleSpeechToText(ctx context.Context) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeechToText{client: client}, nil
}

// Close releases the underlying client.
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// TranscribeAudio converts one audio chunk to text using Google Cloud
// Speech-to-Text. An empty transcript with a nil error means no speech was
// recognized.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(config.SampleRate),
			LanguageCode:    config.Language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize failed: %w", err)
	}

	// Take the best alternative of the first result; anything else is noise
	// for a single short utterance.
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			return result.Alternatives[0].Transcript, nil
		}
	}
	return "", nil
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", encoding)
	}
}
