// internal/speech/client.go
package speech

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// Client synthesizes Arabic reminder audio through the OpenAI speech API.
type Client struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		voice:  openai.VoiceAlloy,
	}
}

func (c *Client) WithVoice(voice string) *Client {
	if voice != "" {
		c.voice = openai.SpeechVoice(voice)
	}
	return c
}

// Synthesize renders the text as MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}
	return audio, nil
}
