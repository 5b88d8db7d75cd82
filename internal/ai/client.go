// Package ai implements the assistant contracts on top of the OpenAI API:
// chat completions for suggestions and voice parsing, Whisper for
// speech-to-text and TTS for spoken suggestions.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"task-manager-bot/internal/config"
)

// Client satisfies model.SuggestionProvider, model.VoiceParser,
// model.Transcriber and model.Synthesizer.
type Client struct {
	api       *openai.Client
	chatModel string
	voice     openai.SpeechVoice
	language  string
	audioDir  string
}

func New(cfg config.AIConfig) *Client {
	return NewWithClient(openai.NewClient(cfg.APIKey), cfg)
}

// NewWithClient is used by tests to point at a fake server.
func NewWithClient(api *openai.Client, cfg config.AIConfig) *Client {
	model := cfg.ChatModel
	if model == "" {
		model = openai.GPT4oMini
	}
	voice := cfg.TTSVoice
	if voice == "" {
		voice = string(openai.VoiceNova)
	}
	language := cfg.Language
	if language == "" {
		language = "pt"
	}
	return &Client{
		api:       api,
		chatModel: model,
		voice:     openai.SpeechVoice(voice),
		language:  language,
		audioDir:  cfg.AudioDir,
	}
}

func (c *Client) chatJSON(ctx context.Context, system, prompt string, temperature float32, out interface{}) error {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat completion: no choices")
	}
	return decodeJSON(resp.Choices[0].Message.Content, out)
}

// Transcribe sends the audio file to Whisper.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: c.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Synthesize writes an OGG/Opus rendering of text, suitable for a Telegram
// voice note, and returns its path.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Close()

	if err := os.MkdirAll(c.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	path := filepath.Join(c.audioDir, "tts_"+uuid.NewString()+".ogg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return path, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:nl]), "{") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func decodeJSON(content string, out interface{}) error {
	body := stripCodeFence(content)
	if body == "" {
		return errors.New("decode response: empty body")
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
