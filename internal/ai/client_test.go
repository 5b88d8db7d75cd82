package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager-bot/internal/config"
	"task-manager-bot/internal/model"
)

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                   `{"a":1}`,
		"```json\n{\"a\":1}\n```":   `{"a":1}`,
		"```\n{\"a\":1}\n```":       `{"a":1}`,
		"```{\"a\":1}```":           `{"a":1}`,
		"  \n```json\n{}\n```  \n":  `{}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripCodeFence(in), in)
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	var out map[string]interface{}
	require.Error(t, decodeJSON("", &out))
	require.Error(t, decodeJSON("```json\n```", &out))
	require.Error(t, decodeJSON("not json", &out))
}

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	}
}

func newFakeClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return NewWithClient(openai.NewClientWithConfig(cfg), config.AIConfig{AudioDir: t.TempDir()})
}

func TestSuggest(t *testing.T) {
	var got openai.ChatCompletionRequest
	c := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		content := "```json\n" + `{"kind":"priority","message":"Começa pelo relatório","related_task_id":2,"suggested_actions":[{"label":"✅","action_token":"ai:accept"}]}` + "\n```"
		_ = json.NewEncoder(w).Encode(chatReply(content))
	})

	sg, err := c.Suggest(context.Background(), []model.TaskBrief{{ID: 2, Title: "Relatório", Priority: model.PriorityHigh, Category: "Trabalho"}}, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionPriority, sg.Kind)
	require.NotNil(t, sg.RelatedTaskID)
	assert.Equal(t, uint(2), *sg.RelatedTaskID)
	require.Len(t, sg.SuggestedActions, 1)
	assert.Equal(t, "ai:accept", sg.SuggestedActions[0].ActionToken)

	assert.Equal(t, openai.GPT4oMini, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "Relatório")
	assert.Contains(t, got.Messages[1].Content, "2024-03-10")
}

func TestSuggestUnknownKind(t *testing.T) {
	c := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply(`{"kind":"divisao_tarefa","message":"x"}`))
	})
	sg, err := c.Suggest(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionError, sg.Kind)
}

func TestParseVoice(t *testing.T) {
	c := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply(`{"title":"Ligar ao médico","due_date":"2024-03-11","due_time":null,"priority":"Alta","category":null,"confidence":0.85,"missing_fields":["category"]}`))
	})
	task, err := c.Parse(context.Background(), "ligar ao médico amanhã, é urgente", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.VoiceTask{
		Title:         "Ligar ao médico",
		DueDate:       "2024-03-11",
		Priority:      "Alta",
		Confidence:    0.85,
		MissingFields: []string{"category"},
	}, task)
}

func TestParseVoiceBadJSON(t *testing.T) {
	c := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply("Claro! Aqui está a tarefa."))
	})
	_, err := c.Parse(context.Background(), "x", time.Now())
	require.Error(t, err)
}

func TestTranscribeAndSynthesize(t *testing.T) {
	c := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/audio/transcriptions":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "pt", r.FormValue("language"))
			_ = json.NewEncoder(w).Encode(map[string]string{"text": " comprar pão "})
		case "/v1/audio/speech":
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"opus"`)
			_, _ = w.Write([]byte("OggS"))
		default:
			http.NotFound(w, r)
		}
	})

	audio := filepath.Join(t.TempDir(), "in.ogg")
	require.NoError(t, os.WriteFile(audio, []byte("OggS"), 0o644))

	text, err := c.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "comprar pão", text)

	path, err := c.Synthesize(context.Background(), "Olá")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OggS", string(data))
}

func TestProviderErrorsPropagate(t *testing.T) {
	c := newFakeClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"down","type":"server_error"}}`))
	})
	_, err := c.Suggest(context.Background(), nil, time.Now())
	require.Error(t, err)
	_, err = c.Synthesize(context.Background(), "x")
	require.Error(t, err)
}
