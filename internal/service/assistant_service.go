package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/metrics"
	"task-manager-bot/internal/model"
)

var (
	ErrAssistantDisabled = errors.New("assistant disabled")
	ErrRateLimited       = errors.New("too many suggestion requests")
)

const (
	noPendingMessage  = "📭 Não tens tarefas pendentes. Aproveita para descansar! 😊"
	unavailableReason = "🤖 Desculpa, não consegui analisar as tuas tarefas neste momento."
)

// AssistantConfig tunes the per-user limiter and provider timeout.
type AssistantConfig struct {
	Interval time.Duration
	Burst    int
	Timeout  time.Duration
}

// AssistantService asks the suggestion provider for one actionable tip and
// optionally voices it. Provider failures degrade to an error suggestion.
type AssistantService struct {
	provider model.SuggestionProvider
	speaker  model.Synthesizer
	tasks    *TaskService
	cfg      AssistantConfig
	log      *logger.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewAssistantService(provider model.SuggestionProvider, speaker model.Synthesizer, tasks *TaskService, cfg AssistantConfig, log *logger.Logger, m *metrics.Metrics) *AssistantService {
	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &AssistantService{
		provider: provider,
		speaker:  speaker,
		tasks:    tasks,
		cfg:      cfg,
		log:      log.WithComponent("assistant"),
		metrics:  m,
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (s *AssistantService) Enabled() bool {
	return s.provider != nil
}

// Suggest sends the user's whole task list to the provider. Users without
// pending tasks get a "none" suggestion without a provider call. Suggested
// actions may only target pending tasks.
func (s *AssistantService) Suggest(ctx context.Context, userID int64, now time.Time) (model.Suggestion, error) {
	if s.provider == nil {
		return model.Suggestion{}, ErrAssistantDisabled
	}

	tasks, err := s.tasks.ListTasks(ctx, userID, model.TaskFilter{})
	if err != nil {
		return model.Suggestion{}, err
	}
	briefs := make([]model.TaskBrief, 0, len(tasks))
	known := make(map[uint]bool, len(tasks))
	for _, task := range tasks {
		briefs = append(briefs, model.BriefOf(task))
		if !task.IsCompleted() {
			known[task.ID] = true
		}
	}
	if len(known) == 0 {
		return model.Suggestion{Kind: model.SuggestionNone, Message: noPendingMessage}, nil
	}

	if !s.limiter(userID).Allow() {
		return model.Suggestion{}, ErrRateLimited
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	suggestion, err := s.provider.Suggest(callCtx, briefs, now)
	if err != nil {
		s.metrics.ProviderFailure("suggestion")
		s.log.WithUserID(userID).Warnw("suggestion provider failed", "error", err)
		return model.Suggestion{Kind: model.SuggestionError, Message: unavailableReason}, nil
	}
	return sanitizeSuggestion(suggestion, known), nil
}

// sanitizeSuggestion drops actions the bot cannot execute or that point at
// tasks outside the user's pending set.
func sanitizeSuggestion(sg model.Suggestion, known map[uint]bool) model.Suggestion {
	if !sg.Kind.Valid() {
		sg.Kind = model.SuggestionError
	}
	sg.Message = strings.TrimSpace(sg.Message)
	if sg.Message == "" {
		sg.Message = unavailableReason
		sg.Kind = model.SuggestionError
	}
	if sg.RelatedTaskID != nil && !known[*sg.RelatedTaskID] {
		sg.RelatedTaskID = nil
	}

	actions := make([]model.SuggestedAction, 0, len(sg.SuggestedActions))
	for _, a := range sg.SuggestedActions {
		action, ok := ParseAssistantAction(a.ActionToken)
		if !ok {
			continue
		}
		if action.TaskID != 0 && !known[action.TaskID] {
			continue
		}
		label := strings.TrimSpace(a.Label)
		if label == "" {
			continue
		}
		actions = append(actions, model.SuggestedAction{Label: label, ActionToken: action.Token()})
	}
	sg.SuggestedActions = actions
	return sg
}

// Apply executes a suggestion button and returns the confirmation text.
func (s *AssistantService) Apply(ctx context.Context, userID int64, action AssistantAction, now time.Time) (string, error) {
	switch action.Kind {
	case AssistantAccept:
		return "👍 Ótimo! Bom trabalho com as tuas tarefas.", nil
	case AssistantIgnore:
		return "👌 Sem problema, fica para a próxima.", nil
	case AssistantDone:
		changed, err := s.tasks.CompleteTask(ctx, userID, action.TaskID, now)
		if err != nil {
			return "", err
		}
		if !changed {
			return "ℹ️ Essa tarefa já estava concluída ou já não existe.", nil
		}
		return "✅ Tarefa concluída!", nil
	case AssistantPriority:
		p, changed, err := s.tasks.SetPriority(ctx, userID, action.TaskID, string(action.Priority))
		if err != nil {
			return "", err
		}
		if !changed {
			return "ℹ️ Essa tarefa já não existe.", nil
		}
		return "⚡ Prioridade alterada para " + string(p) + ".", nil
	}
	return "", ErrInvalidTask
}

// Speak renders text to audio. An empty path means no audio is available.
func (s *AssistantService) Speak(ctx context.Context, userID int64, text string) string {
	if s.speaker == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	path, err := s.speaker.Synthesize(callCtx, text)
	if err != nil {
		s.metrics.ProviderFailure("tts")
		s.log.WithUserID(userID).Warnw("speech synthesis failed", "error", err)
		return ""
	}
	return path
}

func (s *AssistantService) limiter(userID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.cfg.Interval), s.cfg.Burst)
		s.limiters[userID] = l
	}
	return l
}
