package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-manager-bot/internal/flow"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/metrics"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/service"
)

const (
	msgGenericError = "❌ Ocorreu um erro. Tenta novamente daqui a pouco."
	workerQueueSize = 64
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps are the services the bot routes updates to.
type Deps struct {
	Users      *service.UserService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Reminders  *service.ReminderService
	Assistant  *service.AssistantService
	Voice      *service.VoiceService
	Flow       *flow.Controller
	Metrics    *metrics.Metrics
	Log        *logger.Logger
	Location   *time.Location
	Workers    int
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api        API
	users      *service.UserService
	tasks      *service.TaskService
	categories *service.CategoryService
	reminders  *service.ReminderService
	assistant  *service.AssistantService
	voice      *service.VoiceService
	flow       *flow.Controller
	metrics    *metrics.Metrics
	log        *logger.Logger
	loc        *time.Location
	workers    int
	clock      func() time.Time
}

// New connects to Telegram with token.
func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := NewWithAPI(api, deps)
	b.log.Infow("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func NewWithAPI(api API, deps Deps) *Bot {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Bot{
		api:        api,
		users:      deps.Users,
		tasks:      deps.Tasks,
		categories: deps.Categories,
		reminders:  deps.Reminders,
		assistant:  deps.Assistant,
		voice:      deps.Voice,
		flow:       deps.Flow,
		metrics:    deps.Metrics,
		log:        log.WithComponent("bot"),
		loc:        loc,
		workers:    workers,
		clock:      time.Now,
	}
}

func (b *Bot) now() time.Time {
	return b.clock().In(b.loc)
}

// Start begins polling updates until ctx is cancelled. Updates are sharded
// by user id so one user's events are handled in order.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commandList()...)); err != nil {
		b.log.Warnw("register commands", "error", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Infow("start polling updates", "workers", b.workers)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	queues := make([]chan tgbotapi.Update, b.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, workerQueueSize)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range q {
				b.HandleUpdate(ctx, update)
			}
		}(queues[i])
	}

	for update := range updates {
		queues[shard(updateUserID(update), b.workers)] <- update
	}

	for _, q := range queues {
		close(q)
	}
	wg.Wait()
	b.log.Infow("polling stopped")
	return nil
}

func shard(userID int64, n int) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(n))
}

func updateUserID(u tgbotapi.Update) int64 {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	}
	return 0
}

func updateChatID(u tgbotapi.Update) int64 {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return u.CallbackQuery.Message.Chat.ID
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID
	}
	return 0
}

func updateKind(u tgbotapi.Update) string {
	switch {
	case u.CallbackQuery != nil:
		return "callback"
	case u.Message != nil && u.Message.Voice != nil:
		return "voice"
	case u.Message != nil && u.Message.IsCommand():
		return "command"
	case u.Message != nil:
		return "text"
	}
	return "other"
}

// HandleUpdate processes one update to completion. Handler errors and
// panics are logged and answered with a generic message.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	kind := updateKind(update)
	log := b.log.WithUserID(updateUserID(update)).WithFields("kind", kind)

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("panic while handling update", "panic", r)
			b.notifyError(updateChatID(update))
		}
		b.metrics.ObserveUpdate(kind, time.Since(start))
	}()

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		err = b.handleMessage(ctx, update.Message)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Errorw("handle update")
		b.notifyError(updateChatID(update))
	}
}

func (b *Bot) notifyError(chatID int64) {
	if chatID == 0 {
		return
	}
	if err := b.sendText(chatID, msgGenericError); err != nil {
		b.log.Warnw("send error notice", "error", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	if msg.Voice != nil {
		return b.handleVoice(ctx, msg)
	}
	if msg.IsCommand() {
		b.log.WithUserID(msg.From.ID).Debugw("command", "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}
	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	reply, err := b.flow.HandleText(ctx, msg.From.ID, msg.Text)
	if err != nil {
		return err
	}
	if reply.Kind == flow.ReplyNoSession {
		return b.sendText(msg.Chat.ID, msgUnknownInput)
	}
	return b.renderFlow(msg.Chat.ID, 0, reply)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	user, created, err := b.users.Register(ctx, model.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if created {
		b.log.WithUserID(from.ID).Infow("new user registered")
	}
	return user, nil
}

// SendDailyReports sends a summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.reminders.DailySummary(ctx, user, now)
		if err != nil {
			b.log.WithUserID(user.ID).WithError(err).Warnw("build summary")
			continue
		}
		if text == "" {
			continue
		}
		if err := b.sendText(user.ID, text); err != nil {
			b.log.WithUserID(user.ID).WithError(err).Warnw("send summary")
			continue
		}
		sent++
	}
	b.log.Infow("daily reports sent", "users", len(users), "sent", sent)
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) editText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) ack(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Debugw("callback ack", "error", err)
	}
}
