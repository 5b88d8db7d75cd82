package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"task-manager-bot/internal/calendar"
	"task-manager-bot/internal/flow"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/service"
)

const (
	cbPriorityPrefix       = "pri:"
	cbTimePrefix           = "time:"
	cbCategoryPrefix       = "cat:"
	cbDonePrefix           = "done:"
	cbDeletePrefix         = "del:"
	cbDeleteCategoryPrefix = "delcat:"
	cbDismiss              = "dismiss"
	noTimeSlot             = "none"
)

type callbackKind int

const (
	callbackCalendar callbackKind = iota + 1
	callbackPriority
	callbackTime
	callbackCategory
	callbackDone
	callbackDelete
	callbackDeleteCategory
	callbackAssistant
	callbackDismiss
)

// callback is callback data decoded once into the variant it addresses.
type callback struct {
	kind      callbackKind
	calendar  calendar.Action
	priority  model.Priority
	slot      string
	id        uint
	assistant service.AssistantAction
}

var errBadCallback = errors.New("malformed callback data")

func parseCallback(data string) (callback, error) {
	switch {
	case strings.HasPrefix(data, calendar.TokenPrefix):
		a, err := calendar.ParseToken(data)
		if err != nil {
			return callback{}, err
		}
		return callback{kind: callbackCalendar, calendar: a}, nil

	case strings.HasPrefix(data, service.AssistantTokenPrefix):
		a, ok := service.ParseAssistantAction(data)
		if !ok {
			return callback{}, errBadCallback
		}
		return callback{kind: callbackAssistant, assistant: a}, nil

	case strings.HasPrefix(data, cbPriorityPrefix):
		p, ok := model.ParsePriority(strings.TrimPrefix(data, cbPriorityPrefix))
		if !ok {
			return callback{}, errBadCallback
		}
		return callback{kind: callbackPriority, priority: p}, nil

	case strings.HasPrefix(data, cbTimePrefix):
		slot := strings.TrimPrefix(data, cbTimePrefix)
		if slot == noTimeSlot {
			return callback{kind: callbackTime}, nil
		}
		if slot == "" {
			return callback{}, errBadCallback
		}
		return callback{kind: callbackTime, slot: slot}, nil

	case strings.HasPrefix(data, cbCategoryPrefix):
		id, err := parseID(data, cbCategoryPrefix, true)
		if err != nil {
			return callback{}, err
		}
		return callback{kind: callbackCategory, id: id}, nil

	case strings.HasPrefix(data, cbDonePrefix):
		id, err := parseID(data, cbDonePrefix, false)
		if err != nil {
			return callback{}, err
		}
		return callback{kind: callbackDone, id: id}, nil

	case strings.HasPrefix(data, cbDeleteCategoryPrefix):
		id, err := parseID(data, cbDeleteCategoryPrefix, false)
		if err != nil {
			return callback{}, err
		}
		return callback{kind: callbackDeleteCategory, id: id}, nil

	case strings.HasPrefix(data, cbDeletePrefix):
		id, err := parseID(data, cbDeletePrefix, false)
		if err != nil {
			return callback{}, err
		}
		return callback{kind: callbackDelete, id: id}, nil

	case data == cbDismiss:
		return callback{kind: callbackDismiss}, nil
	}
	return callback{}, errBadCallback
}

func parseID(data, prefix string, allowZero bool) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(data, prefix), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadCallback, err)
	}
	if v == 0 && !allowZero {
		return 0, errBadCallback
	}
	return uint(v), nil
}

func priorityToken(p model.Priority) string { return cbPriorityPrefix + string(p) }

func timeToken(slot string) string {
	if slot == "" {
		return cbTimePrefix + noTimeSlot
	}
	return cbTimePrefix + slot
}

func categoryToken(id uint) string { return fmt.Sprintf("%s%d", cbCategoryPrefix, id) }

func doneToken(id uint) string { return fmt.Sprintf("%s%d", cbDonePrefix, id) }

func deleteToken(id uint) string { return fmt.Sprintf("%s%d", cbDeletePrefix, id) }

func deleteCategoryToken(id uint) string { return fmt.Sprintf("%s%d", cbDeleteCategoryPrefix, id) }

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	parsed, err := parseCallback(cb.Data)
	if err != nil {
		b.log.WithUserID(userID).Debugw("ignored callback", "data", cb.Data, "error", err)
		b.ack(cb.ID, "")
		return nil
	}
	b.ack(cb.ID, "")

	switch parsed.kind {
	case callbackCalendar:
		reply, err := b.flow.HandleCalendar(ctx, userID, parsed.calendar)
		if err != nil {
			return err
		}
		return b.renderFlow(chatID, messageID, reply)

	case callbackPriority:
		reply, err := b.flow.ChoosePriority(ctx, userID, string(parsed.priority))
		if err != nil {
			return err
		}
		return b.renderFlow(chatID, messageID, reply)

	case callbackTime:
		reply, err := b.flow.ChooseTime(ctx, userID, parsed.slot)
		if err != nil {
			return err
		}
		return b.renderFlow(chatID, messageID, reply)

	case callbackCategory:
		reply, err := b.flow.ChooseCategory(ctx, userID, parsed.id)
		if err != nil {
			return err
		}
		return b.renderFlow(chatID, messageID, reply)

	case callbackDone:
		return b.completeTask(ctx, chatID, messageID, userID, parsed.id)

	case callbackDelete:
		return b.deleteTask(ctx, chatID, messageID, userID, parsed.id)

	case callbackDeleteCategory:
		return b.deleteCategory(ctx, chatID, messageID, userID, parsed.id)

	case callbackAssistant:
		if b.assistant == nil {
			return b.editText(chatID, messageID, msgAssistantOff, nil)
		}
		text, err := b.assistant.Apply(ctx, userID, parsed.assistant, b.now())
		if err != nil {
			return err
		}
		return b.editText(chatID, messageID, text, nil)

	case callbackDismiss:
		return b.editText(chatID, messageID, msgOperationCancelled, nil)
	}
	return nil
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, messageID int, userID int64, taskID uint) error {
	task, err := b.tasks.GetTask(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.editText(chatID, messageID, msgTaskNotFound, nil)
	}
	if err != nil {
		return err
	}
	if _, err := b.tasks.CompleteTask(ctx, userID, taskID, b.now()); err != nil {
		return err
	}
	return b.editText(chatID, messageID, formatCompleted(*task), nil)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, messageID int, userID int64, taskID uint) error {
	task, err := b.tasks.GetTask(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.editText(chatID, messageID, msgTaskNotFound, nil)
	}
	if err != nil {
		return err
	}
	if _, err := b.tasks.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}
	return b.editText(chatID, messageID, formatDeleted(*task), nil)
}

func (b *Bot) deleteCategory(ctx context.Context, chatID int64, messageID int, userID int64, id uint) error {
	cat, err := b.categories.Get(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.editText(chatID, messageID, msgCategoryNotFound, nil)
	}
	if err != nil {
		return err
	}
	if _, err := b.categories.Delete(ctx, userID, id); err != nil {
		return err
	}
	return b.editText(chatID, messageID, fmt.Sprintf("🗑️ Categoria <b>%s</b> apagada.", escape(cat.Label())), nil)
}

// renderFlow shows a controller reply. Calendar navigation edits the
// picker in place; everything else is a new message.
func (b *Bot) renderFlow(chatID int64, messageID int, reply flow.Reply) error {
	switch reply.Kind {
	case flow.ReplyIgnored:
		return nil
	case flow.ReplyNoSession:
		if messageID != 0 {
			return b.editText(chatID, messageID, msgSessionExpired, nil)
		}
		return b.sendText(chatID, msgSessionExpired)
	case flow.ReplyCancelled:
		return b.sendText(chatID, msgFlowCancelled)
	case flow.ReplyCreated:
		return b.sendWithReplyMarkup(chatID, formatCreated(reply), createdKeyboard(reply.CalendarLink))
	}

	text, markup := flowPrompt(reply)
	if messageID != 0 && reply.Kind == flow.ReplyAskDate && !reply.Retry && !reply.Stale && markup != nil {
		return b.editText(chatID, messageID, text, markup)
	}
	if markup == nil {
		return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true))
	}
	return b.sendWithReplyMarkup(chatID, text, *markup)
}
