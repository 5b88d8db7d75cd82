package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-manager-bot/internal/calendar"
	"task-manager-bot/internal/model"
)

const (
	menuLabelNewTask = "➕ Nova tarefa"
	menuLabelTasks   = "📋 Tarefas"
	menuLabelToday   = "📅 Hoje"
	menuLabelStats   = "📊 Estatísticas"

	btnNoTime     = "Sem hora"
	btnNoCategory = "📭 Sem categoria"
	btnCancel     = "❌ Cancelar"
	btnAddCal     = "📆 Adicionar ao Google Calendar"

	slotsPerRow = 4
	maxPickList = 10
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// flowCancelButton cancels the creation flow from any step.
func flowCancelButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(btnCancel, calendar.Cancel().Token())
}

func priorityKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(model.Priorities)+1)
	for _, p := range model.Priorities {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(priorityEmoji(p)+" "+string(p), priorityToken(p)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(flowCancelButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func calendarKeyboard(grid calendar.Grid) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, cell := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(cell.Label, cell.Action.Token()))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func timeKeyboard(slots []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(slots)/slotsPerRow+2)
	var row []tgbotapi.InlineKeyboardButton
	for _, slot := range slots {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(slot, timeToken(slot)))
		if len(row) == slotsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnNoTime, timeToken("")),
		flowCancelButton(),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoryKeyboard(categories []model.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)/2+2)
	var row []tgbotapi.InlineKeyboardButton
	for _, cat := range categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(cat.Label(), categoryToken(cat.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnNoCategory, categoryToken(0)),
		flowCancelButton(),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// taskPickKeyboard lists up to maxPickList tasks, one button each.
func taskPickKeyboard(tasks []model.Task, icon func(model.Task) string, token func(uint) string) tgbotapi.InlineKeyboardMarkup {
	if len(tasks) > maxPickList {
		tasks = tasks[:maxPickList]
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks)+1)
	for _, task := range tasks {
		label := fmt.Sprintf("%s %s", icon(task), shortTitle(task.Title, 40))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, token(task.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbDismiss),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoryDeleteKeyboard(categories []model.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, cat := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ "+cat.Label(), deleteCategoryToken(cat.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbDismiss),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func suggestionKeyboard(actions []model.SuggestedAction) *tgbotapi.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.Label, a.ActionToken),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// createdKeyboard offers the calendar export when the task has a date.
func createdKeyboard(link string) interface{} {
	if link == "" {
		return mainMenuKeyboard()
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonURL(btnAddCal, link),
	))
}
