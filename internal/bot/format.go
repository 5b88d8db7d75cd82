package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-manager-bot/internal/flow"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/schedule"
)

const (
	msgUnknownInput       = "🤔 Não percebi. Usa /nova_tarefa para criar uma tarefa ou /help para ver os comandos."
	msgSessionExpired     = "⌛ Esta criação de tarefa já expirou. Usa /nova_tarefa para começar de novo."
	msgFlowCancelled      = "❌ Criação de tarefa cancelada."
	msgNothingToCancel    = "ℹ️ Não há nada para cancelar."
	msgOperationCancelled = "❌ Operação cancelada."
	msgTaskNotFound       = "❌ Tarefa não encontrada."
	msgCategoryNotFound   = "❌ Categoria não encontrada."
	msgNoPending          = "✅ Não tens tarefas pendentes!"
	msgNoneToday          = "✅ Não há tarefas para hoje!"
	msgAssistantOff       = "🤖 O assistente não está disponível."
	msgRateLimited        = "⏳ Acabei de te dar uma sugestão. Tenta novamente daqui a pouco."
	msgVoiceOff           = "🎙️ Mensagens de voz não estão disponíveis."
	msgVoiceFailed        = "❌ Não consegui processar o áudio. Tenta escrever com /nova_tarefa."
)

func escape(s string) string {
	return html.EscapeString(s)
}

func priorityEmoji(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟡"
	case model.PriorityLow:
		return "🟢"
	}
	return "⚪"
}

func shortTitle(title string, maxLen int) string {
	title = normalizeTitle(title)
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return strings.TrimSpace(string(runes[:maxLen-1])) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func dueLine(task model.Task, now time.Time) string {
	due := task.Due()
	if due == "" {
		return ""
	}
	date := schedule.FormatDate(due)
	if t := task.Time(); t != "" {
		date += " às " + t
	}
	if schedule.IsOverdue(due, task.Time(), now) {
		return "⚠️ Atrasada - " + date
	}
	return fmt.Sprintf("📅 %s (%s)", schedule.RelativeDateText(due, now), date)
}

func formatTaskList(tasks []model.Task, now time.Time) string {
	if len(tasks) == 0 {
		return msgNoPending
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Tarefas Pendentes</b> (%d)\n\n", len(tasks)))
	for _, task := range tasks {
		b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", priorityEmoji(task.Priority), escape(normalizeTitle(task.Title))))
		if line := dueLine(task, now); line != "" {
			b.WriteString("   " + line + "\n")
		}
		if category := task.CategoryName(); category != "" {
			b.WriteString(fmt.Sprintf("   🏷️ %s\n", escape(category)))
		}
		b.WriteString(fmt.Sprintf("   ID: <code>%d</code>\n\n", task.ID))
	}
	b.WriteString("💡 Usa /concluir para marcar como concluída")
	return b.String()
}

func formatToday(tasks []model.Task) string {
	if len(tasks) == 0 {
		return msgNoneToday
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Tarefas de Hoje</b> (%d)\n\n", len(tasks)))
	for _, task := range tasks {
		b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", priorityEmoji(task.Priority), escape(normalizeTitle(task.Title))))
		if t := task.Time(); t != "" {
			b.WriteString(fmt.Sprintf("   ⏰ %s\n", t))
		}
		if category := task.CategoryName(); category != "" {
			b.WriteString(fmt.Sprintf("   🏷️ %s\n", escape(category)))
		}
		b.WriteString(fmt.Sprintf("   ID: <code>%d</code>\n\n", task.ID))
	}
	return strings.TrimSpace(b.String())
}

func formatStats(s model.Stats) string {
	return fmt.Sprintf(`📊 <b>As tuas estatísticas</b>

📋 Total de tarefas: <b>%d</b>
✅ Concluídas: <b>%d</b>
⏳ Pendentes: <b>%d</b>
📈 Taxa de conclusão: <b>%.1f%%</b>

🎯 <b>Hoje:</b> %d concluída(s)
📅 <b>Esta semana:</b> %d concluída(s)`,
		s.Total, s.Completed, s.Pending, s.CompletionRate, s.CompletedToday, s.CompletedWeek)
}

func formatCategories(categories []model.Category) string {
	if len(categories) == 0 {
		return "🏷️ Ainda não tens categorias. Cria uma com /nova_categoria 📁 Nome"
	}
	var b strings.Builder
	b.WriteString("🏷️ <b>As tuas categorias</b>\n\n")
	for _, cat := range categories {
		b.WriteString(escape(cat.Label()) + "\n")
	}
	b.WriteString("\n➕ /nova_categoria &lt;emoji&gt; &lt;nome&gt;\n🗑️ /apagar_categoria")
	return b.String()
}

func formatCreated(reply flow.Reply) string {
	task := reply.Task
	var b strings.Builder
	b.WriteString("✅ <b>Tarefa criada!</b>\n\n")
	b.WriteString(fmt.Sprintf("📋 %s\n", escape(task.Title)))
	b.WriteString(fmt.Sprintf("⚡ Prioridade: %s %s\n", priorityEmoji(task.Priority), task.Priority))
	if due := task.Due(); due != "" {
		date := schedule.FormatDate(due)
		if t := task.Time(); t != "" {
			date += " às " + t
		}
		b.WriteString(fmt.Sprintf("📅 %s\n", date))
	}
	if category := task.CategoryName(); category != "" {
		b.WriteString(fmt.Sprintf("🏷️ %s\n", escape(category)))
	}
	b.WriteString(fmt.Sprintf("ID: <code>%d</code>", task.ID))
	return b.String()
}

func formatCompleted(task model.Task) string {
	return fmt.Sprintf("✅ <b>Tarefa concluída!</b>\n\n📋 %s\n\n🎉 Parabéns!", escape(task.Title))
}

func formatDeleted(task model.Task) string {
	return fmt.Sprintf("🗑️ <b>Tarefa apagada!</b>\n\n📋 %s", escape(task.Title))
}

func formatSuggestion(sg model.Suggestion) string {
	return "🤖 <b>Sugestão</b>\n\n" + escape(sg.Message)
}

// flowPrompt renders the question for an ask-reply. A nil markup means the
// prompt expects free text.
func flowPrompt(r flow.Reply) (string, *tgbotapi.InlineKeyboardMarkup) {
	var b strings.Builder
	if r.Stale {
		b.WriteString("ℹ️ Esse botão já não está ativo.\n\n")
	}

	var markup tgbotapi.InlineKeyboardMarkup
	sg := r.Draft.Suggested
	hint := ""

	switch r.Kind {
	case flow.ReplyAskTitle:
		if r.Retry {
			b.WriteString("❌ Título inválido! Envia um texto com até 200 caracteres.\n\n")
		}
		b.WriteString("📝 <b>Criar Nova Tarefa</b>\n\nEnvia o <b>título</b> da tarefa:")
		return b.String(), nil

	case flow.ReplyAskPriority:
		if r.Retry {
			b.WriteString("❌ Prioridade inválida! Escolhe Alta, Média ou Baixa.\n\n")
		}
		b.WriteString(fmt.Sprintf("📋 %s\n\n⚡ <b>Escolhe a prioridade:</b>", escape(r.Draft.Title)))
		if sg != nil && sg.Priority != "" {
			hint = string(sg.Priority)
		}
		markup = priorityKeyboard()

	case flow.ReplyAskDate:
		if r.Retry {
			b.WriteString("❌ Data inválida! Usa o formato DD/MM/AAAA ou envia \"não\".\n\n")
		}
		b.WriteString("📅 Escolhe a <b>data de vencimento</b> ou envia DD/MM/AAAA (\"não\" para pular):")
		if sg != nil && sg.DueDate != "" {
			hint = schedule.FormatDate(sg.DueDate)
		}
		if r.Grid != nil {
			markup = calendarKeyboard(*r.Grid)
		}

	case flow.ReplyAskTime:
		if r.Retry {
			b.WriteString("❌ Hora inválida! Usa o formato HH:MM ou envia \"não\".\n\n")
		}
		b.WriteString(fmt.Sprintf("📅 %s\n\n⏰ Escolhe a <b>hora</b> ou envia HH:MM (\"não\" para pular):", schedule.FormatDate(r.Draft.DueDate)))
		if sg != nil && sg.DueTime != "" {
			hint = sg.DueTime
		}
		markup = timeKeyboard(r.TimeSlots)

	case flow.ReplyAskCategory:
		if r.Retry {
			b.WriteString("❌ Categoria desconhecida! Escolhe uma das opções.\n\n")
		}
		b.WriteString("🏷️ Escolhe a <b>categoria</b>:")
		if sg != nil && sg.Category != "" {
			hint = sg.Category
		}
		markup = categoryKeyboard(r.Categories)

	default:
		return msgUnknownInput, nil
	}

	if hint != "" {
		b.WriteString(fmt.Sprintf("\n\n💡 Sugestão: <b>%s</b> (responde \"sim\" para aceitar)", escape(hint)))
	}
	return b.String(), &markup
}
