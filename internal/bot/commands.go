package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"task-manager-bot/internal/flow"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/service"
)

const helpText = `📚 <b>Comandos disponíveis</b>

<b>Tarefas:</b>
/nova_tarefa - Criar nova tarefa
/tarefas - Ver tarefas pendentes
/hoje - Tarefas para hoje
/concluir - Marcar como concluída
/apagar_tarefa - Apagar tarefa
/prioridade &lt;id&gt; &lt;Alta|Média|Baixa&gt; - Mudar prioridade
/cancelar - Cancelar a criação em curso

<b>Categorias:</b>
/categorias - Ver categorias
/nova_categoria &lt;emoji&gt; &lt;nome&gt; - Criar categoria
/apagar_categoria - Apagar categoria

<b>Outros:</b>
/stats - Ver estatísticas
/sugestao - Pedir uma sugestão ao assistente
/help - Mostrar esta mensagem

🎙️ Também podes enviar uma mensagem de voz para criar uma tarefa.`

func commandList() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Iniciar o bot"},
		{Command: "help", Description: "Mostrar ajuda"},
		{Command: "nova_tarefa", Description: "Criar nova tarefa"},
		{Command: "tarefas", Description: "Ver tarefas pendentes"},
		{Command: "hoje", Description: "Tarefas de hoje"},
		{Command: "concluir", Description: "Marcar como concluída"},
		{Command: "apagar_tarefa", Description: "Apagar tarefa"},
		{Command: "stats", Description: "Ver estatísticas"},
		{Command: "categorias", Description: "Ver categorias"},
		{Command: "sugestao", Description: "Sugestão do assistente"},
		{Command: "cancelar", Description: "Cancelar criação de tarefa"},
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "nova_tarefa":
		return b.handleNewTask(ctx, msg)
	case "tarefas":
		return b.handleListTasks(ctx, msg)
	case "hoje":
		return b.handleToday(ctx, msg)
	case "concluir":
		return b.handleComplete(ctx, msg)
	case "apagar_tarefa":
		return b.handleDelete(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "categorias":
		return b.handleCategories(ctx, msg)
	case "nova_categoria":
		return b.handleNewCategory(ctx, msg)
	case "apagar_categoria":
		return b.handleDeleteCategory(ctx, msg)
	case "prioridade":
		return b.handlePriority(ctx, msg)
	case "sugestao":
		return b.handleSuggestion(ctx, msg)
	case "cancelar":
		return b.handleCancel(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, msgUnknownInput)
	}
}

// handleMenuAlias maps the reply keyboard labels to their commands.
func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.handleNewTask(ctx, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg)
	case menuLabelToday:
		return true, b.handleToday(ctx, msg)
	case menuLabelStats:
		return true, b.handleStats(ctx, msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "olá"
	}
	text := fmt.Sprintf(`👋 <b>Olá, %s!</b>

Bem-vindo ao <b>Task Manager Bot</b>!

📋 <b>Comandos principais:</b>
/nova_tarefa - Criar tarefa
/tarefas - Ver tarefas pendentes
/hoje - Tarefas de hoje
/stats - Estatísticas

Escreve /help para ver todos os comandos!`, escape(name))
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleNewTask(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := b.flow.Start(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return b.renderFlow(msg.Chat.ID, 0, reply)
}

func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := b.flow.Cancel(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if reply.Kind == flow.ReplyNoSession {
		return b.sendText(msg.Chat.ID, msgNothingToCancel)
	}
	return b.renderFlow(msg.Chat.ID, 0, reply)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	tasks, err := b.tasks.ListPending(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatTaskList(tasks, b.now()))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	tasks, err := b.tasks.TodayTasks(ctx, msg.From.ID, b.now())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatToday(tasks))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	stats, err := b.tasks.Stats(ctx, msg.From.ID, b.now())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatStats(stats))
}

// handleComplete completes the task given as argument, or offers a picker.
func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		id, err := strconv.ParseUint(strings.TrimPrefix(arg, "#"), 10, 32)
		if err != nil || id == 0 {
			return b.sendText(msg.Chat.ID, "Uso: /concluir &lt;id&gt;")
		}
		task, err := b.tasks.GetTask(ctx, msg.From.ID, uint(id))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, msgTaskNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := b.tasks.CompleteTask(ctx, msg.From.ID, task.ID, b.now()); err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, formatCompleted(*task))
	}

	tasks, err := b.tasks.ListPending(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, msgNoPending)
	}
	kb := taskPickKeyboard(tasks, func(t model.Task) string { return priorityEmoji(t.Priority) }, doneToken)
	return b.sendWithReplyMarkup(msg.Chat.ID, "✅ <b>Concluir Tarefa</b>\n\nSeleciona a tarefa:", kb)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	tasks, err := b.tasks.ListPending(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "Não há tarefas para apagar!")
	}
	kb := taskPickKeyboard(tasks, func(model.Task) string { return "🗑️" }, deleteToken)
	return b.sendWithReplyMarkup(msg.Chat.ID, "🗑️ <b>Apagar Tarefa</b>\n\nSeleciona a tarefa:", kb)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	categories, err := b.categories.List(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatCategories(categories))
}

func (b *Bot) handleNewCategory(ctx context.Context, msg *tgbotapi.Message) error {
	emoji, name := splitCategoryArgs(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Uso: /nova_categoria &lt;emoji&gt; &lt;nome&gt;\nExemplo: /nova_categoria 📚 Estudos")
	}
	added, err := b.categories.Add(ctx, msg.From.ID, name, emoji)
	if errors.Is(err, service.ErrInvalidCategory) {
		return b.sendText(msg.Chat.ID, "❌ Nome de categoria inválido (máximo 64 caracteres).")
	}
	if err != nil {
		return err
	}
	if !added {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("ℹ️ A categoria <b>%s</b> já existe.", escape(name)))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Categoria <b>%s</b> criada!", escape(model.Category{Name: name, Emoji: emoji}.Label())))
}

// splitCategoryArgs reads "<emoji> <name>". A first word without letters or
// digits is the emoji; otherwise the whole text is the name.
func splitCategoryArgs(args string) (emoji, name string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", ""
	}
	fields := strings.Fields(args)
	if len(fields) > 1 && !hasLetterOrDigit(fields[0]) {
		return fields[0], strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	}
	if len(fields) == 1 && !hasLetterOrDigit(fields[0]) {
		return fields[0], ""
	}
	return "", args
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func (b *Bot) handleDeleteCategory(ctx context.Context, msg *tgbotapi.Message) error {
	categories, err := b.categories.List(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Não há categorias para apagar!")
	}
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"🗑️ <b>Apagar Categoria</b>\n\nAs tarefas mantêm o nome da categoria.\nSeleciona a categoria:",
		categoryDeleteKeyboard(categories))
}

func (b *Bot) handlePriority(ctx context.Context, msg *tgbotapi.Message) error {
	const usage = "Uso: /prioridade &lt;id&gt; &lt;Alta|Média|Baixa&gt;"
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, usage)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "#"), 10, 32)
	if err != nil || id == 0 {
		return b.sendText(msg.Chat.ID, usage)
	}
	p, changed, err := b.tasks.SetPriority(ctx, msg.From.ID, uint(id), fields[1])
	if errors.Is(err, service.ErrInvalidTask) {
		return b.sendText(msg.Chat.ID, usage)
	}
	if err != nil {
		return err
	}
	if !changed {
		return b.sendText(msg.Chat.ID, msgTaskNotFound)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("⚡ Prioridade da tarefa <code>%d</code> alterada para %s %s.", id, priorityEmoji(p), p))
}

func (b *Bot) handleSuggestion(ctx context.Context, msg *tgbotapi.Message) error {
	if b.assistant == nil {
		return b.sendText(msg.Chat.ID, msgAssistantOff)
	}
	sg, err := b.assistant.Suggest(ctx, msg.From.ID, b.now())
	switch {
	case errors.Is(err, service.ErrAssistantDisabled):
		return b.sendText(msg.Chat.ID, msgAssistantOff)
	case errors.Is(err, service.ErrRateLimited):
		return b.sendText(msg.Chat.ID, msgRateLimited)
	case err != nil:
		return err
	}

	text := formatSuggestion(sg)
	if kb := suggestionKeyboard(sg.SuggestedActions); kb != nil {
		if err := b.sendWithReplyMarkup(msg.Chat.ID, text, *kb); err != nil {
			return err
		}
	} else if err := b.sendText(msg.Chat.ID, text); err != nil {
		return err
	}

	if sg.Kind == model.SuggestionNone || sg.Kind == model.SuggestionError {
		return nil
	}
	b.sendSpoken(ctx, msg.Chat.ID, msg.From.ID, sg.Message)
	return nil
}

// sendSpoken voices text when speech synthesis is available. Failures only
// cost the audio.
func (b *Bot) sendSpoken(ctx context.Context, chatID, userID int64, text string) {
	path := b.assistant.Speak(ctx, userID, text)
	if path == "" {
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			b.log.Debugw("remove speech file", "path", path, "error", err)
		}
	}()
	if _, err := b.api.Send(tgbotapi.NewVoice(chatID, tgbotapi.FilePath(path))); err != nil {
		b.log.WithUserID(userID).Warnw("send voice note", "error", err)
	}
}
