package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"task-manager-bot/internal/model"
)

const suggestSystem = "És um assistente de produtividade especializado em gestão de tarefas. Responde sempre em português de Portugal e apenas em JSON válido."

const suggestPrompt = `Analisa a lista de tarefas pendentes de um utilizador e dá UMA sugestão útil, concreta e acionável.

Tarefas:
%s

Data de hoje: %s

Tipos permitidos em "kind":
- "priority": várias tarefas na mesma data; indica qual fazer primeiro.
- "split_task": uma tarefa grande ou vaga; sugere sub-tarefas.
- "set_date": uma tarefa importante sem data; sugere definir uma.
- "group": várias tarefas da mesma categoria; sugere agrupá-las num dia.
- "none": as tarefas estão bem organizadas.

Botões em "suggested_actions" só podem usar estes "action_token":
- "ai:accept" e "ai:ignore"
- "ai:done:<id>" para marcar uma tarefa como concluída
- "ai:priority:<id>:<Alta|Média|Baixa>" para mudar a prioridade

Formato:
{"kind": "...", "message": "texto com emojis", "related_task_id": 4, "suggested_actions": [{"label": "✅ Concordo", "action_token": "ai:accept"}]}`

// Suggest asks the chat model for one suggestion. Unknown kinds are
// reported as "error".
func (c *Client) Suggest(ctx context.Context, tasks []model.TaskBrief, today time.Time) (model.Suggestion, error) {
	payload, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("encode tasks: %w", err)
	}
	prompt := fmt.Sprintf(suggestPrompt, payload, today.Format("2006-01-02"))

	var sg model.Suggestion
	if err := c.chatJSON(ctx, suggestSystem, prompt, 0.7, &sg); err != nil {
		return model.Suggestion{}, err
	}
	if !sg.Kind.Valid() {
		sg.Kind = model.SuggestionError
	}
	return sg, nil
}
