package ai

import (
	"context"
	"fmt"
	"time"

	"task-manager-bot/internal/model"
)

const parseSystem = "És um assistente que extrai tarefas de comandos de voz em português. Responde sempre em JSON válido."

const parsePrompt = `Data e hora atuais: %s (%s), %s

Comando de voz:
"%s"

Extrai:
1. "title" (obrigatório): o que o utilizador quer fazer.
2. "due_date" (YYYY-MM-DD): "hoje" = %s, "amanhã" = %s, dias da semana = próxima ocorrência.
3. "due_time" (HH:MM, 24h): "15h" = 15:00, "meio-dia" = 12:00.
4. "priority": exatamente "Alta", "Média" ou "Baixa". "urgente" = Alta, "quando puder" = Baixa.
5. "category": tipo de tarefa (trabalho, pessoal, compras...).

Usa null para o que não for mencionado. "confidence" vai de 0.0 a 1.0.
"missing_fields" lista os campos que vale a pena perguntar.

Formato:
{"title": "...", "due_date": null, "due_time": null, "priority": null, "category": null, "confidence": 0.8, "missing_fields": ["due_date"]}`

var weekdaysPT = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

type voiceResponse struct {
	Title         string   `json:"title"`
	DueDate       *string  `json:"due_date"`
	DueTime       *string  `json:"due_time"`
	Priority      *string  `json:"priority"`
	Category      *string  `json:"category"`
	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missing_fields"`
}

// Parse extracts a task draft from a transcript.
func (c *Client) Parse(ctx context.Context, transcript string, now time.Time) (model.VoiceTask, error) {
	prompt := fmt.Sprintf(parsePrompt,
		now.Format("2006-01-02"), weekdaysPT[now.Weekday()], now.Format("15:04"),
		transcript,
		now.Format("2006-01-02"), now.AddDate(0, 0, 1).Format("2006-01-02"),
	)

	var resp voiceResponse
	if err := c.chatJSON(ctx, parseSystem, prompt, 0.3, &resp); err != nil {
		return model.VoiceTask{}, err
	}
	return resp.toVoiceTask(), nil
}

func (r voiceResponse) toVoiceTask() model.VoiceTask {
	return model.VoiceTask{
		Title:         r.Title,
		DueDate:       value(r.DueDate),
		DueTime:       value(r.DueTime),
		Priority:      value(r.Priority),
		Category:      value(r.Category),
		Confidence:    r.Confidence,
		MissingFields: r.MissingFields,
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
