package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleVoice transcribes a voice note and opens a creation flow prefilled
// with what the parser understood.
func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) error {
	if b.voice == nil || !b.voice.Enabled() {
		return b.sendText(msg.Chat.ID, msgVoiceOff)
	}
	log := b.log.WithUserID(msg.From.ID)

	fileURL, err := b.api.GetFileDirectURL(msg.Voice.FileID)
	if err != nil {
		log.WithError(err).Warnw("resolve voice file")
		return b.sendText(msg.Chat.ID, msgVoiceFailed)
	}

	transcript, parsed, err := b.voice.FromURL(ctx, fileURL, b.now())
	if err != nil {
		log.WithError(err).Warnw("process voice note")
		return b.sendText(msg.Chat.ID, msgVoiceFailed)
	}
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("🎙️ Ouvi: <i>%s</i>", escape(transcript))); err != nil {
		return err
	}

	reply, err := b.flow.StartFromVoice(ctx, msg.From.ID, parsed)
	if err != nil {
		return err
	}
	return b.renderFlow(msg.Chat.ID, 0, reply)
}
