package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if _, err := r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.logger().Debug("callback ack failed", zap.Error(err))
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID

	switch cb.Data {
	case "scan_again":
		// drop the button so it cannot be pressed twice
		edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		})
		if _, err := r.Bot.Send(edit); err != nil {
			r.logger().Debug("keyboard removal failed", zap.Error(err))
		}
		if r.Guard.InProgress(chatKey(cid)) {
			r.send(cid, busyText)
			return
		}
		r.send(cid, instructionText)
	}
}
