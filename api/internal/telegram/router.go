package telegram

import (
	"context"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"dental-bot/api/internal/dental"
	"dental-bot/api/internal/inflight"
	"dental-bot/api/internal/llm"
)

// Bot is the part of *tgbotapi.BotAPI the router talks to.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Scanner runs one scan; *scan.Pipeline implements it.
type Scanner interface {
	Run(ctx context.Context, engine llm.Engine, image []byte) (dental.Analysis, error)
}

type Router struct {
	Bot        Bot
	EngManager *llm.Manager
	Scanner    Scanner
	Guard      *inflight.Guard
	Logger     *zap.Logger

	ScanTimeout time.Duration
	HTTPClient  *http.Client

	// spawn runs a scan off the update loop; tests replace it to run inline.
	spawn func(func())
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	if msg.IsCommand() {
		r.HandleCommand(*msg)
		return
	}
	if fileID, ok := imageFileID(*msg); ok {
		r.acceptPhoto(msg.Chat.ID, fileID)
		return
	}
	if msg.Text != "" {
		r.send(msg.Chat.ID, instructionText)
	}
}

func (r *Router) HandleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, startText)
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		r.handleEngineCommand(cid, msg.CommandArguments())
	default:
		r.send(cid, "Unknown command. Try /start")
	}
}

// handleEngineCommand switches the engine for one chat.
//
//	/engine
//	/engine gemini [model]
//	/engine gpt [model]
func (r *Router) handleEngineCommand(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		cur := r.EngManager.Get(chatID)
		r.send(chatID, "Current engine: "+cur.Name()+" ("+cur.GetModel()+")"+
			"\nUsage: /engine {"+strings.Join(r.EngManager.Names(), "|")+"} [model]")
		return
	}

	eng, err := r.EngManager.Lookup(fields[0])
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	if len(fields) > 1 {
		if ms, ok := eng.(llm.ModelSwitcher); ok {
			eng = ms.WithModel(fields[1])
		}
	}
	r.EngManager.Set(chatID, eng)
	r.send(chatID, "✅ Engine: "+eng.Name()+" ("+eng.GetModel()+").")
}

func (r *Router) send(chatID int64, text string) {
	r.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (r *Router) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
