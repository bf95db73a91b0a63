package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"dental-bot/api/internal/logging"
	"dental-bot/api/internal/metrics"
	"dental-bot/api/internal/util"
)

// maxDownloadBytes caps what we read from Telegram's file endpoint.
const maxDownloadBytes = 20 << 20

// imageFileID picks the largest photo size, or an image sent as a file.
func imageFileID(msg tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && util.IsImageMIME(msg.Document.MimeType) {
		return msg.Document.FileID, true
	}
	return "", false
}

func chatKey(chatID int64) string { return "chat:" + strconv.FormatInt(chatID, 10) }

// acceptPhoto starts a scan unless this chat already has one running.
func (r *Router) acceptPhoto(chatID int64, fileID string) {
	key := chatKey(chatID)
	if !r.Guard.TryAcquire(key) {
		metrics.RejectedBusyTotal.WithLabelValues("telegram").Inc()
		r.send(chatID, busyText)
		return
	}
	r.send(chatID, analyzingText)

	spawn := r.spawn
	if spawn == nil {
		spawn = func(f func()) { go f() }
	}
	spawn(func() {
		defer r.Guard.Release(key)
		r.scanAndReply(chatID, fileID)
	})
}

func (r *Router) scanAndReply(chatID int64, fileID string) {
	ctx := context.Background()
	if r.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ScanTimeout)
		defer cancel()
	}
	log := r.logger().With(zap.Int64("chat_id", chatID))

	img, err := r.download(ctx, fileID)
	if err != nil {
		log.Error("photo download failed", zap.Error(logging.NewOperationError("telegram.download", "", err)))
		r.send(chatID, genericErrorText)
		return
	}

	eng := r.EngManager.Get(chatID)
	a, err := r.Scanner.Run(ctx, eng, img)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, UserMessage(err))
		msg.ReplyMarkup = makeNewScanKeyboard()
		r.sendMessage(msg)
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatReport(a))
	msg.ReplyMarkup = makeNewScanKeyboard()
	r.sendMessage(msg)
}

func (r *Router) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxDownloadBytes {
		return nil, fmt.Errorf("file larger than %d bytes", maxDownloadBytes)
	}
	return b, nil
}

func (r *Router) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
