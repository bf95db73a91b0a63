package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dental-bot/api/internal/dental"
	"dental-bot/api/internal/inflight"
	"dental-bot/api/internal/llm"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fileURL  string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	if b.fileURL == "" {
		return "", errors.New("no such file")
	}
	return b.fileURL + "/" + fileID, nil
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) last() tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		if m, ok := b.sent[i].(tgbotapi.MessageConfig); ok {
			return m
		}
	}
	return tgbotapi.MessageConfig{}
}

type fakeEngine struct{ name, model string }

func (e fakeEngine) Name() string     { return e.name }
func (e fakeEngine) GetModel() string { return e.model }
func (e fakeEngine) GenerateStream(context.Context, string, []byte, string) (llm.Stream, error) {
	return nil, errors.New("not used")
}

type fakeScanner struct {
	analysis dental.Analysis
	err      error
	gotImage []byte
	gotEng   string
	hook     func()
}

func (s *fakeScanner) Run(ctx context.Context, engine llm.Engine, image []byte) (dental.Analysis, error) {
	s.gotImage, s.gotEng = image, engine.Name()
	if s.hook != nil {
		s.hook()
	}
	return s.analysis, s.err
}

func newTestRouter(bot *fakeBot, sc *fakeScanner) *Router {
	gem := fakeEngine{"gemini", "gemini-1.5-flash-latest"}
	gpt := fakeEngine{"gpt", "gpt-4o-mini"}
	return &Router{
		Bot:         bot,
		EngManager:  llm.NewManager(gem, gem, gpt),
		Scanner:     sc,
		Guard:       inflight.New(),
		ScanTimeout: time.Second,
		spawn:       func(f func()) { f() },
	}
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func photo(chatID int64, ids ...string) tgbotapi.Update {
	var sizes []tgbotapi.PhotoSize
	for _, id := range ids {
		sizes = append(sizes, tgbotapi.PhotoSize{FileID: id})
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Photo: sizes}}
}

func fileServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleAnalysis() dental.Analysis {
	return dental.Analysis{
		Report: dental.Report{
			CavityRisk:   dental.CavityLowRisk,
			PlaqueLevel:  dental.PlaqueModerate,
			Alignment:    dental.AlignmentPoor,
			ToothColor:   dental.ToothWhite,
			GumHealth:    dental.GumHealthy,
			OverallScore: 78,
			CareTips:     []string{"Brush", "Floss", "Rinse", "Visit", "Limit sugar"},
		},
		CompletedAt: time.Date(2026, 10, 19, 15, 4, 0, 0, time.UTC),
	}
}

func TestStartCommand(t *testing.T) {
	bot := &fakeBot{}
	newTestRouter(bot, &fakeScanner{}).HandleUpdate(command(1, "/start"))
	require.Len(t, bot.texts(), 1)
	assert.Contains(t, bot.texts()[0], instructionText)
}

func TestPlainTextGetsInstruction(t *testing.T) {
	bot := &fakeBot{}
	newTestRouter(bot, &fakeScanner{}).HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 1}, Text: "hello",
	}})
	assert.Equal(t, []string{instructionText}, bot.texts())
}

func TestEngineCommand(t *testing.T) {
	bot := &fakeBot{}
	r := newTestRouter(bot, &fakeScanner{})

	r.HandleUpdate(command(7, "/engine"))
	assert.Contains(t, bot.last().Text, "Current engine: gemini")
	assert.Contains(t, bot.last().Text, "gemini|gpt")

	r.HandleUpdate(command(7, "/engine openai"))
	assert.Contains(t, bot.last().Text, "✅ Engine: gpt")
	assert.Equal(t, "gpt", r.EngManager.Get(7).Name())
	assert.Equal(t, "gemini", r.EngManager.Get(8).Name(), "other chats keep the default")

	r.HandleUpdate(command(7, "/engine yandex"))
	assert.True(t, strings.HasPrefix(bot.last().Text, "❌"))
	assert.Equal(t, "gpt", r.EngManager.Get(7).Name())
}

func TestPhotoScanRepliesWithReport(t *testing.T) {
	srv := fileServer(t, "jpeg-bytes")
	bot := &fakeBot{fileURL: srv.URL}
	sc := &fakeScanner{analysis: sampleAnalysis()}
	r := newTestRouter(bot, sc)

	r.HandleUpdate(photo(5, "small", "large"))

	assert.Equal(t, []byte("jpeg-bytes"), sc.gotImage)
	assert.Equal(t, "gemini", sc.gotEng)
	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, analyzingText, texts[0])
	assert.Contains(t, texts[1], "Overall Score: 78/100")
	assert.NotNil(t, bot.last().ReplyMarkup)
	assert.False(t, r.Guard.InProgress(chatKey(5)), "guard released after the scan")
}

func TestPhotoScanNoTeeth(t *testing.T) {
	srv := fileServer(t, "img")
	bot := &fakeBot{fileURL: srv.URL}
	r := newTestRouter(bot, &fakeScanner{err: dental.ErrNoTeethFound})

	r.HandleUpdate(photo(5, "p"))
	assert.Equal(t, noTeethText, bot.last().Text)
}

func TestPhotoScanDownloadFailure(t *testing.T) {
	srv := fileServer(t, "img")
	bot := &fakeBot{fileURL: srv.URL}
	sc := &fakeScanner{}
	r := newTestRouter(bot, sc)

	r.HandleUpdate(photo(5, "missing"))
	assert.Equal(t, genericErrorText, bot.last().Text)
	assert.Nil(t, sc.gotImage, "scanner is not called without an image")
	assert.False(t, r.Guard.InProgress(chatKey(5)))
}

func TestSecondPhotoWhileBusy(t *testing.T) {
	srv := fileServer(t, "img")
	bot := &fakeBot{fileURL: srv.URL}
	sc := &fakeScanner{analysis: sampleAnalysis()}
	r := newTestRouter(bot, sc)

	sc.hook = func() { r.HandleUpdate(photo(5, "again")) }
	r.HandleUpdate(photo(5, "first"))

	texts := bot.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, analyzingText, texts[0])
	assert.Equal(t, busyText, texts[1])
	assert.Contains(t, texts[2], "Overall Score")
}

func TestDocumentImageAccepted(t *testing.T) {
	id, ok := imageFileID(tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png"}})
	assert.True(t, ok)
	assert.Equal(t, "doc", id)

	_, ok = imageFileID(tgbotapi.Message{Document: &tgbotapi.Document{FileID: "pdf", MimeType: "application/pdf"}})
	assert.False(t, ok)
}

func TestScanAgainCallback(t *testing.T) {
	bot := &fakeBot{}
	r := newTestRouter(bot, &fakeScanner{})

	r.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "scan_again",
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: 3}},
	}})

	require.Len(t, bot.requests, 1)
	assert.Equal(t, instructionText, bot.last().Text)
}
