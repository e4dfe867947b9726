package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"strategy_dashboard/internal/models"
	viewsvc "strategy_dashboard/internal/modules/view/service"
)

const testChat int64 = 42

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbot.MessageConfig
	requests []tgbot.Chattable
	updates  chan tgbot.Update
}

func newFakeBot() *fakeBot { return &fakeBot{updates: make(chan tgbot.Update, 8)} }

func (f *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbot.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbot.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeBot) Request(c tgbot.Chattable) (*tgbot.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbot.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel { return f.updates }
func (f *fakeBot) StopReceivingUpdates()                                  {}

func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeBot) last() tgbot.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeViewer struct {
	mu     sync.Mutex
	screen viewsvc.Screen
}

func (f *fakeViewer) ViewStrategy(_ context.Context, id string) error {
	if id != "a" {
		return viewsvc.ErrUnknownStrategy
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = viewsvc.Screen{View: viewsvc.KindDetail, Detail: &viewsvc.Detail{
		StrategyID: id, Found: true, Loaded: true,
		Strategy:    models.Strategy{ID: "a", Name: "Alpha"},
		TotalTrades: 1, WinTrades: 1, WinRate: 100, TotalPnl: 5,
	}}
	return nil
}

func (f *fakeViewer) Back(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = viewsvc.Screen{View: viewsvc.KindAggregate, Overview: &viewsvc.Overview{
		StrategyCount: 1, Running: "0/1", TotalPnlLabel: "+0.00",
		Strategies: []viewsvc.StrategyRow{{Strategy: models.Strategy{ID: "a", Name: "Alpha"}, State: "OFF"}},
	}}
	return nil
}

func (f *fakeViewer) Current(context.Context) (viewsvc.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screen, nil
}

type fakeCommander struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCommander) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeCommander) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCommander) Start(_ context.Context, id string) { f.record("start:" + id) }
func (f *fakeCommander) Stop(_ context.Context, id string)  { f.record("stop:" + id) }
func (f *fakeCommander) StartAll(context.Context)           { f.record("start-all") }
func (f *fakeCommander) StopAll(context.Context)            { f.record("stop-all") }

type noopPrediction struct{}

func (noopPrediction) TryRefreshPrediction(context.Context) error { return nil }

func newTestBot(t *testing.T) (*Telegram, *fakeBot, *fakeCommander) {
	t.Helper()
	bot := newFakeBot()
	v := &fakeViewer{}
	require.NoError(t, v.Back(context.Background()))
	cmd := &fakeCommander{}
	tg := NewTelegram(bot, testChat, v, cmd, noopPrediction{}, zaptest.NewLogger(t))
	t.Cleanup(tg.Stop)
	return tg, bot, cmd
}

func command(chatID int64, text string) tgbot.Update {
	name, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	return tgbot.Update{Message: &tgbot.Message{
		Chat: &tgbot.Chat{ID: chatID},
		Text: text,
		Entities: []tgbot.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name) + 1},
		},
	}}
}

func callback(data string) tgbot.Update {
	return tgbot.Update{CallbackQuery: &tgbot.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbot.Message{Chat: &tgbot.Chat{ID: testChat}},
	}}
}

func TestStatusSendsOverview(t *testing.T) {
	tg, bot, _ := newTestBot(t)

	tg.handleUpdate(context.Background(), command(testChat, "/status"))

	msg := bot.last()
	require.Contains(t, msg.Text, "Обзор")
	require.Contains(t, msg.Text, "0/1")
	kb, ok := msg.ReplyMarkup.(tgbot.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Equal(t, "VIEW::a", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestForeignChatIgnored(t *testing.T) {
	tg, bot, _ := newTestBot(t)
	tg.handleUpdate(context.Background(), command(7, "/status"))
	require.Empty(t, bot.texts())
}

func TestStrategyCommands(t *testing.T) {
	tg, bot, _ := newTestBot(t)
	ctx := context.Background()

	tg.handleUpdate(ctx, command(testChat, "/strategy ghost"))
	require.Contains(t, bot.last().Text, "не найдена")

	tg.handleUpdate(ctx, callback("VIEW::a"))
	require.Contains(t, bot.last().Text, "Alpha")
	require.Contains(t, bot.last().Text, "Win rate: 100.0%")

	tg.handleUpdate(ctx, callback("BACK::"))
	require.Contains(t, bot.last().Text, "Обзор")
}

func TestRunCommandRefreshesScreen(t *testing.T) {
	tg, bot, cmd := newTestBot(t)

	tg.handleUpdate(context.Background(), command(testChat, "/run a"))
	require.Eventually(t, func() bool { return len(cmd.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"start:a"}, cmd.Calls())
	require.Eventually(t, func() bool { return len(bot.texts()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestStopAllNeedsConfirmation(t *testing.T) {
	tg, bot, cmd := newTestBot(t)
	ctx := context.Background()

	tg.handleUpdate(ctx, tgbot.Update{Message: &tgbot.Message{Chat: &tgbot.Chat{ID: testChat}, Text: btnStopAll}})

	var token string
	require.Eventually(t, func() bool {
		texts := bot.texts()
		if len(texts) == 0 || !strings.Contains(texts[len(texts)-1], "Остановить все") {
			return false
		}
		kb := bot.last().ReplyMarkup.(tgbot.InlineKeyboardMarkup)
		token = strings.TrimPrefix(*kb.InlineKeyboard[0][0].CallbackData, "CONF::")
		return true
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, cmd.Calls())

	tg.handleUpdate(ctx, callback("CONF::"+token))
	require.Eventually(t, func() bool { return len(cmd.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"stop-all"}, cmd.Calls())

	// повторное нажатие по тому же токену ничего не делает
	tg.handleUpdate(ctx, callback("CONF::"+token))
	require.Len(t, cmd.Calls(), 1)
}

func TestStartConsumesUpdates(t *testing.T) {
	tg, bot, _ := newTestBot(t)
	tg.Start(context.Background())

	bot.updates <- command(testChat, "/status")
	require.Eventually(t, func() bool { return len(bot.texts()) == 1 }, time.Second, 5*time.Millisecond)
	tg.Stop()
}
