package discord

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hectorgimenez/afkbot/internal/bot"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	running bool
	starts  int
	stops   int
}

func (f *fakeController) Start(context.Context) error {
	if f.running {
		return bot.ErrAlreadyRunning
	}
	f.running = true
	f.starts++
	return nil
}

func (f *fakeController) Stop() {
	f.running = false
	f.stops++
}

func (f *fakeController) Status() bot.Status {
	return bot.Status{Running: f.running, Region: "sewers", Profile: "normal", Uptime: time.Minute}
}

type webhookRecorder struct {
	mu       sync.Mutex
	contents []string
	payloads []string
}

func (w *webhookRecorder) handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if c := r.FormValue("content"); c != "" {
			w.contents = append(w.contents, c)
		}
		if p := r.FormValue("payload_json"); p != "" {
			w.payloads = append(w.payloads, p)
		}
	}
}

func newWebhookBot(t *testing.T, rec *webhookRecorder, ctrl *fakeController) *Bot {
	t.Helper()
	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)

	b, err := NewBot("", "", nil, ctrl, true, srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return b
}

func TestWebhookRequiresURL(t *testing.T) {
	_, err := NewBot("", "", nil, &fakeController{}, true, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestHandlePublishesThroughWebhook(t *testing.T) {
	rec := &webhookRecorder{}
	b := newWebhookBot(t, rec, &fakeController{})
	ctx := context.Background()

	require.NoError(t, b.Handle(ctx, event.RecoveryTriggered(event.Text("0123456789", "x"), "unknown")))
	require.NoError(t, b.Handle(ctx, event.PopupDismissed(event.Text("0123456789", "x"), 1, 2)))
	require.NoError(t, b.Handle(ctx, event.BotStopped(event.Text("0123456789", "x"), "stopped by user", time.Minute)))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"**[01234567]** Recovery triggered: unknown"}, rec.contents)
	require.Len(t, rec.payloads, 1)
	assert.Contains(t, rec.payloads[0], "Bot stopped: stopped by user")
}

func TestCommands(t *testing.T) {
	ctrl := &fakeController{}
	b := newWebhookBot(t, &webhookRecorder{}, ctrl)
	ctx := context.Background()

	_, ok := b.handleCommand(ctx, "hello")
	assert.False(t, ok)

	reply, _ := b.handleCommand(ctx, "!stop")
	assert.Equal(t, "Bot is not running.", reply)

	reply, _ = b.handleCommand(ctx, "!start")
	assert.Equal(t, "Bot has been started.", reply)
	reply, _ = b.handleCommand(ctx, "!start")
	assert.Equal(t, "Bot is already running.", reply)

	reply, _ = b.handleCommand(ctx, "!status")
	assert.Equal(t, "Bot is running in sewers (normal) for 1m0s", reply)

	reply, _ = b.handleCommand(ctx, "!stop now")
	assert.Equal(t, "Bot has been stopped.", reply)
	assert.Equal(t, 1, ctrl.stops)

	reply, _ = b.handleCommand(ctx, "!dance")
	assert.Contains(t, reply, "Unknown command")
}
