package convo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bot-zamovlennya/internal/ledger"
	"bot-zamovlennya/internal/metrics"
	"bot-zamovlennya/internal/repo"
	"bot-zamovlennya/internal/wa"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

const (
	cbAll          = "menu:all"
	cbTomorrow     = "menu:tomorrow"
	cbOverdue      = "menu:overdue"
	cbNewOrder     = "menu:new"
	cbEditOrder    = "menu:edit"
	cbConfirm      = "order:confirm"
	cbCancel       = "order:cancel"
	cbStatusPrefix = "status:"
)

const (
	eventText   = "text"
	eventButton = "button"
)

const (
	msgMenu           = "Вибери дію:"
	msgGenericFailure = "⚠️ Щось пішло не так. Спробуй ще раз."
	titleAllOrders    = "📄 Список всіх активних замовлень:"
	titleTomorrow     = "🚀 Замовлення на завтра:"
	titleOverdue      = "⚠️ Прострочені замовлення:"
)

// Sender delivers messages back to the user.
type Sender interface {
	SendText(ctx context.Context, to types.JID, text string) error
	SendButtons(ctx context.Context, to types.JID, text string, buttons []wa.Button) error
}

// Engine routes incoming chat events into queries or per-user dialogues.
type Engine struct {
	source   ledger.RowSource
	queries  *ledger.QueryEngine
	sender   Sender
	sessions *SessionStore
	audit    repo.Repository
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates the conversation engine.
func New(source ledger.RowSource, queries *ledger.QueryEngine, sender Sender, sessions *SessionStore, audit repo.Repository, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		source:   source,
		queries:  queries,
		sender:   sender,
		sessions: sessions,
		audit:    audit,
		metrics:  m,
		logger:   logger.With("component", "convo"),
	}
}

// ProcessMessage implements wa.MessageProcessor. Each event is handled on
// its own goroutine; sessions are keyed by sender so users never contend
// with each other.
func (e *Engine) ProcessMessage(ctx context.Context, evt *events.Message) {
	if evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}
	kind, payload := eventPayload(evt)
	if kind == "" || payload == "" {
		return
	}
	if e.metrics != nil {
		e.metrics.IncomingMessages.WithLabelValues(kind).Inc()
	}

	userID := evt.Info.Sender.ToNonAD().String()
	chat := evt.Info.Chat
	ctx = wa.WithReply(ctx, evt)
	e.record(ctx, userID, "in", kind, payload)

	var err error
	switch kind {
	case eventText:
		err = e.handleText(ctx, chat, userID, payload)
	case eventButton:
		err = e.handleButton(ctx, chat, userID, payload)
	}
	if err != nil {
		e.logger.Error("handling message failed", "user", userID, "kind", kind, "error", err)
		if e.metrics != nil {
			e.metrics.Errors.WithLabelValues("convo").Inc()
		}
		e.reply(ctx, chat, userID, msgGenericFailure)
	}
}

func (e *Engine) handleText(ctx context.Context, chat types.JID, userID, text string) error {
	sess := e.sessions.Get(userID)
	if sess == nil {
		return e.sendMenu(ctx, chat, userID)
	}

	switch sess.Stage {
	case StageCreating:
		return e.collectOrderField(ctx, chat, userID, sess, text)
	case StageReview:
		return e.reply(ctx, chat, userID, "Підтверди або скасуй замовлення кнопками вище.")
	case StageAwaitSearch:
		return e.searchOrder(ctx, chat, userID, text)
	case StageAwaitStatus:
		return e.reply(ctx, chat, userID, "Обери новий статус зі списку вище.")
	case StageAwaitTracking:
		return e.saveStatusUpdate(ctx, chat, userID, sess, text)
	}
	return e.sendMenu(ctx, chat, userID)
}

func (e *Engine) handleButton(ctx context.Context, chat types.JID, userID, id string) error {
	switch {
	case id == cbAll:
		return e.sendReport(ctx, chat, userID, "all", ledger.All(), titleAllOrders)
	case id == cbTomorrow:
		return e.sendReport(ctx, chat, userID, "tomorrow", ledger.DueTomorrow(time.Now()), titleTomorrow)
	case id == cbOverdue:
		return e.sendReport(ctx, chat, userID, "overdue", ledger.Overdue(time.Now()), titleOverdue)
	case id == cbNewOrder:
		return e.startNewOrder(ctx, chat, userID)
	case id == cbEditOrder:
		return e.startEdit(ctx, chat, userID)
	case id == cbConfirm:
		return e.confirmOrder(ctx, chat, userID)
	case id == cbCancel:
		return e.cancelDialogue(ctx, chat, userID)
	case strings.HasPrefix(id, cbStatusPrefix):
		return e.pickStatus(ctx, chat, userID, strings.TrimPrefix(id, cbStatusPrefix))
	}
	return e.sendMenu(ctx, chat, userID)
}

func (e *Engine) sendMenu(ctx context.Context, chat types.JID, userID string) error {
	return e.replyButtons(ctx, chat, userID, msgMenu, []wa.Button{
		{ID: cbAll, Label: "📄 Всі замовлення"},
		{ID: cbTomorrow, Label: "🚀 Завтра відправка"},
		{ID: cbOverdue, Label: "⚠️ Прострочені"},
		{ID: cbNewOrder, Label: "➕ Нове замовлення"},
		{ID: cbEditOrder, Label: "✏️ Змінити статус"},
	})
}

func (e *Engine) sendReport(ctx context.Context, chat types.JID, userID, kind string, pred ledger.Predicate, title string) error {
	report, err := e.queries.Run(ctx, pred, title)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.ReportsBuilt.WithLabelValues(kind).Inc()
	}
	for _, chunk := range ledger.ChunkText(report, ledger.DefaultChunkSize) {
		if err := e.reply(ctx, chat, userID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cancelDialogue(ctx context.Context, chat types.JID, userID string) error {
	e.sessions.Clear(userID)
	return e.reply(ctx, chat, userID, "Скасовано.")
}

func (e *Engine) setStage(sess *Session, stage Stage) {
	sess.Stage = stage
	if e.metrics != nil {
		e.metrics.DialogTransitions.WithLabelValues(stage.String()).Inc()
	}
}

func (e *Engine) reply(ctx context.Context, chat types.JID, userID, text string) error {
	if err := e.sender.SendText(ctx, chat, text); err != nil {
		return err
	}
	e.record(ctx, userID, "out", eventText, text)
	return nil
}

func (e *Engine) replyButtons(ctx context.Context, chat types.JID, userID, text string, buttons []wa.Button) error {
	if err := e.sender.SendButtons(ctx, chat, text, buttons); err != nil {
		return err
	}
	e.record(ctx, userID, "out", eventButton, text)
	return nil
}

// record writes the message to the audit log, best effort.
func (e *Engine) record(ctx context.Context, userID, direction, msgType, content string) {
	if e.audit == nil {
		return
	}
	staff, err := e.audit.UpsertStaffByWA(ctx, repo.StaffProfile{WAID: userID})
	if err != nil {
		e.logger.Warn("audit upsert failed", "user", userID, "error", err)
		return
	}
	if err := e.audit.InsertMessage(ctx, repo.MessageRecord{
		StaffID:   staff.ID,
		Direction: direction,
		Type:      msgType,
		Content:   &content,
	}); err != nil {
		e.logger.Warn("audit insert failed", "user", userID, "error", err)
	}
}

func eventPayload(evt *events.Message) (kind, payload string) {
	msg := evt.Message
	if msg == nil {
		return "", ""
	}
	switch {
	case msg.GetConversation() != "":
		return eventText, msg.GetConversation()
	case msg.ExtendedTextMessage != nil:
		return eventText, msg.GetExtendedTextMessage().GetText()
	case msg.ButtonsResponseMessage != nil:
		return eventButton, msg.GetButtonsResponseMessage().GetSelectedButtonID()
	case msg.ListResponseMessage != nil:
		return eventButton, msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID()
	}
	return "", ""
}
