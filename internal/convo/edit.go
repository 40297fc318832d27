package convo

import (
	"context"
	"strings"

	"bot-zamovlennya/internal/ledger"
	"bot-zamovlennya/internal/wa"

	"go.mau.fi/whatsmeow/types"
)

func (e *Engine) startEdit(ctx context.Context, chat types.JID, userID string) error {
	sess := &Session{}
	e.setStage(sess, StageAwaitSearch)
	e.sessions.Put(userID, sess)
	return e.reply(ctx, chat, userID, "Введи дані для пошуку замовлення (частину даних для відправки):")
}

// searchOrder scans every sheet for the first non-empty row whose shipping
// info contains the query as a substring. Further matches are ignored; the
// sheet-then-row order decides which one wins.
func (e *Engine) searchOrder(ctx context.Context, chat types.JID, userID, query string) error {
	titles, err := e.source.SheetTitles(ctx)
	if err != nil {
		return err
	}

	for _, title := range titles {
		rows, err := e.source.Rows(ctx, title)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if ledger.IsEmpty(row) {
				continue
			}
			if !strings.Contains(row.Get(ledger.ColumnShipping), query) {
				continue
			}
			sess := &Session{Matched: row}
			e.setStage(sess, StageAwaitStatus)
			e.sessions.Put(userID, sess)
			text := "Знайдено замовлення:\n\n" + ledger.FormatRow(row) + "\n\nОбери новий статус:"
			return e.replyButtons(ctx, chat, userID, text, statusButtons())
		}
	}

	e.sessions.Clear(userID)
	return e.reply(ctx, chat, userID, "❌ Замовлення не знайдено.")
}

func (e *Engine) pickStatus(ctx context.Context, chat types.JID, userID, value string) error {
	sess := e.sessions.Get(userID)
	if sess == nil || sess.Stage != StageAwaitStatus {
		return e.sendMenu(ctx, chat, userID)
	}
	if !ledger.KnownStatus(value) {
		return e.reply(ctx, chat, userID, "Невідомий статус, обери зі списку.")
	}

	sess.SelectedStatus = ledger.Status(value)
	e.setStage(sess, StageAwaitTracking)
	return e.reply(ctx, chat, userID, "Введи номер ТТН (або -):")
}

func (e *Engine) saveStatusUpdate(ctx context.Context, chat types.JID, userID string, sess *Session, tracking string) error {
	sess.Matched.Set(ledger.ColumnStatus, string(sess.SelectedStatus))
	sess.Matched.Set(ledger.ColumnTracking, tracking)
	if err := sess.Matched.Save(ctx); err != nil {
		return err
	}

	e.sessions.Clear(userID)
	return e.reply(ctx, chat, userID, "✅ Статус оновлено.")
}

func statusButtons() []wa.Button {
	statuses := ledger.Statuses()
	buttons := make([]wa.Button, 0, len(statuses))
	for _, s := range statuses {
		buttons = append(buttons, wa.Button{ID: cbStatusPrefix + string(s), Label: string(s)})
	}
	return buttons
}
