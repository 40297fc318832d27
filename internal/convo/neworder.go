package convo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bot-zamovlennya/internal/ledger"
	"bot-zamovlennya/internal/wa"

	"go.mau.fi/whatsmeow/types"
)

// One prompt per collection step, in order.
var orderPrompts = []string{
	"Введи назву товару:",
	"Вкажи розмір:",
	"Яка тканина?",
	"Тип оплати:",
	"Дані для відправки (ПІБ, телефон, відділення):",
	"Посилання на товар (або -):",
	"Сума замовлення:",
}

func (e *Engine) startNewOrder(ctx context.Context, chat types.JID, userID string) error {
	sess := &Session{Step: 1}
	e.setStage(sess, StageCreating)
	e.sessions.Put(userID, sess)
	return e.reply(ctx, chat, userID, orderPrompts[0])
}

// collectOrderField stores the answer for the current step verbatim and asks
// the next question. After the last step the draft goes into review with a
// computed deadline.
func (e *Engine) collectOrderField(ctx context.Context, chat types.JID, userID string, sess *Session, text string) error {
	switch sess.Step {
	case 1:
		sess.Draft.Product = text
	case 2:
		sess.Draft.Size = text
	case 3:
		sess.Draft.Fabric = text
	case 4:
		sess.Draft.Payment = text
	case 5:
		sess.Draft.Shipping = text
	case 6:
		sess.Draft.Link = text
	case 7:
		sess.Draft.Amount = text
	}

	if sess.Step < len(orderPrompts) {
		sess.Step++
		return e.reply(ctx, chat, userID, orderPrompts[sess.Step-1])
	}

	now := time.Now()
	sess.Deadline = now.AddDate(0, 0, ledger.DeadlineOffsetDays)
	e.setStage(sess, StageReview)

	return e.replyButtons(ctx, chat, userID, reviewSummary(sess.Draft, now, sess.Deadline), []wa.Button{
		{ID: cbConfirm, Label: "✅ Підтвердити"},
		{ID: cbCancel, Label: "❌ Скасувати"},
	})
}

// confirmOrder writes the reviewed draft into the first free row of the
// current month's sheet. On SheetNotFound or a full sheet the session stays
// in review so the operator can fix the spreadsheet and confirm again.
func (e *Engine) confirmOrder(ctx context.Context, chat types.JID, userID string) error {
	sess := e.sessions.Get(userID)
	if sess == nil || sess.Stage != StageReview {
		return e.sendMenu(ctx, chat, userID)
	}

	title := ledger.MonthTitle(time.Now())
	rows, err := e.source.Rows(ctx, title)
	if errors.Is(err, ledger.ErrSheetNotFound) {
		return e.reply(ctx, chat, userID,
			fmt.Sprintf("❌ Не знайдено аркуш «%s». Додай його в таблицю та спробуй ще раз.", title))
	}
	if err != nil {
		return err
	}

	slot, ok := ledger.FirstEmptyRow(rows)
	if !ok {
		return e.reply(ctx, chat, userID,
			fmt.Sprintf("❌ В аркуші «%s» немає вільного рядка для нового замовлення.", title))
	}

	now := time.Now()
	d := sess.Draft
	slot.Set(ledger.ColumnProduct, d.Product)
	slot.Set(ledger.ColumnSize, d.Size)
	slot.Set(ledger.ColumnFabric, d.Fabric)
	slot.Set(ledger.ColumnPayment, d.Payment)
	slot.Set(ledger.ColumnShipping, d.Shipping)
	slot.Set(ledger.ColumnLink, d.Link)
	slot.Set(ledger.ColumnAmount, d.Amount)
	slot.Set(ledger.ColumnOrderDate, ledger.FormatLocalDate(now))
	slot.Set(ledger.ColumnDeadline, ledger.FormatLocalDate(sess.Deadline))
	slot.Set(ledger.ColumnDaysLeft, strconv.Itoa(ledger.DeadlineOffsetDays))
	slot.Set(ledger.ColumnStatus, string(ledger.StatusNew))
	slot.Set(ledger.ColumnTracking, "")

	if err := slot.Save(ctx); err != nil {
		return err
	}

	e.sessions.Clear(userID)
	return e.reply(ctx, chat, userID, fmt.Sprintf("✅ Замовлення збережено в аркуш «%s».", title))
}

func reviewSummary(d Draft, orderDate, deadline time.Time) string {
	var b strings.Builder
	b.WriteString("Перевір замовлення:\n\n")
	b.WriteString(ledger.ColumnProduct + ": " + d.Product + "\n")
	b.WriteString(ledger.ColumnSize + ": " + d.Size + "\n")
	b.WriteString(ledger.ColumnFabric + ": " + d.Fabric + "\n")
	b.WriteString(ledger.ColumnPayment + ": " + d.Payment + "\n")
	b.WriteString(ledger.ColumnShipping + ": " + d.Shipping + "\n")
	b.WriteString(ledger.ColumnLink + ": " + d.Link + "\n")
	b.WriteString(ledger.ColumnAmount + ": " + d.Amount + "\n")
	b.WriteString(ledger.ColumnOrderDate + ": " + ledger.FormatLocalDate(orderDate) + "\n")
	b.WriteString(ledger.ColumnDeadline + ": " + ledger.FormatLocalDate(deadline) + "\n")
	b.WriteString(ledger.ColumnDaysLeft + ": " + strconv.Itoa(ledger.DeadlineOffsetDays))
	return b.String()
}
