package convo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"bot-zamovlennya/internal/ledger"
	"bot-zamovlennya/internal/wa"

	"go.mau.fi/whatsmeow/types"
)

type memRow struct {
	values map[string]string
	saved  bool
}

func newMemRow(values map[string]string) *memRow {
	if values == nil {
		values = map[string]string{}
	}
	return &memRow{values: values}
}

func (r *memRow) Get(column string) string  { return r.values[column] }
func (r *memRow) Set(column, value string) { r.values[column] = value }
func (r *memRow) Save(context.Context) error {
	r.saved = true
	return nil
}

type memSource struct {
	titles []string
	rows   map[string][]ledger.Row
}

func (s *memSource) SheetTitles(context.Context) ([]string, error) {
	return s.titles, nil
}

func (s *memSource) Rows(_ context.Context, title string) ([]ledger.Row, error) {
	rows, ok := s.rows[title]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ledger.ErrSheetNotFound, title)
	}
	return rows, nil
}

type fakeSender struct {
	texts   []string
	buttons [][]wa.Button
}

func (f *fakeSender) SendText(_ context.Context, _ types.JID, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendButtons(_ context.Context, _ types.JID, text string, buttons []wa.Button) error {
	f.texts = append(f.texts, text)
	f.buttons = append(f.buttons, buttons)
	return nil
}

func (f *fakeSender) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func newTestEngine(source ledger.RowSource) (*Engine, *fakeSender, *SessionStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &fakeSender{}
	sessions := NewSessionStore()
	queries := ledger.NewQueryEngine(source, logger, nil)
	engine := New(source, queries, sender, sessions, nil, nil, logger)
	return engine, sender, sessions
}

var testChat = types.JID{User: "380991234567", Server: types.DefaultUserServer}

const testUser = "380991234567@s.whatsapp.net"

func TestNewOrderFlowReachesReview(t *testing.T) {
	source := &memSource{}
	engine, sender, sessions := newTestEngine(source)
	ctx := context.Background()

	if err := engine.handleButton(ctx, testChat, testUser, cbNewOrder); err != nil {
		t.Fatalf("start new order: %v", err)
	}

	inputs := []string{"Dress", "M", "Cotton", "Card", "+380001112233", "http://x", "500"}
	for _, input := range inputs {
		if err := engine.handleText(ctx, testChat, testUser, input); err != nil {
			t.Fatalf("step %q: %v", input, err)
		}
	}

	sess := sessions.Get(testUser)
	if sess == nil || sess.Stage != StageReview {
		t.Fatalf("expected review stage, got %+v", sess)
	}

	want := Draft{
		Product:  "Dress",
		Size:     "M",
		Fabric:   "Cotton",
		Payment:  "Card",
		Shipping: "+380001112233",
		Link:     "http://x",
		Amount:   "500",
	}
	if sess.Draft != want {
		t.Fatalf("unexpected draft: %+v", sess.Draft)
	}

	expectedDeadline := time.Now().AddDate(0, 0, ledger.DeadlineOffsetDays)
	if !ledger.SameCalendarDay(sess.Deadline, expectedDeadline) {
		t.Fatalf("expected deadline %v, got %v", expectedDeadline, sess.Deadline)
	}

	if !strings.Contains(sender.last(), "Перевір замовлення") {
		t.Fatalf("expected review summary, got %q", sender.last())
	}
}

func TestConfirmWithMissingMonthSheetKeepsReview(t *testing.T) {
	source := &memSource{titles: []string{}, rows: map[string][]ledger.Row{}}
	engine, sender, sessions := newTestEngine(source)
	ctx := context.Background()

	driveToReview(t, engine, ctx)

	if err := engine.handleButton(ctx, testChat, testUser, cbConfirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !strings.Contains(sender.last(), "Не знайдено аркуш") {
		t.Fatalf("expected missing sheet message, got %q", sender.last())
	}
	sess := sessions.Get(testUser)
	if sess == nil || sess.Stage != StageReview {
		t.Fatalf("expected session to stay in review, got %+v", sess)
	}
}

func TestConfirmWritesFirstFreeRow(t *testing.T) {
	month := ledger.MonthTitle(time.Now())
	occupied := newMemRow(map[string]string{ledger.ColumnProduct: "Пальто"})
	free := newMemRow(nil)
	source := &memSource{
		titles: []string{month},
		rows:   map[string][]ledger.Row{month: {occupied, free}},
	}
	engine, sender, sessions := newTestEngine(source)
	ctx := context.Background()

	driveToReview(t, engine, ctx)

	if err := engine.handleButton(ctx, testChat, testUser, cbConfirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !free.saved {
		t.Fatal("expected the free row to be saved")
	}
	if occupied.saved {
		t.Fatal("occupied row must not be touched")
	}
	if got := free.Get(ledger.ColumnProduct); got != "Dress" {
		t.Fatalf("expected product Dress, got %q", got)
	}
	if got := free.Get(ledger.ColumnStatus); got != string(ledger.StatusNew) {
		t.Fatalf("expected status %s, got %q", ledger.StatusNew, got)
	}
	if got := free.Get(ledger.ColumnDaysLeft); got != "5" {
		t.Fatalf("expected 5 days left, got %q", got)
	}
	wantDeadline := ledger.FormatLocalDate(time.Now().AddDate(0, 0, ledger.DeadlineOffsetDays))
	if got := free.Get(ledger.ColumnDeadline); got != wantDeadline {
		t.Fatalf("expected deadline %s, got %q", wantDeadline, got)
	}

	if sessions.Get(testUser) != nil {
		t.Fatal("expected session cleared after successful save")
	}
	if !strings.Contains(sender.last(), "Замовлення збережено") {
		t.Fatalf("expected success message, got %q", sender.last())
	}
}

func TestConfirmWithFullSheetKeepsReview(t *testing.T) {
	month := ledger.MonthTitle(time.Now())
	occupied := newMemRow(map[string]string{ledger.ColumnProduct: "Пальто"})
	source := &memSource{
		titles: []string{month},
		rows:   map[string][]ledger.Row{month: {occupied}},
	}
	engine, sender, sessions := newTestEngine(source)
	ctx := context.Background()

	driveToReview(t, engine, ctx)

	if err := engine.handleButton(ctx, testChat, testUser, cbConfirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !strings.Contains(sender.last(), "немає вільного рядка") {
		t.Fatalf("expected no-free-slot message, got %q", sender.last())
	}
	if sess := sessions.Get(testUser); sess == nil || sess.Stage != StageReview {
		t.Fatal("expected session to stay in review")
	}
}

func TestCancelClearsSession(t *testing.T) {
	engine, sender, sessions := newTestEngine(&memSource{})
	ctx := context.Background()

	driveToReview(t, engine, ctx)

	if err := engine.handleButton(ctx, testChat, testUser, cbCancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sessions.Get(testUser) != nil {
		t.Fatal("expected session cleared on cancel")
	}
	if sender.last() != "Скасовано." {
		t.Fatalf("expected cancel confirmation, got %q", sender.last())
	}
}

func TestEditFlowUpdatesStatusAndTracking(t *testing.T) {
	target := newMemRow(map[string]string{
		ledger.ColumnProduct:  "Сукня",
		ledger.ColumnShipping: "Олена, +380001112233, Відділення 12",
		ledger.ColumnStatus:   string(ledger.StatusSewing),
	})
	source := &memSource{
		titles: []string{"Січень"},
		rows:   map[string][]ledger.Row{"Січень": {newMemRow(nil), target}},
	}
	engine, sender, sessions := newTestEngine(source)
	ctx := context.Background()

	if err := engine.handleButton(ctx, testChat, testUser, cbEditOrder); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	if err := engine.handleText(ctx, testChat, testUser, "0001112233"); err != nil {
		t.Fatalf("search: %v", err)
	}

	sess := sessions.Get(testUser)
	if sess == nil || sess.Stage != StageAwaitStatus {
		t.Fatalf("expected status selection stage, got %+v", sess)
	}
	if sess.Matched != ledger.Row(target) {
		t.Fatal("expected the matching row to be bound")
	}

	if err := engine.handleButton(ctx, testChat, testUser, cbStatusPrefix+string(ledger.StatusShipped)); err != nil {
		t.Fatalf("pick status: %v", err)
	}
	if err := engine.handleText(ctx, testChat, testUser, "20450000000000"); err != nil {
		t.Fatalf("tracking: %v", err)
	}

	if !target.saved {
		t.Fatal("expected the row to be saved")
	}
	if got := target.Get(ledger.ColumnStatus); got != string(ledger.StatusShipped) {
		t.Fatalf("expected status %s, got %q", ledger.StatusShipped, got)
	}
	if got := target.Get(ledger.ColumnTracking); got != "20450000000000" {
		t.Fatalf("expected tracking number, got %q", got)
	}
	if sessions.Get(testUser) != nil {
		t.Fatal("expected session cleared after update")
	}
	if !strings.Contains(sender.last(), "Статус оновлено") {
		t.Fatalf("expected success message, got %q", sender.last())
	}
}

func TestEditFlowSearchMissResetsToIdle(t *testing.T) {
	source := &memSource{
		titles: []string{"Січень"},
		rows:   map[string][]ledger.Row{"Січень": {newMemRow(nil)}},
	}
	engine, sender, sessions := newTestEngine(source)
	ctx := context.Background()

	if err := engine.handleButton(ctx, testChat, testUser, cbEditOrder); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	if err := engine.handleText(ctx, testChat, testUser, "немає такого"); err != nil {
		t.Fatalf("search: %v", err)
	}

	if sessions.Get(testUser) != nil {
		t.Fatal("expected session cleared on search miss")
	}
	if !strings.Contains(sender.last(), "не знайдено") {
		t.Fatalf("expected not-found message, got %q", sender.last())
	}
}

func TestIdleTextShowsMenu(t *testing.T) {
	engine, sender, _ := newTestEngine(&memSource{})
	if err := engine.handleText(context.Background(), testChat, testUser, "привіт"); err != nil {
		t.Fatalf("idle text: %v", err)
	}
	if sender.last() != msgMenu {
		t.Fatalf("expected menu, got %q", sender.last())
	}
	if len(sender.buttons) != 1 || len(sender.buttons[0]) != 5 {
		t.Fatalf("expected five menu buttons, got %+v", sender.buttons)
	}
}

func TestReportQuerySendsSentinelWhenEmpty(t *testing.T) {
	source := &memSource{
		titles: []string{"Січень"},
		rows:   map[string][]ledger.Row{"Січень": {newMemRow(nil)}},
	}
	engine, sender, _ := newTestEngine(source)

	if err := engine.handleButton(context.Background(), testChat, testUser, cbAll); err != nil {
		t.Fatalf("query: %v", err)
	}
	if sender.last() != ledger.NoOrdersMessage {
		t.Fatalf("expected sentinel, got %q", sender.last())
	}
}

func driveToReview(t *testing.T, engine *Engine, ctx context.Context) {
	t.Helper()
	if err := engine.handleButton(ctx, testChat, testUser, cbNewOrder); err != nil {
		t.Fatalf("start new order: %v", err)
	}
	for _, input := range []string{"Dress", "M", "Cotton", "Card", "+380001112233", "http://x", "500"} {
		if err := engine.handleText(ctx, testChat, testUser, input); err != nil {
			t.Fatalf("step %q: %v", input, err)
		}
	}
}
