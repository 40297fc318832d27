package wa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bot-zamovlennya/internal/metrics"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"
)

// WhatsApp caps reply buttons at three; longer option sets go out as a
// single-select list instead.
const maxReplyButtons = 3

// Config holds configuration to initialise the WhatsApp client.
type Config struct {
	StorePath string
	LogLevel  string
	Metrics   *metrics.Metrics
}

// Client wraps the WhatsMeow client and associated dependencies.
type Client struct {
	client    *whatsmeow.Client
	logger    *slog.Logger
	metrics   *metrics.Metrics
	processor MessageProcessor
}

// MessageProcessor handles inbound WhatsApp messages.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, evt *events.Message)
}

// Button is one tappable option attached to an outgoing message.
type Button struct {
	ID    string
	Label string
}

type replyContextKey struct{}

// ReplyMetadata carries information for quoting a previous message.
type ReplyMetadata struct {
	Message *waProto.Message
	Info    types.MessageInfo
}

// WithReply attaches reply metadata to the context so outgoing messages quote the given event.
func WithReply(ctx context.Context, evt *events.Message) context.Context {
	if evt == nil || evt.Message == nil {
		return ctx
	}
	cloned, ok := proto.Clone(evt.Message).(*waProto.Message)
	if !ok {
		cloned = evt.Message
	}
	meta := &ReplyMetadata{
		Message: cloned,
		Info:    evt.Info,
	}
	return context.WithValue(ctx, replyContextKey{}, meta)
}

func replyFromContext(ctx context.Context) *ReplyMetadata {
	if ctx == nil {
		return nil
	}
	meta, _ := ctx.Value(replyContextKey{}).(*ReplyMetadata)
	return meta
}

// New creates a new WhatsApp client instance backed by an SQLite store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.StorePath == "" {
		return nil, errors.New("store path is required")
	}

	if err := ensureDir(filepath.Dir(cfg.StorePath)); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}

	storeLogger := waLog.Stdout("whatsmeow/sqlstore", cfg.LogLevel, true)
	container, err := sqlstore.New(ctx, "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout=10000&_pragma=foreign_keys(ON)", cfg.StorePath), storeLogger)
	if err != nil {
		return nil, fmt.Errorf("create sqlstore: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	waLogger := waLog.Stdout("whatsmeow/client", cfg.LogLevel, true)
	client := whatsmeow.NewClient(deviceStore, waLogger)

	wc := &Client{
		client:  client,
		logger:  logger.With("component", "wa"),
		metrics: cfg.Metrics,
	}
	client.AddEventHandler(wc.handleEvent)

	return wc, nil
}

// Start connects the client and handles login/QR pairing flow.
func (c *Client) Start(ctx context.Context) error {
	if c.client.Store.ID == nil {
		c.logger.Info("pairing required, waiting for QR scan")
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get qr channel: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					c.logger.Info("scan the QR code with WhatsApp", "qr", evt.Code)
				} else {
					c.logger.Info("pairing event received", "event", evt.Event)
				}
			}
		}()
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect wa client: %w", err)
	}

	c.logger.Info("whatsapp client connected")
	return nil
}

// Close disconnects the WhatsApp client.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Disconnect()
	}
}

func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		c.handleMessage(v)
	case *events.Connected:
		c.logger.Info("device connected")
	case *events.Disconnected:
		c.logger.Warn("device disconnected")
	}
}

func (c *Client) handleMessage(evt *events.Message) {
	msg := evt.Message
	if msg == nil {
		return
	}

	sender := evt.Info.Sender.String()

	switch {
	case msg.GetConversation() != "":
		c.logger.Info("received text message", "from", sender, "text", msg.GetConversation())
	case msg.ExtendedTextMessage != nil:
		c.logger.Info("received extended text message", "from", sender, "text", msg.GetExtendedTextMessage().GetText())
	case msg.ButtonsResponseMessage != nil:
		c.logger.Info("received button response", "from", sender, "button", msg.GetButtonsResponseMessage().GetSelectedButtonID())
	case msg.ListResponseMessage != nil:
		c.logger.Info("received list response", "from", sender, "row", msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID())
	default:
		c.logger.Info("received unsupported message type", "from", sender)
	}

	if c.processor != nil {
		go c.processor.ProcessMessage(context.Background(), evt)
	}
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// SetMessageProcessor registers message processor callback.
func (c *Client) SetMessageProcessor(processor MessageProcessor) {
	c.processor = processor
}

// SendText sends a text message to the specified JID.
func (c *Client) SendText(ctx context.Context, to types.JID, text string) error {
	reply := replyFromContext(ctx)
	var message *waProto.Message
	if reply != nil && reply.Message != nil {
		contextInfo := &waProto.ContextInfo{
			StanzaID:      proto.String(string(reply.Info.ID)),
			Participant:   proto.String(reply.Info.Sender.ToNonAD().String()),
			RemoteJID:     proto.String(reply.Info.Chat.String()),
			QuotedMessage: reply.Message,
			QuotedType:    waProto.ContextInfo_EXPLICIT.Enum(),
		}
		message = &waProto.Message{
			ExtendedTextMessage: &waProto.ExtendedTextMessage{
				Text:        proto.String(text),
				ContextInfo: contextInfo,
			},
		}
	} else {
		message = &waProto.Message{
			Conversation: proto.String(text),
		}
	}
	_, err := c.client.SendMessage(ctx, to, message)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	if c.metrics != nil {
		c.metrics.OutgoingMessages.WithLabelValues("text").Inc()
	}
	return nil
}

// SendButtons sends text with tappable options. Up to three options go out
// as reply buttons, larger sets become a single-select list.
func (c *Client) SendButtons(ctx context.Context, to types.JID, text string, buttons []Button) error {
	if len(buttons) == 0 {
		return c.SendText(ctx, to, text)
	}

	var message *waProto.Message
	kind := "buttons"
	if len(buttons) <= maxReplyButtons {
		protoButtons := make([]*waProto.ButtonsMessage_Button, 0, len(buttons))
		for _, b := range buttons {
			protoButtons = append(protoButtons, &waProto.ButtonsMessage_Button{
				ButtonID: proto.String(b.ID),
				ButtonText: &waProto.ButtonsMessage_Button_ButtonText{
					DisplayText: proto.String(b.Label),
				},
				Type: waProto.ButtonsMessage_Button_RESPONSE.Enum(),
			})
		}
		message = &waProto.Message{
			ButtonsMessage: &waProto.ButtonsMessage{
				ContentText: proto.String(text),
				HeaderType:  waProto.ButtonsMessage_EMPTY.Enum(),
				Buttons:     protoButtons,
			},
		}
	} else {
		kind = "list"
		rows := make([]*waProto.ListMessage_Row, 0, len(buttons))
		for _, b := range buttons {
			rows = append(rows, &waProto.ListMessage_Row{
				RowID: proto.String(b.ID),
				Title: proto.String(b.Label),
			})
		}
		message = &waProto.Message{
			ListMessage: &waProto.ListMessage{
				Description: proto.String(text),
				ButtonText:  proto.String("Обрати"),
				ListType:    waProto.ListMessage_SINGLE_SELECT.Enum(),
				Sections: []*waProto.ListMessage_Section{
					{Rows: rows},
				},
			},
		}
	}

	if _, err := c.client.SendMessage(ctx, to, message); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	if c.metrics != nil {
		c.metrics.OutgoingMessages.WithLabelValues(kind).Inc()
	}
	return nil
}
