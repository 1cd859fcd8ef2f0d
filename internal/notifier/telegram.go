package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// Callback data prefixes of the buttons attached to admin notices
const (
	ApproveBookingPrefix = "approve_booking:" // approve_booking:123
	RejectBookingPrefix  = "reject_booking:"  // reject_booking:123
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram sends requests awaiting approval to the admin chat and status
// changes to the booking owner's chat.
type Telegram struct {
	bot         messageSender
	adminChatID int64
	loc         *time.Location
	logger      *zap.Logger
}

func NewTelegram(b messageSender, adminChatID int64, loc *time.Location, logger *zap.Logger) *Telegram {
	return &Telegram{
		bot:         b,
		adminChatID: adminChatID,
		loc:         loc,
		logger:      logger,
	}
}

func (t *Telegram) Notify(ctx context.Context, event model.BookingEvent) error {
	var errs []error
	for _, msg := range t.messages(event) {
		if _, err := t.bot.SendMessage(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("send telegram message to %v: %w", msg.ChatID, err))
		}
	}
	return errors.Join(errs...)
}

// ApprovalKeyboard is attached to notices about bookings waiting for a decision
func ApprovalKeyboard(bookingID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Approve", CallbackData: fmt.Sprintf("%s%d", ApproveBookingPrefix, bookingID)},
				{Text: "❌ Reject", CallbackData: fmt.Sprintf("%s%d", RejectBookingPrefix, bookingID)},
			},
		},
	}
}

func (t *Telegram) messages(event model.BookingEvent) []*bot.SendMessageParams {
	b := event.Booking
	if b == nil {
		return nil
	}

	var out []*bot.SendMessageParams
	toAdmin := func(text string, keyboard models.ReplyMarkup) {
		if t.adminChatID == 0 {
			return
		}
		out = append(out, &bot.SendMessageParams{
			ChatID:      t.adminChatID,
			Text:        text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: keyboard,
		})
	}
	toOwner := func(text string) {
		if event.Owner == nil || event.Owner.TelegramChatID == nil {
			return
		}
		out = append(out, &bot.SendMessageParams{
			ChatID:    *event.Owner.TelegramChatID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
	}

	switch event.Type {
	case model.BookingEventCreated:
		if b.IsPending() {
			toAdmin("⏳ <b>New booking request</b>\n\n"+t.describe(event)+"\n\nWaiting for your decision:", ApprovalKeyboard(b.ID))
		} else {
			toAdmin("✅ <b>New booking</b>\n\n"+t.describe(event)+"\n\nApproved automatically.", nil)
			toOwner("✅ <b>Your booking is confirmed</b>\n\n" + t.describe(event))
		}
	case model.BookingEventResubmitted:
		toAdmin("🔁 <b>Booking resubmitted</b>\n\n"+t.describe(event)+"\n\nWaiting for your decision:", ApprovalKeyboard(b.ID))
	case model.BookingEventApproved:
		toOwner("✅ <b>Your booking was approved</b>\n\n" + t.describe(event))
	case model.BookingEventRejected:
		toOwner("❌ <b>Your booking was rejected</b>\n\n" + t.describe(event) +
			"\n\nReason: " + html.EscapeString(event.Reason) +
			"\n\nYou can edit and resubmit it.")
	case model.BookingEventDiscarded:
		text := "🗑 <b>Booking discarded</b>\n\n" + t.describe(event)
		if event.Reason != "" {
			text += "\n\nReason: " + html.EscapeString(event.Reason)
		}
		if event.ActorID != b.AccountID {
			toOwner(text)
		}
	}

	return out
}

func (t *Telegram) describe(event model.BookingEvent) string {
	b := event.Booking

	var lines []string
	if event.Owner != nil {
		name := event.Owner.Name
		if name == "" {
			name = event.Owner.Email
		}
		lines = append(lines, fmt.Sprintf("👤 %s (%s)", html.EscapeString(name), event.Owner.Role))
	}

	room := fmt.Sprintf("#%d", b.RoomID)
	if b.Room != nil {
		room = b.Room.Name
	}
	lines = append(lines,
		"🏠 Room: "+html.EscapeString(room),
		"📅 Date: "+b.StartTime.In(t.loc).Format("02.01.2006"),
		fmt.Sprintf("🕐 Time: %s - %s", b.StartTime.In(t.loc).Format("15:04"), b.EndTime.In(t.loc).Format("15:04")),
		"📝 Purpose: "+html.EscapeString(b.Purpose),
	)
	if b.Phone != "" {
		lines = append(lines, "📞 "+html.EscapeString(b.Phone))
	}

	return strings.Join(lines, "\n")
}
