package controller

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/controller/state"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/notifier"
	"github.com/Freeeeeet/room_booking/internal/service"
)

// BotController позволяет админам принимать решения по бронированиям из Telegram.
// Аккаунт привязывается к личному чату с ботом, id которого совпадает с
// Telegram user id, поэтому пользователя всегда ищем по id отправителя.
type BotController struct {
	bot      *bot.Bot
	accounts *service.AccountService
	bookings *service.BookingService
	state    *state.Manager
	loc      *time.Location
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	accounts *service.AccountService,
	bookings *service.BookingService,
	loc *time.Location,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		accounts: accounts,
		bookings: bookings,
		state:    state.NewManager(),
		loc:      loc,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует команды, диалог отклонения и кнопки решений
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.handlePending)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handleCancel)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handleText)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, notifier.ApproveBookingPrefix, bot.MatchTypePrefix, c.handleApprove)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, notifier.RejectBookingPrefix, bot.MatchTypePrefix, c.handleReject)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Get a code to link this chat"},
		{Command: "help", Description: "❓ Command reference"},
		{Command: "pending", Description: "⏳ Bookings waiting for a decision"},
		{Command: "cancel", Description: "✖️ Cancel the current dialog"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

func reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}

func answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// admin возвращает аккаунт админа, привязанный к пользователю Telegram, или nil.
// id привязанного личного чата совпадает с user id.
func (c *BotController) admin(ctx context.Context, telegramID int64) *model.Account {
	account, err := c.accounts.GetByTelegramChat(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, service.ErrAccountNotFound) {
			c.logger.Error("Failed to look up telegram account", zap.Int64("telegram_id", telegramID), zap.Error(err))
		}
		return nil
	}
	if !account.IsAdmin() {
		return nil
	}
	return account
}

func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if update.Message.Chat.Type != models.ChatTypePrivate {
		reply(ctx, b, chatID, "🔒 Accounts are linked in a private chat. Open a direct chat with the bot and send /start there.")
		return
	}

	account, err := c.accounts.GetByTelegramChat(ctx, chatID)
	if err != nil {
		if !errors.Is(err, service.ErrAccountNotFound) {
			c.logger.Error("Failed to look up telegram account", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		code := c.accounts.IssueTelegramLink(chatID)
		reply(ctx, b, chatID, fmt.Sprintf(
			"👋 Hi!\n\nYour link code is <code>%s</code>. It is valid for %d minutes.\n"+
				"Send it with <code>PATCH /api/me/telegram</code> to receive booking updates here.",
			code, int(service.TelegramLinkTTL/time.Minute),
		))
		return
	}

	text := fmt.Sprintf("👋 Hi, %s!\n\nBooking updates for your account arrive in this chat.", html.EscapeString(displayName(account)))
	if account.IsAdmin() {
		text += "\nUse /pending to review requests waiting for a decision."
	}
	reply(ctx, b, chatID, text)
}

func (c *BotController) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	reply(ctx, b, update.Message.Chat.ID,
		"📖 <b>Commands</b>\n\n"+
			"/start - get a code to link this chat to your account\n"+
			"/pending - bookings waiting for a decision (admins)\n"+
			"/cancel - cancel the current dialog\n\n"+
			"Requests come with ✅ Approve and ❌ Reject buttons. "+
			"After pressing Reject, send the reason as a message.",
	)
}

func (c *BotController) handlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	admin := c.admin(ctx, update.Message.From.ID)
	if admin == nil {
		reply(ctx, b, chatID, "⛔ Only admins can review bookings.")
		return
	}

	pending, err := c.bookings.List(ctx, admin, model.BookingFilter{Status: model.BookingStatusPending})
	if err != nil {
		c.logger.Error("Failed to list pending bookings", zap.Error(err))
		reply(ctx, b, chatID, "❌ Could not load bookings. Try again later.")
		return
	}

	if len(pending) == 0 {
		reply(ctx, b, chatID, "✅ No bookings are waiting for a decision.")
		return
	}

	for _, booking := range pending {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        c.describe(booking),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: notifier.ApprovalKeyboard(booking.ID),
		})
	}
}

func (c *BotController) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if c.state.Get(telegramID).State == state.StateNone {
		reply(ctx, b, update.Message.Chat.ID, "Nothing to cancel.")
		return
	}

	c.state.Clear(telegramID)
	reply(ctx, b, update.Message.Chat.ID, "✅ Cancelled.")
}

func (c *BotController) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	current := c.state.Get(telegramID)
	if current.State != state.StateRejectReason {
		return
	}

	chatID := update.Message.Chat.ID
	admin := c.admin(ctx, telegramID)
	if admin == nil {
		c.state.Clear(telegramID)
		reply(ctx, b, chatID, "⛔ Only admins can review bookings.")
		return
	}

	booking, err := c.bookings.Reject(ctx, admin, current.BookingID, update.Message.Text)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			reply(ctx, b, chatID, "✏️ The reason cannot be empty. Send it again or /cancel.")
			return
		}
		c.state.Clear(telegramID)
		reply(ctx, b, chatID, c.failureText(current.BookingID, err))
		return
	}

	c.state.Clear(telegramID)
	reply(ctx, b, chatID, fmt.Sprintf("❌ Booking #%d rejected. The owner can edit and resubmit it.", booking.ID))
}

func (c *BotController) handleApprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	bookingID, err := parseCallbackID(callback.Data, notifier.ApproveBookingPrefix)
	if err != nil {
		answerCallback(ctx, b, callback.ID, "❌ Invalid button", true)
		return
	}

	admin := c.admin(ctx, callback.From.ID)
	if admin == nil {
		answerCallback(ctx, b, callback.ID, "⛔ Only admins can approve bookings", true)
		return
	}

	booking, err := c.bookings.Approve(ctx, admin, bookingID)
	if err != nil {
		answerCallback(ctx, b, callback.ID, c.failureText(bookingID, err), true)
		return
	}

	answerCallback(ctx, b, callback.ID, "✅ Approved", false)

	if msg := callback.Message.Message; msg != nil {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      c.describe(booking) + "\n\n✅ Approved by " + html.EscapeString(displayName(admin)),
			ParseMode: models.ParseModeHTML,
		})
	}
}

func (c *BotController) handleReject(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	bookingID, err := parseCallbackID(callback.Data, notifier.RejectBookingPrefix)
	if err != nil {
		answerCallback(ctx, b, callback.ID, "❌ Invalid button", true)
		return
	}

	admin := c.admin(ctx, callback.From.ID)
	if admin == nil {
		answerCallback(ctx, b, callback.ID, "⛔ Only admins can reject bookings", true)
		return
	}

	c.state.Set(callback.From.ID, state.UserData{
		State:     state.StateRejectReason,
		BookingID: bookingID,
	})

	answerCallback(ctx, b, callback.ID, "", false)

	chatID := callback.From.ID
	if msg := callback.Message.Message; msg != nil {
		chatID = msg.Chat.ID
	}
	reply(ctx, b, chatID, fmt.Sprintf("✏️ Send the reason for rejecting booking #%d, or /cancel.", bookingID))
}

func (c *BotController) failureText(bookingID int64, err error) string {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		return fmt.Sprintf("❌ Booking #%d no longer exists", bookingID)
	case errors.Is(err, service.ErrInvalidTransition):
		return fmt.Sprintf("ℹ️ Booking #%d was already decided", bookingID)
	case errors.Is(err, service.ErrForbidden):
		return "⛔ Not allowed"
	}

	c.logger.Error("Failed to update booking from telegram", zap.Int64("booking_id", bookingID), zap.Error(err))
	return "❌ Something went wrong. Try again later."
}

func (c *BotController) describe(b *model.Booking) string {
	room := fmt.Sprintf("#%d", b.RoomID)
	if b.Room != nil {
		room = b.Room.Name
	}

	return fmt.Sprintf(
		"📋 <b>Booking #%d</b> (%s)\n🏠 %s\n📅 %s %s - %s\n📝 %s",
		b.ID,
		b.Status,
		html.EscapeString(room),
		b.StartTime.In(c.loc).Format("02.01.2006"),
		b.StartTime.In(c.loc).Format("15:04"),
		b.EndTime.In(c.loc).Format("15:04"),
		html.EscapeString(b.Purpose),
	)
}

func displayName(a *model.Account) string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// parseCallbackID извлекает id из callback data вида "approve_booking:123"
func parseCallbackID(data, prefix string) (int64, error) {
	raw, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, fmt.Errorf("unexpected callback data %q", data)
	}
	return strconv.ParseInt(raw, 10, 64)
}
