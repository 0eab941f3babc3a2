package services

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService posts operational alerts to the admin chat.
type TelegramService struct {
	bot         messageSender
	adminChatID int64
}

// NewTelegramService creates a new TelegramService. An empty token yields a
// service that only logs.
func NewTelegramService(botToken string, adminChatID int64) (*TelegramService, error) {
	if botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return &TelegramService{adminChatID: adminChatID}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramService{bot: bot, adminChatID: adminChatID}, nil
}

// SendToAdmin sends an HTML message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.bot == nil || s.adminChatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(s.adminChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	return nil
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "INR"
	}
	str := fmt.Sprintf("%d", int64(amount))

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + currency
}

// BookingAlert contains booking data for the admin chat.
type BookingAlert struct {
	BookingID    string
	Category     string
	Date         time.Time
	Mode         string
	Address      string
	LabourerName string
}

// NotifyNewBooking announces a new booking to the admin chat.
func (s *TelegramService) NotifyNewBooking(b BookingAlert) error {
	target := "broadcast"
	if b.LabourerName != "" {
		target = html.EscapeString(b.LabourerName)
	}

	message := fmt.Sprintf(`<b>🛠 NEW BOOKING</b>
<b>📋 Booking:</b> %s
<b>🏷 Category:</b> %s
<b>📅 Date:</b> %s
<b>⏱ Mode:</b> %s
<b>👷 Labourer:</b> %s
<b>📍 Address:</b> %s
━━━━━━━━━━━━━━━━━━`,
		b.BookingID,
		html.EscapeString(b.Category),
		b.Date.Format("02 Jan 2006"),
		b.Mode,
		target,
		html.EscapeString(b.Address),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// PaymentAlert contains captured payment data.
type PaymentAlert struct {
	BookingID string
	OrderID   string
	PaymentID string
	Amount    float64
	Currency  string
}

// NotifyPaymentCaptured announces a verified payment to the admin chat.
func (s *TelegramService) NotifyPaymentCaptured(p PaymentAlert) error {
	message := fmt.Sprintf(`<b>✅ PAYMENT RECEIVED</b>
<b>📋 Booking:</b> %s
<b>🧾 Order:</b> %s
<b>💳 Payment:</b> %s
<b>💰 Amount:</b> %s
━━━━━━━━━━━━━━━━━━`,
		p.BookingID,
		html.EscapeString(p.OrderID),
		html.EscapeString(p.PaymentID),
		FormatPrice(p.Amount, p.Currency),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
