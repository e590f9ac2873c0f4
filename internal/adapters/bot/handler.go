package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"panchang-backend/internal/adapters/telegram"
	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
	"panchang-backend/internal/usecase/assistant"
	"panchang-backend/internal/usecase/panchang"
	"panchang-backend/internal/usecase/schedule"
)

// Handler serves the bot webhook.
type Handler struct {
	bot             *tgbotapi.BotAPI
	log             zerolog.Logger
	almanacUC       *panchang.Service
	assistantUC     *assistant.Service
	scheduleUC      *schedule.Service
	users           domain.UserRepo
	feedback        domain.FeedbackRepo
	locator         domain.Locator
	mu              sync.Mutex
	pendingDrop     map[int64]time.Time
	pendingTime     map[int64]struct{}
	pendingFeedback map[int64]struct{}
}

// NewHandler creates the webhook handler.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, almanacUC *panchang.Service, assistantUC *assistant.Service, scheduleUC *schedule.Service, users domain.UserRepo, feedback domain.FeedbackRepo, locator domain.Locator) *Handler {
	return &Handler{
		bot:             bot,
		log:             log,
		almanacUC:       almanacUC,
		assistantUC:     assistantUC,
		scheduleUC:      scheduleUC,
		users:           users,
		feedback:        feedback,
		locator:         locator,
		pendingDrop:     make(map[int64]time.Time),
		pendingTime:     make(map[int64]struct{}),
		pendingFeedback: make(map[int64]struct{}),
	}
}

// HandleUpdate processes one incoming update.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	if !strings.HasPrefix(text, "/") {
		if h.tryHandlePendingInput(ctx, chatID, text) {
			return
		}
	}
	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(ctx, msg)
	case strings.HasPrefix(text, "/help"):
		h.reply(chatID, h.buildHelpMessage(), h.mainKeyboard())
	case strings.HasPrefix(text, "/today"):
		h.handleDay(ctx, chatID, 0)
	case strings.HasPrefix(text, "/tomorrow"):
		h.handleDay(ctx, chatID, 1)
	case strings.HasPrefix(text, "/panchang"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/panchang"))
		h.handleDate(ctx, chatID, payload)
	case strings.HasPrefix(text, "/calendar"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/calendar"))
		h.handleCalendar(ctx, chatID, payload)
	case strings.HasPrefix(text, "/ask"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/ask"))
		h.handleAsk(ctx, chatID, payload)
	case strings.HasPrefix(text, "/schedule"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/schedule"))
		if payload == "" {
			h.handleSchedule(ctx, chatID)
			return
		}
		h.handleSetTime(ctx, chatID, payload)
	case strings.HasPrefix(text, "/timezone"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/timezone"))
		h.handleTimezone(ctx, chatID, payload)
	case strings.HasPrefix(text, "/location"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/location"))
		h.handleLocation(ctx, chatID, payload)
	case strings.HasPrefix(text, "/profile"):
		h.handleProfile(ctx, chatID)
	case strings.HasPrefix(text, "/feedback"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/feedback"))
		h.handleFeedback(ctx, chatID, payload)
	case strings.HasPrefix(text, "/clear_data_confirm"):
		h.handleClearConfirm(ctx, chatID)
	case strings.HasPrefix(text, "/clear_data"):
		h.handleClearRequest(chatID)
	default:
		h.reply(chatID, "Unknown command. Use /help to see what I can do.", nil)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	profile := domain.TelegramProfile{ChatID: msg.Chat.ID}
	if msg.From != nil {
		profile.Locale = msg.From.LanguageCode
		profile.FirstName = msg.From.FirstName
		profile.LastName = msg.From.LastName
		profile.Username = msg.From.UserName
	}
	user, created, err := h.users.UpsertByTelegram(profile)
	if err != nil {
		h.reply(msg.Chat.ID, "Could not save your profile, please try again.", nil)
		return
	}
	if created {
		h.log.Info().Int64("user_id", user.ID).Msg("bot: new user registered")
	}
	h.reply(msg.Chat.ID, h.buildStartMessage(user), h.mainKeyboard())
}

// handleDay sends the almanac for today plus an offset in days.
func (h *Handler) handleDay(ctx context.Context, chatID int64, offsetDays int) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	date := domain.LocalDay(time.Now(), user.Timezone).AddDate(0, 0, offsetDays)
	h.sendDaily(ctx, chatID, user, date)
}

func (h *Handler) handleDate(ctx context.Context, chatID int64, payload string) {
	if payload == "" {
		h.reply(chatID, "Send /panchang YYYY-MM-DD, for example /panchang 2024-11-01.", nil)
		return
	}
	date, err := time.Parse(domain.DateLayout, payload)
	if err != nil {
		h.reply(chatID, "I could not read that date. The format is YYYY-MM-DD.", nil)
		return
	}
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	h.sendDaily(ctx, chatID, user, date)
}

func (h *Handler) sendDaily(ctx context.Context, chatID int64, user domain.User, date time.Time) {
	day, err := h.almanacUC.ForDate(ctx, date, user.Location)
	if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: almanac lookup failed")
		h.reply(chatID, "Could not prepare the almanac right now, please try again.", nil)
		return
	}
	insight := h.almanacUC.DailyInsight(ctx, day, user.Locale)
	h.replyHTML(chatID, panchang.FormatDaily(day, insight.Text), h.dayKeyboard())
}

func (h *Handler) handleCalendar(ctx context.Context, chatID int64, payload string) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	now := domain.LocalDay(time.Now(), user.Timezone)
	year, month := now.Year(), now.Month()
	if payload != "" {
		parsed, err := time.Parse("2006-01", payload)
		if err != nil {
			h.reply(chatID, "Send /calendar YYYY-MM, for example /calendar 2024-11.", nil)
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}
	days, err := h.almanacUC.MonthOverview(year, month)
	if err != nil {
		h.reply(chatID, "That month is out of range for the calendar.", nil)
		return
	}
	h.replyHTML(chatID, panchang.FormatMonth(year, month, days), nil)
}

func (h *Handler) handleAsk(ctx context.Context, chatID int64, question string) {
	if question == "" {
		h.reply(chatID, "Send /ask followed by your question, for example /ask Is tomorrow good for travel?", nil)
		return
	}
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	date := domain.LocalDay(time.Now(), user.Timezone)
	answer, err := h.assistantUC.Ask(ctx, user.ID, date, question)
	switch {
	case errors.Is(err, assistant.ErrQuotaExceeded):
		h.replyAskLimit(chatID, answer.State)
		return
	case errors.Is(err, assistant.ErrEmptyQuestion):
		h.reply(chatID, "Send /ask followed by your question.", nil)
		return
	case err != nil:
		h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: ask failed")
		h.reply(chatID, "Could not answer right now, please try again.", nil)
		return
	}
	text := answer.Text
	if remaining := answer.State.RemainingToday(); remaining >= 0 {
		text += fmt.Sprintf("\n\nQuestions left today: %d.", remaining)
	}
	h.reply(chatID, text, nil)
}

func (h *Handler) replyAskLimit(chatID int64, state domain.AskState) {
	lines := []string{
		fmt.Sprintf("You have reached the question limit of the %s plan.", state.Plan.Name),
	}
	switch {
	case state.Plan.AskDailyLimit <= 0:
		lines = append(lines, "This plan has no limit, so something went wrong on our side. Please try again later.")
	case state.Plan.AskIntroTotal > 0:
		lines = append(lines, fmt.Sprintf("The first %d questions are free, after that %d per day.", state.Plan.AskIntroTotal, state.Plan.AskDailyLimit))
		lines = append(lines, "Come back tomorrow or upgrade your plan.")
	default:
		lines = append(lines, fmt.Sprintf("The limit is %d questions per day. Come back tomorrow or upgrade your plan.", state.Plan.AskDailyLimit))
	}
	h.reply(chatID, strings.Join(lines, "\n"), nil)
}

func (h *Handler) handleSchedule(ctx context.Context, chatID int64) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	h.setPending(h.pendingTime, chatID)
	current := "not set"
	if user.DailyTime != nil {
		current = user.DailyTime.Format("15:04")
		if user.Timezone != "" {
			current += " (" + user.Timezone + ")"
		}
	}
	message := []string{
		fmt.Sprintf("Daily almanac delivery: %s.", current),
		"",
		"Pick a preset below or send your own time, like 06:30.",
		"The format is HH:MM, 24-hour, in your timezone (/timezone).",
	}
	h.reply(chatID, strings.Join(message, "\n"), SchedulePresetKeyboard())
}

func (h *Handler) handleSetTime(ctx context.Context, chatID int64, value string) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	tm, err := schedule.ParseDailyTime(value)
	if err != nil {
		h.reply(chatID, "That does not look like a time. Use HH:MM, for example 06:30.", nil)
		return
	}
	if err := h.scheduleUC.UpdateDailyTime(ctx, user.ID, &tm); err != nil {
		h.reply(chatID, "Could not save the delivery time, please try again.", nil)
		return
	}
	h.clearPending(h.pendingTime, chatID)
	h.reply(chatID, fmt.Sprintf("Done. Your almanac will arrive at %s local time every day.", tm.Format("15:04")), nil)
}

func (h *Handler) handleTimezone(ctx context.Context, chatID int64, payload string) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	if payload == "" {
		current := user.Timezone
		if current == "" {
			current = "not set"
		}
		h.reply(chatID, fmt.Sprintf("Your timezone: %s. Send /timezone Asia/Kolkata to change it.", current), nil)
		return
	}
	if err := h.scheduleUC.UpdateTimezone(ctx, user.ID, payload); err != nil {
		if errors.Is(err, schedule.ErrInvalidTimezone) {
			h.reply(chatID, "I do not know that timezone. Use an IANA name like Asia/Kolkata.", nil)
			return
		}
		h.reply(chatID, "Could not save the timezone, please try again.", nil)
		return
	}
	h.reply(chatID, "Timezone saved.", nil)
}

func (h *Handler) handleLocation(ctx context.Context, chatID int64, payload string) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	if payload == "" {
		label := user.Location.Label
		if label == "" {
			label = h.almanacUC.DefaultLocation().Label + " (default)"
		}
		h.reply(chatID, fmt.Sprintf("Your location: %s. Send /location Varanasi to change it.", label), nil)
		return
	}
	loc, err := h.locator.Resolve(ctx, payload)
	if err != nil {
		h.log.Warn().Err(err).Str("query", payload).Msg("bot: geocoding failed")
		h.reply(chatID, fmt.Sprintf("I could not find %q. Your almanac stays set to %s.", payload, h.currentLabel(user)), nil)
		return
	}
	update := domain.ProfileUpdate{
		DisplayName: user.DisplayName,
		Locale:      user.Locale,
		Timezone:    user.Timezone,
		Location:    loc,
		BirthDate:   user.BirthDate,
		BirthTime:   user.BirthTime,
		BirthPlace:  user.BirthPlace,
	}
	if _, err := h.users.UpdateProfile(user.ID, update); err != nil {
		h.reply(chatID, "Could not save the location, please try again.", nil)
		return
	}
	h.reply(chatID, fmt.Sprintf("Location set to %s.", loc.Label), nil)
}

func (h *Handler) currentLabel(user domain.User) string {
	if user.Location.Label != "" {
		return user.Location.Label
	}
	return h.almanacUC.DefaultLocation().Label
}

func (h *Handler) handleProfile(ctx context.Context, chatID int64) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	plan := user.Plan()
	lines := []string{
		"Your profile:",
		fmt.Sprintf("• Plan: %s", plan.Name),
		fmt.Sprintf("• Location: %s", h.currentLabel(user)),
	}
	tz := user.Timezone
	if tz == "" {
		tz = "not set"
	}
	lines = append(lines, fmt.Sprintf("• Timezone: %s", tz))
	if user.DailyTime != nil {
		lines = append(lines, fmt.Sprintf("• Daily delivery: %s", user.DailyTime.Format("15:04")))
	} else {
		lines = append(lines, "• Daily delivery: off (/schedule to enable)")
	}
	if user.BirthDate != nil {
		birth := user.BirthDate.Format("2 Jan 2006")
		if user.BirthTime != "" {
			birth += " at " + user.BirthTime
		}
		if user.BirthPlace != "" {
			birth += " in " + user.BirthPlace
		}
		lines = append(lines, "• Birth details: "+birth)
	}
	h.reply(chatID, strings.Join(lines, "\n"), h.mainKeyboard())
}

func (h *Handler) handleFeedback(ctx context.Context, chatID int64, payload string) {
	if payload == "" {
		h.setPending(h.pendingFeedback, chatID)
		h.reply(chatID, "Tell me what you think: just send your next message.", nil)
		return
	}
	h.saveFeedback(ctx, chatID, payload)
}

func (h *Handler) saveFeedback(ctx context.Context, chatID int64, text string) {
	h.clearPending(h.pendingFeedback, chatID)
	var userID int64
	if user, err := h.users.GetByTelegram(chatID); err == nil {
		userID = user.ID
	}
	fb := domain.Feedback{UserID: userID, ChatID: chatID, Message: text}
	if err := h.feedback.SaveFeedback(ctx, fb); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: feedback save failed")
		h.reply(chatID, "Could not save your feedback, please try again.", nil)
		return
	}
	h.reply(chatID, "Thank you! Your feedback is saved. 🙏", nil)
}

func (h *Handler) handleDeliverNow(ctx context.Context, chatID int64) {
	user, ok := h.knownUser(chatID)
	if !ok {
		return
	}
	if err := h.scheduleUC.EnqueueNow(ctx, user); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: manual delivery failed")
		h.reply(chatID, "Could not queue the delivery, please try again.", nil)
		return
	}
	h.reply(chatID, "On its way! Your almanac will arrive shortly.", nil)
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case data == "today":
		h.handleDay(ctx, chatID, 0)
	case data == "tomorrow":
		h.handleDay(ctx, chatID, 1)
	case data == "calendar":
		h.handleCalendar(ctx, chatID, "")
	case data == "ask_hint":
		h.reply(chatID, "Send /ask followed by your question, for example /ask Is tomorrow good for travel?", nil)
	case data == "set_time":
		h.handleSchedule(ctx, chatID)
	case strings.HasPrefix(data, "set_time:"):
		h.handleSetTime(ctx, chatID, strings.TrimPrefix(data, "set_time:"))
	case data == "deliver_now":
		h.handleDeliverNow(ctx, chatID)
	case data == "feedback":
		h.handleFeedback(ctx, chatID, "")
	case data == "help_menu":
		h.reply(chatID, h.buildHelpMessage(), h.mainKeyboard())
	}
	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("bot: callback answer failed")
	}
}

// tryHandlePendingInput consumes plain text the previous command asked for.
func (h *Handler) tryHandlePendingInput(ctx context.Context, chatID int64, text string) bool {
	h.mu.Lock()
	_, awaitingTime := h.pendingTime[chatID]
	_, awaitingFeedback := h.pendingFeedback[chatID]
	h.mu.Unlock()

	switch {
	case awaitingTime:
		if text == "" {
			h.reply(chatID, "Send the time as HH:MM, for example 06:30.", nil)
			return true
		}
		h.handleSetTime(ctx, chatID, text)
		return true
	case awaitingFeedback:
		if text == "" {
			h.reply(chatID, "Send your feedback as a plain message.", nil)
			return true
		}
		h.saveFeedback(ctx, chatID, text)
		return true
	}
	return false
}

func (h *Handler) handleClearRequest(chatID int64) {
	h.mu.Lock()
	h.pendingDrop[chatID] = time.Now()
	h.mu.Unlock()
	h.reply(chatID, "Send /clear_data_confirm within 5 minutes to delete your account and all stored data.", nil)
}

func (h *Handler) handleClearConfirm(ctx context.Context, chatID int64) {
	h.mu.Lock()
	requested, ok := h.pendingDrop[chatID]
	if ok && time.Since(requested) > 5*time.Minute {
		ok = false
	}
	delete(h.pendingDrop, chatID)
	h.mu.Unlock()
	if !ok {
		h.reply(chatID, "No pending request found. Send /clear_data first.", nil)
		return
	}
	user, err := h.users.GetByTelegram(chatID)
	if err != nil {
		h.reply(chatID, "Could not find your profile.", nil)
		return
	}
	if err := h.users.DeleteUserData(user.ID); err != nil {
		h.reply(chatID, "Could not delete your data, please try again.", nil)
		return
	}
	h.reply(chatID, "Your data is deleted. Send /start to begin again.", nil)
}

// knownUser loads the profile for a chat and prompts for /start when the
// chat is unknown.
func (h *Handler) knownUser(chatID int64) (domain.User, bool) {
	user, err := h.users.GetByTelegram(chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.reply(chatID, "Send /start first so I can set up your almanac.", nil)
		} else {
			h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: profile lookup failed")
			h.reply(chatID, "Could not load your profile, please try again.", nil)
		}
		return domain.User{}, false
	}
	return user, true
}

func (h *Handler) setPending(m map[int64]struct{}, chatID int64) {
	h.mu.Lock()
	m[chatID] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) clearPending(m map[int64]struct{}, chatID int64) {
	h.mu.Lock()
	delete(m, chatID)
	h.mu.Unlock()
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	h.send(chatID, text, keyboard, false)
}

func (h *Handler) replyHTML(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	h.send(chatID, text, keyboard, true)
}

func (h *Handler) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup, asHTML bool) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if asHTML {
			msg.ParseMode = tgbotapi.ModeHTML
		}
		if i == len(parts)-1 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			metrics.BotSendErrors.Inc()
			h.log.Error().Err(err).Int64("chat", chatID).Msg("bot: send failed")
			return
		}
	}
}

func (h *Handler) mainKeyboard() *tgbotapi.InlineKeyboardMarkup {
	buttons := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Today", "today"),
			tgbotapi.NewInlineKeyboardButtonData("🌅 Tomorrow", "tomorrow"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Month", "calendar"),
			tgbotapi.NewInlineKeyboardButtonData("💬 Ask", "ask_hint"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Delivery time", "set_time"),
			tgbotapi.NewInlineKeyboardButtonData("📬 Send now", "deliver_now"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Feedback", "feedback"),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", "help_menu"),
		),
	)
	return &buttons
}

func (h *Handler) dayKeyboard() *tgbotapi.InlineKeyboardMarkup {
	buttons := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌅 Tomorrow", "tomorrow"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Month", "calendar"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Ask about this day", "ask_hint"),
		),
	)
	return &buttons
}

func (h *Handler) buildStartMessage(user domain.User) string {
	plan := user.Plan()
	askLine := "   Questions to the assistant are unlimited on your plan."
	if plan.AskDailyLimit > 0 {
		askLine = fmt.Sprintf("   The first %d questions are free, after that %d per day.", plan.AskIntroTotal, plan.AskDailyLimit)
	}
	lines := []string{
		"🙏 Namaste! I bring you the daily Panchang.",
		"",
		fmt.Sprintf("Your plan: %s.", plan.Name),
		"",
		"What I can do:",
		"1. 🗓 /today or /tomorrow shows the almanac with tithi, nakshatra and the day's muhurtas.",
		"2. 📅 /calendar lists the month with festival days.",
		"3. 💬 /ask answers questions against the day's almanac.",
		askLine,
		"4. ⏰ /schedule sets a daily delivery, /timezone and /location tune it to where you are.",
		"",
		"Open ℹ️ Help below for the full command list.",
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) buildHelpMessage() string {
	sections := []string{
		"📖 Commands:",
		"",
		"Almanac:",
		"• /today — the Panchang for today.",
		"• /tomorrow — the Panchang for tomorrow.",
		"• /panchang 2024-11-01 — any date.",
		"• /calendar 2024-11 — month overview with festivals.",
		"",
		"Assistant:",
		"• /ask Is tomorrow good for travel? — answers grounded in the day's almanac.",
		"",
		"Profile:",
		"• /location Varanasi — where your almanac is computed.",
		"• /timezone Asia/Kolkata — your local time for deliveries.",
		"• /schedule 06:30 — daily delivery time, /schedule to pick from presets.",
		"• /profile — everything I know about you.",
		"",
		"Other:",
		"• /feedback — tell us what to improve.",
		"• /clear_data — delete your account and data.",
	}
	return strings.Join(sections, "\n")
}

// SchedulePresetKeyboard returns the preset delivery time buttons.
func SchedulePresetKeyboard() *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("05:30", "set_time:05:30"),
			tgbotapi.NewInlineKeyboardButtonData("06:30", "set_time:06:30"),
			tgbotapi.NewInlineKeyboardButtonData("07:30", "set_time:07:30"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("08:30", "set_time:08:30"),
			tgbotapi.NewInlineKeyboardButtonData("19:00", "set_time:19:00"),
			tgbotapi.NewInlineKeyboardButtonData("21:00", "set_time:21:00"),
		),
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
