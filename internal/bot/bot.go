package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"universe-planner/internal/dashboard"
	"universe-planner/internal/deadline"
	"universe-planner/internal/model"
	"universe-planner/internal/repository"
	"universe-planner/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbSkipPrefix     = "skip:"
)

const (
	dateLayout    = "2006-01-02"
	maxButtons    = 20
	titleMaxLen   = 24
	unassignedTag = "Unassigned"
)

var bucketTitles = map[deadline.Bucket]string{
	deadline.Overdue:    "Overdue",
	deadline.Today:      "Today",
	deadline.ThisWeek:   "This week",
	deadline.NextWeek:   "Next week",
	deadline.Later:      "Later",
	deadline.NoDeadline: "No deadline",
}

// sender is the part of the Telegram client the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires Telegram updates to planner services.
type Bot struct {
	api *tgbotapi.BotAPI
	out sender
	svc *service.Services
	loc *time.Location
	log zerolog.Logger
}

// New creates a new bot instance.
func New(token string, svc *service.Services, loc *time.Location, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	b := newBot(api, svc, loc, log)
	b.api = api
	b.log.Info().Str("account", api.Self.UserName).Msg("authorized on telegram")
	return b, nil
}

func newBot(out sender, svc *service.Services, loc *time.Location, log zerolog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		out: out,
		svc: svc,
		loc: loc,
		log: log.With().Str("component", "bot").Logger(),
	}
}

// Start launches long polling until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot is not connected to telegram")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "Send /help to see the available commands.")
	}
	return b.handleCommand(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	b.log.Debug().Str("command", msg.Command()).Int64("chat_id", msg.Chat.ID).Msg("command received")
	args := strings.Fields(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		return b.sendText(chatID, helpText())
	case "today":
		return b.handleToday(ctx, chatID)
	case "tasks":
		return b.handleTasks(ctx, chatID)
	case "complete":
		return b.handleComplete(ctx, chatID, args)
	case "skip":
		return b.handleSkip(ctx, chatID, args)
	case "snooze":
		return b.handleSnooze(ctx, chatID, args)
	case "log":
		return b.handleLog(ctx, chatID, args)
	case "universes":
		return b.handleUniverses(ctx, chatID)
	default:
		return b.sendText(chatID, "Unknown command. Send /help.")
	}
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("<b>Planner</b>\n\n")
	sb.WriteString("/today - dashboard grouped by universe\n")
	sb.WriteString("/tasks - all open tasks\n")
	sb.WriteString("/complete &lt;id&gt; [minutes] - complete a task\n")
	sb.WriteString("/skip &lt;id&gt; - skip a task\n")
	sb.WriteString("/snooze &lt;id&gt; &lt;YYYY-MM-DD|off&gt; - hide a task until a date\n")
	sb.WriteString("/log &lt;id&gt; &lt;minutes&gt; [notes] - log time on a task\n")
	sb.WriteString("/universes - universe tree\n")
	return sb.String()
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	today, err := b.svc.Today.Today(ctx)
	if err != nil {
		return b.replyError(chatID, err)
	}
	text, ids := formatToday(today, b.loc)
	return b.sendWithReplyMarkup(chatID, text, taskKeyboard(ids))
}

func (b *Bot) handleTasks(ctx context.Context, chatID int64) error {
	tasks, err := b.svc.Tasks.ListTasks(ctx, repository.TaskFilter{})
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No open tasks.")
	}
	var sb strings.Builder
	sb.WriteString("<b>Open tasks</b>\n")
	ids := make([]taskButton, 0, len(tasks))
	for _, t := range tasks {
		sb.WriteString(formatTask(t.Task.ID, t.Task.Name, t.ComputedStatus, t.Task.DeadlineAt, b.loc))
		sb.WriteString("\n")
		ids = append(ids, taskButton{ID: t.Task.ID, Name: t.Task.Name})
	}
	return b.sendWithReplyMarkup(chatID, sb.String(), taskKeyboard(ids))
}

func (b *Bot) handleComplete(ctx context.Context, chatID int64, args []string) error {
	id, rest, err := parseCommandID(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /complete &lt;id&gt; [minutes]")
	}
	var input service.CompleteInput
	if len(rest) > 0 {
		minutes, err := strconv.Atoi(rest[0])
		if err != nil {
			return b.sendText(chatID, "Minutes must be a whole number.")
		}
		input.Minutes = &minutes
	}
	return b.completeTask(ctx, chatID, id, input)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, id uint, input service.CompleteInput) error {
	result, err := b.svc.Tasks.CompleteTask(ctx, id, input)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, transitionText("Completed", result, b.loc))
}

func (b *Bot) handleSkip(ctx context.Context, chatID int64, args []string) error {
	id, _, err := parseCommandID(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /skip &lt;id&gt;")
	}
	return b.skipTask(ctx, chatID, id)
}

func (b *Bot) skipTask(ctx context.Context, chatID int64, id uint) error {
	result, err := b.svc.Tasks.SkipTask(ctx, id)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, transitionText("Skipped", result, b.loc))
}

func (b *Bot) handleSnooze(ctx context.Context, chatID int64, args []string) error {
	id, rest, err := parseCommandID(args)
	if err != nil || len(rest) == 0 {
		return b.sendText(chatID, "Usage: /snooze &lt;id&gt; &lt;YYYY-MM-DD|off&gt;")
	}
	until, err := parseSnooze(rest[0], b.loc)
	if err != nil {
		return b.sendText(chatID, "Date must look like 2024-01-31.")
	}
	task, err := b.svc.Tasks.SnoozeTask(ctx, id, until)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if task.SnoozeUntil == nil {
		return b.sendText(chatID, fmt.Sprintf("Snooze cleared for #%d %s.", task.ID, escape(task.Name)))
	}
	return b.sendText(chatID, fmt.Sprintf("#%d %s hidden until %s.", task.ID, escape(task.Name), task.SnoozeUntil.In(b.loc).Format(dateLayout)))
}

func (b *Bot) handleLog(ctx context.Context, chatID int64, args []string) error {
	id, rest, err := parseCommandID(args)
	if err != nil || len(rest) == 0 {
		return b.sendText(chatID, "Usage: /log &lt;id&gt; &lt;minutes&gt; [notes]")
	}
	minutes, err := strconv.Atoi(rest[0])
	if err != nil {
		return b.sendText(chatID, "Minutes must be a whole number.")
	}
	entry, err := b.svc.Tasks.LogTime(ctx, id, &minutes, strings.Join(rest[1:], " "))
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("Logged %d min on #%d.", deref(entry.Minutes), id))
}

func (b *Bot) handleUniverses(ctx context.Context, chatID int64) error {
	tree, err := b.svc.Universes.Tree(ctx)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(tree) == 0 {
		return b.sendText(chatID, "No universes yet.")
	}
	return b.sendText(chatID, formatTree(tree))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		b.log.Info().Int64("user_id", cb.From.ID).Uint("task_id", taskID).Msg("callback complete")
		return b.completeTask(ctx, chatID, taskID, service.CompleteInput{})
	case strings.HasPrefix(data, cbSkipPrefix):
		taskID, err := parseTaskID(data, cbSkipPrefix)
		if err != nil {
			return nil
		}
		b.log.Info().Int64("user_id", cb.From.ID).Uint("task_id", taskID).Msg("callback skip")
		return b.skipTask(ctx, chatID, taskID)
	default:
		return nil
	}
}

// replyError tells the user what went wrong. Unexpected failures are logged
// and returned.
func (b *Bot) replyError(chatID int64, err error) error {
	text, known := userMessage(err)
	if sendErr := b.sendText(chatID, text); sendErr != nil {
		return sendErr
	}
	if known {
		return nil
	}
	return err
}

func userMessage(err error) (string, bool) {
	var verr *model.ValidationError
	var ierr *model.InvariantError
	switch {
	case errors.As(err, &verr):
		parts := make([]string, 0, len(verr.Fields))
		for _, field := range sortedKeys(verr.Fields) {
			parts = append(parts, fmt.Sprintf("%s: %s", field, verr.Fields[field]))
		}
		return "Invalid input: " + escape(strings.Join(parts, "; ")), true
	case errors.As(err, &ierr):
		return "Not allowed: " + escape(ierr.Reason), true
	case errors.Is(err, model.ErrNotFound):
		return "Not found: " + escape(err.Error()), true
	case errors.Is(err, model.ErrConflict):
		return "Already done: " + escape(err.Error()), true
	default:
		return "Something went wrong, try again later.", false
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := b.out.Send(msg)
	return err
}

type taskButton struct {
	ID   uint
	Name string
}

// taskKeyboard builds one complete/skip row per task, capped at maxButtons.
func taskKeyboard(tasks []taskButton) *tgbotapi.InlineKeyboardMarkup {
	if len(tasks) == 0 {
		return nil
	}
	if len(tasks) > maxButtons {
		tasks = tasks[:maxButtons]
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", t.ID, shortTitle(t.Name, titleMaxLen)), fmt.Sprintf("%s%d", cbCompletePrefix, t.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", fmt.Sprintf("%s%d", cbSkipPrefix, t.ID)),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// formatToday renders the dashboard and returns the tasks offered as buttons
// in display order, without duplicates.
func formatToday(today *dashboard.Today, loc *time.Location) (string, []taskButton) {
	var sb strings.Builder
	var buttons []taskButton
	seen := make(map[uint]bool)
	add := func(v dashboard.TaskView) {
		sb.WriteString(formatTask(v.ID, v.Name, v.Status, v.DeadlineAt, loc))
		if v.Universe != nil {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(v.Universe.Name)))
		}
		sb.WriteString("\n")
		if !seen[v.ID] {
			seen[v.ID] = true
			buttons = append(buttons, taskButton{ID: v.ID, Name: v.Name})
		}
	}
	writeBuckets := func(groups []dashboard.BucketGroup) {
		for _, g := range groups {
			sb.WriteString(fmt.Sprintf("<u>%s</u>\n", bucketTitles[g.Bucket]))
			for _, v := range g.Tasks {
				add(v)
			}
		}
	}

	for _, g := range today.Universes {
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", escape(g.Universe.Name)))
		writeBuckets(g.Buckets)
		if len(g.Secondary) > 0 {
			sb.WriteString("<u>Also here</u>\n")
			for _, v := range g.Secondary {
				add(v)
			}
		}
	}
	if len(today.OtherDeadlines) > 0 {
		sb.WriteString("\n<b>Other deadlines</b>\n")
		for _, v := range today.OtherDeadlines {
			add(v)
		}
	}
	if len(today.Unassigned) > 0 {
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", unassignedTag))
		writeBuckets(today.Unassigned)
	}

	if sb.Len() == 0 {
		return "Nothing planned for today.", nil
	}
	return "<b>Today</b>\n" + sb.String(), buttons
}

func formatTree(nodes []*dashboard.TreeNode) string {
	var sb strings.Builder
	sb.WriteString("<b>Universes</b>\n")
	var walk func(list []*dashboard.TreeNode)
	walk = func(list []*dashboard.TreeNode) {
		for _, n := range list {
			sb.WriteString(strings.Repeat("  ", n.Depth))
			sb.WriteString(fmt.Sprintf("• %s <i>%s</i> #%d\n", escape(n.Universe.Name), n.Universe.Status, n.Universe.ID))
			walk(n.Children)
		}
	}
	walk(nodes)
	return sb.String()
}

func formatTask(id uint, name string, status model.TaskStatus, deadlineAt *time.Time, loc *time.Location) string {
	icon := "▫"
	if status == model.TaskLate {
		icon = "⚠"
	}
	line := fmt.Sprintf("%s #%d %s", icon, id, escape(normalizeTitle(name)))
	if deadlineAt != nil {
		line += fmt.Sprintf(" · %s", deadlineAt.In(loc).Format("Mon 02 Jan 15:04"))
	}
	return line
}

func transitionText(verb string, result *service.TransitionResult, loc *time.Location) string {
	text := fmt.Sprintf("%s #%d %s.", verb, result.Task.ID, escape(result.Task.Name))
	if next := result.Next; next != nil {
		text += fmt.Sprintf("\nNext: #%d", next.ID)
		if next.DeadlineAt != nil {
			text += " due " + next.DeadlineAt.In(loc).Format("Mon 02 Jan 15:04")
		}
	}
	return text
}

func parseCommandID(args []string) (uint, []string, error) {
	if len(args) == 0 {
		return 0, nil, errors.New("missing id")
	}
	id, err := parseTaskID(strings.TrimPrefix(args[0], "#"), "")
	if err != nil || id == 0 {
		return 0, nil, fmt.Errorf("invalid id %q", args[0])
	}
	return id, args[1:], nil
}

// parseSnooze reads a calendar date in loc. "off" clears the snooze.
func parseSnooze(raw string, loc *time.Location) (*time.Time, error) {
	if strings.EqualFold(raw, "off") {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(title)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

func escape(s string) string {
	return html.EscapeString(s)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
