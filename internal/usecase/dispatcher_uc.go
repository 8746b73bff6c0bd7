package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/domain"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/adapter"
	"forum-telegram-relay/internal/domain/ports/repository"
	"forum-telegram-relay/internal/infra/metrics"
)

// Translator resolves message keys per language; unknown keys pass
// through unchanged.
type Translator interface {
	T(lang, key string, args ...interface{}) string
}

// Compile-time check
var _ CommandDispatcher = (*dispatcherUC)(nil)

// CommandDispatcher classifies inbound chat messages and routes
// commands to forum actions. It never lets an inbound message crash
// the relay: every failure resolves to a chat reply or a log line.
type CommandDispatcher interface {
	Handle(ctx context.Context, msg model.InboundMessage)
}

// Sent to unbound identities; no language is known for them, so the
// text is fixed.
const unlinkedMessage = "Your Telegram account is not linked to a forum account. " +
	"Put your Telegram ID in the telegram settings of the forum and try again."

const greeting = "Hello, this is the forum bot.\n" +
	"I am your interface to the forum.\n\n" +
	"Your Telegram ID: {userid}\n" +
	"ID of this chat: {chatid}\n\n" +
	"Open a private chat with me and type /help to see what I can do for you. " +
	"You may also enter commands here, like '/<command> <parameters>@{botname}', " +
	"but I will always answer in private chat only."

const (
	recentDefault = 10
	recentMax     = 30
)

type commandRequest struct {
	ChatID  int64
	ReplyTo int64 // responses go to the sender's private chat
	UID     int64
	Lang    string
	Args    []string
}

type commandHandler func(ctx context.Context, req *commandRequest) error

type dispatcherUC struct {
	users     repository.UserRepository
	topics    repository.TopicRepository
	guard     adapter.ReplyGuard
	publisher adapter.OutboundPublisher
	tr        Translator
	langs     LanguageResolver
	identity  adapter.BotIdentity
	baseURL   string
	routes    map[string]commandHandler
	log       *zerolog.Logger
}

func NewCommandDispatcher(
	users repository.UserRepository,
	topics repository.TopicRepository,
	guard adapter.ReplyGuard,
	publisher adapter.OutboundPublisher,
	tr Translator,
	langs LanguageResolver,
	identity adapter.BotIdentity,
	baseURL string,
	logger *zerolog.Logger,
) *dispatcherUC {
	l := logger.With().Str("component", "CommandDispatcher").Logger()
	d := &dispatcherUC{
		users:     users,
		topics:    topics,
		guard:     guard,
		publisher: publisher,
		tr:        tr,
		langs:     langs,
		identity:  identity,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       &l,
	}
	d.routes = map[string]commandHandler{
		"reply":  d.handleReply,
		"recent": d.handleRecent,
		"help":   d.handleHelp,
	}
	return d
}

func (d *dispatcherUC) Handle(ctx context.Context, msg model.InboundMessage) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	mention := d.mentionToken()
	if mention != "" && strings.EqualFold(text, mention) {
		metrics.IncInbound("mention")
		d.respond(ctx, msg.FromID, Format(greeting, 0, map[string]string{
			"userid":  strconv.FormatInt(msg.FromID, 10),
			"chatid":  strconv.FormatInt(msg.ChatID, 10),
			"botname": d.identity.Identity(),
		}))
		return
	}
	if mention != "" && strings.HasSuffix(strings.ToLower(text), mention) {
		text = strings.TrimSpace(text[:len(text)-len(mention)])
	}
	if !strings.HasPrefix(text, "/") {
		metrics.IncInbound("ignored")
		return
	}
	metrics.IncInbound("command")

	uid, err := d.users.FindUIDByTelegramID(ctx, msg.FromID)
	if errors.Is(err, domain.ErrNotFound) {
		d.respond(ctx, msg.FromID, unlinkedMessage)
		return
	}
	if err != nil {
		d.log.Error().Err(err).Int64("tg_id", msg.FromID).Msg("identity lookup failed")
		d.respond(ctx, msg.FromID, d.tr.T("", "generic_error"))
		return
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(strings.ToLower(fields[0]), "/")
	req := &commandRequest{
		ChatID:  msg.ChatID,
		ReplyTo: msg.FromID,
		UID:     uid,
		Lang:    d.langs.Resolve(ctx, uid),
		Args:    fields[1:],
	}

	handler, ok := d.routes[name]
	if !ok {
		metrics.IncCommand(name, "unknown")
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "unknown_command"))
		return
	}
	if err := handler(ctx, req); err != nil {
		metrics.IncCommand(name, "error")
		d.log.Error().Err(err).Str("command", name).Int64("uid", uid).Msg("command failed")
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "generic_error"))
		return
	}
	metrics.IncCommand(name, "ok")
}

// handleReply posts a topic reply. The per-uid guard rejects a second
// reply while one is still being processed (network retries, rapid
// double-send) and is released on every exit path.
func (d *dispatcherUC) handleReply(ctx context.Context, req *commandRequest) error {
	if len(req.Args) < 2 {
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "usage_reply"))
		return nil
	}
	tid, err := strconv.ParseInt(req.Args[0], 10, 64)
	if err != nil {
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "usage_reply"))
		return nil
	}

	token, err := d.guard.Acquire(ctx, req.UID)
	if errors.Is(err, domain.ErrReplyInFlight) {
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "too_many_messages"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire guard: %w", err)
	}
	defer func() {
		if err := d.guard.Release(ctx, req.UID, token); err != nil {
			d.log.Warn().Err(err).Int64("uid", req.UID).Msg("guard release failed")
		}
	}()

	content := strings.Join(req.Args[1:], " ")
	if err := d.topics.Reply(ctx, tid, req.UID, content); err != nil {
		d.log.Warn().Err(err).Int64("tid", tid).Int64("uid", req.UID).Msg("reply rejected")
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "topic_post_error"))
		return nil
	}
	d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "topic_post_success"))
	return nil
}

// handleRecent lists the newest topics. The listing body itself is not
// localized (titles and URLs are user content); only the failure
// message is.
func (d *dispatcherUC) handleRecent(ctx context.Context, req *commandRequest) error {
	count := recentDefault
	if len(req.Args) > 0 {
		if n, err := strconv.Atoi(req.Args[0]); err == nil {
			count = n
		}
	}
	if count < 1 {
		count = 1
	}
	if count > recentMax {
		count = recentMax
	}

	topics, err := d.topics.Recent(ctx, req.UID, count)
	if err != nil || len(topics) == 0 {
		if err != nil {
			d.log.Warn().Err(err).Int64("uid", req.UID).Msg("recent topics fetch failed")
		}
		d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "no_recent_topics"))
		return nil
	}

	now := time.Now()
	lines := make([]string, 0, len(topics))
	for _, t := range topics {
		lines = append(lines, fmt.Sprintf("%s, %s, %s\n%s/topic/%d",
			t.Title, RelativeTime(t.LastPostTime, now), t.AuthorName, d.baseURL, t.TID))
	}
	d.respond(ctx, req.ReplyTo, strings.Join(lines, "\n\n"))
	return nil
}

func (d *dispatcherUC) handleHelp(ctx context.Context, req *commandRequest) error {
	d.respond(ctx, req.ReplyTo, d.tr.T(req.Lang, "help_message"))
	return nil
}

// respond publishes through the outbound path so delivery stays
// centralized in the connection-holding process.
func (d *dispatcherUC) respond(ctx context.Context, target int64, text string) {
	if err := d.publisher.PublishOutbound(ctx, model.OutboundMessage{Target: target, Text: text}); err != nil {
		d.log.Error().Err(err).Int64("target", target).Msg("response publish failed")
	}
}

func (d *dispatcherUC) mentionToken() string {
	name := d.identity.Identity()
	if name == "" {
		return ""
	}
	return "@" + strings.ToLower(name)
}
