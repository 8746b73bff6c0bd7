package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/adapter"
	"forum-telegram-relay/internal/domain/ports/repository"
	"forum-telegram-relay/internal/infra/metrics"
)

// Notifications whose id carries this marker originate from content
// flagging and are never relayed.
const flagOriginMarker = "post_flag"

// Compile-time check
var _ NotificationRelay = (*relayUC)(nil)

// NotificationRelay converts forum events into outbound chat sends.
type NotificationRelay interface {
	// OnNewPost announces a freshly created post to the configured room.
	OnNewPost(ctx context.Context, post *model.Post)

	// OnUserNotification fans a notification out to each recipient's
	// bound telegram identity. Per-recipient failures are isolated.
	OnUserNotification(ctx context.Context, notif *model.Notification, uids []int64)
}

type relayUC struct {
	users     repository.UserRepository
	topics    repository.TopicRepository
	store     *config.Store
	publisher adapter.OutboundPublisher
	tr        Translator
	langs     LanguageResolver
	baseURL   string
	log       *zerolog.Logger
}

func NewNotificationRelay(
	users repository.UserRepository,
	topics repository.TopicRepository,
	store *config.Store,
	publisher adapter.OutboundPublisher,
	tr Translator,
	langs LanguageResolver,
	baseURL string,
	logger *zerolog.Logger,
) *relayUC {
	l := logger.With().Str("component", "NotificationRelay").Logger()
	return &relayUC{
		users:     users,
		topics:    topics,
		store:     store,
		publisher: publisher,
		tr:        tr,
		langs:     langs,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       &l,
	}
}

func (r *relayUC) OnNewPost(ctx context.Context, post *model.Post) {
	cfg := r.store.Snapshot()
	if cfg.RoomID == 0 {
		r.log.Debug().Int64("pid", post.PID).Msg("no target room configured, skipping announcement")
		metrics.IncAnnouncement("skipped")
		return
	}
	if !cfg.CategoryAllowed(post.CID) {
		metrics.IncAnnouncement("skipped_category")
		return
	}
	if cfg.TopicsOnly && !post.IsMain {
		metrics.IncAnnouncement("skipped_reply")
		return
	}

	topic, err := r.topics.Fields(ctx, post.TID)
	if err != nil {
		r.log.Error().Err(err).Int64("tid", post.TID).Msg("topic lookup failed, dropping announcement")
		metrics.IncAnnouncement("failed")
		return
	}

	content := Format(post.Content, cfg.MaxLength, nil)
	text := cfg.MessageContent + "\n" + content + "\n\n" + r.baseURL + "/topic/" + topic.Slug + "/"
	if err := r.publisher.PublishOutbound(ctx, model.OutboundMessage{Target: cfg.RoomID, Text: text}); err != nil {
		r.log.Error().Err(err).Int64("pid", post.PID).Msg("announcement publish failed")
		metrics.IncAnnouncement("failed")
		return
	}
	metrics.IncAnnouncement("sent")
}

func (r *relayUC) OnUserNotification(ctx context.Context, notif *model.Notification, uids []int64) {
	if notif == nil || len(uids) == 0 {
		return
	}
	if strings.Contains(notif.NID, flagOriginMarker) {
		metrics.IncNotification("suppressed")
		return
	}

	bindings, err := r.users.TelegramIDs(ctx, uids)
	if err != nil {
		r.log.Error().Err(err).Str("nid", notif.NID).Msg("binding lookup failed, dropping notification")
		return
	}

	body := StripMarkup(notif.BodyLong)
	for _, uid := range uids {
		tgID, ok := bindings[uid]
		if !ok {
			metrics.IncNotification("skipped")
			continue
		}
		lang := r.langs.Resolve(ctx, uid)
		title := StripMarkup(r.tr.T(lang, notif.BodyShort))
		text := title + "\n\n" + body + "\n\n" + r.baseURL + notif.Path
		if err := r.publisher.PublishOutbound(ctx, model.OutboundMessage{Target: tgID, Text: text}); err != nil {
			r.log.Error().Err(err).Int64("uid", uid).Str("nid", notif.NID).Msg("notification publish failed")
			metrics.IncNotification("failed")
			continue
		}
		metrics.IncNotification("sent")
	}
}
