package usecase

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/domain/ports/repository"
	"forum-telegram-relay/internal/infra/metrics"
)

// Compile-time check
var _ LanguageResolver = (*languageUC)(nil)

// LanguageResolver looks up a forum user's language for localizing
// chat responses.
type LanguageResolver interface {
	Resolve(ctx context.Context, uid int64) string
}

const (
	languageCacheTTL   = 24 * time.Hour
	languageCacheFloor = 50
)

type languageUC struct {
	users       repository.UserRepository
	cache       *expirable.LRU[int64, string]
	defaultLang string
	log         *zerolog.Logger
}

// NewLanguageResolver sizes the cache relative to the registered user
// count: userCount/20 with a floor of 50. Entries expire after 24h;
// a user changing their forum language is picked up no later than that.
func NewLanguageResolver(ctx context.Context, users repository.UserRepository, defaultLang string, logger *zerolog.Logger) (*languageUC, error) {
	count, err := users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	capacity := count / 20
	if capacity < languageCacheFloor {
		capacity = languageCacheFloor
	}
	l := logger.With().Str("component", "LanguageResolver").Logger()
	return &languageUC{
		users:       users,
		cache:       expirable.NewLRU[int64, string](capacity, nil, languageCacheTTL),
		defaultLang: defaultLang,
		log:         &l,
	}, nil
}

// Resolve returns the cached language or fetches the user's settings,
// falling back to the instance default. Lookup failures fall back too;
// a broken settings row must not block a localized response.
func (u *languageUC) Resolve(ctx context.Context, uid int64) string {
	if lang, ok := u.cache.Get(uid); ok {
		metrics.IncLanguageCache("hit")
		return lang
	}
	metrics.IncLanguageCache("miss")

	lang := u.defaultLang
	settings, err := u.users.Settings(ctx, uid)
	if err != nil {
		u.log.Warn().Err(err).Int64("uid", uid).Msg("settings lookup failed, using default language")
	} else if settings.Language != "" {
		lang = settings.Language
	}
	u.cache.Add(uid, lang)
	return lang
}
