// File: internal/infra/telegram/conn.go
package telegram

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/domain/ports/adapter"
	"forum-telegram-relay/internal/infra/metrics"
)

// State of the bot connection.
type State int32

const (
	StateStopped State = iota
	StateConnecting
	StatePolling
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StatePolling:
		return "polling"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// botClient is the slice of tgbotapi.BotAPI the manager uses; tests
// substitute a fake to drive transport errors.
type botClient interface {
	GetMe() (tgbotapi.User, error)
	GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ adapter.ChatTransport = (*Manager)(nil)

// Manager owns the single long-lived bot session. Inbound updates are
// handled one at a time in arrival order; transport errors move the
// session to reconnecting and the loop retries forever with a fixed
// delay. Only Stop or context cancellation ends it.
type Manager struct {
	store       *config.Store
	handler     func(ctx context.Context, msg model.InboundMessage)
	log         *zerolog.Logger
	pollTimeout int

	newClient func(token string) (botClient, error)

	mu       sync.RWMutex
	client   botClient
	username string

	state  atomic.Int32
	cancel context.CancelFunc
}

func NewManager(store *config.Store, pollTimeout int, handler func(ctx context.Context, msg model.InboundMessage), logger *zerolog.Logger) *Manager {
	l := logger.With().Str("component", "ConnectionManager").Logger()
	return &Manager{
		store:       store,
		handler:     handler,
		log:         &l,
		pollTimeout: pollTimeout,
		newClient: func(token string) (botClient, error) {
			return tgbotapi.NewBotAPI(token)
		},
	}
}

// Run drives the connection state machine until ctx is canceled or
// Stop is called.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	defer m.setState(StateStopped)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cfg := m.store.Snapshot()
		if cfg.BotToken == "" {
			return fmt.Errorf("%w: no bot credential configured", domain.ErrConnection)
		}

		m.setState(StateConnecting)
		client, err := m.newClient(cfg.BotToken)
		if err != nil {
			m.log.Error().Err(err).Msg("connect failed")
			if !m.backoff(ctx, cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		me, err := client.GetMe()
		if err != nil {
			m.log.Error().Err(err).Msg("credential check failed")
			if !m.backoff(ctx, cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		m.setClient(client, me.UserName)
		m.log.Info().Str("bot", me.UserName).Msg("connected, polling")
		m.setState(StatePolling)

		if err := m.poll(ctx, client); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.setClient(nil, m.Identity())
			m.log.Warn().Err(err).Dur("retry_in", cfg.ReconnectDelay).Msg("polling error")
			if !m.backoff(ctx, cfg.ReconnectDelay) {
				return ctx.Err()
			}
		}
	}
}

// Stop tears down the session.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// State reports the current connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Status reports the state name and bot identity for the admin API.
func (m *Manager) Status() (string, string) {
	return m.State().String(), m.Identity()
}

// Identity returns the bot username, empty until the first connect.
func (m *Manager) Identity() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// Send delivers text best-effort. Failures are logged and counted,
// never returned: notification delivery must not crash the relay.
func (m *Manager) Send(ctx context.Context, target int64, text string) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		metrics.IncDelivery(false)
		m.log.Warn().Int64("target", target).Msg("send dropped: not connected")
		return
	}
	if _, err := client.Send(tgbotapi.NewMessage(target, text)); err != nil {
		metrics.IncDelivery(false)
		m.log.Error().Err(err).Int64("target", target).Msg("send failed")
		return
	}
	metrics.IncDelivery(true)
}

// poll reads updates until a transport error or cancellation. Updates
// are handled sequentially so per-chat and global ordering holds.
func (m *Manager) poll(ctx context.Context, client botClient) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		u := tgbotapi.NewUpdate(offset)
		u.Timeout = m.pollTimeout

		updates, err := client.GetUpdates(u)
		if err != nil {
			return err
		}
		for _, update := range updates {
			offset = update.UpdateID + 1
			msg := update.Message
			if msg == nil || msg.From == nil || msg.Text == "" {
				continue
			}
			m.dispatch(ctx, model.InboundMessage{
				ChatID:   msg.Chat.ID,
				FromID:   msg.From.ID,
				Username: msg.From.UserName,
				Text:     msg.Text,
			})
		}
	}
}

// dispatch hands one message to the handler. A malformed payload or a
// handler panic must not take down the polling loop.
func (m *Manager) dispatch(ctx context.Context, msg model.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Int64("chat_id", msg.ChatID).Msg("handler panicked")
		}
	}()
	m.handler(ctx, msg)
}

func (m *Manager) setState(s State) {
	if State(m.state.Swap(int32(s))) != s && s == StateReconnecting {
		metrics.IncReconnect()
	}
}

// backoff waits out the fixed reconnect delay; false means ctx ended.
func (m *Manager) backoff(ctx context.Context, delay time.Duration) bool {
	m.setState(StateReconnecting)
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *Manager) setClient(c botClient, username string) {
	m.mu.Lock()
	m.client = c
	m.username = username
	m.mu.Unlock()
}
