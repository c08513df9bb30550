// Package telegram publishes announcements to a Telegram channel.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"tokenherald/internal/transport"
	"tokenherald/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64 // channel or group the announcements go to
}

// Publisher posts plain-text messages to one chat via the Bot API.
type Publisher struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	connected atomic.Bool
}

var _ transport.Publisher = (*Publisher)(nil)

// New builds the publisher and verifies the bot session (getMe). A
// failed session leaves the process running; Connected() reports false
// and every publish fails with a connectivity error until it recovers.
func New(cfg Config, log logx.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	p := &Publisher{cfg: cfg, log: log}

	// Send-only: no poller, we never consume updates.
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		// Session establishment failed; keep the adapter so a later
		// publish attempt can retry the session.
		p.log.Warn("telegram session not established", logx.Err(err))
		return p, nil
	}
	p.bot = b
	p.connected.Store(true)
	p.log.Info("telegram session established",
		logx.String("bot", b.Me.Username), logx.Int64("chat_id", cfg.ChatID))
	return p, nil
}

func (p *Publisher) Connected() bool { return p != nil && p.connected.Load() }

func (p *Publisher) Publish(ctx context.Context, text string) (transport.Receipt, error) {
	if p.bot == nil {
		if err := p.redial(); err != nil {
			return transport.Receipt{}, &transport.ConnectivityError{Collaborator: "telegram", Err: err}
		}
	}

	msg, err := p.bot.Send(tele.ChatID(p.cfg.ChatID), text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return transport.Receipt{}, p.classify(err)
	}

	p.connected.Store(true)
	return transport.Receipt{
		ID: fmt.Sprintf("%d:%d", p.cfg.ChatID, msg.ID),
		At: time.Now(),
	}, nil
}

func (p *Publisher) redial() error {
	b, err := tele.NewBot(tele.Settings{Token: p.cfg.Token})
	if err != nil {
		return err
	}
	p.bot = b
	p.connected.Store(true)
	return nil
}

// classify maps Bot API failures onto the pipeline taxonomy. A 400
// means the channel refused the content itself; everything else is
// treated as reachability and retried on a later tick.
func (p *Publisher) classify(err error) error {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		p.log.Warn("telegram flood control", logx.Int("retry_after_s", flood.RetryAfter))
		return transport.ErrRateLimited
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 400:
			return fmt.Errorf("%w: %s", transport.ErrContentRejected, apiErr.Description)
		default:
			// 401/403 (auth) and 5xx both read as "channel unreachable"
			// from the pipeline's point of view.
			p.connected.Store(false)
			return &transport.ConnectivityError{Collaborator: "telegram", Err: err}
		}
	}

	p.connected.Store(false)
	return &transport.ConnectivityError{Collaborator: "telegram", Err: err}
}
