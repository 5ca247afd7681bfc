package channel

import (
	"context"
	"net/url"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

const telegramAPI = "https://api.telegram.org/"

// telegram sends through the Bot API sendMessage method
// (https://core.telegram.org/bots/api#sendmessage).
type telegram struct {
	deps *Deps
}

type telegramSettings struct {
	common `yaml:",inline"`
	Token  string           `yaml:"token"`
	ChatID tailoring.Scalar `yaml:"chatid"`
}

type telegramQuery struct {
	ChatID string `url:"chat_id"`
	Text   string `url:"text"`
}

func (t *telegram) Name() string { return Telegram }

func (t *telegram) Format() message.Format { return plainFormat }

func (t *telegram) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s telegramSettings
	if err := decode(Telegram, cfg, &s); err != nil {
		return "", err
	}
	if err := required(Telegram, "token", s.Token, "chatid", s.ChatID.String()); err != nil {
		return "", err
	}

	endpoint := baseURL(s.common, telegramAPI) + "bot" + url.PathEscape(s.Token) + "/sendMessage"
	target, err := sendURL(endpoint, telegramQuery{ChatID: s.ChatID.String(), Text: title + "\n\n" + body})
	if err != nil {
		return "", err
	}

	client, err := t.deps.client(Telegram, s.common)
	if err != nil {
		return "", err
	}
	return transport.Get(ctx, client, target)
}
