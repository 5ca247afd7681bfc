package channel

import (
	"context"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

const pushPlusAPI = "http://www.pushplus.plus/"

// pushPlus pushes through PushPlus (https://www.pushplus.plus/).
type pushPlus struct {
	deps *Deps
}

type pushPlusSettings struct {
	common   `yaml:",inline"`
	Token    string `yaml:"token"`
	Channel  string `yaml:"channel"`
	Template string `yaml:"template"`
}

type pushPlusQuery struct {
	Token    string `url:"token"`
	Channel  string `url:"channel,omitempty"`
	Template string `url:"template,omitempty"`
	Title    string `url:"title"`
	Content  string `url:"content"`
}

func (p *pushPlus) Name() string { return PushPlus }

func (p *pushPlus) Format() message.Format { return plainFormat }

func (p *pushPlus) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s pushPlusSettings
	if err := decode(PushPlus, cfg, &s); err != nil {
		return "", err
	}
	if err := required(PushPlus, "token", s.Token); err != nil {
		return "", err
	}

	target, err := sendURL(baseURL(s.common, pushPlusAPI)+"send", pushPlusQuery{
		Token:    s.Token,
		Channel:  s.Channel,
		Template: s.Template,
		Title:    title,
		Content:  body,
	})
	if err != nil {
		return "", err
	}

	client, err := p.deps.client(PushPlus, s.common)
	if err != nil {
		return "", err
	}
	return transport.Get(ctx, client, target)
}
