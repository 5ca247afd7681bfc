package channel

import (
	"context"
	"net/url"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

const iyuuAPI = "https://iyuu.cn/"

// iyuu pushes to WeChat through IYUU (https://iyuu.cn/).
type iyuu struct {
	deps *Deps
}

type iyuuSettings struct {
	common `yaml:",inline"`
	Token  string `yaml:"token"`
}

func (i *iyuu) Name() string { return Iyuu }

func (i *iyuu) Format() message.Format { return plainFormat }

func (i *iyuu) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s iyuuSettings
	if err := decode(Iyuu, cfg, &s); err != nil {
		return "", err
	}
	if err := required(Iyuu, "token", s.Token); err != nil {
		return "", err
	}

	target, err := sendURL(baseURL(s.common, iyuuAPI)+url.PathEscape(s.Token)+".send", textDespQuery{Text: title, Desp: body})
	if err != nil {
		return "", err
	}

	client, err := i.deps.client(Iyuu, s.common)
	if err != nil {
		return "", err
	}
	return transport.Get(ctx, client, target)
}
