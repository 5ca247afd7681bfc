package channel

import (
	"context"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// wxBot posts markdown to a WeCom group robot webhook
// (https://developer.work.weixin.qq.com/document/path/91770).
type wxBot struct {
	deps *Deps
}

type wxBotSettings struct {
	common `yaml:",inline"`
	URL    string `yaml:"url"`
}

type wxBotPayload struct {
	MsgType  string    `json:"msgtype"`
	Markdown wxContent `json:"markdown"`
	At       atAll     `json:"at"`
}

type wxContent struct {
	Content string `json:"content"`
}

var wxHeaders = map[string]string{
	"Content-Type": "application/json;charset=UTF-8",
}

func (w *wxBot) Name() string { return WxBot }

func (w *wxBot) Format() message.Format { return cappedFormat }

func (w *wxBot) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s wxBotSettings
	if err := decode(WxBot, cfg, &s); err != nil {
		return "", err
	}
	if err := required(WxBot, "url", s.URL); err != nil {
		return "", err
	}

	payload := wxBotPayload{
		MsgType:  "markdown",
		Markdown: wxContent{Content: markdownHeading(title) + body},
		At:       atAll{IsAtAll: true},
	}

	client, err := w.deps.client(WxBot, s.common)
	if err != nil {
		return "", err
	}
	return transport.PostJSON(ctx, client, s.URL, payload, wxHeaders)
}
