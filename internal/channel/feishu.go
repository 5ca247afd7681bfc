package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// feiShu posts plain text to a Feishu custom bot webhook
// (https://www.feishu.cn/hc/zh-CN/articles/360024984973).
type feiShu struct {
	deps *Deps
}

type feiShuSettings struct {
	common `yaml:",inline"`
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

type feiShuPayload struct {
	Timestamp string        `json:"timestamp,omitempty"`
	Sign      string        `json:"sign,omitempty"`
	MsgType   string        `json:"msg_type"`
	Content   feiShuContent `json:"content"`
}

type feiShuContent struct {
	Text string `json:"text"`
}

func (f *feiShu) Name() string { return FeiShu }

func (f *feiShu) Format() message.Format { return cappedFormat }

func (f *feiShu) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s feiShuSettings
	if err := decode(FeiShu, cfg, &s); err != nil {
		return "", err
	}
	if err := required(FeiShu, "url", s.URL); err != nil {
		return "", err
	}

	payload := feiShuPayload{
		MsgType: "text",
		Content: feiShuContent{Text: title + "\n\n" + body},
	}
	if s.Secret != "" {
		timestamp := strconv.FormatInt(f.deps.clock().Unix(), 10)
		payload.Timestamp = timestamp
		payload.Sign = feiShuSign(s.Secret, timestamp)
	}

	client, err := f.deps.client(FeiShu, s.common)
	if err != nil {
		return "", err
	}
	return transport.PostJSON(ctx, client, s.URL, payload, jsonUTF8Headers)
}

// feiShuSign uses "timestamp\nsecret" itself as the HMAC-SHA256 key over an
// empty message, as the Feishu bot API expects.
func feiShuSign(secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(timestamp+"\n"+secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
