package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// dingTalk posts markdown to a DingTalk custom robot webhook
// (https://open.dingtalk.com/document/robots/custom-robot-access).
type dingTalk struct {
	deps *Deps
}

type dingTalkSettings struct {
	common `yaml:",inline"`
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

type dingTalkPayload struct {
	MsgType  string           `json:"msgtype"`
	Markdown dingTalkMarkdown `json:"markdown"`
	At       atAll            `json:"at"`
}

type dingTalkMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type atAll struct {
	IsAtAll bool `json:"isAtAll"`
}

var jsonUTF8Headers = map[string]string{
	"Content-Type": "application/json",
	"Charset":      "UTF-8",
}

func (d *dingTalk) Name() string { return DingTalk }

func (d *dingTalk) Format() message.Format { return cappedFormat }

func (d *dingTalk) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s dingTalkSettings
	if err := decode(DingTalk, cfg, &s); err != nil {
		return "", err
	}
	if err := required(DingTalk, "url", s.URL); err != nil {
		return "", err
	}

	target := s.URL
	if s.Secret != "" {
		timestamp := d.deps.clock().UnixMilli()
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "timestamp=" + strconv.FormatInt(timestamp, 10) + "&sign=" + dingTalkSign(s.Secret, timestamp)
	}

	payload := dingTalkPayload{
		MsgType: "markdown",
		Markdown: dingTalkMarkdown{
			Title: title,
			Text:  markdownHeading(title) + body,
		},
		At: atAll{IsAtAll: true},
	}

	client, err := d.deps.client(DingTalk, s.common)
	if err != nil {
		return "", err
	}
	return transport.PostJSON(ctx, client, target, payload, jsonUTF8Headers)
}

// dingTalkSign signs "timestamp\nsecret" with the secret as HMAC-SHA256 key and
// returns it base64 and query encoded.
func dingTalkSign(secret string, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + "\n" + secret))
	return url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// markdownHeading renders the bold title line the markdown channels lead with.
func markdownHeading(title string) string {
	return "#### **" + title + "** \n\n"
}
