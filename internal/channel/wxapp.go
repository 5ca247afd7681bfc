package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

const (
	wxAppAPI = "https://qyapi.weixin.qq.com/"

	wxDuplicateCheckInterval = 1800
	// tokenExpiryMargin keeps a cached token from expiring mid-request.
	tokenExpiryMargin = time.Minute
)

// wxApp sends an application message through WeCom
// (https://developer.work.weixin.qq.com/document/path/90236). It exchanges
// corpid and secret for an access token first, then sends.
type wxApp struct {
	deps *Deps
}

type wxAppSettings struct {
	common  `yaml:",inline"`
	CorpID  string           `yaml:"corpid"`
	Secret  string           `yaml:"secret"`
	AgentID tailoring.Scalar `yaml:"agentid"`
	ToUser  string           `yaml:"touser"`
	Type    string           `yaml:"type"`
}

type wxTokenQuery struct {
	CorpID     string `url:"corpid"`
	CorpSecret string `url:"corpsecret"`
}

type wxTokenResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type wxAppMarkdown struct {
	ToUser                 string    `json:"touser"`
	MsgType                string    `json:"msgtype"`
	AgentID                int       `json:"agentid"`
	Markdown               wxContent `json:"markdown"`
	EnableDuplicateCheck   int       `json:"enable_duplicate_check"`
	DuplicateCheckInterval int       `json:"duplicate_check_interval"`
}

type wxAppText struct {
	ToUser                 string    `json:"touser"`
	MsgType                string    `json:"msgtype"`
	AgentID                int       `json:"agentid"`
	Text                   wxContent `json:"text"`
	Safe                   int       `json:"safe"`
	EnableIDTrans          int       `json:"enable_id_trans"`
	EnableDuplicateCheck   int       `json:"enable_duplicate_check"`
	DuplicateCheckInterval int       `json:"duplicate_check_interval"`
}

func (w *wxApp) Name() string { return WxApp }

func (w *wxApp) Format() message.Format { return cappedFormat }

func (w *wxApp) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s wxAppSettings
	if err := decode(WxApp, cfg, &s); err != nil {
		return "", err
	}
	if err := required(WxApp, "corpid", s.CorpID, "secret", s.Secret, "agentid", s.AgentID.String(), "touser", s.ToUser); err != nil {
		return "", err
	}
	agentID, err := strconv.Atoi(strings.TrimSpace(s.AgentID.String()))
	if err != nil {
		return "", &ConfigError{Channel: WxApp, Field: "agentid", Reason: "must be an integer", Err: err}
	}

	client, err := w.deps.client(WxApp, s.common)
	if err != nil {
		return "", err
	}
	base := baseURL(s.common, wxAppAPI)

	token, err := w.accessToken(ctx, client, base, s)
	if err != nil {
		return "", &AuthError{Channel: WxApp, Err: fmt.Errorf("fetch access token: %w", err)}
	}

	var payload any
	if s.Type == "markdown" {
		payload = wxAppMarkdown{
			ToUser:                 s.ToUser,
			MsgType:                "markdown",
			AgentID:                agentID,
			Markdown:               wxContent{Content: markdownHeading(title) + body},
			DuplicateCheckInterval: wxDuplicateCheckInterval,
		}
	} else {
		payload = wxAppText{
			ToUser:                 s.ToUser,
			MsgType:                "text",
			AgentID:                agentID,
			Text:                   wxContent{Content: title + "\n\n" + body},
			DuplicateCheckInterval: wxDuplicateCheckInterval,
		}
	}

	target := base + "cgi-bin/message/send?access_token=" + url.QueryEscape(token)
	return transport.PostJSON(ctx, client, target, payload, wxHeaders)
}

func (w *wxApp) accessToken(ctx context.Context, client *http.Client, base string, s wxAppSettings) (string, error) {
	key := s.CorpID + "\x00" + s.Secret
	if token, ok := w.deps.tokens.Get(key); ok {
		w.deps.logger.Debug("reusing cached access token", zap.String("channel", WxApp))
		return token, nil
	}

	target, err := sendURL(base+"cgi-bin/gettoken", wxTokenQuery{CorpID: s.CorpID, CorpSecret: s.Secret})
	if err != nil {
		return "", err
	}
	raw, err := transport.Get(ctx, client, target)
	if err != nil {
		return "", err
	}

	var resp wxTokenResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.ErrCode != 0 {
		return "", fmt.Errorf("errcode %d: %s", resp.ErrCode, resp.ErrMsg)
	}
	if resp.AccessToken == "" {
		return "", errors.New("empty access_token in response")
	}

	if ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenExpiryMargin; ttl > 0 {
		w.deps.tokens.Set(key, resp.AccessToken, ttl)
	}
	return resp.AccessToken, nil
}
