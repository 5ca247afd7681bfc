package channel

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/eugenenazirov/sendmessage/internal/message"
	"github.com/eugenenazirov/sendmessage/internal/tailoring"
	"github.com/eugenenazirov/sendmessage/internal/transport"
)

const (
	serverChanLegacyAPI = "https://sc.ftqq.com/"
	serverChanTurboAPI  = "https://sctapi.ftqq.com/"
	// legacyKeyPrefix marks keys issued by the original ServerChan service.
	legacyKeyPrefix = "SCU"
)

// serverChan pushes through ServerChan (https://sct.ftqq.com/).
type serverChan struct {
	deps *Deps
}

type serverChanSettings struct {
	common `yaml:",inline"`
	SCKey  string `yaml:"sckey"`
}

// textDespQuery is shared by ServerChan and Iyuu, which speak the same API.
type textDespQuery struct {
	Text string `url:"text"`
	Desp string `url:"desp"`
}

func (s *serverChan) Name() string { return ServerChan }

func (s *serverChan) Format() message.Format { return plainFormat }

func (s *serverChan) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var settings serverChanSettings
	if err := decode(ServerChan, cfg, &settings); err != nil {
		return "", err
	}
	if err := required(ServerChan, "sckey", settings.SCKey); err != nil {
		return "", err
	}

	target, err := sendURL(baseURL(settings.common, serverChanAPI(settings.SCKey))+url.PathEscape(settings.SCKey)+".send", textDespQuery{Text: title, Desp: body})
	if err != nil {
		return "", err
	}

	client, err := s.deps.client(ServerChan, settings.common)
	if err != nil {
		return "", err
	}
	return transport.Get(ctx, client, target)
}

// serverChanAPI picks the service generation a key was issued by.
func serverChanAPI(key string) string {
	if strings.HasPrefix(key, legacyKeyPrefix) {
		return serverChanLegacyAPI
	}
	return serverChanTurboAPI
}

// sendURL appends the encoded form of params to endpoint.
func sendURL(endpoint string, params any) (string, error) {
	values, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	return endpoint + "?" + values.Encode(), nil
}
