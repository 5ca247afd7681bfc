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

// bark pushes to an iOS device through a Bark server
// (https://github.com/Finb/Bark). Title and body travel in the URL path.
type bark struct {
	deps *Deps
}

type barkSettings struct {
	common    `yaml:",inline"`
	Endpoint  string `yaml:"endpoint"`
	barkQuery `yaml:",inline"`
}

// barkQuery lists the push options; every one of them may be tailored.
type barkQuery struct {
	Group             tailoring.Scalar `yaml:"group" url:"group,omitempty"`
	Icon              tailoring.Scalar `yaml:"icon" url:"icon,omitempty"`
	Sound             tailoring.Scalar `yaml:"sound" url:"sound,omitempty"`
	AutomaticallyCopy tailoring.Scalar `yaml:"automaticallyCopy" url:"automaticallyCopy,omitempty"`
	IsArchive         tailoring.Scalar `yaml:"isArchive" url:"isArchive,omitempty"`
	URL               tailoring.Scalar `yaml:"url" url:"url,omitempty"`
	Level             tailoring.Scalar `yaml:"level" url:"level,omitempty"`
}

func (b *bark) Name() string { return Bark }

func (b *bark) Format() message.Format {
	return message.Format{Delimiter: "\n", MaxLength: maxBodyLength}
}

func (b *bark) Send(ctx context.Context, cfg tailoring.Values, title, body string) (string, error) {
	var s barkSettings
	if err := decode(Bark, cfg, &s); err != nil {
		return "", err
	}
	if err := required(Bark, "endpoint", s.Endpoint); err != nil {
		return "", err
	}

	params, err := query.Values(s.barkQuery)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}

	endpoint := s.Endpoint
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	target := endpoint + url.PathEscape(title) + "/" + url.PathEscape(strings.TrimSuffix(body, "\n"))
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	client, err := b.deps.client(Bark, s.common)
	if err != nil {
		return "", err
	}
	return transport.Get(ctx, client, target)
}
