package channel

import (
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sendmessage/internal/transport"
)

// Registry looks adapters up by channel name.
type Registry struct {
	adapters map[string]Adapter
	names    []string
}

// NewRegistry builds all ten adapters on top of factory.
func NewRegistry(factory *transport.Factory, opts ...Option) *Registry {
	deps := &Deps{
		http:   factory,
		mail:   SMTPSender{},
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(deps)
	}
	if deps.http == nil {
		deps.http = transport.NewFactory(0)
	}
	if deps.tokens == nil {
		deps.tokens = NewMemoryTokenCache(deps.clock)
	}

	r := &Registry{adapters: make(map[string]Adapter, 10)}
	for _, a := range []Adapter{
		&bark{deps: deps},
		&serverChan{deps: deps},
		&pushPlus{deps: deps},
		&iyuu{deps: deps},
		&smtpMail{deps: deps},
		&dingTalk{deps: deps},
		&feiShu{deps: deps},
		&wxBot{deps: deps},
		&wxApp{deps: deps},
		&telegram{deps: deps},
	} {
		r.adapters[a.Name()] = a
		r.names = append(r.names, a.Name())
	}
	return r
}

// Lookup returns the adapter registered for name.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names lists the supported channels in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
