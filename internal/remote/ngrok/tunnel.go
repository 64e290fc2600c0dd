package ngrok

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	ngrok "golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

var (
	ErrMissingLocalAddr = errors.New("ngrok local address is required")
	ErrMissingAuthtoken = errors.New("ngrok enabled but no authtoken set")
)

type Options struct {
	LocalAddr     string
	Authtoken     string
	Region        string
	Domain        string
	BasicAuthUser string
	BasicAuthPass string
}

// LocalAddr is the address of the status server as seen from this machine.
func LocalAddr(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// Validate checks the options without contacting ngrok.
func (o Options) Validate() error {
	if o.LocalAddr == "" {
		return ErrMissingLocalAddr
	}
	if _, err := url.Parse(o.LocalAddr); err != nil {
		return fmt.Errorf("invalid ngrok local address: %w", err)
	}
	if o.Authtoken == "" && os.Getenv("NGROK_AUTHTOKEN") == "" {
		return ErrMissingAuthtoken
	}
	return nil
}

func (o Options) endpointOptions() []config.HTTPEndpointOption {
	httpOpts := make([]config.HTTPEndpointOption, 0, 2)
	if o.Domain != "" {
		httpOpts = append(httpOpts, config.WithDomain(o.Domain))
	}
	if o.BasicAuthUser != "" && o.BasicAuthPass != "" {
		httpOpts = append(httpOpts, config.WithBasicAuth(o.BasicAuthUser, o.BasicAuthPass))
	}
	return httpOpts
}

func (o Options) connectOptions() []ngrok.ConnectOption {
	connectOpts := make([]ngrok.ConnectOption, 0, 2)
	if o.Authtoken != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtoken(o.Authtoken))
	} else {
		connectOpts = append(connectOpts, ngrok.WithAuthtokenFromEnv())
	}
	if o.Region != "" {
		connectOpts = append(connectOpts, ngrok.WithRegion(o.Region))
	}
	return connectOpts
}

type Tunnel struct {
	forwarder ngrok.Forwarder
}

// Start exposes the status server publicly and forwards every request to it.
func Start(ctx context.Context, opts Options) (*Tunnel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	backend, err := url.Parse(opts.LocalAddr)
	if err != nil {
		return nil, err
	}

	fwd, err := ngrok.ListenAndForward(ctx, backend, config.HTTPEndpoint(opts.endpointOptions()...), opts.connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("ngrok forward failed: %w", err)
	}

	return &Tunnel{forwarder: fwd}, nil
}

func (t *Tunnel) URL() string {
	if t == nil || t.forwarder == nil {
		return ""
	}
	return t.forwarder.URL()
}

func (t *Tunnel) Close() error {
	if t == nil || t.forwarder == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.forwarder.CloseWithContext(ctx)
}
