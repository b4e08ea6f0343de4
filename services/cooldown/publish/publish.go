package publish

import (
	"context"
	"fmt"
	"time"

	"curriculum-scraper/internal/assert"
	"curriculum-scraper/internal/components/telemetry"
	"curriculum-scraper/internal/cooldown"
	libtelemetry "curriculum-scraper/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_publisher_publish = "publisher.publish"

type Options struct {
	Endpoint string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
}

// Publisher posts finished batch responses to a webhook.
type Publisher struct {
	client   *resty.Client
	endpoint string
	tel      telemetry.API
}

func NewPublisher(opts Options, tel telemetry.API) Publisher {
	assert.NotEmptyStr(opts.Endpoint)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("publish", tel)

	client := resty.New()
	client.SetHeader("user-agent", "curriculum-scraper")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	} else {
		client.SetTimeout(30 * time.Second)
	}
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	libtelemetry.InstrumentResty(client, "curriculum.services.cooldown.publish")
	telemetry.InstrumentResty(client, tel)

	return Publisher{
		client:   client,
		endpoint: opts.Endpoint,
		tel:      tel,
	}
}

func (p Publisher) Publish(ctx context.Context, res cooldown.BatchResponse) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(res).
		Post(p.endpoint)
	if err != nil {
		p.tel.ReportBroken(report_publisher_publish, err, res.RunId)
		return fmt.Errorf("publish run %s: %w", res.RunId, err)
	}
	if resp.IsError() {
		err = fmt.Errorf("publish run %s: endpoint responded %s", res.RunId, resp.Status())
		p.tel.ReportWarning(report_publisher_publish, err)
		return err
	}
	p.tel.ReportDebug("published run", res.RunId, resp.StatusCode())
	return nil
}
