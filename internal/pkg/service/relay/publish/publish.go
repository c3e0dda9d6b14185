// Package publish commits the latest values to the record store.
package publish

import (
	"context"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

const (
	recordPrefix  = "relay/record/"
	payloadPrefix = "relay/payload/"
)

// Publisher writes the value and the payload of a key to etcd.
// One Publisher exists per source connection, see the supervisor package.
type Publisher struct {
	logger log.Logger
	client *etcd.Client
}

func New(client *etcd.Client, logger log.Logger) *Publisher {
	return &Publisher{logger: logger.AddPrefix("[publish]"), client: client}
}

// Publish stores the value and the payload in one transaction.
func (p *Publisher) Publish(ctx context.Context, key, value string, payload []byte) error {
	_, err := p.client.Txn(ctx).
		Then(
			etcd.OpPut(RecordKey(key), value),
			etcd.OpPut(PayloadKey(key), string(payload)),
		).
		Commit()
	if err != nil {
		return errors.Wrapf(err, `cannot put key "%s"`, key)
	}
	p.logger.Debugf(`published key "%s"`, key)
	return nil
}

// Close closes the underlying etcd client.
func (p *Publisher) Close() {
	if err := p.client.Close(); err != nil {
		p.logger.Warnf(`cannot close etcd connection: %s`, err)
	}
}

func RecordKey(key string) string {
	return recordPrefix + key
}

func PayloadKey(key string) string {
	return payloadPrefix + key
}
