package publish_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/publish"
	"github.com/keboola/kv-relay/internal/pkg/utils/etcdhelper"
)

func TestPublish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := etcdhelper.ClientForTest(t)
	publisher := publish.New(client, log.NewDebugLogger())

	require.NoError(t, publisher.Publish(ctx, "record/1", "value1", []byte("payload1")))

	record, err := client.Get(ctx, publish.RecordKey("record/1"))
	require.NoError(t, err)
	require.Len(t, record.Kvs, 1)
	assert.Equal(t, "value1", string(record.Kvs[0].Value))

	payload, err := client.Get(ctx, publish.PayloadKey("record/1"))
	require.NoError(t, err)
	require.Len(t, payload.Kvs, 1)
	assert.Equal(t, "payload1", string(payload.Kvs[0].Value))

	// A newer value overwrites the older one
	require.NoError(t, publisher.Publish(ctx, "record/1", "value2", nil))
	record, err = client.Get(ctx, publish.RecordKey("record/1"))
	require.NoError(t, err)
	require.Len(t, record.Kvs, 1)
	assert.Equal(t, "value2", string(record.Kvs[0].Value))
}
