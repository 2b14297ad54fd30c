package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMessagesTotalLabels(t *testing.T) {
	before := testutil.ToFloat64(MessagesTotal.WithLabelValues(ResultInvalid))
	MessagesTotal.WithLabelValues(ResultInvalid).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MessagesTotal.WithLabelValues(ResultInvalid)))
}

func TestCollectorsAreRegistered(t *testing.T) {
	assert.Equal(t, 1, testutil.CollectAndCount(ConnectionsActive))
	assert.Equal(t, 1, testutil.CollectAndCount(AuthFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(CatalogBreakerState))
}
