package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/pkg/notify"
)

func TestEventPublisher_NotConnected(t *testing.T) {
	notify.SetNatsConn(nil)
	rm := metrics.NewResourceMetricsWithRegistry("test", prometheus.NewRegistry())
	p := NewEventPublisher("", "", rm, log.NewNopLogger())

	err := p.PublishTurn(context.Background(), "b1", 1, []*domain.TurnResult{domain.NewTurnResult(1, domain.PhaseAction)})
	assert.NoError(t, err)
	err = p.PublishEnd(context.Background(), &domain.BattleEndResult{BattleID: "b1"})
	assert.NoError(t, err)

	service := metrics.GetServiceName()
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.EventsPublished.WithLabelValues(notify.SubjectBattleTurn, "skipped", service)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.EventsPublished.WithLabelValues(notify.SubjectBattleEnd, "skipped", service)))
}

func TestEventPublisher_CancelledContext(t *testing.T) {
	rm := metrics.NewResourceMetricsWithRegistry("test", prometheus.NewRegistry())
	p := NewEventPublisher("custom.turn", "custom.end", rm, log.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.PublishTurn(ctx, "b1", 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.EventsPublished.WithLabelValues("custom.turn", "error", metrics.GetServiceName())))
}
