package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dejobratic/shopkart/internal/orders/app/commands"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/metrics"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

func newObservedMetrics(t *testing.T) (*metrics.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := metrics.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// counterValues sums a counter's data points keyed by one attribute.
func counterValues(t *testing.T, reader *sdkmetric.ManualReader, name string, key attribute.Key) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(key)
				values[v.AsString()] += dp.Value
			}
		}
	}
	return values
}

func TestObservablePlaceOrderCountsOnlyCreatedOrders(t *testing.T) {
	w := newWorld(t)
	m, reader := newObservedMetrics(t)
	w.addToCart("u-1", "p-mug", 1)

	handler := commands.NewObservablePlaceOrderHandler(commands.NewPlaceOrderCommandHandler(w.placer), w.logger, m)

	_, err := handler.Handle(context.Background(),
		commands.PlaceOrderCommand{UserID: "u-1", AddressID: "a-1", PaymentMode: "ONLINE"})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(),
		commands.PlaceOrderCommand{UserID: "u-1", AddressID: "a-1", PaymentMode: "COD"})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(),
		commands.PlaceOrderCommand{UserID: "u-1", AddressID: "a-1", PaymentMode: "COD"})
	require.ErrorIs(t, err, ports.ErrEmptyCart)

	byStatus := counterValues(t, reader, "orders_placed_total", "status")
	assert.Equal(t, int64(1), byStatus["success"])
	assert.Equal(t, int64(1), byStatus["error"])

	byMode := counterValues(t, reader, "orders_placed_total", "payment_mode")
	assert.Equal(t, int64(2), byMode[string(domain.PaymentCashOnDelivery)])
	assert.Zero(t, byMode[string(domain.PaymentOnline)])
}

func TestObservableStatusHandlersRecordActor(t *testing.T) {
	w := newWorld(t)
	m, reader := newObservedMetrics(t)
	w.seedOrder("o-1", "u-1", domain.StatusPlaced)
	w.seedOrder("o-2", "u-1", domain.StatusPlaced)

	cancel := commands.NewObservableCancelOrderHandler(
		commands.NewCancelOrderCommandHandler(w.orders, w.bus, w.logger), w.logger, m)
	update := commands.NewObservableUpdateStatusHandler(
		commands.NewUpdateStatusCommandHandler(w.orders, w.bus, domain.PolicyPermissive, w.logger), w.logger, m)

	_, err := cancel.Handle(context.Background(), commands.CancelOrderCommand{UserID: "u-1", OrderID: "o-1"})
	require.NoError(t, err)
	_, err = update.Handle(context.Background(), commands.UpdateStatusCommand{OperatorID: "op", OrderID: "o-2", Status: "SHIPPED"})
	require.NoError(t, err)
	_, err = update.Handle(context.Background(), commands.UpdateStatusCommand{OperatorID: "op", OrderID: "o-1", Status: "SHIPPED"})
	require.Error(t, err)

	byActor := counterValues(t, reader, "order_status_transitions_total", "actor")
	assert.Equal(t, map[string]int64{"customer": 1, "operator": 1}, byActor)
}
