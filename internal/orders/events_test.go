package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmCreated_PublishedEvent(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, Producto{ID: 1, Nombre: "lapiz", Precio: decimal.RequireFromString("2.50"), Stock: 5})
	pub := &recordingPublisher{}
	svc := NewService(db, 5*time.Second, nil, pub)

	_, err := svc.PlaceOrder(context.Background(), 9, []Item{{ProductoID: 1, Cantidad: 2}})
	require.NoError(t, err)
	require.Len(t, pub.payloads, 1)

	body, err := json.Marshal(pub.payloads[0])
	require.NoError(t, err)
	assert.NoError(t, svc.ConfirmCreated(context.Background(), EventOrderCreated, body))
}

func TestConfirmCreated_Rejects(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, Producto{ID: 1, Nombre: "lapiz", Precio: decimal.NewFromInt(10), Stock: 5})
	svc := NewService(db, 5*time.Second, nil, nil)
	out, err := svc.PlaceOrder(context.Background(), 9, []Item{{ProductoID: 1, Cantidad: 1}})
	require.NoError(t, err)

	ctx := context.Background()
	valid := func(total string, usuario int64, pedido uint64) []byte {
		b, _ := json.Marshal(OrderCreated{PedidoID: pedido, UsuarioID: usuario, Total: total})
		return b
	}

	assert.ErrorIs(t, svc.ConfirmCreated(ctx, "order.cancelled", valid("10.00", 9, out.PedidoID)), ErrBadEvent)
	assert.ErrorIs(t, svc.ConfirmCreated(ctx, EventOrderCreated, []byte("not json")), ErrBadEvent)
	assert.ErrorIs(t, svc.ConfirmCreated(ctx, EventOrderCreated, valid("diez", 9, out.PedidoID)), ErrBadEvent)

	assert.Error(t, svc.ConfirmCreated(ctx, EventOrderCreated, valid("10.00", 9, out.PedidoID+100)))
	assert.Error(t, svc.ConfirmCreated(ctx, EventOrderCreated, valid("11.00", 9, out.PedidoID)))
	assert.Error(t, svc.ConfirmCreated(ctx, EventOrderCreated, valid("10.00", 8, out.PedidoID)))

	assert.NoError(t, svc.ConfirmCreated(ctx, "", valid("10", 9, out.PedidoID)))
}
