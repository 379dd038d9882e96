package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(gormsqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&Producto{}, &Pedido{}, &DetallePedido{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedProducts(t *testing.T, db *gorm.DB, ps ...Producto) {
	t.Helper()
	for i := range ps {
		if err := db.Create(&ps[i]).Error; err != nil {
			t.Fatalf("seed producto: %v", err)
		}
	}
}

func stockOf(t *testing.T, db *gorm.DB, id uint64) int {
	t.Helper()
	var stock int
	if err := db.Model(&Producto{}).Select("stock").Where("id = ?", id).Scan(&stock).Error; err != nil {
		t.Fatalf("load producto %d: %v", id, err)
	}
	return stock
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

type memIdem struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memIdem) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memIdem) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

type recordingPublisher struct {
	events   []string
	payloads []any
	fail     bool
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.events = append(p.events, eventType)
	p.payloads = append(p.payloads, payload)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

func TestPlaceOrder_Success(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, Producto{ID: 1, Nombre: "lapiz", Precio: decimal.NewFromInt(10), Stock: 5})
	pub := &recordingPublisher{}
	svc := NewService(db, 5*time.Second, nil, pub)

	out, err := svc.PlaceOrder(context.Background(), 7, []Item{{ProductoID: 1, Cantidad: 3}})
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, "Pedido creado exitosamente", out.Message)
	assert.NotZero(t, out.PedidoID)
	assert.Equal(t, 30.0, out.Total)

	assert.Equal(t, 2, stockOf(t, db, 1))

	var pedido Pedido
	require.NoError(t, db.First(&pedido, out.PedidoID).Error)
	assert.Equal(t, EstadoPendiente, pedido.Estado)
	assert.Equal(t, int64(7), pedido.UsuarioID)
	assert.True(t, pedido.Total.Equal(decimal.NewFromInt(30)))

	var detalles []DetallePedido
	require.NoError(t, db.Where("pedido_id = ?", out.PedidoID).Find(&detalles).Error)
	require.Len(t, detalles, 1)
	assert.Equal(t, 3, detalles[0].Cantidad)
	assert.True(t, detalles[0].PrecioUnitario.Equal(decimal.NewFromInt(10)))
	assert.True(t, detalles[0].Subtotal.Equal(decimal.NewFromInt(30)))

	assert.Equal(t, []string{EventOrderCreated}, pub.events)
}

func TestPlaceOrder_MultipleItemsDecimalTotal(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db,
		Producto{ID: 1, Precio: decimal.RequireFromString("0.10"), Stock: 10},
		Producto{ID: 2, Precio: decimal.RequireFromString("0.20"), Stock: 10},
	)
	svc := NewService(db, 5*time.Second, nil, nil)

	out, err := svc.PlaceOrder(context.Background(), 1, []Item{
		{ProductoID: 1, Cantidad: 1},
		{ProductoID: 2, Cantidad: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, out.Total)
	assert.EqualValues(t, 2, countRows(t, db, &DetallePedido{}))
}

func TestPlaceOrder_InsufficientStockChangesNothing(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db,
		Producto{ID: 1, Precio: decimal.NewFromInt(10), Stock: 5},
		Producto{ID: 2, Precio: decimal.NewFromInt(4), Stock: 2},
	)
	pub := &recordingPublisher{}
	svc := NewService(db, 5*time.Second, nil, pub)

	_, err := svc.PlaceOrder(context.Background(), 1, []Item{
		{ProductoID: 1, Cantidad: 1},
		{ProductoID: 2, Cantidad: 3},
	})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindValidation))
	assert.Contains(t, err.Error(), "Disponible: 2")
	assert.Contains(t, err.Error(), "Solicitado: 3")

	// the first item's decrement was rolled back
	assert.Equal(t, 5, stockOf(t, db, 1))
	assert.Equal(t, 2, stockOf(t, db, 2))
	assert.Zero(t, countRows(t, db, &Pedido{}))
	assert.Zero(t, countRows(t, db, &DetallePedido{}))
	assert.Empty(t, pub.events)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 5*time.Second, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, []Item{{ProductoID: 99, Cantidad: 1}})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindValidation))
	assert.Equal(t, "Producto 99 no encontrado", err.Error())
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 5*time.Second, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, nil)
	require.Error(t, err)
	assert.Equal(t, "El pedido debe contener al menos un item", err.Error())
	assert.Equal(t, 400, common.StatusOf(err))
}

func TestPlaceOrder_PublishFailureKeepsOrder(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, Producto{ID: 1, Precio: decimal.NewFromInt(2), Stock: 1})
	svc := NewService(db, 5*time.Second, nil, &recordingPublisher{fail: true})

	out, err := svc.PlaceOrder(context.Background(), 1, []Item{{ProductoID: 1, Cantidad: 1}})
	require.NoError(t, err)
	assert.NotZero(t, out.PedidoID)
	assert.EqualValues(t, 1, countRows(t, db, &Pedido{}))
}

func TestPlaceOrderOnce_ReplaysStoredResponse(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, Producto{ID: 1, Precio: decimal.NewFromInt(10), Stock: 5})
	svc := NewService(db, 5*time.Second, &memIdem{}, nil)

	items := []Item{{ProductoID: 1, Cantidad: 2}}
	first, err := svc.PlaceOrderOnce(context.Background(), "abc", 1, items)
	require.NoError(t, err)
	second, err := svc.PlaceOrderOnce(context.Background(), "abc", 1, items)
	require.NoError(t, err)

	assert.Equal(t, first.PedidoID, second.PedidoID)
	assert.Equal(t, 3, stockOf(t, db, 1))
	assert.EqualValues(t, 1, countRows(t, db, &Pedido{}))

	// same key, different user: a new order
	third, err := svc.PlaceOrderOnce(context.Background(), "abc", 2, items)
	require.NoError(t, err)
	assert.NotEqual(t, first.PedidoID, third.PedidoID)
}

func TestPlaceOrderOnce_KeyTooLong(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 5*time.Second, &memIdem{}, nil)

	_, err := svc.PlaceOrderOnce(context.Background(), strings.Repeat("k", 200), 1, []Item{{ProductoID: 1, Cantidad: 1}})
	assert.True(t, common.IsKind(err, common.KindValidation))
}
