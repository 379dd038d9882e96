package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/db"
)

const (
	EventOrderCreated = "order.created"

	idempotencyTTL    = 24 * time.Hour
	maxIdempotencyKey = 128
)

// IdempotencyStore remembers placement responses by client key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type Service struct {
	db      *gorm.DB
	timeout time.Duration
	idem    IdempotencyStore
	events  EventPublisher
}

// NewService wires the order flow. idem and events may be nil.
func NewService(gdb *gorm.DB, timeout time.Duration, idem IdempotencyStore, events EventPublisher) *Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{db: gdb, timeout: timeout, idem: idem, events: events}
}

// PlaceOrder locks, checks and decrements every product, then records the
// order and its lines. Either all of it commits or none of it does.
func (s *Service) PlaceOrder(ctx context.Context, usuarioID int64, items []Item) (*Placement, error) {
	if len(items) == 0 {
		return nil, common.Validation("El pedido debe contener al menos un item")
	}
	for _, it := range items {
		if it.Cantidad <= 0 {
			return nil, common.Validationf("Cantidad inválida para el producto %d", it.ProductoID)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var pedido Pedido
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		prices := make([]decimal.Decimal, len(items))

		for i, it := range items {
			var p Producto
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id", "precio", "stock").
				Where("id = ?", it.ProductoID).
				Take(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.Validationf("Producto %d no encontrado", it.ProductoID)
			}
			if err != nil {
				return err
			}
			if p.Stock < it.Cantidad {
				return common.Validationf("Stock insuficiente para el producto %d. Disponible: %d, Solicitado: %d",
					it.ProductoID, p.Stock, it.Cantidad)
			}

			err = tx.Model(&Producto{}).
				Where("id = ?", it.ProductoID).
				UpdateColumns(map[string]any{
					"stock":      gorm.Expr("stock - ?", it.Cantidad),
					"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
				}).Error
			if err != nil {
				return err
			}

			prices[i] = p.Precio
			total = total.Add(p.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad))))
		}

		pedido = Pedido{UsuarioID: usuarioID, Total: total, Estado: EstadoPendiente}
		if err := tx.Create(&pedido).Error; err != nil {
			return err
		}

		detalles := make([]DetallePedido, 0, len(items))
		for i, it := range items {
			qty := decimal.NewFromInt(int64(it.Cantidad))
			detalles = append(detalles, DetallePedido{
				PedidoID:       pedido.ID,
				ProductoID:     it.ProductoID,
				Cantidad:       it.Cantidad,
				PrecioUnitario: prices[i],
				Subtotal:       prices[i].Mul(qty),
			})
		}
		return tx.Create(&detalles).Error
	})
	if err != nil {
		if e, ok := common.AsError(err); ok {
			return nil, e
		}
		if e := db.Classify("place_order", err); e != nil && e.Kind == common.KindTimeout {
			return nil, e
		}
		return nil, common.DatabaseError("Error al crear el pedido", err)
	}

	s.publishCreated(ctx, pedido, items)

	return &Placement{
		Status:   "success",
		Message:  "Pedido creado exitosamente",
		PedidoID: pedido.ID,
		Total:    pedido.Total.InexactFloat64(),
	}, nil
}

// PlaceOrderOnce replays the stored response when key was already used by
// this user. An empty key or a missing store falls back to PlaceOrder.
func (s *Service) PlaceOrderOnce(ctx context.Context, key string, usuarioID int64, items []Item) (*Placement, error) {
	key = strings.TrimSpace(key)
	if key == "" || s.idem == nil {
		return s.PlaceOrder(ctx, usuarioID, items)
	}
	if len(key) > maxIdempotencyKey {
		return nil, common.Validation("Idempotency-Key demasiado largo")
	}
	storeKey := fmt.Sprintf("pedido:idem:%d:%s", usuarioID, key)

	if raw, ok, err := s.idem.Get(ctx, storeKey); err != nil {
		slog.Warn("idempotency lookup failed", "err", err)
	} else if ok {
		var prev Placement
		if err := json.Unmarshal(raw, &prev); err == nil {
			return &prev, nil
		}
	}

	out, err := s.PlaceOrder(ctx, usuarioID, items)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := s.idem.Set(ctx, storeKey, raw, idempotencyTTL); err != nil {
			slog.Warn("idempotency save failed", "pedido_id", out.PedidoID, "err", err)
		}
	}
	return out, nil
}

func (s *Service) publishCreated(ctx context.Context, p Pedido, items []Item) {
	if s.events == nil {
		return
	}
	ev := OrderCreated{
		PedidoID:  p.ID,
		UsuarioID: p.UsuarioID,
		Total:     p.Total.StringFixed(2),
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	// the order is committed; a lost event is logged, not surfaced
	if err := s.events.Publish(context.WithoutCancel(ctx), EventOrderCreated, ev); err != nil {
		slog.Error("publish order event failed", "pedido_id", p.ID, "err", err)
	}
}
