package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrBadEvent = errors.New("malformed order event")

// ConfirmCreated checks a published order.created event against the stored
// order. It fails when the event cannot be decoded, the order is missing, or
// the stored total differs from the announced one.
func (s *Service) ConfirmCreated(ctx context.Context, eventType string, body []byte) error {
	if eventType != "" && eventType != EventOrderCreated {
		return fmt.Errorf("%w: unexpected type %q", ErrBadEvent, eventType)
	}
	var ev OrderCreated
	if err := json.Unmarshal(body, &ev); err != nil || ev.PedidoID == 0 {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	announced, err := decimal.NewFromString(ev.Total)
	if err != nil {
		return fmt.Errorf("%w: total %q", ErrBadEvent, ev.Total)
	}

	var p Pedido
	err = s.db.WithContext(ctx).Where("id = ?", ev.PedidoID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("pedido %d not found", ev.PedidoID)
	}
	if err != nil {
		return fmt.Errorf("load pedido %d: %w", ev.PedidoID, err)
	}
	if !p.Total.Equal(announced) || p.UsuarioID != ev.UsuarioID {
		return fmt.Errorf("pedido %d does not match event (total %s vs %s)", p.ID, p.Total.StringFixed(2), ev.Total)
	}

	slog.Info("order confirmed", "pedido_id", p.ID, "usuario_id", p.UsuarioID, "total", p.Total.StringFixed(2), "items", len(ev.Items))
	return nil
}
