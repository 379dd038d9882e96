package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

const EstadoPendiente = "pendiente"

type Producto struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Nombre    string          `gorm:"type:varchar(120)" json:"nombre"`
	Precio    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"precio"`
	Stock     int             `gorm:"not null" json:"stock"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Producto) TableName() string { return "productos" }

type Pedido struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UsuarioID int64           `gorm:"index;not null" json:"usuario_id"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Estado    string          `gorm:"type:varchar(20);not null" json:"estado"`
}

func (Pedido) TableName() string { return "pedidos" }

type DetallePedido struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PedidoID       uint64          `gorm:"index;not null" json:"pedido_id"`
	ProductoID     uint64          `gorm:"not null" json:"producto_id"`
	Cantidad       int             `gorm:"not null" json:"cantidad"`
	PrecioUnitario decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"precio_unitario"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
}

func (DetallePedido) TableName() string { return "detalles_pedido" }

// Item is one requested line: quantity of a product.
type Item struct {
	ProductoID uint64 `json:"producto_id" binding:"required"`
	Cantidad   int    `json:"cantidad" binding:"required,gt=0"`
}

type Placement struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	PedidoID uint64  `json:"pedido_id"`
	Total    float64 `json:"total"`
}

// OrderCreated is published once an order has committed.
type OrderCreated struct {
	PedidoID  uint64    `json:"pedido_id"`
	UsuarioID int64     `json:"usuario_id"`
	Total     string    `json:"total"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}
