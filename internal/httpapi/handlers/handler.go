package handlers

import (
	"github.com/suPer8Hu/mcp-gateway/internal/chat"
	"github.com/suPer8Hu/mcp-gateway/internal/config"
	"github.com/suPer8Hu/mcp-gateway/internal/mcp"
	"github.com/suPer8Hu/mcp-gateway/internal/orders"
	"github.com/suPer8Hu/mcp-gateway/internal/store"
)

type Handler struct {
	Cfg        config.Config
	Store      *store.Service
	Orders     *orders.Service
	Dispatcher *mcp.Dispatcher
	ChatSvc    *chat.Service
}

func NewHandler(cfg config.Config, st *store.Service, ord *orders.Service, d *mcp.Dispatcher, chatSvc *chat.Service) *Handler {
	return &Handler{
		Cfg:        cfg,
		Store:      st,
		Orders:     ord,
		Dispatcher: d,
		ChatSvc:    chatSvc,
	}
}
