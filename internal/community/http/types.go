package http

import (
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/community/service"
	"github.com/verso-press/verso-backend/internal/live"
)

type Handler struct {
	board *service.BoardService
	bus   *live.Bus
	log   zerolog.Logger
}

func New(board *service.BoardService, bus *live.Bus, log zerolog.Logger) *Handler {
	return &Handler{board: board, bus: bus, log: log}
}
