package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// App carries the shared dependencies of every handler.
type App struct {
	DB  *pgxpool.Pool
	Cfg *Config
	Log zerolog.Logger
}
