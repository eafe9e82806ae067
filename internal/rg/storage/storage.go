// Package storage reúne os backends chave-valor do estado de jogo responsável.
package storage

import "github.com/radieske/responsible-gambling/internal/rg"

var (
	_ rg.Storage = (*Memory)(nil)
	_ rg.Storage = (*File)(nil)
	_ rg.Storage = (*Redis)(nil)
	_ rg.Storage = (*Postgres)(nil)
)
