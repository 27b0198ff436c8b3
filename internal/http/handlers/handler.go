package handlers

import (
	"txsync/internal/cache"
	"txsync/internal/repository"
	"txsync/internal/service"
)

// Handler bundles the dependencies the transaction endpoints need.
type Handler struct {
	svc   *service.UpsertService
	store repository.Store
	cache *cache.Cache
}

func NewHandler(svc *service.UpsertService, store repository.Store, c *cache.Cache) *Handler {
	return &Handler{svc: svc, store: store, cache: c}
}
