// Package paymentchain provides the payment chain bounded context module.
package paymentchain

import (
	"rentops_backend/internal/adapters/storage"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/internal/paymentchain/handler"
	"rentops_backend/internal/paymentchain/repository"
	"rentops_backend/internal/paymentchain/service"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the payment chain bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the payment chain module. The rents
// resolver is supplied by the composition root to avoid a direct dependency
// on the rent timeline module.
func NewModule(pool *pgxpool.Pool, rents service.RentResolver, storageSvc storage.StorageService, bucket string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, rents, storageSvc, bucket, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "paymentchain"
}

// RegisterRoutes mounts payment chain routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/properties/:id/payment-chain", m.handler.GetChain)
	ctx.Protected.PUT("/properties/:id/payment-chain/edges/:kind", m.handler.UpsertEdge)
	ctx.Protected.POST("/properties/:id/payment-chain/files/:tile", m.handler.UploadFile)
	ctx.Protected.GET("/payment-chain/files/:fileId/download", m.handler.GetFileDownloadURL)
	ctx.Protected.DELETE("/payment-chain/files/:fileId", m.handler.DeleteFile)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
