package main

import (
	"fmt"
	"os"

	"github.com/azar84/pmp-ledger/internal/auth"
	"github.com/azar84/pmp-ledger/internal/config"
	"github.com/azar84/pmp-ledger/internal/db"
	"github.com/azar84/pmp-ledger/internal/excel"
	httphandler "github.com/azar84/pmp-ledger/internal/http"
	"github.com/azar84/pmp-ledger/internal/http/middleware"
	"github.com/azar84/pmp-ledger/internal/logger"
	"github.com/azar84/pmp-ledger/internal/pdf"
	"github.com/azar84/pmp-ledger/internal/repository"
	"github.com/azar84/pmp-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ledgerRepo := repository.NewLedgerRepository(database)
	invoiceRepo := repository.NewInvoiceRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)

	registerService := service.NewRegisterService(ledgerRepo, cfg)
	invoiceService := service.NewInvoiceService(ledgerRepo, invoiceRepo, cfg)
	paymentService := service.NewPaymentService(ledgerRepo, invoiceRepo, paymentRepo)
	statementService := service.NewStatementService(
		ledgerRepo, invoiceRepo, paymentRepo,
		excel.NewGenerator(), pdf.NewGenerator(), cfg,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(registerService, invoiceService, paymentService, statementService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting ledger service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
