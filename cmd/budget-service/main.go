package main

import (
	"fmt"
	"os"

	"github.com/bpkad/budget-exec/internal/auth"
	"github.com/bpkad/budget-exec/internal/config"
	"github.com/bpkad/budget-exec/internal/db"
	"github.com/bpkad/budget-exec/internal/excel"
	httphandler "github.com/bpkad/budget-exec/internal/http"
	"github.com/bpkad/budget-exec/internal/http/middleware"
	"github.com/bpkad/budget-exec/internal/logger"
	"github.com/bpkad/budget-exec/internal/pdf"
	"github.com/bpkad/budget-exec/internal/repository"
	"github.com/bpkad/budget-exec/internal/service"
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

	accountRepo := repository.NewAccountRepository(database)
	budgetRepo := repository.NewBudgetRepository(database)
	contractRepo := repository.NewContractRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}

	resolver := service.NewAccountResolver(accountRepo, cfg.Budget.AccountCacheSize)
	ledger := service.NewLedger(ledgerStore{budgetRepo, contractRepo})
	workPackageService := service.NewWorkPackageService(budgetRepo)
	contractService := service.NewContractService(contractRepo, budgetRepo, ledger)
	targetService := service.NewTargetService(scheduleRepo, contractRepo)
	installmentService := service.NewInstallmentService(scheduleRepo, contractRepo, cfg.Budget.ProgressTolerance)
	guaranteeService := service.NewGuaranteeService(scheduleRepo, contractRepo)
	reportService := service.NewReportService(
		budgetRepo,
		contractRepo,
		scheduleRepo,
		resolver,
		ledger,
		excel.NewGenerator(),
		pdfGenerator,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(httphandler.Dependencies{
		Resolver:     resolver,
		Ledger:       ledger,
		WorkPackages: workPackageService,
		Contracts:    contractService,
		Targets:      targetService,
		Installments: installmentService,
		Guarantees:   guaranteeService,
		Reports:      reportService,
		BudgetRepo:   budgetRepo,
		ContractRepo: contractRepo,
		ScheduleRepo: scheduleRepo,
	}, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting budget service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// ledgerStore stitches the allocation and contract repositories into the
// single store the ledger walks.
type ledgerStore struct {
	*repository.BudgetRepository
	*repository.ContractRepository
}
