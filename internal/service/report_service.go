package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
	"github.com/bpkad/budget-exec/internal/repository"
)

type ExcelGenerator interface {
	Generate(report model.RealizationReport) ([]byte, error)
}

type DocumentGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

// ReportService assembles the budget realization workbook and the printable
// contract summary from the live entity tree.
type ReportService struct {
	budget    *repository.BudgetRepository
	contracts *repository.ContractRepository
	schedules *repository.ScheduleRepository
	resolver  *AccountResolver
	ledger    *Ledger
	excel     ExcelGenerator
	pdf       DocumentGenerator
}

func NewReportService(
	budget *repository.BudgetRepository,
	contracts *repository.ContractRepository,
	schedules *repository.ScheduleRepository,
	resolver *AccountResolver,
	ledger *Ledger,
	excel ExcelGenerator,
	pdf DocumentGenerator,
) *ReportService {
	return &ReportService{
		budget:    budget,
		contracts: contracts,
		schedules: schedules,
		resolver:  resolver,
		ledger:    ledger,
		excel:     excel,
		pdf:       pdf,
	}
}

type ReportResult struct {
	FileName string
	Content  []byte
}

func (s *ReportService) Realization(ctx context.Context, principal model.Principal, budgetYear int) (*ReportResult, error) {
	if budgetYear == 0 {
		budgetYear = principal.BudgetYear
	}
	if budgetYear == 0 {
		return nil, validationf("budget year is required")
	}

	allocations, err := s.budget.ListAllocations(ctx, principal.OrgUnitID, budgetYear)
	if err != nil {
		return nil, err
	}

	accountIDs := make([]uuid.UUID, 0, len(allocations))
	for _, allocation := range allocations {
		accountIDs = append(accountIDs, allocation.AccountCodeID)
	}
	accounts, err := s.resolver.Resolve(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]model.RealizationRow, 0, len(allocations))
	for _, allocation := range allocations {
		workPackages, err := s.budget.ListWorkPackagesByAllocation(ctx, allocation.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(workPackages))
		var packageTotal int64
		for _, wp := range workPackages {
			ids = append(ids, wp.ID)
			packageTotal += wp.Amount
		}

		contracts, err := s.contracts.ListContractsByWorkPackageIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		var committed int64
		for _, contract := range contracts {
			committed += contract.Value
		}

		rows = append(rows, model.RealizationRow{
			Account:      accounts[allocation.AccountCodeID],
			Ceiling:      allocation.Ceiling,
			WorkPackages: packageTotal,
			Committed:    committed,
			Remaining:    allocation.Ceiling - committed,
			Contracts:    contracts,
		})
	}

	report := model.RealizationReport{
		OrgUnitName: principal.OrgUnitID.String(),
		BudgetYear:  budgetYear,
		GeneratedAt: time.Now(),
		Rows:        rows,
	}

	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("realization-%d-%s.xlsx", budgetYear, report.GeneratedAt.Format("20060102"))
	return &ReportResult{FileName: fileName, Content: content}, nil
}

func (s *ReportService) ContractDocument(ctx context.Context, principal model.Principal, contractID uuid.UUID) (*ReportResult, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccess(contract.OrgUnitID) {
		return nil, ErrPermissionDenied
	}

	workPackage, err := s.budget.GetWorkPackage(ctx, contract.WorkPackageID)
	if err != nil {
		return nil, err
	}
	allocation, err := s.budget.GetAllocationByID(ctx, workPackage.AllocationID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.resolver.Resolve(ctx, []uuid.UUID{contract.AccountCodeID})
	if err != nil {
		return nil, err
	}

	scope := model.Scope{ActivityID: allocation.ActivityID, BudgetYear: allocation.BudgetYear}
	balance, err := s.ledger.Remaining(ctx, contract.AccountCodeID, scope)
	if err != nil {
		return nil, err
	}

	targets, err := s.schedules.ListTargetsByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	installments, err := s.schedules.ListInstallmentsByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	guarantees, err := s.schedules.ListGuaranteesByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(model.ContractDocument{
		Contract:     *contract,
		WorkPackage:  *workPackage,
		Account:      accounts[contract.AccountCodeID],
		Balance:      balance,
		Targets:      targets,
		Installments: installments,
		Guarantees:   guarantees,
	})
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(contract.ContractNumber)
	if name == "" {
		name = contract.ID.String()
	}
	return &ReportResult{
		FileName: fmt.Sprintf("contract-%s.pdf", name),
		Content:  content,
	}, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
