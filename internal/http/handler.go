package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/http/middleware"
	"github.com/bpkad/budget-exec/internal/model"
	"github.com/bpkad/budget-exec/internal/repository"
	"github.com/bpkad/budget-exec/internal/service"
)

type Handler struct {
	resolver     *service.AccountResolver
	ledger       *service.Ledger
	workPackages *service.WorkPackageService
	contracts    *service.ContractService
	targets      *service.TargetService
	installments *service.InstallmentService
	guarantees   *service.GuaranteeService
	reports      *service.ReportService

	budgetRepo   *repository.BudgetRepository
	contractRepo *repository.ContractRepository
	scheduleRepo *repository.ScheduleRepository

	log zerolog.Logger
}

type Dependencies struct {
	Resolver     *service.AccountResolver
	Ledger       *service.Ledger
	WorkPackages *service.WorkPackageService
	Contracts    *service.ContractService
	Targets      *service.TargetService
	Installments *service.InstallmentService
	Guarantees   *service.GuaranteeService
	Reports      *service.ReportService
	BudgetRepo   *repository.BudgetRepository
	ContractRepo *repository.ContractRepository
	ScheduleRepo *repository.ScheduleRepository
}

func NewHandler(deps Dependencies, log zerolog.Logger) *Handler {
	return &Handler{
		resolver:     deps.Resolver,
		ledger:       deps.Ledger,
		workPackages: deps.WorkPackages,
		contracts:    deps.Contracts,
		targets:      deps.Targets,
		installments: deps.Installments,
		guarantees:   deps.Guarantees,
		reports:      deps.Reports,
		budgetRepo:   deps.BudgetRepo,
		contractRepo: deps.ContractRepo,
		scheduleRepo: deps.ScheduleRepo,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/accounts", h.listAccounts)
	protected.GET("/allocations", h.listAllocations)
	protected.GET("/allocations/:accountCodeId/balance", h.getBalance)

	protected.GET("/work-packages", h.listWorkPackages)
	protected.POST("/work-packages", h.createWorkPackage)
	protected.GET("/work-packages/:id", h.getWorkPackage)
	protected.PUT("/work-packages/:id", h.updateWorkPackage)
	protected.DELETE("/work-packages/:id", h.deleteWorkPackage)

	protected.GET("/contracts", h.listContracts)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts/:id", h.getContract)
	protected.PUT("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)
	protected.GET("/contracts/:id/document", h.contractDocument)

	protected.GET("/targets/by-contract/:contractId", h.listTargets)
	protected.POST("/targets", h.createTarget)
	protected.PUT("/targets/:id", h.updateTarget)
	protected.DELETE("/targets/:id", h.deleteTarget)

	protected.GET("/installments/by-contract/:contractId", h.listInstallments)
	protected.POST("/installments/by-contract/:contractId", h.replaceInstallments)
	protected.POST("/installments/by-contract/:contractId/distribute", h.distributeInstallments)
	protected.DELETE("/installments/:id", h.deleteInstallment)

	protected.GET("/guarantees/by-contract/:contractId", h.listGuarantees)
	protected.POST("/guarantees/by-contract/:contractId", h.replaceGuarantees)
	protected.DELETE("/guarantees/:id", h.deleteGuarantee)

	protected.GET("/reports/realization", h.realizationReport)
}

func (h *Handler) listAccounts(c *gin.Context) {
	ids, err := parseUUIDList(c.Query("ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ids"})
		return
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), ids)
	if err != nil {
		h.handleError(c, err)
		return
	}

	accounts := make([]model.AccountCode, 0, len(resolved))
	for _, id := range ids {
		accounts = append(accounts, resolved[id])
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func (h *Handler) listAllocations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	budgetYear := queryInt(c, "budgetYear", principal.BudgetYear)
	allocations, err := h.budgetRepo.ListAllocations(c.Request.Context(), principal.OrgUnitID, budgetYear)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": allocations})
}

func (h *Handler) getBalance(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	accountCodeID, err := uuid.Parse(c.Param("accountCodeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account code id"})
		return
	}
	activityID, err := uuid.Parse(c.Query("activityId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activityId"})
		return
	}

	scope := model.Scope{
		ActivityID: activityID,
		BudgetYear: queryInt(c, "budgetYear", principal.BudgetYear),
	}
	balance, err := h.ledger.Remaining(c.Request.Context(), accountCodeID, scope)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balance})
}

func (h *Handler) listWorkPackages(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	allocationIDs, err := parseUUIDList(c.Query("allocationIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocationIds"})
		return
	}
	accountCodeIDs, err := parseUUIDList(c.Query("accountCodeIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid accountCodeIds"})
		return
	}

	rows, err := h.budgetRepo.ListWorkPackages(c.Request.Context(), repository.WorkPackageFilter{
		AllocationIDs:  allocationIDs,
		AccountCodeIDs: accountCodeIDs,
		BudgetYear:     queryInt(c, "budgetYear", 0),
		OrgUnitID:      principal.OrgUnitID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type workPackageRequest struct {
	AllocationID string  `json:"allocationId"`
	Description  string  `json:"description"`
	Volume       float64 `json:"volume"`
	Unit         string  `json:"unit"`
	UnitPrice    int64   `json:"unitPrice"`
}

func (r workPackageRequest) toInput() (service.WorkPackageInput, error) {
	allocationID, err := parseOptionalUUID(r.AllocationID)
	if err != nil {
		return service.WorkPackageInput{}, err
	}
	return service.WorkPackageInput{
		AllocationID: allocationID,
		Description:  r.Description,
		Volume:       r.Volume,
		Unit:         r.Unit,
		UnitPrice:    r.UnitPrice,
	}, nil
}

func (h *Handler) createWorkPackage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req workPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocationId"})
		return
	}

	saved, err := h.workPackages.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": saved})
}

func (h *Handler) getWorkPackage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	row, err := h.budgetRepo.GetWorkPackage(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (h *Handler) updateWorkPackage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req workPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocationId"})
		return
	}

	saved, err := h.workPackages.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved})
}

func (h *Handler) deleteWorkPackage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.workPackages.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	accountCodeIDs, err := parseUUIDList(c.Query("accountCodeIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid accountCodeIds"})
		return
	}
	workPackageIDs, err := parseUUIDList(c.Query("workPackageIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workPackageIds"})
		return
	}

	orgUnitID := principal.OrgUnitID
	if raw := c.Query("organizationalUnitId"); raw != "" && principal.IsAdmin() {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organizationalUnitId"})
			return
		}
		orgUnitID = parsed
	}

	rows, err := h.contractRepo.ListContracts(c.Request.Context(), repository.ContractFilter{
		AccountCodeIDs: accountCodeIDs,
		WorkPackageIDs: workPackageIDs,
		BudgetYear:     queryInt(c, "budgetYear", 0),
		OrgUnitID:      orgUnitID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type contractRequest struct {
	WorkPackageID     string `json:"workPackageId"`
	ContractNumber    string `json:"contractNumber"`
	ContractDate      string `json:"contractDate"`
	WorkOrderNumber   string `json:"workOrderNumber"`
	WorkOrderDate     string `json:"workOrderDate"`
	DurationValue     int    `json:"durationValue"`
	DurationUnit      string `json:"durationUnit"`
	Provider          string `json:"provider"`
	ProcurementMethod string `json:"procurementMethod"`
	Value             int64  `json:"value"`
	AccountCodeID     string `json:"accountCodeId"`
	EstimatedPrice    int64  `json:"estimatedPrice"`
	ExecutionStart    string `json:"executionStart"`
	ExecutionEnd      string `json:"executionEnd"`
	Location          string `json:"location"`
}

func (r contractRequest) toInput() (service.ContractInput, error) {
	workPackageID, err := parseOptionalUUID(r.WorkPackageID)
	if err != nil {
		return service.ContractInput{}, err
	}
	accountCodeID, err := parseOptionalUUID(r.AccountCodeID)
	if err != nil {
		return service.ContractInput{}, err
	}
	contractDate, err := parseOptionalDate(r.ContractDate)
	if err != nil {
		return service.ContractInput{}, err
	}
	workOrderDate, err := parseOptionalDate(r.WorkOrderDate)
	if err != nil {
		return service.ContractInput{}, err
	}
	executionStart, err := parseOptionalDate(r.ExecutionStart)
	if err != nil {
		return service.ContractInput{}, err
	}
	executionEnd, err := parseOptionalDate(r.ExecutionEnd)
	if err != nil {
		return service.ContractInput{}, err
	}

	return service.ContractInput{
		WorkPackageID:     workPackageID,
		ContractNumber:    r.ContractNumber,
		ContractDate:      contractDate,
		WorkOrderNumber:   r.WorkOrderNumber,
		WorkOrderDate:     workOrderDate,
		DurationValue:     r.DurationValue,
		DurationUnit:      r.DurationUnit,
		Provider:          r.Provider,
		ProcurementMethod: r.ProcurementMethod,
		Value:             r.Value,
		AccountCodeID:     accountCodeID,
		EstimatedPrice:    r.EstimatedPrice,
		ExecutionStart:    executionStart,
		ExecutionEnd:      executionEnd,
		Location:          r.Location,
	}, nil
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.contracts.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": saved})
}

func (h *Handler) getContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	row, err := h.contractRepo.GetContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (h *Handler) updateContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.contracts.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved})
}

func (h *Handler) deleteContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.contracts.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) contractDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	result, err := h.reports.ContractDocument(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) listTargets(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("contractId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	rows, err := h.scheduleRepo.ListTargetsByContract(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type targetRequest struct {
	ContractID       string  `json:"contractId"`
	Date             string  `json:"date"`
	PhysicalPercent  float64 `json:"physicalPercent"`
	FinancialPercent float64 `json:"financialPercent"`
	FinancialAmount  int64   `json:"financialAmount"`
}

func (r targetRequest) toInput() (service.TargetInput, error) {
	contractID, err := parseOptionalUUID(r.ContractID)
	if err != nil {
		return service.TargetInput{}, err
	}
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return service.TargetInput{}, err
	}
	return service.TargetInput{
		ContractID:       contractID,
		Date:             date,
		PhysicalPercent:  r.PhysicalPercent,
		FinancialPercent: r.FinancialPercent,
		FinancialAmount:  r.FinancialAmount,
	}, nil
}

func (h *Handler) createTarget(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.targets.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": saved})
}

func (h *Handler) updateTarget(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.targets.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved})
}

func (h *Handler) deleteTarget(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.targets.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listInstallments(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("contractId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	rows, err := h.installments.ListByContract(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type installmentRow struct {
	Label           string  `json:"label"`
	PercentShare    float64 `json:"percentShare"`
	Amount          int64   `json:"amount"`
	ProgressPercent float64 `json:"progressPercent"`
}

type installmentSetRequest struct {
	Installments []installmentRow `json:"installments"`
}

func (r installmentSetRequest) toRows() []model.Installment {
	rows := make([]model.Installment, 0, len(r.Installments))
	for _, row := range r.Installments {
		rows = append(rows, model.Installment{
			Label:           strings.TrimSpace(row.Label),
			PercentShare:    row.PercentShare,
			Amount:          row.Amount,
			ProgressPercent: row.ProgressPercent,
		})
	}
	return rows
}

func (h *Handler) replaceInstallments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("contractId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	var req installmentSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := req.toRows()
	saved, err := h.installments.Replace(c.Request.Context(), principal, contractID, rows)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := gin.H{"data": saved}
	if contract, err := h.contractRepo.GetContract(c.Request.Context(), contractID); err == nil {
		if overage, exceeded := h.installments.AmountOverage(contract, saved); exceeded {
			response["warning"] = gin.H{
				"message": "installment amounts exceed contract value",
				"overage": overage,
			}
		}
	}
	c.JSON(http.StatusOK, response)
}

// distributeInstallments prepares a set without saving it: appended rows get
// ordinal labels and percent shares are redistributed evenly.
func (h *Handler) distributeInstallments(c *gin.Context) {
	var req installmentSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := req.toRows()
	for i := range rows {
		if rows[i].Label == "" {
			rows[i].Label = h.installments.NextLabel(rows[:i])
		}
	}
	h.installments.RecomputeShares(rows)
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) deleteInstallment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.scheduleRepo.DeleteInstallment(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listGuarantees(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("contractId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	rows, err := h.guarantees.ListByContract(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type guaranteeRow struct {
	Number    string `json:"number"`
	Type      string `json:"type"`
	IssueDate string `json:"issueDate"`
	ValidFrom string `json:"validFrom"`
	ValidTo   string `json:"validTo"`
	Value     int64  `json:"value"`
	Issuer    string `json:"issuer"`
}

type guaranteeSetRequest struct {
	Guarantees []guaranteeRow `json:"guarantees"`
}

func (r guaranteeSetRequest) toRows() ([]model.Guarantee, error) {
	rows := make([]model.Guarantee, 0, len(r.Guarantees))
	for _, row := range r.Guarantees {
		issueDate, err := parseOptionalDate(row.IssueDate)
		if err != nil {
			return nil, err
		}
		validFrom, err := parseOptionalDate(row.ValidFrom)
		if err != nil {
			return nil, err
		}
		validTo, err := parseOptionalDate(row.ValidTo)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.Guarantee{
			Number:    row.Number,
			Type:      row.Type,
			IssueDate: issueDate,
			ValidFrom: validFrom,
			ValidTo:   validTo,
			Value:     row.Value,
			Issuer:    row.Issuer,
		})
	}
	return rows, nil
}

func (h *Handler) replaceGuarantees(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("contractId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	var req guaranteeSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := req.toRows()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.guarantees.Replace(c.Request.Context(), principal, contractID, rows)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved})
}

func (h *Handler) deleteGuarantee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.scheduleRepo.DeleteGuarantee(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) realizationReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.reports.Realization(c.Request.Context(), principal, queryInt(c, "budgetYear", 0))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var allocationErr *service.AllocationExceededError
	var dateErr *service.DateRangeError
	var duplicateErr *service.DuplicateKeyError

	switch {
	case errors.As(err, &allocationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     allocationErr.Error(),
			"shortfall": allocationErr.Shortfall,
			"remaining": allocationErr.Remaining,
		})
	case errors.As(err, &dateErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": dateErr.Error()})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{"error": duplicateErr.Error()})
	case errors.Is(err, service.ErrIncompleteTerminal):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrWorkPackageInUse), errors.Is(err, service.ErrContractInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseUUIDList(raw string) ([]uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

func parseOptionalDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrValidation
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
