package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

// fakeStore is an in-memory stand-in for the repositories, implementing
// every store interface the services consume.
type fakeStore struct {
	accounts     map[uuid.UUID]model.AccountCode
	allocations  map[uuid.UUID]model.Allocation
	workPackages map[uuid.UUID]model.WorkPackage
	contracts    map[uuid.UUID]model.Contract
	targets      map[uuid.UUID]model.ProgressTarget
	installments map[uuid.UUID]model.Installment
	guarantees   map[uuid.UUID]model.Guarantee

	accountFetchCalls int

	// failCreateInstallmentAt makes the n-th CreateInstallment call of the
	// test fail (1-based); 0 disables the fault.
	failCreateInstallmentAt int
	createInstallmentCalls  int
}

var errStorageFault = errors.New("storage fault")

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     make(map[uuid.UUID]model.AccountCode),
		allocations:  make(map[uuid.UUID]model.Allocation),
		workPackages: make(map[uuid.UUID]model.WorkPackage),
		contracts:    make(map[uuid.UUID]model.Contract),
		targets:      make(map[uuid.UUID]model.ProgressTarget),
		installments: make(map[uuid.UUID]model.Installment),
		guarantees:   make(map[uuid.UUID]model.Guarantee),
	}
}

func (f *fakeStore) addAllocation(a model.Allocation) model.Allocation {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.allocations[a.ID] = a
	return a
}

func (f *fakeStore) addWorkPackage(wp model.WorkPackage) model.WorkPackage {
	if wp.ID == uuid.Nil {
		wp.ID = uuid.New()
	}
	f.workPackages[wp.ID] = wp
	return wp
}

func (f *fakeStore) addContract(c model.Contract) model.Contract {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.contracts[c.ID] = c
	return c
}

func (f *fakeStore) addTarget(t model.ProgressTarget) model.ProgressTarget {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.targets[t.ID] = t
	return t
}

func (f *fakeStore) addInstallment(row model.Installment) model.Installment {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.installments[row.ID] = row
	return row
}

func (f *fakeStore) addGuarantee(row model.Guarantee) model.Guarantee {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.guarantees[row.ID] = row
	return row
}

// AccountFetcher

func (f *fakeStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.AccountCode, error) {
	f.accountFetchCalls++
	var result []model.AccountCode
	for _, id := range ids {
		if record, ok := f.accounts[id]; ok {
			result = append(result, record)
		}
	}
	return result, nil
}

// LedgerStore / AllocationStore / WorkPackageStore

func (f *fakeStore) GetAllocation(_ context.Context, accountCodeID uuid.UUID, scope model.Scope) (*model.Allocation, error) {
	for _, a := range f.allocations {
		if a.AccountCodeID == accountCodeID && a.ActivityID == scope.ActivityID && a.BudgetYear == scope.BudgetYear {
			found := a
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetAllocationByID(_ context.Context, id uuid.UUID) (*model.Allocation, error) {
	a, ok := f.allocations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (f *fakeStore) GetWorkPackage(_ context.Context, id uuid.UUID) (*model.WorkPackage, error) {
	wp, ok := f.workPackages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &wp, nil
}

func (f *fakeStore) ListWorkPackagesByAllocation(_ context.Context, allocationID uuid.UUID) ([]model.WorkPackage, error) {
	var rows []model.WorkPackage
	for _, wp := range f.workPackages {
		if wp.AllocationID == allocationID {
			rows = append(rows, wp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Description < rows[j].Description })
	return rows, nil
}

func (f *fakeStore) CreateWorkPackage(_ context.Context, wp model.WorkPackage) (*model.WorkPackage, error) {
	wp.ID = uuid.New()
	f.workPackages[wp.ID] = wp
	return &wp, nil
}

func (f *fakeStore) UpdateWorkPackage(_ context.Context, wp model.WorkPackage) error {
	if _, ok := f.workPackages[wp.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.workPackages[wp.ID] = wp
	return nil
}

func (f *fakeStore) DeleteWorkPackage(_ context.Context, id uuid.UUID) error {
	if _, ok := f.workPackages[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.workPackages, id)
	return nil
}

func (f *fakeStore) CountContractsForWorkPackage(_ context.Context, workPackageID uuid.UUID) (int64, error) {
	var count int64
	for _, c := range f.contracts {
		if c.WorkPackageID == workPackageID {
			count++
		}
	}
	return count, nil
}

// ContractStore / ContractGetter

func (f *fakeStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeStore) FindContractByNumber(_ context.Context, number string) (*model.Contract, error) {
	needle := strings.ToLower(strings.TrimSpace(number))
	for _, c := range f.contracts {
		if strings.ToLower(strings.TrimSpace(c.ContractNumber)) == needle {
			found := c
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) ListContractsByWorkPackageIDs(_ context.Context, ids []uuid.UUID) ([]model.Contract, error) {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var rows []model.Contract
	for _, c := range f.contracts {
		if _, ok := wanted[c.WorkPackageID]; ok {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ContractNumber < rows[j].ContractNumber })
	return rows, nil
}

func (f *fakeStore) CreateContract(_ context.Context, c model.Contract) (*model.Contract, error) {
	c.ID = uuid.New()
	f.contracts[c.ID] = c
	return &c, nil
}

func (f *fakeStore) UpdateContract(_ context.Context, c model.Contract) error {
	if _, ok := f.contracts[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.contracts[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteContract(_ context.Context, id uuid.UUID) error {
	if _, ok := f.contracts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.contracts, id)
	return nil
}

func (f *fakeStore) CountContractChildren(_ context.Context, contractID uuid.UUID) (int64, error) {
	var count int64
	for _, t := range f.targets {
		if t.ContractID == contractID {
			count++
		}
	}
	for _, row := range f.installments {
		if row.ContractID == contractID {
			count++
		}
	}
	for _, row := range f.guarantees {
		if row.ContractID == contractID {
			count++
		}
	}
	return count, nil
}

// TargetStore

func (f *fakeStore) GetTarget(_ context.Context, id uuid.UUID) (*model.ProgressTarget, error) {
	t, ok := f.targets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (f *fakeStore) CreateTarget(_ context.Context, t model.ProgressTarget) (*model.ProgressTarget, error) {
	t.ID = uuid.New()
	f.targets[t.ID] = t
	return &t, nil
}

func (f *fakeStore) UpdateTarget(_ context.Context, t model.ProgressTarget) error {
	if _, ok := f.targets[t.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.targets[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTarget(_ context.Context, id uuid.UUID) error {
	if _, ok := f.targets[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.targets, id)
	return nil
}

// InstallmentStore

func (f *fakeStore) ListInstallmentsByContract(_ context.Context, contractID uuid.UUID) ([]model.Installment, error) {
	var rows []model.Installment
	for _, row := range f.installments {
		if row.ContractID == contractID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows, nil
}

func (f *fakeStore) CreateInstallment(_ context.Context, row model.Installment) (*model.Installment, error) {
	f.createInstallmentCalls++
	if f.failCreateInstallmentAt > 0 && f.createInstallmentCalls == f.failCreateInstallmentAt {
		return nil, errStorageFault
	}
	row.ID = uuid.New()
	f.installments[row.ID] = row
	return &row, nil
}

func (f *fakeStore) DeleteInstallment(_ context.Context, id uuid.UUID) error {
	if _, ok := f.installments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.installments, id)
	return nil
}

// GuaranteeStore

func (f *fakeStore) ListGuaranteesByContract(_ context.Context, contractID uuid.UUID) ([]model.Guarantee, error) {
	var rows []model.Guarantee
	for _, row := range f.guarantees {
		if row.ContractID == contractID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Number < rows[j].Number })
	return rows, nil
}

func (f *fakeStore) CreateGuarantee(_ context.Context, row model.Guarantee) (*model.Guarantee, error) {
	row.ID = uuid.New()
	f.guarantees[row.ID] = row
	return &row, nil
}

func (f *fakeStore) DeleteGuarantee(_ context.Context, id uuid.UUID) error {
	if _, ok := f.guarantees[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.guarantees, id)
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func testPrincipal(orgUnitID uuid.UUID) model.Principal {
	return model.Principal{
		UserID:     uuid.New(),
		OrgUnitID:  orgUnitID,
		Role:       model.RoleOperator,
		BudgetYear: 2025,
	}
}
