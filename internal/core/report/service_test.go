package report

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/ksdhq/personnel/internal/core/employee"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

// fakeRepo は検索と集計の走査に必要な List だけを実装します。
type fakeRepo struct {
	employees []*employee.Employee
}

func (r *fakeRepo) Create(context.Context, *employee.Employee) (*employee.Employee, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) Update(context.Context, *employee.Employee) (*employee.Employee, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

func (r *fakeRepo) FindByID(context.Context, string) (*employee.Employee, error) {
	return nil, employee.ErrEmployeeNotFound
}

func (r *fakeRepo) List(_ context.Context, filter employee.ListFilter) ([]*employee.Employee, string, error) {
	if filter.Offset > len(r.employees) {
		return []*employee.Employee{}, "", nil
	}

	end := filter.Offset + filter.Limit
	if end > len(r.employees) {
		end = len(r.employees)
	}

	page := r.employees[filter.Offset:end]

	var nextToken string
	if end < len(r.employees) {
		nextToken = strconv.Itoa(end)
	}

	return page, nextToken, nil
}

func (r *fakeRepo) Snapshot(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("not implemented")
}

func testEmployees() []*employee.Employee {
	return []*employee.Employee{
		{
			ID: "emp-1", Kind: employee.KindStaff, FirstName: "John", LastName: "Doe",
			Department: "FIN", Phone: "5551234567", YearStarted: 2020, BaseSalary: 50000,
		},
		{
			ID: "emp-2", Kind: employee.KindProgrammer, FirstName: "Jane", LastName: "Smith",
			Department: "ENG", Phone: "4445556666", YearStarted: 2024, BaseSalary: 60000,
			Project: &employee.Project{Name: "Atlas", Revenue: 100000},
		},
		{
			ID: "emp-3", Kind: employee.KindGeneralManager, FirstName: "Ann", LastName: "Jones",
			Department: "ENG", Phone: "7778889999", YearStarted: 2016, BaseSalary: 100000,
			Projects: []employee.Project{{Name: "Atlas", Revenue: 100000}, {Name: "Borealis", Revenue: 50000}},
		},
	}
}

func newTestService() *Service {
	repo := &fakeRepo{employees: testEmployees()}
	return NewService(repo, stubClock{now: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)})
}

func TestService_Search_ByNameSubstring(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	found, err := svc.Search(context.Background(), FieldName, "an")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	ids := make([]string, 0, len(found))
	for _, e := range found {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)

	// "an" は Jane と Ann に部分一致する。
	want := []string{"emp-2", "emp-3"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
		}
	}
}

func TestService_Search_ByPhoneIgnoresPunctuation(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	found, err := svc.Search(context.Background(), FieldPhone, "(555)-123")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if len(found) != 1 || found[0].ID != "emp-1" {
		t.Fatalf("expected emp-1, got %+v", found)
	}
}

func TestService_Search_ByDepartmentExact(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	found, err := svc.Search(context.Background(), FieldDepartment, "eng")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(found))
	}

	// 完全一致のみ。部分一致はしない。
	found, err = svc.Search(context.Background(), FieldDepartment, "EN")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no match for partial department, got %d", len(found))
	}
}

func TestService_Search_ByKind(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	found, err := svc.Search(context.Background(), FieldKind, "general_manager")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(found) != 1 || found[0].ID != "emp-3" {
		t.Fatalf("expected emp-3, got %+v", found)
	}
}

func TestService_Search_InvalidField(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	if _, err := svc.Search(context.Background(), Field("salary"), "100"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestService_Search_EmptyValue(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	if _, err := svc.Search(context.Background(), FieldName, "   "); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
}

func TestService_DepartmentSummary(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	summaries, err := svc.DepartmentSummary(context.Background())
	if err != nil {
		t.Fatalf("DepartmentSummary returned error: %v", err)
	}

	fin := summaries["FIN"]
	if fin.Count != 1 {
		t.Errorf("expected 1 FIN employee, got %d", fin.Count)
	}
	if fin.TotalBaseSalary != 50000 {
		t.Errorf("expected FIN base salary 50000, got %v", fin.TotalBaseSalary)
	}
	// 50000 + 100×(2026-2020)
	if fin.TotalCompensation != 50600 {
		t.Errorf("expected FIN compensation 50600, got %v", fin.TotalCompensation)
	}

	eng := summaries["ENG"]
	if eng.Count != 2 {
		t.Errorf("expected 2 ENG employees, got %d", eng.Count)
	}
	if eng.TotalBaseSalary != 160000 {
		t.Errorf("expected ENG base salary 160000, got %v", eng.TotalBaseSalary)
	}
	// programmer: 60000 + 200、general_manager: 100000 + 1000 + 0.03×150000
	want := 60200.0 + 105500.0
	if eng.TotalCompensation != want {
		t.Errorf("expected ENG compensation %v, got %v", want, eng.TotalCompensation)
	}
}

func TestService_DepartmentSummary_InvalidState(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{employees: []*employee.Employee{
		{ID: "emp-1", Kind: employee.KindProgrammer, Department: "ENG", BaseSalary: 60000, YearStarted: 2024},
	}}
	svc := NewService(repo, stubClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})

	if _, err := svc.DepartmentSummary(context.Background()); !errors.Is(err, employee.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestService_Search_PagesThroughStore(t *testing.T) {
	t.Parallel()

	var employees []*employee.Employee
	for i := 0; i < scanPageSize+5; i++ {
		employees = append(employees, &employee.Employee{
			ID: "emp-" + strconv.Itoa(i), Kind: employee.KindStaff,
			FirstName: "John", LastName: "Doe", Department: "FIN",
			Phone: "5551234567", YearStarted: 2020, BaseSalary: 50000,
		})
	}
	svc := NewService(&fakeRepo{employees: employees}, stubClock{now: time.Now()})

	found, err := svc.Search(context.Background(), FieldDepartment, "FIN")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(found) != scanPageSize+5 {
		t.Fatalf("expected %d employees, got %d", scanPageSize+5, len(found))
	}
}
