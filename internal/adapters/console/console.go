// Package console は対話メニューを提供します。値の入力と表示のみを担い、
// すべての検証・変更はレコードストア側のユースケースを経由します。
package console

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/ksdhq/personnel/internal/core/employee"
	"github.com/ksdhq/personnel/internal/core/report"
)

// Console はメニュー駆動のフロントエンドです。
type Console struct {
	svc     employee.UseCase
	reports *report.Service
	in      *reader
	out     io.Writer
}

// New は Console を生成します。
func New(svc employee.UseCase, reports *report.Service, in io.Reader, out io.Writer) *Console {
	return &Console{svc: svc, reports: reports, in: newReader(in), out: out}
}

// Run はメニューループを開始し、終了が選択されるか入力が尽きるまで
// 繰り返します。
func (c *Console) Run(ctx context.Context) error {
	c.printf("KSD Personnel Management System\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.printf("\n")
		c.printf(" 1) Create employee\n")
		c.printf(" 2) Edit employee\n")
		c.printf(" 3) Delete employee\n")
		c.printf(" 4) List employees\n")
		c.printf(" 5) Search employees\n")
		c.printf(" 6) Department summary\n")
		c.printf(" 7) Backup records\n")
		c.printf(" 8) View operation log\n")
		c.printf(" 0) Exit\n")

		choice, ok := c.prompt("> ")
		if !ok {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			c.createEmployee(ctx)
		case "2":
			c.editEmployee(ctx)
		case "3":
			c.deleteEmployee(ctx)
		case "4":
			c.listEmployees(ctx)
		case "5":
			c.searchEmployees(ctx)
		case "6":
			c.departmentSummary(ctx)
		case "7":
			c.backup(ctx)
		case "8":
			c.viewAuditLog(ctx)
		case "0":
			c.printf("Goodbye.\n")
			return nil
		default:
			c.printf("Unknown choice %q.\n", strings.TrimSpace(choice))
		}
	}
}

func (c *Console) createEmployee(ctx context.Context) {
	kindRaw, ok := c.prompt("Kind (staff/programmer/project_manager/general_manager/manager): ")
	if !ok {
		return
	}

	in := employee.CreateEmployeeInput{Kind: employee.Kind(strings.TrimSpace(kindRaw))}

	if in.ID, ok = c.prompt("Employee ID: "); !ok {
		return
	}
	if in.FirstName, ok = c.prompt("First name: "); !ok {
		return
	}
	if in.LastName, ok = c.prompt("Last name: "); !ok {
		return
	}
	if in.Department, ok = c.prompt("Department (3 uppercase letters): "); !ok {
		return
	}
	if in.Phone, ok = c.prompt("Phone number: "); !ok {
		return
	}
	if in.YearStarted, ok = c.promptInt("Year started: "); !ok {
		return
	}
	if in.BaseSalary, ok = c.promptFloat("Base annual salary: "); !ok {
		return
	}

	switch in.Kind {
	case employee.KindManager:
		if in.TeamSize, ok = c.promptInt("Team size: "); !ok {
			return
		}
		if in.Office, ok = c.prompt("Office (optional): "); !ok {
			return
		}
	case employee.KindProgrammer, employee.KindProjectManager:
		project, ok := c.promptProject()
		if !ok {
			return
		}
		in.Project = &project
	case employee.KindGeneralManager:
		count, ok := c.promptInt("Number of projects: ")
		if !ok {
			return
		}
		for i := 0; i < count; i++ {
			c.printf("Project %d:\n", i+1)
			project, ok := c.promptProject()
			if !ok {
				return
			}
			in.Projects = append(in.Projects, project)
		}
	}

	created, err := c.svc.CreateEmployee(ctx, in)
	if err != nil {
		c.renderError(err)
		return
	}
	c.printf("Employee %s created.\n", created.ID)
}

func (c *Console) editEmployee(ctx context.Context) {
	id, ok := c.prompt("Employee ID to edit: ")
	if !ok {
		return
	}

	existing, err := c.svc.GetEmployee(ctx, employee.GetEmployeeInput{ID: id})
	if err != nil {
		c.renderError(err)
		return
	}
	c.renderEmployee(existing)

	if !c.confirm("Edit this employee?") {
		return
	}

	c.printf("Press Enter to keep the current value.\n")
	in := employee.UpdateEmployeeInput{ID: existing.ID}

	if in.FirstName, ok = c.promptOptional("First name [" + existing.FirstName + "]: "); !ok {
		return
	}
	if in.LastName, ok = c.promptOptional("Last name [" + existing.LastName + "]: "); !ok {
		return
	}
	if in.Department, ok = c.promptOptional("Department [" + existing.Department + "]: "); !ok {
		return
	}
	if in.Phone, ok = c.promptOptional("Phone [" + existing.FormattedPhone() + "]: "); !ok {
		return
	}
	if in.BaseSalary, ok = c.promptOptionalFloat("Base annual salary: "); !ok {
		return
	}

	switch existing.Kind {
	case employee.KindManager:
		if in.TeamSize, ok = c.promptOptionalInt("Team size: "); !ok {
			return
		}
		if in.Office, ok = c.promptOptional("Office [" + existing.Office + "]: "); !ok {
			return
		}
	case employee.KindProgrammer, employee.KindProjectManager:
		if c.confirm("Reassign project?") {
			project, ok := c.promptProject()
			if !ok {
				return
			}
			in.Project = &project
		}
	case employee.KindGeneralManager:
		count, ok := c.promptInt("Projects to add (0 for none): ")
		if !ok {
			return
		}
		for i := 0; i < count; i++ {
			c.printf("Project %d:\n", i+1)
			project, ok := c.promptProject()
			if !ok {
				return
			}
			in.AddProjects = append(in.AddProjects, project)
		}
	}

	updated, err := c.svc.UpdateEmployee(ctx, in)
	if err != nil {
		c.renderError(err)
		return
	}
	c.printf("Employee %s updated.\n", updated.ID)
}

func (c *Console) deleteEmployee(ctx context.Context) {
	id, ok := c.prompt("Employee ID to delete: ")
	if !ok {
		return
	}

	existing, err := c.svc.GetEmployee(ctx, employee.GetEmployeeInput{ID: id})
	if err != nil {
		c.renderError(err)
		return
	}
	c.renderEmployee(existing)

	if !c.confirm("Delete this employee?") {
		return
	}

	if err := c.svc.DeleteEmployee(ctx, employee.DeleteEmployeeInput{ID: existing.ID}); err != nil {
		c.renderError(err)
		return
	}
	c.printf("Employee %s deleted.\n", existing.ID)
}

func (c *Console) listEmployees(ctx context.Context) {
	token := ""
	total := 0
	for {
		result, err := c.svc.ListEmployees(ctx, employee.ListEmployeesInput{PageToken: token})
		if err != nil {
			c.renderError(err)
			return
		}

		for _, e := range result.Employees {
			c.renderEmployee(e)
		}
		total += len(result.Employees)

		if result.NextPageToken == "" {
			break
		}
		token = result.NextPageToken
	}
	c.printf("%d employee(s).\n", total)
}

func (c *Console) searchEmployees(ctx context.Context) {
	fieldRaw, ok := c.prompt("Search field (id/name/department/phone/kind): ")
	if !ok {
		return
	}
	value, ok := c.prompt("Search value: ")
	if !ok {
		return
	}

	found, err := c.reports.Search(ctx, report.Field(strings.TrimSpace(fieldRaw)), value)
	if err != nil {
		c.renderError(err)
		return
	}

	for _, e := range found {
		c.renderEmployee(e)
	}
	c.printf("%d match(es).\n", len(found))
}

func (c *Console) departmentSummary(ctx context.Context) {
	summaries, err := c.reports.DepartmentSummary(ctx)
	if err != nil {
		c.renderError(err)
		return
	}

	departments := make([]string, 0, len(summaries))
	for dept := range summaries {
		departments = append(departments, dept)
	}
	sort.Strings(departments)

	for _, dept := range departments {
		s := summaries[dept]
		c.printf("%s  count=%d  salary=$%.2f  compensation=$%.2f\n", dept, s.Count, s.TotalBaseSalary, s.TotalCompensation)
	}
	c.printf("%d department(s).\n", len(departments))
}

func (c *Console) backup(ctx context.Context) {
	result, err := c.svc.Backup(ctx, employee.BackupInput{})
	if err != nil {
		c.renderError(err)
		return
	}
	c.printf("Backup %s created (%d record(s)).\n", result.Name, result.RecordCount)
}

func (c *Console) viewAuditLog(ctx context.Context) {
	entries, err := c.svc.AuditEntries(ctx)
	if err != nil {
		c.renderError(err)
		return
	}

	for _, entry := range entries {
		c.printf("%s  %-6s  %-10s  %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Kind,
			entry.EmployeeID,
			entry.Description,
		)
	}
	c.printf("%d entries.\n", len(entries))
}
