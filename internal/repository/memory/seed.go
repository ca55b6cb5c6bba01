package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML fixture format for a memory store. Amounts and dates
// are strings so they keep their exact decimal and calendar meaning.
type Seed struct {
	Employees []struct {
		ID           string  `yaml:"id"`
		FullName     string  `yaml:"full_name"`
		EmployeeCode string  `yaml:"employee_code"`
		Role         string  `yaml:"role"`
		DepartmentID *string `yaml:"department_id"`
		ManagerID    *string `yaml:"manager_id"`
		Active       *bool   `yaml:"active"`
	} `yaml:"employees"`
	Profiles []struct {
		EmployeeID  string `yaml:"employee_id"`
		PayMode     string `yaml:"pay_mode"`
		HourlyRate  string `yaml:"hourly_rate"`
		MinuteRate  string `yaml:"minute_rate"`
		FixedSalary string `yaml:"fixed_salary"`
	} `yaml:"profiles"`
	Rates []struct {
		EmployeeID    string `yaml:"employee_id"`
		Rate          string `yaml:"rate"`
		EffectiveFrom string `yaml:"effective_from"`
	} `yaml:"rates"`
	Attendance []struct {
		EmployeeID  string `yaml:"employee_id"`
		Date        string `yaml:"date"`
		WorkedHours string `yaml:"worked_hours"`
		Status      string `yaml:"status"`
	} `yaml:"attendance"`
}

// LoadSeedFile reads a YAML seed from path into store.
func LoadSeedFile(ctx context.Context, store *Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	return LoadSeed(ctx, store, data)
}

func LoadSeed(ctx context.Context, store *Store, data []byte) error {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	for _, e := range seed.Employees {
		role, err := user.ParseRole(e.Role)
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		store.PutEmployee(employee.Employee{
			ID:           e.ID,
			FullName:     e.FullName,
			EmployeeCode: e.EmployeeCode,
			Role:         role,
			DepartmentID: e.DepartmentID,
			ManagerID:    e.ManagerID,
			IsActive:     active,
		})
	}

	compensation := NewCompensationRepository(store)
	for _, p := range seed.Profiles {
		mode, err := payroll.ParsePayMode(p.PayMode)
		if err != nil {
			return fmt.Errorf("seed profile %s: %w", p.EmployeeID, err)
		}
		profile := payroll.DefaultProfile(p.EmployeeID)
		profile.PayMode = mode
		if profile.HourlyRate, err = optionalDecimal(p.HourlyRate); err != nil {
			return fmt.Errorf("seed profile %s hourly_rate: %w", p.EmployeeID, err)
		}
		if profile.MinuteRate, err = optionalDecimal(p.MinuteRate); err != nil {
			return fmt.Errorf("seed profile %s minute_rate: %w", p.EmployeeID, err)
		}
		if profile.FixedSalary, err = optionalDecimal(p.FixedSalary); err != nil {
			return fmt.Errorf("seed profile %s fixed_salary: %w", p.EmployeeID, err)
		}
		if _, err := compensation.UpsertProfile(ctx, profile); err != nil {
			return err
		}
	}

	rates := NewRateRepository(store)
	for _, r := range seed.Rates {
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return fmt.Errorf("seed rate %s: %w", r.EmployeeID, err)
		}
		from, err := time.Parse("2006-01-02", r.EffectiveFrom)
		if err != nil {
			return fmt.Errorf("seed rate %s effective_from: %w", r.EmployeeID, err)
		}
		if _, err := rates.Append(ctx, payroll.RateEntry{EmployeeID: r.EmployeeID, Rate: rate, EffectiveFrom: from}); err != nil {
			return fmt.Errorf("seed rate %s: %w", r.EmployeeID, err)
		}
	}

	for _, a := range seed.Attendance {
		day, err := time.Parse("2006-01-02", a.Date)
		if err != nil {
			return fmt.Errorf("seed attendance %s date: %w", a.EmployeeID, err)
		}
		hours, err := optionalDecimal(a.WorkedHours)
		if err != nil {
			return fmt.Errorf("seed attendance %s worked_hours: %w", a.EmployeeID, err)
		}
		status, err := attendance.ParsePresenceStatus(a.Status)
		if err != nil {
			return fmt.Errorf("seed attendance %s: %w", a.EmployeeID, err)
		}
		store.AddFacts(attendance.Fact{
			EmployeeID:     a.EmployeeID,
			Date:           day,
			WorkedHours:    hours,
			PresenceStatus: status,
		})
	}

	return nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
