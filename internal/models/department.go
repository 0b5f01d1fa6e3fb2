package models

import (
	"encoding/json"
	"fmt"
)

// Department представляє закритий набір підрозділів CAD
type Department uint8

const (
	DepartmentPBP Department = iota + 1
	DepartmentPBF
	DepartmentPSP
	DepartmentDOT
	DepartmentACSO
	// DepartmentNON означає "користувач відомий, але без підрозділу". Ніколи не є ключем у KV.
	DepartmentNON
)

// Departments задає фіксований порядок звичайних ключів підрозділів
var Departments = []Department{
	DepartmentPBP,
	DepartmentPBF,
	DepartmentPSP,
	DepartmentDOT,
	DepartmentACSO,
}

var departmentCodes = map[Department]string{
	DepartmentPBP:  "PBP",
	DepartmentPBF:  "PBF",
	DepartmentPSP:  "PSP",
	DepartmentDOT:  "DOT",
	DepartmentACSO: "ACSO",
	DepartmentNON:  "NON",
}

// ParseDepartment перетворює код підрозділу у Department
func ParseDepartment(code string) (Department, error) {
	for d, c := range departmentCodes {
		if c == code {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown department code %q", code)
}

// String повертає код підрозділу
func (d Department) String() string {
	if c, ok := departmentCodes[d]; ok {
		return c
	}
	return fmt.Sprintf("Department(%d)", uint8(d))
}

// Key повертає ключ у сховищі членства
func (d Department) Key() string {
	return d.String()
}

// IsOrdinary повідомляє чи підрозділ має власний запис у сховищі
func (d Department) IsOrdinary() bool {
	return d >= DepartmentPBP && d <= DepartmentACSO
}

func (d Department) MarshalText() ([]byte, error) {
	c, ok := departmentCodes[d]
	if !ok {
		return nil, fmt.Errorf("invalid department %d", uint8(d))
	}
	return []byte(c), nil
}

func (d *Department) UnmarshalText(text []byte) error {
	parsed, err := ParseDepartment(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DepartmentList is the claim form of a department set: never empty, NON only alone.
type DepartmentList []Department

// NoDepartment is the list issued to users without any membership.
func NoDepartment() DepartmentList {
	return DepartmentList{DepartmentNON}
}

// AllDepartments повертає копію повного набору підрозділів
func AllDepartments() DepartmentList {
	out := make(DepartmentList, len(Departments))
	copy(out, Departments)
	return out
}

// Validate перевіряє інваріанти списку підрозділів
func (l DepartmentList) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("department list is empty")
	}
	seen := make(map[Department]bool, len(l))
	for _, d := range l {
		if _, ok := departmentCodes[d]; !ok {
			return fmt.Errorf("invalid department %d", uint8(d))
		}
		if d == DepartmentNON && len(l) != 1 {
			return fmt.Errorf("NON cannot be combined with other departments")
		}
		if seen[d] {
			return fmt.Errorf("duplicate department %s", d)
		}
		seen[d] = true
	}
	return nil
}

// Contains перевіряє чи список містить підрозділ
func (l DepartmentList) Contains(d Department) bool {
	for _, x := range l {
		if x == d {
			return true
		}
	}
	return false
}

// Codes повертає коди підрозділів у тому ж порядку
func (l DepartmentList) Codes() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.String()
	}
	return out
}

// UnmarshalJSON rejects a null or missing list so a token can never carry "no departments".
func (l *DepartmentList) UnmarshalJSON(data []byte) error {
	var raw []Department
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("departments must be an array")
	}
	*l = raw
	return nil
}
