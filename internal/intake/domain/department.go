package domain

import "strings"

// Department is the municipal department a complaint is routed to.
type Department string

const (
	DepartmentPublicWorks Department = "Public Works"
	DepartmentWater       Department = "Water"
	DepartmentElectricity Department = "Electricity"
	DepartmentSanitation  Department = "Sanitation"
	DepartmentHealth      Department = "Health"
	DepartmentTransport   Department = "Transport"
	DepartmentGeneral     Department = "General"
)

// Departments lists every routable department.
var Departments = []Department{
	DepartmentPublicWorks,
	DepartmentWater,
	DepartmentElectricity,
	DepartmentSanitation,
	DepartmentHealth,
	DepartmentTransport,
	DepartmentGeneral,
}

var departmentAliases = map[string]Department{
	"public works":            DepartmentPublicWorks,
	"public works department": DepartmentPublicWorks,
	"pwd":                     DepartmentPublicWorks,
	"roads":                   DepartmentPublicWorks,
	"water":                   DepartmentWater,
	"water supply":            DepartmentWater,
	"water department":        DepartmentWater,
	"electricity":             DepartmentElectricity,
	"electricity board":       DepartmentElectricity,
	"electrical":              DepartmentElectricity,
	"sanitation":              DepartmentSanitation,
	"sanitation department":   DepartmentSanitation,
	"health":                  DepartmentHealth,
	"health department":       DepartmentHealth,
	"transport":               DepartmentTransport,
	"transport department":    DepartmentTransport,
	"general":                 DepartmentGeneral,
	"general administration":  DepartmentGeneral,
}

// ParseDepartment maps free text to a Department. It is case-insensitive and
// tolerates surrounding punctuation. ok is false for unknown names.
func ParseDepartment(s string) (Department, bool) {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(s), ".*\"'`"))
	key = strings.Join(strings.Fields(key), " ")
	d, ok := departmentAliases[key]
	return d, ok
}

func (d Department) String() string { return string(d) }
