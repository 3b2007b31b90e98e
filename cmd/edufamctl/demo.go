package main

import "github.com/edufam/edufam-backend/internal/domain"

const (
	demoSchoolName    = "Demo school"
	demoSchoolAddress = "123 Demo Road"
	demoPassword      = "elimisha123"
)

type demoUser struct {
	Email     string
	FirstName string
	Role      domain.Role
}

// demoUsers holds one account per role; school roles join the demo school.
var demoUsers = []demoUser{
	{Email: "collins@gmail.com", FirstName: "Collins", Role: domain.RoleSchoolDirector},
	{Email: "masuud@gmail.com", FirstName: "Masuud", Role: domain.RolePrincipal},
	{Email: "leeroy@gmail.com", FirstName: "Leeroy", Role: domain.RoleTeacher},
	{Email: "khalid@gmail.com", FirstName: "Khalid", Role: domain.RoleParent},
	{Email: "sharon@gmail.com", FirstName: "Sharon", Role: domain.RoleHR},
	{Email: "kelvin@gmail.com", FirstName: "Kelvin", Role: domain.RoleFinance},
	{Email: "adan@gmail.com", FirstName: "Adan", Role: domain.RoleSuperAdmin},
	{Email: "aisha@gmail.com", FirstName: "Aisha", Role: domain.RoleSalesMarketing},
	{Email: "nasra@gmail.com", FirstName: "Nasra", Role: domain.RoleSupportHR},
	{Email: "joseph@gmail.com", FirstName: "Joseph", Role: domain.RoleEngineer},
	{Email: "john@gmail.com", FirstName: "John", Role: domain.RoleAdminFinance},
}
