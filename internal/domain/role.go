package domain

// UserType is the coarse client segment a user belongs to
type UserType string

const (
	UserTypeAdmin  UserType = "admin_user"
	UserTypeSchool UserType = "school_user"
)

// IsValid checks if a user type is valid
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeAdmin, UserTypeSchool:
		return true
	}
	return false
}

func (t UserType) String() string {
	return string(t)
}

// Role represents a business role within a school or the platform team
type Role string

const (
	// School roles
	RoleSchoolDirector Role = "school_director"
	RolePrincipal      Role = "principal"
	RoleTeacher        Role = "teacher"
	RoleParent         Role = "parent"
	RoleHR             Role = "hr"
	RoleFinance        Role = "finance"

	// Platform roles
	RoleSuperAdmin     Role = "super_admin"
	RoleSalesMarketing Role = "sales_marketing"
	RoleSupportHR      Role = "support_hr"
	RoleEngineer       Role = "engineer"
	RoleAdminFinance   Role = "admin_finance"
)

// SchoolRoles contains every role a school_user may hold
var SchoolRoles = []Role{RoleSchoolDirector, RolePrincipal, RoleTeacher, RoleParent, RoleHR, RoleFinance}

// AdminRoles contains every role an admin_user may hold
var AdminRoles = []Role{RoleSuperAdmin, RoleSalesMarketing, RoleSupportHR, RoleEngineer, RoleAdminFinance}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	return r.UserType() != ""
}

// UserType returns the segment a role belongs to, or "" for unknown roles
func (r Role) UserType() UserType {
	for _, sr := range SchoolRoles {
		if r == sr {
			return UserTypeSchool
		}
	}
	for _, ar := range AdminRoles {
		if r == ar {
			return UserTypeAdmin
		}
	}
	return ""
}

func (r Role) String() string {
	return string(r)
}
