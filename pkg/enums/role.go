package enums

// UserRole mirrors the role column on profiles.
type UserRole string

const (
	RoleStudent            UserRole = "student"
	RoleFaculty            UserRole = "faculty"
	RoleInstitutionalAdmin UserRole = "institutional_admin"
	RoleSuperAdmin         UserRole = "super_admin"
)

var validUserRoles = []UserRole{
	RoleStudent,
	RoleFaculty,
	RoleInstitutionalAdmin,
	RoleSuperAdmin,
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}
