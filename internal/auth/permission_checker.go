package auth

// Capability names one gated operation.
type Capability string

const (
	CapViewDashboard   Capability = "dashboard.view"
	CapListDepartments Capability = "departments.list"
	CapViewSelf        Capability = "users.me"
	CapChangePassword  Capability = "users.change_password"

	CapCreateRecord Capability = "records.create"
	CapEditRecord   Capability = "records.edit"
	CapDeleteRecord Capability = "records.delete"
	CapExportRecord Capability = "records.export"

	CapListCorrections  Capability = "corrections.list"
	CapCreateCorrection Capability = "corrections.create"
	CapEditCorrection   Capability = "corrections.edit"
	CapDeleteCorrection Capability = "corrections.delete"
	CapExportCorrection Capability = "corrections.export"

	CapManageUsers       Capability = "users.manage"
	CapManageDepartments Capability = "departments.manage"

	CapViewAudit      Capability = "audit.view"
	CapViewStatistics Capability = "statistics.view"
)

type PermissionChecker interface {
	Can(role Role, capability Capability) bool
}

// Policy maps each capability to the roles allowed to use it. Admin is
// allowed everywhere and is never listed.
type Policy map[Capability][]Role

var everyRole = []Role{RoleOperator, RoleEditor, RoleViewer}

func DefaultPolicy() Policy {
	return Policy{
		CapViewDashboard:   everyRole,
		CapListDepartments: everyRole,
		CapViewSelf:        everyRole,
		CapChangePassword:  everyRole,

		CapCreateRecord: {RoleOperator, RoleEditor},
		CapEditRecord:   {RoleEditor},
		CapDeleteRecord: nil,
		CapExportRecord: {RoleEditor, RoleViewer},

		CapListCorrections:  {RoleEditor, RoleViewer},
		CapCreateCorrection: {RoleEditor},
		CapEditCorrection:   {RoleEditor},
		CapDeleteCorrection: nil,
		CapExportCorrection: {RoleEditor, RoleViewer},

		CapManageUsers:       nil,
		CapManageDepartments: nil,

		CapViewAudit:      {RoleViewer},
		CapViewStatistics: {RoleViewer},
	}
}

func NewPermissionChecker() PermissionChecker {
	return DefaultPolicy()
}

// Can reports whether role may use capability. Unknown roles and unknown
// capabilities are denied; admin is allowed for every known capability.
func (p Policy) Can(role Role, capability Capability) bool {
	allowed, known := p[capability]
	if !known || !role.Valid() {
		return false
	}
	if role.IsAdmin() {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
