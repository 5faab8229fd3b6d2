package presets

import "admin-portal/internal/rbac"

const (
	RoleSuperAdmin       = "super_admin"
	RoleBranchManager    = "branch_manager"
	RoleEventCoordinator = "event_coordinator"
	RoleViewer           = "viewer"
)

// SuperAdmin manages every resource
func SuperAdmin() rbac.PermissionSet {
	grants := make(map[rbac.Resource][]rbac.Action)
	for _, res := range rbac.Resources() {
		grants[res] = []rbac.Action{rbac.ActionManage}
	}
	return rbac.NewPermissionSet(grants)
}

// BranchManager owns branches and members and reads the rest of the catalogue
func BranchManager() rbac.PermissionSet {
	return rbac.NewPermissionSet(map[rbac.Resource][]rbac.Action{
		rbac.ResourceBranches:   {rbac.ActionManage},
		rbac.ResourceMembers:    {rbac.ActionManage},
		rbac.ResourceLocations:  {rbac.ActionList, rbac.ActionRead},
		rbac.ResourceAreas:      {rbac.ActionList, rbac.ActionRead},
		rbac.ResourceEvents:     {rbac.ActionList, rbac.ActionRead},
		rbac.ResourceMasterData: {rbac.ActionList, rbac.ActionRead},
	})
}

// EventCoordinator runs events and donations
func EventCoordinator() rbac.PermissionSet {
	return rbac.NewPermissionSet(map[rbac.Resource][]rbac.Action{
		rbac.ResourceEvents:    {rbac.ActionList, rbac.ActionCreate, rbac.ActionRead, rbac.ActionUpdate},
		rbac.ResourceDonations: {rbac.ActionList, rbac.ActionCreate, rbac.ActionRead},
		rbac.ResourceLocations: {rbac.ActionList, rbac.ActionRead},
		rbac.ResourceBranches:  {rbac.ActionList, rbac.ActionRead},
	})
}

// Viewer may list and read everything except users and roles
func Viewer() rbac.PermissionSet {
	grants := make(map[rbac.Resource][]rbac.Action)
	for _, res := range rbac.Resources() {
		if res == rbac.ResourceUsers || res == rbac.ResourceRoles {
			continue
		}
		grants[res] = []rbac.Action{rbac.ActionList, rbac.ActionRead}
	}
	return rbac.NewPermissionSet(grants)
}

// ByRole returns the preset for a role name
func ByRole(role string) (rbac.PermissionSet, bool) {
	switch role {
	case RoleSuperAdmin:
		return SuperAdmin(), true
	case RoleBranchManager:
		return BranchManager(), true
	case RoleEventCoordinator:
		return EventCoordinator(), true
	case RoleViewer:
		return Viewer(), true
	default:
		return rbac.EmptyPermissionSet(), false
	}
}
