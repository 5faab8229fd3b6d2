package routes

import "admin-portal/internal/rbac"

func perm(res rbac.Resource, act rbac.Action) rbac.Permission {
	return rbac.NewPermission(res, act)
}

func crud(prefix, listPath, addPath string, res rbac.Resource) []Route {
	return []Route{
		{Name: prefix + ".list", Path: listPath, Requirement: rbac.Single(perm(res, rbac.ActionList))},
		{Name: prefix + ".add", Path: addPath, Requirement: rbac.Single(perm(res, rbac.ActionCreate))},
		{Name: prefix + ".view", Path: listPath + "/:id", Requirement: rbac.Single(perm(res, rbac.ActionRead))},
		{Name: prefix + ".edit", Path: listPath + "/:id/edit", Requirement: rbac.Single(perm(res, rbac.ActionUpdate))},
		{Name: prefix + ".delete", Path: listPath + "/:id/delete", Requirement: rbac.Single(perm(res, rbac.ActionDelete))},
	}
}

// Default returns the built-in administrative route table
func Default() []Route {
	routes := []Route{
		{Name: "profile", Path: "/profile"},
		{
			Name: "dashboard",
			Path: "/dashboard",
			Requirement: rbac.AnyOf(
				perm(rbac.ResourceBranches, rbac.ActionList),
				perm(rbac.ResourceMembers, rbac.ActionList),
				perm(rbac.ResourceEvents, rbac.ActionList),
			),
		},
	}

	routes = append(routes, crud("branches", "/branches", "/branch/add", rbac.ResourceBranches)...)
	routes = append(routes, crud("members", "/members", "/member/add", rbac.ResourceMembers)...)
	routes = append(routes, crud("events", "/events", "/event/add", rbac.ResourceEvents)...)
	routes = append(routes, crud("locations", "/locations", "/location/add", rbac.ResourceLocations)...)
	routes = append(routes, crud("areas", "/areas", "/area/add", rbac.ResourceAreas)...)
	routes = append(routes, crud("donations", "/donations", "/donation/add", rbac.ResourceDonations)...)
	routes = append(routes, crud("users", "/users", "/user/add", rbac.ResourceUsers)...)

	routes = append(routes,
		Route{Name: "master-data.list", Path: "/master-data", Requirement: rbac.Single(perm(rbac.ResourceMasterData, rbac.ActionList))},
		Route{Name: "master-data.edit", Path: "/master-data/:kind/edit", Requirement: rbac.Single(perm(rbac.ResourceMasterData, rbac.ActionUpdate))},
		Route{Name: "roles", Path: "/roles", Requirement: rbac.Single(perm(rbac.ResourceRoles, rbac.ActionManage))},
		Route{Name: "reports.list", Path: "/reports", Requirement: rbac.Single(perm(rbac.ResourceReports, rbac.ActionList))},
		Route{
			Name: "reports.branch-activity",
			Path: "/reports/branch-activity",
			Requirement: rbac.AllOf(
				perm(rbac.ResourceReports, rbac.ActionRead),
				perm(rbac.ResourceBranches, rbac.ActionRead),
				perm(rbac.ResourceEvents, rbac.ActionRead),
			),
		},
		Route{
			Name:        "events.attendance",
			Path:        "/events/:id/attendance",
			Requirement: rbac.AllOf(perm(rbac.ResourceEvents, rbac.ActionRead), perm(rbac.ResourceMembers, rbac.ActionList)),
			RedirectTo:  "/events?notice=attendance-restricted",
		},
	)

	return routes
}
