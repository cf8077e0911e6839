package domain

// Route names a logical destination in the web application.
type Route string

const (
	RouteLogin        Route = "LOGIN"
	RouteDashboard    Route = "DASHBOARD"
	RouteAdmin        Route = "ADMIN"
	RouteHome         Route = "HOME"
	RouteSubscription Route = "SUBSCRIPTION"
)

// routePaths is the single table of page paths. Guards, login and the role
// router all resolve destinations through it.
var routePaths = map[Route]string{
	RouteLogin:        "/login",
	RouteDashboard:    "/dashboard",
	RouteAdmin:        "/admin",
	RouteHome:         "/",
	RouteSubscription: "/subscription",
}

// Path returns the URL path for r. Unknown routes resolve to the dashboard.
func (r Route) Path() string {
	if p, ok := routePaths[r]; ok {
		return p
	}
	return routePaths[RouteDashboard]
}

// landingRoutes maps a role to where it lands after login.
var landingRoutes = map[string]Route{
	RoleAdmin:    RouteAdmin,
	RoleMerchant: RouteDashboard,
	RoleStaff:    RouteDashboard,
	RoleCustomer: RouteHome,
}

// DefaultRouteFor returns the landing path for role. Every input maps to a
// path; unknown and empty roles land on the dashboard.
func DefaultRouteFor(role string) string {
	if r, ok := landingRoutes[NormalizeRole(role)]; ok {
		return r.Path()
	}
	return RouteDashboard.Path()
}
