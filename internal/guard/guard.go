// Package guard decides route access from session state and enforces the
// idle timeout in the background.
//
// Access decisions are pure functions of the route and the session so they
// can run on every navigation without touching storage or the network.
package guard

import (
	"github.com/Ajaypalvai07/ai-help-center/internal/session"
)

// Access classifies who may enter a route.
type Access int

const (
	// AccessPublic routes are reachable by anyone.
	AccessPublic Access = iota
	// AccessAnonymous routes (login, register) are for signed-out users;
	// an authenticated visitor is sent home instead.
	AccessAnonymous
	// AccessUser routes require a signed-in user.
	AccessUser
	// AccessAdmin routes require a signed-in admin.
	AccessAdmin
)

// Route is a navigable destination and its access class.
type Route struct {
	Path   string
	Access Access
}

// Well-known routes.
var (
	RouteHome      = Route{Path: "/", Access: AccessPublic}
	RouteLogin     = Route{Path: "/login", Access: AccessAnonymous}
	RouteRegister  = Route{Path: "/register", Access: AccessAnonymous}
	RouteChat      = Route{Path: "/chat", Access: AccessUser}
	RouteProfile   = Route{Path: "/profile", Access: AccessUser}
	RouteFeedback  = Route{Path: "/feedback", Access: AccessUser}
	RouteDashboard = Route{Path: "/admin", Access: AccessAdmin}
)

// Decision is the outcome of an access check. When Allowed is false,
// RedirectTo names the route the caller should navigate to instead.
type Decision struct {
	Allowed    bool
	RedirectTo Route
}

func allow() Decision            { return Decision{Allowed: true} }
func redirect(to Route) Decision { return Decision{RedirectTo: to} }

// CanEnter reports whether the session may enter the route.
//
// Unauthenticated visitors are redirected to login for any protected
// route. Authenticated visitors are redirected home from the anonymous
// routes. Admin routes additionally require the admin role; a signed-in
// non-admin is sent home rather than to login.
func CanEnter(route Route, s session.Session) Decision {
	switch route.Access {
	case AccessPublic:
		return allow()
	case AccessAnonymous:
		if s.Authenticated() {
			return redirect(RouteHome)
		}
		return allow()
	case AccessUser:
		if !s.Authenticated() {
			return redirect(RouteLogin)
		}
		return allow()
	case AccessAdmin:
		if !s.Authenticated() {
			return redirect(RouteLogin)
		}
		if !s.User.IsAdmin() {
			return redirect(RouteHome)
		}
		return allow()
	default:
		return redirect(RouteLogin)
	}
}
