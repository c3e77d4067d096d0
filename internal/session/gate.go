package session

import (
	"net/url"
	"strings"

	"github.com/example/recab-client/internal/models"
)

// Paths reachable without an identity.
var publicPaths = []string{
	"/splash",
	"/login",
	"/admin/login",
	"/register",
	"/register/name",
	"/register/contact",
	"/register/details",
	"/register/documents",
	"/user/register/name",
	"/user/register/contact",
	"/user/register/details",
	"/user/register/documents",
	"/user/otp",
	"/vehicle",
	"/welcome",
	"/demo",
}

func isPublic(path string) bool {
	if path == "" {
		return false
	}
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Decision is the router's verdict for one navigation.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

// Gate decides whether user may stay on path. Anonymous visitors only reach
// the public allow-list; admins reach everything; drivers are confined to
// driver paths and bounced to their own home otherwise; riders are excluded
// from driver paths.
func Gate(path string, user *models.UserProfile) Decision {
	if user == nil {
		if isPublic(path) {
			return allow()
		}
		if strings.HasPrefix(path, "/admin") {
			return redirect("/admin/login")
		}
		return redirect("/splash")
	}

	if path == "/splash" || path == "/login" || path == "/welcome" {
		return redirect("/")
	}

	if user.Role == models.RoleAdmin {
		return allow()
	}

	if strings.HasPrefix(path, "/admin") {
		return redirect("/admin/login")
	}

	driverRoute := strings.HasPrefix(path, "/driver") ||
		strings.HasPrefix(path, "/register") ||
		strings.HasPrefix(path, "/documents")
	riderRoute := path == "/" ||
		strings.HasPrefix(path, "/user") ||
		strings.HasPrefix(path, "/search") ||
		strings.HasPrefix(path, "/wallet") ||
		strings.HasPrefix(path, "/trips") ||
		strings.HasPrefix(path, "/profile") ||
		strings.HasPrefix(path, "/safety") ||
		strings.HasPrefix(path, "/trip")

	if user.Role == models.RoleDriver {
		if riderRoute || !driverRoute {
			id := user.ID
			if id == "" {
				id = "me"
			}
			return redirect("/driver/" + url.PathEscape(id))
		}
		return allow()
	}

	if user.Role == models.RoleRider && driverRoute {
		return redirect("/")
	}
	return allow()
}
