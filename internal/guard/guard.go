// Package guard decides whether a client may render a page.
package guard

import "krishak/internal/models"

// Landing pages a user is sent to.
const (
	LoginPath           = "/login"
	SellerDashboardPath = "/seller-dashboard"
	MarketplacePath     = "/marketplace"
)

// Action is what the client should do with a requested page.
type Action int

const (
	Render Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Render {
		return "render"
	}
	return "redirect"
}

// Decision is the outcome of Decide. ReturnTo is set when the user must
// sign in first so the client can come back afterwards.
type Decision struct {
	Action   Action
	Location string
	ReturnTo string
}

// Decide gates requested for user. An empty required role admits any signed
// in user. A user of the wrong type is sent to their own home page.
func Decide(user *models.PublicUser, required models.UserType, requested string) Decision {
	if user == nil {
		return Decision{Action: Redirect, Location: LoginPath, ReturnTo: requested}
	}
	if required == "" || user.UserType == required {
		return Decision{Action: Render}
	}
	return Decision{Action: Redirect, Location: Home(user.UserType)}
}

// Home is the landing page of a user type.
func Home(t models.UserType) string {
	if t == models.Seller {
		return SellerDashboardPath
	}
	return MarketplacePath
}
