package auth

// Actor identifies the caller of a booking flow: either an authenticated
// user or an anonymous visitor. Exactly one of UserID / VisitorID is set.
// Both are opaque strings supplied by the external identity provider.
type Actor struct {
	UserID    string
	VisitorID string
}

// IsAuthenticated reports whether the actor carries a user identity.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != ""
}

// IsZero reports whether no identity at all was supplied.
func (a Actor) IsZero() bool {
	return a.UserID == "" && a.VisitorID == ""
}
