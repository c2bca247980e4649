package constants

import roles "estate-backend/internal/pkg/constants"

// PermissionRoles maps each gated operation to the role allowed to perform it.
var PermissionRoles = map[string]roles.Role{
	UpdateProperty:         roles.Owner,
	UploadPropertyDocument: roles.Owner,
	AddListing:             roles.Admin,
	ListProperty:           roles.Seller,
	UnlistProperty:         roles.Seller,
	SetBuyer:               roles.Owner,
	SetSeller:              roles.Owner,
	Deposit:                roles.Buyer,
	Withdraw:               roles.Seller,
	CreateBasket:           roles.Owner,
	IssueShares:            roles.Owner,
}

// RequiredRole returns the role configured for the permission.
func RequiredRole(permission string) (roles.Role, bool) {
	r, ok := PermissionRoles[permission]
	return r, ok
}
