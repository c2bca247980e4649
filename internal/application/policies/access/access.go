package policies

import (
	"fmt"

	"estate-backend/internal/constants"
	"estate-backend/internal/domain"
	roles "estate-backend/internal/pkg/constants"
)

// deniedMessages keeps the caller-facing text per operation.
var deniedMessages = map[string]string{
	constants.UpdateProperty:         "Not authorized to update property",
	constants.UploadPropertyDocument: "Not authorized to upload documents for this property",
	constants.AddListing:             "Ownable: caller is not the owner",
	constants.ListProperty:           "Only the owner can list the property",
	constants.UnlistProperty:         "Only the owner can unlist the property",
	constants.SetBuyer:               "Only the vault owner can set the buyer",
	constants.SetSeller:              "Only the vault owner can set the seller",
	constants.Deposit:                "Only buyer can deposit",
	constants.Withdraw:               "Only seller can withdraw",
	constants.CreateBasket:           "Ownable: caller is not the owner",
	constants.IssueShares:            "Ownable: caller is not the owner",
}

// Authorize checks that caller holds the role the permission requires.
// holder is the account currently holding that role on the record; an empty
// holder means the role is unassigned and nobody passes.
func Authorize(permission string, caller, holder domain.Account) error {
	role, ok := constants.RequiredRole(permission)
	if !ok {
		return fmt.Errorf("policies: permission %q has no role configured", permission)
	}
	if !caller.IsZero() && caller == holder {
		return nil
	}
	msg, ok := deniedMessages[permission]
	if !ok {
		msg = fmt.Sprintf("caller does not hold the %s role", role)
	}
	if role == roles.Buyer {
		return domain.Errorf(domain.KindNotBuyer, "%s", msg)
	}
	return domain.Errorf(domain.KindUnauthorized, "%s", msg)
}

// AuthorizeOptional is Authorize for a nullable role holder.
func AuthorizeOptional(permission string, caller domain.Account, holder *domain.Account) error {
	if holder == nil {
		return Authorize(permission, caller, "")
	}
	return Authorize(permission, caller, *holder)
}
