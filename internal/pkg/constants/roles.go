package constants

// Role is a ledger authorization role. A role is held by exactly one account
// per record (or per ledger for Admin).
type Role string

const (
	Admin  Role = "admin"
	Owner  Role = "owner"
	Buyer  Role = "buyer"
	Seller Role = "seller"
)
