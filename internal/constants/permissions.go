package constants

const (
	UpdateProperty         = "update_property"
	UploadPropertyDocument = "upload_property_document"
	AddListing             = "add_listing"
	ListProperty           = "list_property"
	UnlistProperty         = "unlist_property"
	SetBuyer               = "set_buyer"
	SetSeller              = "set_seller"
	Deposit                = "deposit"
	Withdraw               = "withdraw"
	CreateBasket           = "create_basket"
	IssueShares            = "issue_shares"
)
