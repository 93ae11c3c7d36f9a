package model

// Account is a mailbox account held on the remote disposable-email
// service. At most one account is active in a session at a time.
type Account struct {
	// ID is the server-assigned account identifier.
	ID string `json:"id"`

	// Address is the full email address (local part + domain).
	Address string `json:"address"`
}

// Credentials is a username/password pair used to create and
// authenticate an account. The username is the local part of the
// address; the service is authoritative on uniqueness.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Domain is one of the remote-supplied address suffixes selectable
// when creating an account.
type Domain struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
}
