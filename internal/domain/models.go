package domain

import "time"

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// UserAccount is a row in the users collection. Accounts are created by the
// mobile app at signup; this service only reads and mutates them. An empty
// AccountStatus means active.
type UserAccount struct {
	UID                 string
	Email               string
	Role                string
	AccountStatus       AccountStatus
	IsBlocked           bool
	SuspensionReason    string
	AccessDeniedMessage string
	SuspendedAt         *time.Time
	IsDonor             bool
	District            string
	FCMToken            string
	DeviceToken         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Suspended reports whether the account should be denied login. The gate
// checks both fields independently even though they are kept in sync.
func (u UserAccount) Suspended() bool {
	return u.AccountStatus == AccountStatusSuspended || u.IsBlocked
}

type BlockStatus string

const (
	// BlockStatusSuspended rows are removed exactly when the owning account
	// is reactivated.
	BlockStatusSuspended BlockStatus = "suspended"
	// BlockStatusDeleted rows are permanent: they block re-signup with the
	// email after the account itself is gone.
	BlockStatusDeleted BlockStatus = "deleted"
)

// BlockedEmail is keyed by lowercased email rather than uid, since its job is
// to block re-signup before a uid exists.
type BlockedEmail struct {
	Email     string
	UID       string
	Reason    string
	BlockedBy string
	Status    BlockStatus
	BlockedAt time.Time
	SyncedAt  *time.Time
	DeletedAt *time.Time
}

type RecipientType string

const (
	RecipientAllUsers         RecipientType = "all_users"
	RecipientDonorsOnly       RecipientType = "donors_only"
	RecipientSpecificDistrict RecipientType = "specific_district"
)

// Notification is a push-notification request. Delivery fields are written
// exactly once by the fanout after the full audience has been processed.
type Notification struct {
	ID             string
	Title          string
	Message        string
	Type           string
	RecipientType  RecipientType
	TargetDistrict string
	UserID         string
	CreatedAt      time.Time

	DeliveredCount    int
	FailedCount       int
	SentAt            *time.Time
	InvalidTokenUsers []string
}

// DeletedCounts reports per-category rows removed by the account cascade
// delete. JSON keys match the client contract.
type DeletedCounts struct {
	DonorsByDocID             int `json:"donorsByDocId"`
	DonorsByUserID            int `json:"donorsByUserId"`
	CallRequestsByUserID      int `json:"callRequestsByUserId"`
	CallRequestsByRequesterID int `json:"callRequestsByRequesterId"`
	CallRequestsByDonorID     int `json:"callRequestsByDonorId"`
	Notifications             int `json:"notifications"`
}

type AccessStatus struct {
	Allowed    bool   `json:"allowed"`
	ReasonCode string `json:"reasonCode"`
	Message    string `json:"message"`
}
