package model

import "time"

// Contract is a generated contract document stored in object storage.
// Saving contracts is a pro-tier feature.
type Contract struct {
	ContractID  string    `db:"contract_id" json:"contract_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	ClientName  string    `db:"client_name" json:"client_name"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
