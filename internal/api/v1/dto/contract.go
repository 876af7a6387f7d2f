package dto

import "time"

// ContractCreateDTO is used for incoming contract generation requests.
type ContractCreateDTO struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	ClientName string `json:"client_name" validate:"max=200"`
	Body       string `json:"body" validate:"required,min=1"`
}

// ContractResponseDTO is returned for generated and listed contracts.
type ContractResponseDTO struct {
	ContractID  string    `json:"contract_id"`
	Title       string    `json:"title"`
	ClientName  string    `json:"client_name"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
