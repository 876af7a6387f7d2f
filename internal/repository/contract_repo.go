package repository

import (
	"context"
	"fmt"

	"clientzap/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContractRepository defines methods for accessing stored contracts.
type ContractRepository interface {
	CreateContract(ctx context.Context, c *model.Contract) error
	ListContractsByUser(ctx context.Context, userID string) ([]model.Contract, error)
}

type contractRepo struct {
	pool *pgxpool.Pool
}

// NewContractRepo creates a new ContractRepository.
func NewContractRepo(pool *pgxpool.Pool) ContractRepository {
	return &contractRepo{pool: pool}
}

func (r *contractRepo) CreateContract(ctx context.Context, c *model.Contract) error {
	const q = `
        INSERT INTO contracts (contract_id, user_id, title, client_name, storage_path, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `
	if _, err := r.pool.Exec(ctx, q, c.ContractID, c.UserID, c.Title, c.ClientName, c.StoragePath); err != nil {
		return fmt.Errorf("create contract for user %s: %w", c.UserID, err)
	}
	return nil
}

func (r *contractRepo) ListContractsByUser(ctx context.Context, userID string) ([]model.Contract, error) {
	const q = `
        SELECT contract_id, user_id, title, client_name, storage_path, created_at
        FROM contracts
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list contracts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var contracts []model.Contract
	for rows.Next() {
		var c model.Contract
		if err := rows.Scan(&c.ContractID, &c.UserID, &c.Title, &c.ClientName, &c.StoragePath, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contract row: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
