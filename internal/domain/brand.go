package domain

import "context"

type Brand struct {
	Name   string   `json:"brand"`
	Models []string `json:"models"`
}

type BrandRepository interface {
	List(ctx context.Context) ([]Brand, error)
	Exists(ctx context.Context, brand, model string) (bool, error)
	// AddModels creates the brand if needed and unions models into it.
	AddModels(ctx context.Context, brand string, models []string) (*Brand, error)
}
