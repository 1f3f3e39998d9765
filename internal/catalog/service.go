package catalog

import (
	"context"
	"fmt"

	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
)

// Service exposes the club directory to the API layer.
type Service interface {
	ListClubs(ctx context.Context) ([]ClubDTO, error)
}

// ClubDTO is the public shape of a club.
type ClubDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListClubs(ctx context.Context) ([]ClubDTO, error) {
	clubs, err := s.repo.ListClubs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clubs")
	}

	out := make([]ClubDTO, 0, len(clubs))
	for _, club := range clubs {
		out = append(out, ClubDTO{Code: club.Code, Name: club.Name})
	}
	return out, nil
}
