package db

import (
	"context"

	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

// Lister reads the full collection for one entity type.
type Lister[R any] interface {
	List(ctx context.Context) ([]R, error)
}

// Collection is the REST CRUD contract of one entity type. rest.Client and
// memory.Collection implement it.
type Collection[R any] interface {
	Lister[R]
	Create(ctx context.Context, payload R) (R, error)
	Update(ctx context.Context, id v1.ID, payload R) (R, error)
	Delete(ctx context.Context, id v1.ID) error
}
