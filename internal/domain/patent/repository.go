package patent

import (
	"context"
	"time"

	"github.com/Qubut/IP-Claim/pkg/types/common"
)

// Filter defines listing criteria for stored applications.
type Filter struct {
	Decision     string
	MainCPCLabel string
	FiledFrom    time.Time
	FiledTo      time.Time
	TitleQuery   string
	Page         common.Page
}

// Repository is the persistence contract for patent applications.
type Repository interface {
	// Insert stores a new application.  Inserting an application whose
	// application number already exists returns ErrCodePatentAlreadyExists.
	Insert(ctx context.Context, app *Application) error

	// FindByApplicationNumber loads one application or returns
	// ErrCodePatentNotFound.
	FindByApplicationNumber(ctx context.Context, applicationNumber string) (*Application, error)

	// FindByPublicationNumber loads one application by its publication number
	// or returns ErrCodePatentNotFound.
	FindByPublicationNumber(ctx context.Context, publicationNumber string) (*Application, error)

	// ExistsByPublicationNumber reports whether an application with the given
	// publication number is already stored.  Used by the importer to skip
	// duplicates.
	ExistsByPublicationNumber(ctx context.Context, publicationNumber string) (bool, error)

	// List returns applications matching the filter, newest filing first.
	List(ctx context.Context, filter Filter) ([]*Application, error)

	// Count returns the number of applications matching the filter.
	Count(ctx context.Context, filter Filter) (int64, error)
}
