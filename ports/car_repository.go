package ports

import (
	"context"

	"carprice/domain/car"
)

// SheetSource yields the raw car table from a file or a database
type SheetSource interface {
	ReadSheet(ctx context.Context) (*car.Sheet, error)
}

// CarRepository stores the raw car table in a database
type CarRepository interface {
	SheetSource

	// Import replaces the stored table with the sheet's rows and returns the
	// number of rows written. progress, when set, is called after each row.
	Import(ctx context.Context, sheet *car.Sheet, progress func()) (int, error)
	Count(ctx context.Context) (int, error)
}
