package repository

import (
	"context"

	"sky266_backend/internal/model"
)

// Backend is the remote mirror seam. Implementations authenticate and
// persist against the company backend; any error other than the sentinel
// conditions below makes the repository fall through to the local store
// exactly once, without surfacing the remote failure to the caller.
type Backend interface {
	// SignIn authenticates remotely. Must return util.ErrEmailNotVerified
	// for unverified accounts so the portal can show the distinct message.
	SignIn(ctx context.Context, email, password string) (*model.User, error)

	// SignOut is best effort; failures are ignored by the repository.
	SignOut(ctx context.Context) error

	// UpsertProgress writes the progress row and returns the stored copy.
	UpsertProgress(ctx context.Context, p *model.TrainingProgress) (*model.TrainingProgress, error)

	// InsertCertificate stores the certificate and returns the user's new
	// certificate count.
	InsertCertificate(ctx context.Context, cert *model.Certificate) (int, error)

	// ListProgress returns every non-manager user joined with progress.
	ListProgress(ctx context.Context) ([]model.UserProgress, error)
}
