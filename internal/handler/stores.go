package handler

// Handlers depend on narrow store interfaces rather than the concrete
// repositories so tests can substitute in-memory fakes. The repository
// structs satisfy these at startup.

import (
	"context"
	"mime/multipart"

	"github.com/kyungh/bulletin-board/internal/queue"
	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/storage"
)

// MemberStore is the credential store surface used by handlers.
type MemberStore interface {
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
	Verify(ctx context.Context, email, password string) (repository.Member, error)
	GetByID(ctx context.Context, id uint64) (repository.Member, error)
	List(ctx context.Context) ([]repository.Member, error)
	Update(ctx context.Context, id uint64, patch repository.MemberPatch, cost int) (repository.Member, error)
	Delete(ctx context.Context, id uint64, password string) error
	DeleteByID(ctx context.Context, id uint64) error
}

// PostStore is the bulletin-board surface used by handlers.
type PostStore interface {
	List(ctx context.Context) ([]*repository.Post, error)
	GetByID(ctx context.Context, id uint64) (*repository.Post, error)
	GetDetail(ctx context.Context, id uint64) (*repository.Post, error)
	Create(ctx context.Context, p *repository.Post) error
	Update(ctx context.Context, p *repository.Post) error
	Delete(ctx context.Context, id uint64) error
}

// FileStore is the upload collaborator: it returns a reference for a
// stored file, or nil for an absent upload.
type FileStore interface {
	SaveMultipart(fh *multipart.FileHeader) (*storage.StoredFile, error)
	Delete(fileURL string) error
}

// AuditPublisher forwards audit events to the queue. A nil publisher
// disables auditing; publish failures never affect the request.
type AuditPublisher interface {
	Publish(ctx context.Context, e queue.AuditEvent) error
}
