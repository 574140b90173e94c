package handler

// In-memory fakes for the store interfaces. They mirror the semantics the
// repositories promise (normalized emails, sentinel errors, hit-count
// increments) so handler tests exercise real control flow without MySQL.

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/storage"
	"github.com/kyungh/bulletin-board/internal/utils"
)

type fakeMemberStore struct {
	nextID  uint64
	members map[uint64]*repository.Member
	hashes  map[uint64]string // member id -> refresh hash
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{
		members: make(map[uint64]*repository.Member),
		hashes:  make(map[uint64]string),
	}
}

func (s *fakeMemberStore) findByEmail(email string) *repository.Member {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, m := range s.members {
		if m.Email == email {
			return m
		}
	}
	return nil
}

func (s *fakeMemberStore) Create(_ context.Context, name, email, password string, cost int) (uint64, error) {
	if s.findByEmail(email) != nil {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.nextID++
	s.members[s.nextID] = &repository.Member{
		ID:           s.nextID,
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         repository.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	return s.nextID, nil
}

func (s *fakeMemberStore) Verify(_ context.Context, email, password string) (repository.Member, error) {
	m := s.findByEmail(email)
	if m == nil || !utils.VerifyPassword(m.PasswordHash, password) {
		return repository.Member{}, repository.ErrInvalidCredentials
	}
	return *m, nil
}

func (s *fakeMemberStore) GetByID(_ context.Context, id uint64) (repository.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return repository.Member{}, repository.ErrMemberNotFound
	}
	return *m, nil
}

func (s *fakeMemberStore) List(_ context.Context) ([]repository.Member, error) {
	out := make([]repository.Member, 0, len(s.members))
	for id := uint64(1); id <= s.nextID; id++ {
		if m, ok := s.members[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMemberStore) Update(_ context.Context, id uint64, patch repository.MemberPatch, cost int) (repository.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return repository.Member{}, repository.ErrMemberNotFound
	}
	if patch.Email != nil {
		if other := s.findByEmail(*patch.Email); other != nil && other.ID != id {
			return repository.Member{}, repository.ErrEmailExists
		}
	}
	updated := *m
	if err := patch.Apply(&updated, cost); err != nil {
		return repository.Member{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	s.members[id] = &updated
	return updated, nil
}

func (s *fakeMemberStore) Delete(_ context.Context, id uint64, password string) error {
	m, ok := s.members[id]
	if !ok {
		return repository.ErrMemberNotFound
	}
	if !utils.VerifyPassword(m.PasswordHash, password) {
		return repository.ErrInvalidCredentials
	}
	delete(s.members, id)
	return nil
}

func (s *fakeMemberStore) DeleteByID(_ context.Context, id uint64) error {
	if _, ok := s.members[id]; !ok {
		return repository.ErrMemberNotFound
	}
	delete(s.members, id)
	return nil
}

// auth.RefreshStore, so the real TokenStrategy runs over the fake.

func (s *fakeMemberStore) SetRefreshHash(_ context.Context, id uint64, hash string) error {
	s.hashes[id] = hash
	return nil
}

func (s *fakeMemberStore) ClearRefreshHash(_ context.Context, id uint64) error {
	delete(s.hashes, id)
	return nil
}

func (s *fakeMemberStore) GetByRefreshHash(_ context.Context, hash string) (repository.Member, error) {
	for id, h := range s.hashes {
		if h == hash {
			if m, ok := s.members[id]; ok {
				return *m, nil
			}
		}
	}
	return repository.Member{}, repository.ErrMemberNotFound
}

type fakePostStore struct {
	nextID uint64
	posts  map[uint64]*repository.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[uint64]*repository.Post)}
}

func (s *fakePostStore) List(context.Context) ([]*repository.Post, error) {
	var out []*repository.Post
	for id := s.nextID; id >= 1; id-- {
		if p, ok := s.posts[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakePostStore) GetByID(_ context.Context, id uint64) (*repository.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePostStore) GetDetail(ctx context.Context, id uint64) (*repository.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	p.HitCount++
	cp := *p
	return &cp, nil
}

func (s *fakePostStore) Create(_ context.Context, p *repository.Post) error {
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now().UTC()
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *fakePostStore) Update(_ context.Context, p *repository.Post) error {
	stored, ok := s.posts[p.ID]
	if !ok {
		return repository.ErrPostNotFound
	}
	now := time.Now().UTC()
	stored.Title = p.Title
	stored.Content = p.Content
	stored.FileURL = p.FileURL
	stored.FileName = p.FileName
	stored.UpdatedAt = &now
	*p = *stored
	return nil
}

func (s *fakePostStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

type fakeFileStore struct {
	saved   []string
	deleted []string
}

func (s *fakeFileStore) SaveMultipart(fh *multipart.FileHeader) (*storage.StoredFile, error) {
	if fh == nil || fh.Filename == "" {
		return nil, nil
	}
	url := "/static/uploads/20260830000000_" + fh.Filename
	s.saved = append(s.saved, url)
	return &storage.StoredFile{URL: url, Name: fh.Filename}, nil
}

func (s *fakeFileStore) Delete(fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}
