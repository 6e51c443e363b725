package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/avkuzmin/gymcore/internal/apperrors"
	"github.com/avkuzmin/gymcore/internal/models"
	"github.com/avkuzmin/gymcore/internal/repository"
)

// In-memory identity repo for service tests
type memIdentityRepo struct {
	mu         sync.Mutex
	role       models.Role
	identities map[uuid.UUID]models.Identity
}

func newMemIdentityRepo(role models.Role) *memIdentityRepo {
	return &memIdentityRepo{
		role:       role,
		identities: make(map[uuid.UUID]models.Identity),
	}
}

func (r *memIdentityRepo) Create(_ context.Context, identity models.Identity) (models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.identities {
		if existing.Email == identity.Email {
			return models.Identity{}, apperrors.ErrEmailTaken
		}
	}

	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	identity.Role = r.role
	r.identities[identity.ID] = identity
	return identity, nil
}

func (r *memIdentityRepo) GetByID(_ context.Context, id uuid.UUID) (models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok {
		return models.Identity{}, apperrors.ErrIdentityNotFound
	}
	return identity, nil
}

func (r *memIdentityRepo) GetByEmail(_ context.Context, email string) (models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range r.identities {
		if identity.Email == email {
			return identity, nil
		}
	}
	return models.Identity{}, apperrors.ErrIdentityNotFound
}

func (r *memIdentityRepo) UpdatePassword(_ context.Context, id uuid.UUID, hashedPassword string) error {
	return r.update(id, func(i *models.Identity) { i.HashedPassword = hashedPassword })
}

func (r *memIdentityRepo) SetVerified(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(i *models.Identity) { i.IsVerified = true })
}

func (r *memIdentityRepo) SetBlocked(_ context.Context, id uuid.UUID, blocked bool) error {
	return r.update(id, func(i *models.Identity) { i.IsBlocked = blocked })
}

func (r *memIdentityRepo) ListByGym(_ context.Context, gymID uuid.UUID) ([]models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Identity
	for _, identity := range r.identities {
		if identity.GymID != nil && *identity.GymID == gymID {
			out = append(out, identity)
		}
	}
	return out, nil
}

func (r *memIdentityRepo) update(id uuid.UUID, fn func(*models.Identity)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok {
		return apperrors.ErrIdentityNotFound
	}
	fn(&identity)
	r.identities[id] = identity
	return nil
}

// In-memory role keyed store
type memIdentityStore struct {
	repos map[models.Role]*memIdentityRepo
}

func newMemIdentityStore() *memIdentityStore {
	repos := make(map[models.Role]*memIdentityRepo)
	for _, role := range []models.Role{models.RoleGym, models.RoleClient, models.RoleTrainer, models.RoleSuperAdmin} {
		repos[role] = newMemIdentityRepo(role)
	}
	return &memIdentityStore{repos: repos}
}

func (s *memIdentityStore) ByRole(role models.Role) (repository.IdentityRepo, error) {
	repo, ok := s.repos[role]
	if !ok {
		return nil, fmt.Errorf("no identity repo for role %q: %w", role, apperrors.ErrIdentityNotFound)
	}
	return repo, nil
}

// Notifier that records dispatched codes
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentCode
	fails bool
}

type sentCode struct {
	email   string
	code    string
	purpose string
}

func (n *recordingNotifier) SendCode(_ context.Context, email string, code string, purpose string) error {
	if n.fails {
		return fmt.Errorf("%w: broker gone", apperrors.ErrNotifyFailed)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentCode{email: email, code: code, purpose: purpose})
	return nil
}

func (n *recordingNotifier) last() sentCode {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentCode{}
	}
	return n.sent[len(n.sent)-1]
}
