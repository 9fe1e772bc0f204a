package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gescom-app/gescom/internal/shared"
)

type stubRepo struct {
	users  map[string]*User
	byID   map[int64]*User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*User), byID: make(map[int64]*User), nextID: 1}
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) Create(ctx context.Context, user User) (int64, error) {
	user.ID = s.nextID
	s.nextID++
	s.users[user.Username] = &user
	s.byID[user.ID] = &user
	return user.ID, nil
}

func (s *stubRepo) SetValidated(ctx context.Context, id int64, validated bool) error {
	u, ok := s.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Validated = validated
	return nil
}

func seedUser(t *testing.T, repo *stubRepo, username, password string, validated bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := repo.Create(context.Background(), User{
		Username:     username,
		Role:         RoleCashier,
		Validated:    validated,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	return repo.byID[id]
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "caisse", "motdepasse1", true)
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "caisse", "motdepasse1")
	require.NoError(t, err)
	assert.Equal(t, "caisse", user.Username)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "caisse", "motdepasse1", true)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "caisse", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnvalidatedAccountRejected(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "nouveau", "motdepasse1", false)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "nouveau", "motdepasse1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegisterStartsUnvalidated(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), "nouveau", "Nouveau Compte", "motdepasse1", "")
	require.NoError(t, err)
	assert.False(t, user.Validated)
	assert.Equal(t, RoleCashier, user.Role)

	_, err = svc.Authenticate(context.Background(), "nouveau", "motdepasse1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	require.NoError(t, svc.Validate(context.Background(), user.ID))
	validated, err := svc.Authenticate(context.Background(), "nouveau", "motdepasse1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Register(context.Background(), "x", "", "court", RoleCashier)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
