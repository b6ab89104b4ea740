package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]models.User{}}
}

func (f *fakeUsers) find(match func(models.User) bool) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (f *fakeUsers) save(name, email, phone string, hash []byte, admin bool) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return models.User{}, storage.ErrEmailTaken
		}
		if u.Phone == phone {
			return models.User{}, storage.ErrPhoneTaken
		}
	}

	f.nextID++
	u := models.User{ID: f.nextID, Name: name, Email: email, Phone: phone, PassHash: hash, IsAdmin: admin, CreatedAt: time.Now()}
	f.users[u.ID] = u

	return u, nil
}

func (f *fakeUsers) SaveUser(_ context.Context, name, email, phone string, hash []byte) (models.User, error) {
	return f.save(name, email, phone, hash, false)
}

func (f *fakeUsers) SaveAdmin(_ context.Context, name, email, phone string, hash []byte) (models.User, error) {
	return f.save(name, email, phone, hash, true)
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id int64, name, phone string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	u.Name, u.Phone = name, phone
	f.users[id] = u

	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PassHash = hash
	f.users[id] = u

	return nil
}

func (f *fakeUsers) UserByID(_ context.Context, id int64) (models.User, error) {
	return f.find(func(u models.User) bool { return u.ID == id })
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (models.User, error) {
	return f.find(func(u models.User) bool { return u.Email == email })
}

func (f *fakeUsers) UserByPhone(_ context.Context, phone string) (models.User, error) {
	return f.find(func(u models.User) bool { return u.Phone == phone })
}

func (f *fakeUsers) UserByIdentifier(_ context.Context, id string) (models.User, error) {
	return f.find(func(u models.User) bool { return u.Email == id || u.Phone == id })
}

func (f *fakeUsers) CountUsers(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

type fakePublisher struct {
	sent []models.Message
	err  error
}

func (p *fakePublisher) SendMessage(_ context.Context, msg models.Message) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

type fakeMarker struct {
	seen     map[string]bool
	released []string
}

func (m *fakeMarker) MarkResetTokenUsed(_ context.Context, jti string, _ time.Duration) (bool, error) {
	if m.seen[jti] {
		return false, nil
	}
	m.seen[jti] = true
	return true, nil
}

func (m *fakeMarker) ReleaseResetToken(_ context.Context, jti string) error {
	delete(m.seen, jti)
	m.released = append(m.released, jti)
	return nil
}

type fixture struct {
	auth   *Auth
	users  *fakeUsers
	pub    *fakePublisher
	tokens *session.Manager
}

func newFixture(t *testing.T, marker UsedTokenMarker) fixture {
	t.Helper()

	tokens, err := session.New("test-secret", false, 0, 0)
	require.NoError(t, err)

	users := newFakeUsers()
	pub := &fakePublisher{}

	return fixture{
		auth:   New(sl.NewDiscardLogger(), users, users, tokens, pub, marker, "https://imba.example/"),
		users:  users,
		pub:    pub,
		tokens: tokens,
	}
}

func TestSignup(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	user, token, err := f.auth.Signup(ctx, "김민지", "kim@example.com", "01012345678", "password1")
	require.NoError(t, err)

	id, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.False(t, id.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PassHash, []byte("password1")))

	_, _, err = f.auth.Signup(ctx, "다른", "kim@example.com", "01099999999", "password1")
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	_, _, err = f.auth.Signup(ctx, "다른", "other@example.com", "01012345678", "password1")
	assert.ErrorIs(t, err, storage.ErrPhoneTaken)

	n, _ := f.users.CountUsers(ctx)
	assert.Equal(t, int64(1), n)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.auth.Signup(ctx, "김민지", "kim@example.com", "01012345678", "password1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{name: "by email", identifier: "kim@example.com", password: "password1"},
		{name: "by phone", identifier: "01012345678", password: "password1"},
		{name: "unknown", identifier: "nobody@example.com", password: "password1", wantErr: ErrUnknownAccount},
		{name: "wrong password", identifier: "kim@example.com", password: "nope", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, token, err := f.auth.Login(ctx, tt.identifier, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "kim@example.com", user.Email)
			assert.NotEmpty(t, token)
		})
	}
}

func TestUpdateProfile_ReissuesToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)
	_, _, err = f.auth.Signup(ctx, "B", "b@example.com", "0102", "password1")
	require.NoError(t, err)

	_, _, err = f.auth.UpdateProfile(ctx, a.ID, "A2", "0102")
	assert.ErrorIs(t, err, storage.ErrPhoneTaken)

	user, token, err := f.auth.UpdateProfile(ctx, a.ID, "A2", "0101")
	require.NoError(t, err)
	assert.Equal(t, "A2", user.Name)

	id, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "A2", id.Name)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	u, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.auth.ChangePassword(ctx, u.ID, "wrong", "password2"), ErrWrongPassword)
	require.NoError(t, f.auth.ChangePassword(ctx, u.ID, "password1", "password2"))

	_, _, err = f.auth.Login(ctx, "a@example.com", "password2")
	assert.NoError(t, err)
}

func TestFindEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.auth.Signup(ctx, "김민지", "minji@example.com", "01012345678", "password1")
	require.NoError(t, err)

	name, masked, err := f.auth.FindEmail(ctx, "01012345678")
	require.NoError(t, err)
	assert.Equal(t, "김민지", name)
	assert.Equal(t, "mi***@example.com", masked)

	_, _, err = f.auth.FindEmail(ctx, "01000000000")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMaskEmail(t *testing.T) {
	for in, want := range map[string]string{
		"abcdef@x.com": "ab***@x.com",
		"a@x.com":      "a***@x.com",
		"민지공주@x.com":   "민지***@x.com",
		"broken":       "broken",
	} {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t, &fakeMarker{seen: map[string]bool{}})
	ctx := context.Background()

	_, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)

	require.NoError(t, f.auth.ForgotPassword(ctx, "ghost@example.com"))
	assert.Empty(t, f.pub.sent)

	require.NoError(t, f.auth.ForgotPassword(ctx, "a@example.com"))
	require.Len(t, f.pub.sent, 1)

	msg := f.pub.sent[0]
	assert.Equal(t, "a@example.com", msg.Email)
	assert.Equal(t, PurposePasswordReset, msg.Purpose)
	require.True(t, strings.HasPrefix(msg.Link, "https://imba.example/reset-password?token="))

	link, err := url.Parse(msg.Link)
	require.NoError(t, err)
	token := link.Query().Get("token")

	require.NoError(t, f.auth.ResetPassword(ctx, token, "password9"))
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "password10"), ErrResetTokenUsed)

	_, _, err = f.auth.Login(ctx, "a@example.com", "password9")
	assert.NoError(t, err)
}

func TestResetPassword_RejectsSessionToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, token, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "password2"), ErrInvalidResetToken)
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, "garbage", "password2"), ErrInvalidResetToken)
}

func TestForgotPassword_PublishFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)

	f.pub.err = errors.New("broker down")
	assert.Error(t, f.auth.ForgotPassword(ctx, "a@example.com"))
}

func TestSeedAdmin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.auth.SeedAdmin(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.auth.SeedAdmin(ctx, "admin@imba.kr", "01000000000", "adminpass")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := f.users.UserByEmail(ctx, "admin@imba.kr")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	created, err = f.auth.SeedAdmin(ctx, "second@imba.kr", "01000000001", "adminpass")
	require.NoError(t, err)
	assert.False(t, created)
}

func resetToken(t *testing.T, f fixture, email string) string {
	t.Helper()

	require.NoError(t, f.auth.ForgotPassword(context.Background(), email))
	require.NotEmpty(t, f.pub.sent)

	link, err := url.Parse(f.pub.sent[len(f.pub.sent)-1].Link)
	require.NoError(t, err)

	return link.Query().Get("token")
}

func TestPasswordTooLong(t *testing.T) {
	f := newFixture(t, &fakeMarker{seen: map[string]bool{}})
	ctx := context.Background()
	long := strings.Repeat("b", 73)

	_, _, err := f.auth.Signup(ctx, "A", "long@example.com", "0109", long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Empty(t, f.users.users)

	user, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", strings.Repeat("비", 24))
	require.NoError(t, err, "24 hangul syllables are exactly 72 bytes")

	err = f.auth.ChangePassword(ctx, user.ID, strings.Repeat("비", 24), long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestResetPassword_RejectedPasswordKeepsLinkUsable(t *testing.T) {
	marker := &fakeMarker{seen: map[string]bool{}}
	f := newFixture(t, marker)
	ctx := context.Background()

	_, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)
	token := resetToken(t, f, "a@example.com")

	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, strings.Repeat("b", 80)), ErrPasswordTooLong)
	assert.Empty(t, marker.seen)

	require.NoError(t, f.auth.ResetPassword(ctx, token, "password9"))
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "password10"), ErrResetTokenUsed)
}

func TestResetPassword_StoreFailureReleasesLink(t *testing.T) {
	marker := &fakeMarker{seen: map[string]bool{}}
	f := newFixture(t, marker)
	ctx := context.Background()

	user, _, err := f.auth.Signup(ctx, "A", "a@example.com", "0101", "password1")
	require.NoError(t, err)
	token := resetToken(t, f, "a@example.com")

	f.users.mu.Lock()
	delete(f.users.users, user.ID)
	f.users.mu.Unlock()

	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "password9"), storage.ErrNotFound)
	assert.Len(t, marker.released, 1)
	assert.Empty(t, marker.seen)
}
