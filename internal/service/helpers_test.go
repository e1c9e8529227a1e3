package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/doantruong120699/voice-cloner-backend/internal/embedcache"
	"github.com/doantruong120699/voice-cloner-backend/internal/engine"
	"github.com/doantruong120699/voice-cloner-backend/internal/identity"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
	"github.com/doantruong120699/voice-cloner-backend/internal/token"
)

// fakeStore is an in-memory store.Store for service tests.
type fakeStore struct {
	users  map[string]store.User
	voices map[string]store.Voice
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]store.User),
		voices: make(map[string]store.Voice),
	}
}

func (f *fakeStore) genID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) CreateUser(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
	email := strings.ToLower(r.Email)
	for _, u := range f.users {
		if u.Email == email {
			return store.User{}, store.ErrAlreadyExists
		}
	}

	provider := r.Provider
	if provider == "" {
		provider = "google"
	}

	u := store.User{
		ID:       f.genID(),
		Email:    email,
		Name:     r.Name,
		Picture:  r.Picture,
		Provider: provider,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	email = strings.ToLower(email)
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeStore) UserExists(ctx context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeStore) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, r store.UpdateUserRequest) (store.User, error) {
	u, ok := f.users[r.ID]
	if !ok {
		return store.User{}, store.ErrNotFound
	}

	if r.Name != nil {
		u.Name = r.Name
	}
	if r.Picture != nil {
		u.Picture = r.Picture
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	if _, ok := f.users[id]; !ok {
		return false, nil
	}

	delete(f.users, id)
	for vid, v := range f.voices {
		if v.UserID == id {
			delete(f.voices, vid)
		}
	}
	return true, nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	var users []store.User
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeStore) CreateVoice(ctx context.Context, r store.CreateVoiceRequest) (store.Voice, error) {
	v := store.Voice{
		ID:            f.genID(),
		UserID:        r.UserID,
		Filename:      r.Filename,
		FilePath:      r.FilePath,
		EmbeddingPath: r.EmbeddingPath,
		Duration:      r.Duration,
		SampleRate:    r.SampleRate,
		Name:          r.Name,
		Description:   r.Description,
	}
	f.voices[v.ID] = v
	return v, nil
}

func (f *fakeStore) GetVoice(ctx context.Context, id string) (store.Voice, error) {
	v, ok := f.voices[id]
	if !ok {
		return store.Voice{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) VoiceExists(ctx context.Context, id string) (bool, error) {
	_, ok := f.voices[id]
	return ok, nil
}

func (f *fakeStore) DeleteVoice(ctx context.Context, id string) (bool, error) {
	if _, ok := f.voices[id]; !ok {
		return false, nil
	}
	delete(f.voices, id)
	return true, nil
}

func (f *fakeStore) ListVoices(ctx context.Context) ([]store.Voice, error) {
	var voices []store.Voice
	for _, v := range f.voices {
		voices = append(voices, v)
	}
	return voices, nil
}

func (f *fakeStore) ListVoicesByUser(ctx context.Context, userID string) ([]store.Voice, error) {
	var voices []store.Voice
	for _, v := range f.voices {
		if v.UserID == userID {
			voices = append(voices, v)
		}
	}
	return voices, nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(f)
}

// fakeGoogle returns canned claims or an error.
type fakeGoogle struct {
	claims      identity.Claims
	err         error
	canExchange bool
	exchanged   bool
}

func (f *fakeGoogle) Verify(ctx context.Context, rawToken string) (identity.Claims, error) {
	if f.err != nil {
		return identity.Claims{}, f.err
	}
	return f.claims, nil
}

func (f *fakeGoogle) Exchange(ctx context.Context, code string) (identity.Claims, error) {
	f.exchanged = true
	return f.claims, nil
}

func (f *fakeGoogle) CanExchange() bool { return f.canExchange }

type fakeVerifier struct {
	claims identity.Claims
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, rawToken string) (identity.Claims, error) {
	if f.err != nil {
		return identity.Claims{}, f.err
	}
	return f.claims, nil
}

// fakeEngine implements both engine interfaces.
type fakeEngine struct {
	embedding  engine.Embedding
	embedErr   error
	audio      []byte
	synthErr   error
	embedCalls int
}

func (f *fakeEngine) ComputeEmbedding(ctx context.Context, audioPath string) (engine.Embedding, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return engine.Embedding{}, f.embedErr
	}
	return f.embedding, nil
}

func (f *fakeEngine) Synthesize(ctx context.Context, r engine.SynthesisRequest) ([]byte, error) {
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return f.audio, nil
}

// fakeCache is an in-memory embedcache.Cache.
type fakeCache struct {
	entries map[string][]float32
	putErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]float32)}
}

func (f *fakeCache) Put(ctx context.Context, voiceID string, vector []float32) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[voiceID] = vector
	return nil
}

func (f *fakeCache) Get(ctx context.Context, voiceID string) ([]float32, error) {
	v, ok := f.entries[voiceID]
	if !ok {
		return nil, embedcache.ErrMiss
	}
	return v, nil
}

func newTestAuth(st store.Store, g googleVerifier, fb identity.Verifier) *Auth {
	opts := []AuthOption{
		WithStore(st),
		WithGoogle(g),
		WithAccessToken(token.NewIssuer(token.IssuerConfig{Secret: "test", Type: token.TypeAccess, TTL: testTTL})),
		WithRefreshToken(token.NewIssuer(token.IssuerConfig{Secret: "test", Type: token.TypeRefresh, TTL: testTTL})),
	}
	if fb != nil {
		opts = append(opts, WithFirebase(fb))
	}
	return NewAuth(opts...)
}
