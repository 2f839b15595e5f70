package shortener

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveService_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		code       string
		want       string
		wantErr    error
		wantRecord bool
	}{
		{name: "https url", stored: "https://example.com/a", code: "abc123", want: "https://example.com/a", wantRecord: true},
		{name: "http url unchanged", stored: "http://example.com", code: "abc123", want: "http://example.com", wantRecord: true},
		{name: "protocol added", stored: "google.com", code: "abc123", want: "https://google.com", wantRecord: true},
		{name: "unknown code", stored: "https://example.com", code: "zzz999", wantErr: ErrNotFound},
		{name: "empty code", stored: "https://example.com", code: "", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			link := store.seed("abc123", tt.stored, nil)
			clicks := &recordingClicks{}
			svc := NewResolveService(store, clicks)

			got, err := svc.Resolve(context.Background(), tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				assert.Empty(t, clicks.recorded(), "misses must not be counted")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{link.ID}, clicks.recorded())
		})
	}
}

func TestResolveService_SoftDeletedIsNotFound(t *testing.T) {
	store := newFakeStore()
	link := store.seed("gone01", "https://example.com", nil)
	_, err := store.SoftDelete(context.Background(), link.ID)
	require.NoError(t, err)
	clicks := &recordingClicks{}

	_, err = NewResolveService(store, clicks).Resolve(context.Background(), "gone01")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, clicks.recorded())
}

func TestResolveService_RepeatedResolveIsStable(t *testing.T) {
	store := newFakeStore()
	link := store.seed("abc123", "example.org/page", nil)
	clicks := &recordingClicks{}
	svc := NewResolveService(store, clicks)

	first, err := svc.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{link.ID, link.ID}, clicks.recorded())
}

func TestResolveService_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.seed("abc123", "https://example.com", nil)
	store.findErr = errors.New("connection refused")
	clicks := &recordingClicks{}

	_, err := NewResolveService(store, clicks).Resolve(context.Background(), "abc123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Empty(t, clicks.recorded())
}

func TestShortenThenResolve_OnlyWebSchemes(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "https://example.com/a", want: "https://example.com/a"},
		{input: "example.com/a", want: "https://example.com/a"},
		{input: "localhost:3000/admin", want: "https://localhost:3000/admin"},
		{input: "ftp://example.com/file", wantErr: true},
		{input: "javascript://%0Aalert(1)", wantErr: true},
		{input: "mailto:someone@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gen := &stubGenerator{codes: []string{"abc123"}}
			shorten, store := newShortenFixture(gen)

			view, err := shorten.Shorten(context.Background(), tt.input, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				assert.Equal(t, 0, store.insertCount())
				return
			}
			require.NoError(t, err)

			got, err := NewResolveService(store, &recordingClicks{}).Resolve(context.Background(), view.ShortCode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
