package gateway

import (
	"errors"
	"testing"

	"github.com/stepone-ai/validation-backend/internal/entity"
	pkghttp "github.com/stepone-ai/validation-backend/pkg/http"
)

func TestValidatePersonas(t *testing.T) {
	tests := []struct {
		name     string
		personas []entity.Persona
		wantErr  bool
	}{
		{
			name:    "empty list",
			wantErr: true,
		},
		{
			name: "missing role",
			personas: []entity.Persona{
				{Name: "Sarah Chen"},
			},
			wantErr: true,
		},
		{
			name: "duplicate names",
			personas: []entity.Persona{
				{Name: "Sarah Chen", Role: "Owner"},
				{Name: "Sarah Chen", Role: "Manager"},
			},
			wantErr: true,
		},
		{
			name: "valid",
			personas: []entity.Persona{
				{Name: "Sarah Chen", Role: "Owner"},
				{Name: "Marcus Rodriguez", Role: "Manager"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePersonas(tt.personas)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validatePersonas() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeErr(t *testing.T) {
	var remote *entity.RemoteCallError

	err := normalizeErr(&pkghttp.HTTPError{StatusCode: 503, Message: "unavailable"})
	if !errors.As(err, &remote) || remote.Status != 503 {
		t.Fatalf("expected remote call error with status 503, got %v", err)
	}
	if !entity.IsRetryable(err) {
		t.Errorf("503 should be retryable")
	}

	err = normalizeErr(&pkghttp.HTTPError{StatusCode: 422, Message: "bad shape"})
	if entity.IsRetryable(err) {
		t.Errorf("422 should not be retryable")
	}

	err = normalizeErr(&pkghttp.NetworkError{Err: errors.New("connection refused")})
	remote = nil
	if !errors.As(err, &remote) || remote.Status != 0 {
		t.Fatalf("expected remote call error without status, got %v", err)
	}
	if !entity.IsRetryable(err) {
		t.Errorf("network errors should be retryable")
	}
}

func TestVoiceForPersona(t *testing.T) {
	tests := []struct {
		name    string
		persona entity.Persona
		want    string
	}{
		{
			name:    "female professional",
			persona: entity.Persona{Name: "Sarah Chen", CommunicationStyle: "professional and to the point"},
			want:    "shimmer",
		},
		{
			name:    "female friendly",
			persona: entity.Persona{Name: "Emma Thompson", CommunicationStyle: "friendly and casual"},
			want:    "nova",
		},
		{
			name:    "female default",
			persona: entity.Persona{Name: "Anna Petrova", CommunicationStyle: "direct"},
			want:    "alloy",
		},
		{
			name:    "male technical",
			persona: entity.Persona{Name: "Marcus Rodriguez", CommunicationStyle: "technical and analytical"},
			want:    "echo",
		},
		{
			name:    "male casual",
			persona: entity.Persona{Name: "Mike Johnson", CommunicationStyle: "casual"},
			want:    "fable",
		},
		{
			name:    "male default",
			persona: entity.Persona{Name: "David Kim", CommunicationStyle: "terse"},
			want:    "onyx",
		},
		{
			name:    "unknown name",
			persona: entity.Persona{Name: "Quinn Osei", CommunicationStyle: "formal"},
			want:    "nova",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VoiceForPersona(tt.persona); got != tt.want {
				t.Errorf("VoiceForPersona() = %q, want %q", got, tt.want)
			}
		})
	}
}
