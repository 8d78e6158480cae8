package config

import (
	"testing"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "non-empty value", value: "valid", wantError: false},
		{name: "empty value", value: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tt.wantError)
			}
		})
	}
}

func TestValidatorValidateOneOf(t *testing.T) {
	v := NewValidator()
	v.ValidateOneOf("backend", "memory", "memory", "redis", "mongo")
	if v.HasErrors() {
		t.Errorf("expected no errors for allowed value, got %v", v.Errors())
	}

	v = NewValidator()
	v.ValidateOneOf("backend", "sqlite", "memory", "redis", "mongo")
	if !v.HasErrors() {
		t.Error("expected error for disallowed value")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("ANSWERFORGE_LLM_API_KEY", "key")
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config with API key should validate, got %v", err)
	}

	cfg.Provider = "bedrock"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestConfigValidateChunker(t *testing.T) {
	t.Setenv("ANSWERFORGE_LLM_API_KEY", "key")
	t.Setenv("ANSWERFORGE_CHUNKER", "token")
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("token chunker should validate, got %v", err)
	}

	cfg.Chunker = "semantic"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown chunker")
	}
}

func TestConfigValidatePGBackend(t *testing.T) {
	t.Setenv("ANSWERFORGE_LLM_API_KEY", "key")
	cfg := Load()
	cfg.VectorBackend = "pg"
	cfg.PGUser = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for pg backend without user")
	}
}
