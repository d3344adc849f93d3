package config

import "testing"

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Validate(Default()) = %v, want nil", err)
	}
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
	if !containsField(err, "server.port") {
		t.Errorf("error %v does not mention server.port", err)
	}
}

func TestValidate_RejectsRefreshTTLBelowAccessTTL(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWT.AccessTTL = cfg.Auth.JWT.RefreshTTL + 1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected an error when refresh_ttl < access_ttl")
	}
	if !containsField(err, "auth.jwt.refresh_ttl") {
		t.Errorf("error %v does not mention auth.jwt.refresh_ttl", err)
	}
}

func TestValidate_RejectsStoragePathTraversal(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = "../../etc"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected an error for a path-traversal storage path")
	}
	if !containsField(err, "storage.path") {
		t.Errorf("error %v does not mention storage.path", err)
	}
}

func TestValidate_RejectsInsecureCORS(t *testing.T) {
	cfg := Default()
	cfg.Server.CORS.Enabled = true
	cfg.Server.CORS.AllowCredentials = true
	cfg.Server.CORS.AllowedOrigins = []string{"*"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected an error for allow_credentials with a wildcard origin")
	}
	if !containsField(err, "server.cors") {
		t.Errorf("error %v does not mention server.cors", err)
	}
}

func TestValidateJWTSecret_RejectsShortSecret(t *testing.T) {
	if err := ValidateJWTSecret("too-short"); err == nil {
		t.Fatal("expected an error for a secret under 32 characters")
	}
}

func TestValidateJWTSecret_AcceptsLongSecret(t *testing.T) {
	secret := "this-secret-is-definitely-long-enough-1234"
	if err := ValidateJWTSecret(secret); err != nil {
		t.Errorf("ValidateJWTSecret(%q) = %v, want nil", secret, err)
	}
}

func containsField(err error, field string) bool {
	verrs, ok := err.(ValidationErrors)
	if !ok {
		return false
	}
	for _, v := range verrs {
		if v.Field == field {
			return true
		}
	}
	return false
}
