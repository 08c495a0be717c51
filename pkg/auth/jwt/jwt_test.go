package jwt

import (
	"strings"
	"testing"
	"time"
)

func TestSign(t *testing.T) {
	tokenString, err := Sign("secret", New("user", "Staff", time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		t.Error("JWT does not have 3 parts")
	}
}

func TestVerify(t *testing.T) {
	valid, err := Sign("secret", New("user", "Manager", time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	expired, err := Sign("secret", New("user", "Manager", -time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	other, err := Sign("secret", New("admin", "Senior", time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	validParts := strings.Split(valid, ".")
	otherParts := strings.Split(other, ".")
	tampered := validParts[0] + "." + otherParts[1] + "." + validParts[2]

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{"valid", valid, "secret", false},
		{"wrong secret", valid, "other", true},
		{"expired", expired, "secret", true},
		{"empty", "", "secret", true},
		{"garbage", "a.b.c", "secret", true},
		{"tampered", tampered, "secret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := Verify(tt.token, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (claims.Subject != "user" || claims.Role != "Manager") {
				t.Errorf("unexpected claims %+v", claims)
			}
		})
	}
}
