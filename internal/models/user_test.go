package models_test

import (
	"testing"

	"github.com/akshayak12345/Library-Management-System/internal/models"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		isValid bool
	}{
		{"Valid Librarian Role", string(models.RoleLibrarian), true},
		{"Valid Regular Role", string(models.RoleRegular), true},
		{"Invalid Role", "ADMIN", false},
		{"Empty Role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := models.IsValidRole(tt.role); got != tt.isValid {
				t.Errorf("IsValidRole() = %v, want %v", got, tt.isValid)
			}
		})
	}
}
