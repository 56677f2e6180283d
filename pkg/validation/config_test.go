package validation

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("SourceConfig")
	cv.Required("Dir", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("SourceConfig")
	cv2.Required("Dir", "./data")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_RangeInt(t *testing.T) {
	cv := NewConfigValidator("ServerConfig")
	cv.RangeInt("Port", 70000, 1, 65535)

	if !cv.HasErrors() {
		t.Error("Expected error for port outside range")
	}

	cv2 := NewConfigValidator("ServerConfig")
	cv2.RangeInt("Port", 8080, 1, 65535)

	if cv2.HasErrors() {
		t.Error("Expected no error for port inside range")
	}
}

func TestConfigValidator_RangeDuration(t *testing.T) {
	cv := NewConfigValidator("AnalysisConfig")
	cv.RangeDuration("Timeout", 10*time.Minute, time.Second, 5*time.Minute)

	if !cv.HasErrors() {
		t.Error("Expected error for timeout outside range")
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	cv := NewConfigValidator("SourceConfig")
	cv.OneOf("Kind", "mysql", []string{"file", "postgres"})

	if !cv.HasErrors() {
		t.Error("Expected error for value outside allowed set")
	}

	cv2 := NewConfigValidator("SourceConfig")
	cv2.OneOf("Kind", "postgres", []string{"file", "postgres"})

	if cv2.HasErrors() {
		t.Error("Expected no error for allowed value")
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("SourceConfig")
	cv.When(false, func(v *ConfigValidator) {
		v.Required("DatabaseURL", "")
	})
	if cv.HasErrors() {
		t.Error("When(false) should not apply validations")
	}

	cv.When(true, func(v *ConfigValidator) {
		v.Required("DatabaseURL", "")
	})
	if !cv.HasErrors() {
		t.Error("When(true) should apply validations")
	}
}

func TestConfigValidator_ValidateCombinesErrors(t *testing.T) {
	cv := NewConfigValidator("Config").
		Required("A", "").
		Positive("B", 0)

	if len(cv.Errors()) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(cv.Errors()))
	}
	err := cv.Validate()
	if err == nil {
		t.Fatal("Validate() should return an error")
	}
	for _, field := range []string{"A", "B"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Validate() = %q, want every failing field listed", err)
		}
	}

	if err := NewConfigValidator("Config").Validate(); err != nil {
		t.Errorf("Validate() on clean validator = %v, want nil", err)
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr(0, 15); got != 15 {
		t.Errorf("DefaultOr(0, 15) = %d", got)
	}
	if got := DefaultOr("x", "y"); got != "x" {
		t.Errorf("DefaultOr(x, y) = %s", got)
	}
}
