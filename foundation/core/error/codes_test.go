package error

import "testing"

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, 404},
		{CodeInvalidInput, 400},
		{CodeInvalidImage, 400},
		{CodeDuplicateEntry, 409},
		{CodeDetectionFailed, 502},
		{CodeDatabaseError, 503},
		{CodeVPLSyntax, 200},
		{CodeInternal, 500},
		{Code("SOMETHING_ELSE"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodeCategory(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeVPLStructure, "vpl"},
		{CodeVPLExecution, "vpl"},
		{CodeDetectionFailed, "detection"},
		{CodeMissingConfig, "configuration"},
		{CodeDatabaseError, "database"},
		{CodeUnknown, "generic"},
	}

	for _, tt := range tests {
		if got := tt.code.Category(); got != tt.want {
			t.Errorf("%s.Category() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCodeIsValid(t *testing.T) {
	if !CodeVPLSyntax.IsValid() {
		t.Error("CodeVPLSyntax should be valid")
	}
	if Code("NOPE").IsValid() {
		t.Error("unknown code should be invalid")
	}
	if !CodeVPLSyntax.IsCompileDiagnostic() || CodeInternal.IsCompileDiagnostic() {
		t.Error("IsCompileDiagnostic() misclassified")
	}
}

func TestSeverity(t *testing.T) {
	if SeverityHigh.String() != "high" || Severity(99).String() != "unknown" {
		t.Error("Severity.String() mismatch")
	}
	if SeverityLow.ShouldAlert() || !SeverityCritical.ShouldAlert() {
		t.Error("ShouldAlert() mismatch")
	}
	if GetSeverityFromCode(CodeServiceInitialization) != SeverityCritical {
		t.Error("service initialization should be critical")
	}
	if GetSeverityFromCode(CodeVPLExecution) != SeverityLow {
		t.Error("compile diagnostics should be low severity")
	}
}
