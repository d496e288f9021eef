package domain

import "testing"

func TestSeverityRank(t *testing.T) {
	if !(SeverityInfo.Rank() < SeverityWarning.Rank() && SeverityWarning.Rank() < SeverityError.Rank()) {
		t.Fatal("severity ordering broken")
	}
	if Severity("mystery").Rank() <= SeverityError.Rank() {
		t.Fatal("unknown severities must rank above error")
	}
}

func TestValidationResultIsValid(t *testing.T) {
	var res ValidationResult
	if !res.IsValid() {
		t.Fatal("empty result is valid")
	}

	res.Errors = append(res.Errors, ValidationError{Severity: SeverityInfo}, ValidationError{Severity: SeverityWarning})
	if !res.IsValid() {
		t.Fatal("info and warning findings do not invalidate")
	}
	if !res.BlocksExport() {
		t.Fatal("warnings block export")
	}

	res.Errors = append(res.Errors, ValidationError{Severity: SeverityError})
	if res.IsValid() {
		t.Fatal("error findings invalidate")
	}
}

func TestValidationResultUnknownSeverityFailsClosed(t *testing.T) {
	res := ValidationResult{Errors: []ValidationError{{Severity: Severity("mystery")}}}
	if res.IsValid() {
		t.Fatal("unknown severities must invalidate")
	}
	if !res.BlocksExport() {
		t.Fatal("unknown severities must block export")
	}
}

func TestValidationResultMerge(t *testing.T) {
	a := ValidationResult{Errors: []ValidationError{{Path: "lab"}}}
	b := ValidationResult{Errors: []ValidationError{{Path: "date"}, {Path: "subject.sex"}}}
	a.Merge(b)
	if len(a.Errors) != 3 {
		t.Fatalf("expected 3 findings after merge, got %d", len(a.Errors))
	}
	if a.Errors[0].Path != "lab" || a.Errors[2].Path != "subject.sex" {
		t.Fatal("merge must preserve order")
	}
}

func TestBlocksExportInfoOnly(t *testing.T) {
	res := ValidationResult{Errors: []ValidationError{{Severity: SeverityInfo}}}
	if res.BlocksExport() {
		t.Fatal("info findings never block export")
	}
}
