package result

import "testing"

func TestStringCoversAllCodes(t *testing.T) {
	codes := []Code{Failure, Success, Empty, NullPointer, DoubleFree, NotImplemented, Timeout, Signaled}
	seen := map[string]bool{}
	for _, c := range codes {
		s := c.String()
		if s == "Unknown" {
			t.Errorf("Code(%d).String() = Unknown", c)
		}
		if seen[s] {
			t.Errorf("duplicate String() value %q", s)
		}
		seen[s] = true
	}
}

func TestAsError(t *testing.T) {
	if err := AsError(Success); err != nil {
		t.Errorf("AsError(Success) = %v, want nil", err)
	}
	if err := AsError(Signaled); err != nil {
		t.Errorf("AsError(Signaled) = %v, want nil", err)
	}
	if err := AsError(DoubleFree); err == nil {
		t.Error("AsError(DoubleFree) = nil, want non-nil")
	} else if err.Error() != "DoubleFree" {
		t.Errorf("AsError(DoubleFree).Error() = %q, want DoubleFree", err.Error())
	}
}

func TestOk(t *testing.T) {
	if !Success.Ok() {
		t.Error("Success.Ok() = false")
	}
	if !Signaled.Ok() {
		t.Error("Signaled.Ok() = false")
	}
	if Empty.Ok() {
		t.Error("Empty.Ok() = true")
	}
}
