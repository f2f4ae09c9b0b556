package strength

import "testing"

func TestEvaluate(t *testing.T) {
	weak := Evaluate("password", nil)
	if weak.Score != 0 {
		t.Errorf("expected score 0 for a dictionary word, got %d", weak.Score)
	}
	if !weak.Weak() {
		t.Error("dictionary word should be weak")
	}
	if weak.Label != "very weak" {
		t.Errorf("unexpected label %q", weak.Label)
	}

	strong := Evaluate("correct-horse-battery-staple-92!Zq", nil)
	if strong.Score < 3 {
		t.Errorf("expected a long passphrase to score >= 3, got %d", strong.Score)
	}
	if strong.Weak() {
		t.Error("long passphrase should not be weak")
	}
	if strong.Entropy <= weak.Entropy {
		t.Errorf("expected more entropy for the passphrase (%.1f <= %.1f)", strong.Entropy, weak.Entropy)
	}
	if strong.CrackTime == "" {
		t.Error("expected a crack time estimate")
	}
}

func TestEvaluateUserInputs(t *testing.T) {
	without := Evaluate("jsmith1987", nil)
	with := Evaluate("jsmith1987", []string{"jsmith"})
	if with.Entropy > without.Entropy {
		t.Errorf("user inputs should not raise entropy (%.1f > %.1f)", with.Entropy, without.Entropy)
	}
}
