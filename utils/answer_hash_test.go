package utils

import "testing"

func TestHashAnswerNormalizes(t *testing.T) {
	base := HashAnswer("harbor")

	for _, variant := range []string{"Harbor", "  harbor  ", "HARBOR", "\tHarbor\n"} {
		if HashAnswer(variant) != base {
			t.Errorf("Expected %q to hash like %q", variant, "harbor")
		}
	}

	if HashAnswer("harbour") == base {
		t.Error("Different answers must not collide")
	}
}

func TestHashMatches(t *testing.T) {
	stored := HashAnswer("silver key")

	if !HashMatches("Silver Key", stored) {
		t.Error("Case-insensitive match failed")
	}
	if HashMatches("golden key", stored) {
		t.Error("Wrong answer matched")
	}
	if HashMatches("silver key", "") {
		t.Error("Empty stored hash matched")
	}
}
