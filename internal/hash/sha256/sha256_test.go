package sha256

import "testing"

func TestDigestKnownVector(t *testing.T) {
	t.Parallel()

	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := Digest([]byte("hello world")); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestEmailNormalizes(t *testing.T) {
	t.Parallel()

	a := Email("Ada@Example.com")
	b := Email("  ada@example.com ")
	if a != b {
		t.Fatalf("expected equal digests, got %s vs %s", a, b)
	}
	if a == "ada@example.com" || len(a) != 64 {
		t.Fatalf("unexpected digest %q", a)
	}
	if Email("   ") != "" {
		t.Fatal("expected empty digest for blank address")
	}
}
