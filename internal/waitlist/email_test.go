package waitlist

import "testing"

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "minimal", email: "a@b.co", want: true},
		{name: "plus and dots", email: "first.last+tag@mail.example.org", want: true},
		{name: "percent and dash", email: "x%y-z@sub-domain.io", want: true},
		{name: "missing tld", email: "a@b", want: false},
		{name: "empty", email: "", want: false},
		{name: "double at", email: "a@@b.com", want: false},
		{name: "one letter tld", email: "a@b.c", want: false},
		{name: "numeric tld", email: "a@b.12", want: false},
		{name: "space", email: "a b@c.com", want: false},
		{name: "no local", email: "@b.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func FuzzIsValidEmail(f *testing.F) {
	for _, seed := range []string{"a@b.co", "a@b", "", "a@@b.com"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, email string) {
		if IsValidEmail(email) != IsValidEmail(email) {
			t.Fatalf("IsValidEmail(%q) is not deterministic", email)
		}
	})
}
