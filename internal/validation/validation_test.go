package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "Maria", v)
	Required("phone", "   ", v)
	Required("username", "", v)
	if v.Empty() {
		t.Fatal("expected violations")
	}
	if _, ok := v["name"]; ok {
		t.Fatal("filled field must not be flagged")
	}
	if v["phone"] != "required" || v["username"] != "required" {
		t.Fatalf("blank fields must be flagged, got %v", v)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.50", 12.50, true},
		{"12,50", 12.50, true},
		{" 130 ", 130, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"12,5,0", 0, false},
	}
	for _, c := range cases {
		got, err := ParsePrice(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParsePrice(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParsePrice(%q) should fail", c.in)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	if n, err := ParseQuantity(" 3 "); err != nil || n != 3 {
		t.Fatalf("ParseQuantity(3) = %v, %v", n, err)
	}
	for _, bad := range []string{"0", "-1", "1.5", "x", ""} {
		if _, err := ParseQuantity(bad); err == nil {
			t.Fatalf("ParseQuantity(%q) should fail", bad)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-31")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2026 || int(d.Month()) != 8 || d.Day() != 31 {
		t.Fatalf("ParseDate = %v", d)
	}
	if _, err := ParseDate("31/08/2026"); err == nil {
		t.Fatal("BR-formatted date should fail")
	}
}
