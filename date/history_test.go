package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Test is about appending two values in reverse order and checking that everything is
	// as expected at every step of the way.

	if h.Len() != 0 {
		t.Errorf("History.Len() = %v want 0", h.Len())
	}

	h.Append(d1, v1)
	if h.Len() != 1 {
		t.Errorf("Append(d1, v1).Len() = %v want 1", h.Len())
	}

	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Errorf("Append(d2, v2).Len() = %v want 2", h.Len())
	}

	if h.days[1] != d1 {
		t.Errorf("history[1].day = %v want %v", h.days[1], d1)
	}
	if h.days[0] != d2 {
		t.Errorf("history[0].day = %v want %v", h.days[0], d2)
	}
	if h.values[1] != v1 {
		t.Errorf("history[1].value = %v want %v", h.values[1], v1)
	}
	if h.values[0] != v2 {
		t.Errorf("history[0].value = %v want %v", h.values[0], v2)
	}

	// overwrite
	h.Append(d1, "last")
	if h.Len() != 2 {
		t.Errorf("Append(d1, last).Len() = %v want 2", h.Len())
	}
	if v, _ := h.Get(d1); v != "last" {
		t.Errorf("Get(d1) = %q want %q", v, "last")
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[float64])
	h.Append(MustParse("2023-01-03"), 10)
	h.Append(MustParse("2023-01-05"), 12)
	h.Append(MustParse("2023-01-04"), 11)

	testCases := []struct {
		day      string
		want     float64
		wantDay  string
		expectOK bool
	}{
		{"2023-01-02", 0, "", false},
		{"2023-01-03", 10, "2023-01-03", true},
		{"2023-01-04", 11, "2023-01-04", true},
		{"2023-01-08", 12, "2023-01-05", true},
	}

	for _, tc := range testCases {
		t.Run(tc.day, func(t *testing.T) {
			on, got, ok := h.EntryAsOf(MustParse(tc.day))
			if ok != tc.expectOK {
				t.Fatalf("EntryAsOf(%s) ok = %v want %v", tc.day, ok, tc.expectOK)
			}
			if got != tc.want {
				t.Errorf("EntryAsOf(%s) = %v want %v", tc.day, got, tc.want)
			}
			if ok && on.String() != tc.wantDay {
				t.Errorf("EntryAsOf(%s) day = %v want %v", tc.day, on, tc.wantDay)
			}
		})
	}

	if _, ok := h.Get(MustParse("2023-01-06")); ok {
		t.Errorf("Get() must only match exact days")
	}
}

func TestBetween(t *testing.T) {
	h := new(History[int])
	for i := 1; i <= 10; i++ {
		h.Append(New(2023, 1, i), i)
	}
	r := Range{From: New(2023, 1, 3), To: New(2023, 1, 5)}
	var got []int
	for _, v := range h.Between(r) {
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("Between(%v) = %v want [3 4 5]", r, got)
	}
}
