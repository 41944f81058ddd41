package domain

import "testing"

func TestDatesOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"disjoint before", "2026-01-01", "2026-01-10", "2026-01-11", "2026-01-20", false},
		{"disjoint after", "2026-02-01", "2026-02-10", "2026-01-01", "2026-01-31", false},
		{"shared end boundary", "2026-01-01", "2026-01-10", "2026-01-10", "2026-01-20", true},
		{"shared start boundary", "2026-01-10", "2026-01-20", "2026-01-01", "2026-01-10", true},
		{"partial overlap", "2026-01-05", "2026-01-15", "2026-01-10", "2026-01-20", true},
		{"containment", "2026-01-01", "2026-01-31", "2026-01-10", "2026-01-12", true},
		{"identical ranges", "2026-01-01", "2026-01-10", "2026-01-01", "2026-01-10", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DatesOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("DatesOverlap(%s..%s, %s..%s) = %v, want %v",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}

	// Overlap is symmetric in its two ranges.
	if DatesOverlap("2026-01-05", "2026-01-15", "2026-01-10", "2026-01-20") !=
		DatesOverlap("2026-01-10", "2026-01-20", "2026-01-05", "2026-01-15") {
		t.Fatalf("DatesOverlap must be symmetric")
	}
}

func TestReservationActive(t *testing.T) {
	active := []string{ReservationOpen, ReservationOffered, ReservationInvoiced}
	for _, status := range active {
		if !ReservationActive(status) {
			t.Fatalf("expected %q to be active", status)
		}
	}

	settled := []string{ReservationWon, ReservationLost, ReservationCancelled, ""}
	for _, status := range settled {
		if ReservationActive(status) {
			t.Fatalf("expected %q to be settled", status)
		}
	}
}

func TestLosesToWinnerSparesTheWinner(t *testing.T) {
	winner := Competitor{ID: "r1", Status: ReservationInvoiced, StartDate: "2026-03-01", EndDate: "2026-03-31"}
	if LosesToWinner(winner, "r1", "2026-03-01", "2026-03-31") {
		t.Fatalf("winning reservation must never be settled as lost")
	}
}

func TestLosesToWinnerMatchesWinnerUnderNormalization(t *testing.T) {
	// Ids can be stored in different representations across tables.
	candidate := Competitor{ID: " 42 ", Status: ReservationOpen, StartDate: "2026-03-01", EndDate: "2026-03-31"}
	if LosesToWinner(candidate, "42", "2026-03-01", "2026-03-31") {
		t.Fatalf("winner id must match under normalization")
	}
}

func TestLosesToWinnerSettlesOverlappingActiveCompetitor(t *testing.T) {
	candidate := Competitor{ID: "r2", Status: ReservationOffered, StartDate: "2026-03-15", EndDate: "2026-04-15"}
	if !LosesToWinner(candidate, "r1", "2026-03-01", "2026-03-31") {
		t.Fatalf("active overlapping competitor must lose")
	}
}

func TestLosesToWinnerSkipsSettledAndDisjoint(t *testing.T) {
	settled := Competitor{ID: "r2", Status: ReservationLost, StartDate: "2026-03-01", EndDate: "2026-03-31"}
	if LosesToWinner(settled, "r1", "2026-03-01", "2026-03-31") {
		t.Fatalf("already settled reservation must be left alone")
	}

	disjoint := Competitor{ID: "r3", Status: ReservationOpen, StartDate: "2026-05-01", EndDate: "2026-05-31"}
	if LosesToWinner(disjoint, "r1", "2026-03-01", "2026-03-31") {
		t.Fatalf("non-overlapping reservation must be left alone")
	}
}

func TestLosesToWinnerWithUnknownWinner(t *testing.T) {
	// When the backing reservation could not be resolved, every active
	// overlapping reservation still loses; an empty winner id matches
	// nothing.
	candidate := Competitor{ID: "r2", Status: ReservationOpen, StartDate: "2026-03-10", EndDate: "2026-03-20"}
	if !LosesToWinner(candidate, "", "2026-03-01", "2026-03-31") {
		t.Fatalf("active overlapping competitor must lose even without a resolved winner")
	}
}
