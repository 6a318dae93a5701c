package progress

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func day(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStreakTransitions(t *testing.T) {
	today := day("2024-03-10")
	last := func(d Date) *Date { return &d }

	cases := []struct {
		name        string
		in          Streak
		wantCurrent int
		wantLongest int
	}{
		{"no history", Streak{}, 1, 1},
		{"yesterday", Streak{Current: 3, Longest: 5, LastStudyDay: last(today.AddDays(-1))}, 4, 5},
		{"yesterday beats longest", Streak{Current: 5, Longest: 5, LastStudyDay: last(today.AddDays(-1))}, 6, 6},
		{"two days ago", Streak{Current: 7, Longest: 7, LastStudyDay: last(today.AddDays(-2))}, 1, 7},
		{"same day", Streak{Current: 2, Longest: 4, LastStudyDay: last(today)}, 2, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Record(today)
			if err != nil {
				t.Fatalf("Record: unexpected error: %v", err)
			}
			if got.Current != tc.wantCurrent {
				t.Fatalf("current: want=%d got=%d", tc.wantCurrent, got.Current)
			}
			if got.Longest != tc.wantLongest {
				t.Fatalf("longest: want=%d got=%d", tc.wantLongest, got.Longest)
			}
			if got.LastStudyDay == nil || *got.LastStudyDay != today {
				t.Fatalf("lastStudyDay: want=%s got=%v", today, got.LastStudyDay)
			}
		})
	}
}

func TestStreakRejectsBackdatedDay(t *testing.T) {
	today := day("2024-03-10")
	s := Streak{Current: 2, Longest: 2, LastStudyDay: &today}
	got, err := s.Record(today.AddDays(-1))
	if !errors.Is(err, ErrBackdatedActivity) {
		t.Fatalf("err: want=ErrBackdatedActivity got=%v", err)
	}
	if got.Current != 2 || *got.LastStudyDay != today {
		t.Fatalf("state changed on rejected record: %+v", got)
	}
}

func TestStreakLongestNeverDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var s Streak
	d := day("2023-01-01")
	for i := 0; i < 2000; i++ {
		d = d.AddDays(rng.Intn(4))
		prev := s.Longest
		next, err := s.Record(d)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if next.Longest < prev {
			t.Fatalf("step %d: longest decreased %d -> %d", i, prev, next.Longest)
		}
		if next.Longest < next.Current {
			t.Fatalf("step %d: longest %d < current %d", i, next.Longest, next.Current)
		}
		s = next
	}
}

func TestDaysSinceAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-10 is the spring-forward day in New York; the wall-clock gap is 23h.
	before := time.Date(2024, 3, 9, 23, 30, 0, 0, ny)
	after := time.Date(2024, 3, 10, 23, 0, 0, 0, ny)
	if got := DateOf(after, ny).DaysSince(DateOf(before, ny)); got != 1 {
		t.Fatalf("DaysSince: want=1 got=%d", got)
	}
	late := time.Date(2024, 3, 9, 23, 59, 0, 0, ny)
	early := time.Date(2024, 3, 10, 0, 1, 0, 0, ny)
	if got := DateOf(early, ny).DaysSince(DateOf(late, ny)); got != 1 {
		t.Fatalf("DaysSince midnight: want=1 got=%d", got)
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	utc := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	kolkata := time.FixedZone("IST", 5*3600+1800)
	la := time.FixedZone("PDT", -7*3600)
	if got := DateOf(utc, kolkata); got != day("2024-06-01") {
		t.Fatalf("IST: got=%s", got)
	}
	if got := DateOf(utc, la); got != day("2024-05-31") {
		t.Fatalf("PDT: got=%s", got)
	}
}

func TestStreakJSONRoundTrip(t *testing.T) {
	d := day("2024-02-29")
	b, err := json.Marshal(Streak{Current: 3, Longest: 9, LastStudyDay: &d})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"currentStreak":3,"longestStreak":9,"lastStudyDay":"2024-02-29"}`
	if string(b) != want {
		t.Fatalf("json: want=%s got=%s", want, b)
	}
	var back Streak
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.LastStudyDay == nil || *back.LastStudyDay != d {
		t.Fatalf("lastStudyDay: got=%v", back.LastStudyDay)
	}
}

func TestHeatmapLastWriteWins(t *testing.T) {
	h := Heatmap{}
	h.Set("biology", 40)
	h.Set("physics", 90)
	h.Set("biology", 75)
	if got, _ := h.Get("biology"); got != 75 {
		t.Fatalf("biology: want=75 got=%v", got)
	}
	if len(h) != 2 {
		t.Fatalf("len: want=2 got=%d", len(h))
	}
	snap := h.Snapshot()
	snap["biology"] = 0
	if got, _ := h.Get("biology"); got != 75 {
		t.Fatalf("snapshot aliases heatmap")
	}
	if Heatmap(nil).Snapshot() == nil {
		t.Fatalf("nil heatmap snapshot: want empty map")
	}
}

func TestTopicFromFileName(t *testing.T) {
	cases := map[string]string{
		"biology.pdf":          "biology",
		"ch1.final.pdf":        "ch1.final",
		"uploads/notes.docx":   "notes",
		"  Organic Chem.PNG  ": "Organic Chem",
		"README":               "README",
	}
	for in, want := range cases {
		if got := TopicFromFileName(in); got != want {
			t.Fatalf("TopicFromFileName(%q): want=%q got=%q", in, want, got)
		}
	}
}
