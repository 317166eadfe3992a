package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if got := clock.Now().In(FixtureLocation); got.Weekday() != time.Wednesday || got.Hour() != 10 {
		t.Fatalf("expected Wednesday 10:00 local, got %v", got)
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}
}

func TestClockLocalDates(t *testing.T) {
	// 2024-01-02 20:00 UTC is already 2024-01-03 in UTC+9.
	clock := NewClock(time.Date(2024, time.January, 2, 20, 0, 0, 0, time.UTC))

	today := clock.Today()
	if want := time.Date(2024, time.January, 3, 0, 0, 0, 0, FixtureLocation); !today.Equal(want) {
		t.Fatalf("expected local date %v, got %v", want, today)
	}

	tomorrow := clock.Local(1, 9, 30)
	if want := time.Date(2024, time.January, 4, 0, 30, 0, 0, time.UTC); !tomorrow.Equal(want) {
		t.Fatalf("expected %v, got %v", want, tomorrow)
	}

	clock.In(time.UTC)
	if want := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC); !clock.Today().Equal(want) {
		t.Fatalf("expected UTC date %v, got %v", want, clock.Today())
	}
}
