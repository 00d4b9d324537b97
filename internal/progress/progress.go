package progress

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrMissingProfile = errors.New("profile required before logging a workout")
	ErrInvalidWorkout = errors.New("invalid workout")
)

const (
	MinDuration  = 1
	MaxDuration  = 300
	MinHeartRate = 40
	MaxHeartRate = 200
	MinBodyTemp  = 35.0
	MaxBodyTemp  = 42.0
	MinSteps     = 0
	MaxSteps     = 50000
)

// Workout is what the user submits: duration in minutes, heart rate in bpm, body temperature in °C.
type Workout struct {
	Duration   int     `json:"duration"`
	HeartRate  int     `json:"heartRate"`
	BodyTemp   float64 `json:"bodyTemp"`
	StepsTaken int     `json:"stepsTaken"`
}

func (w Workout) Validate() error {
	if w.Duration < MinDuration || w.Duration > MaxDuration {
		return fmt.Errorf("%w: duration must be in [%d, %d]", ErrInvalidWorkout, MinDuration, MaxDuration)
	}
	if w.HeartRate < MinHeartRate || w.HeartRate > MaxHeartRate {
		return fmt.Errorf("%w: heart rate must be in [%d, %d]", ErrInvalidWorkout, MinHeartRate, MaxHeartRate)
	}
	if math.IsNaN(w.BodyTemp) || w.BodyTemp < MinBodyTemp || w.BodyTemp > MaxBodyTemp {
		return fmt.Errorf("%w: body temperature must be in [%.1f, %.1f]", ErrInvalidWorkout, MinBodyTemp, MaxBodyTemp)
	}
	if w.StepsTaken < MinSteps || w.StepsTaken > MaxSteps {
		return fmt.Errorf("%w: steps must be in [%d, %d]", ErrInvalidWorkout, MinSteps, MaxSteps)
	}
	return nil
}

// Entry is a stored workout. Date has calendar-day granularity.
type Entry struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Date           time.Time `json:"date"`
	Duration       int       `json:"duration"`
	HeartRate      int       `json:"heartRate"`
	BodyTemp       float64   `json:"bodyTemp"`
	StepsTaken     int       `json:"stepsTaken"`
	CaloriesBurned float64   `json:"caloriesBurned"`
}

type Point struct {
	Date     time.Time `json:"date"`
	Calories float64   `json:"calories"`
}

// ChartSeries re-sorts (date, calories) pairs ascending by date, keeping the input order of same-day entries.
func ChartSeries(entries []Entry) []Point {
	points := make([]Point, 0, len(entries))
	for _, e := range entries {
		points = append(points, Point{Date: e.Date, Calories: e.CaloriesBurned})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// Today is the calendar day of t (in t's location) as UTC midnight, the form DATE columns round-trip as.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
