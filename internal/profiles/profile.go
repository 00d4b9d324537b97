package profiles

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnknownUser     = errors.New("unknown user")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrInvalidGender   = errors.New("invalid gender")
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts any casing, e.g. "Male" as sent by the form.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
	}
}

const (
	MinAge    = 10
	MaxAge    = 100
	MinHeight = 100
	MaxHeight = 250
	MinWeight = 30
	MaxWeight = 200
	MinBMI    = 5.0
	MaxBMI    = 50.0
)

// Profile holds the body metrics of a single user. Height is in cm, weight in kg.
type Profile struct {
	Username string   `json:"username"`
	Gender   Gender   `json:"gender"`
	Age      int      `json:"age"`
	Height   int      `json:"height"`
	Weight   int      `json:"weight"`
	BMI      *float64 `json:"bmi,omitempty"`
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("%w: username missing", ErrInvalidProfile)
	}
	if _, err := ParseGender(string(p.Gender)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, err)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("%w: age must be in [%d, %d]", ErrInvalidProfile, MinAge, MaxAge)
	}
	if p.Height < MinHeight || p.Height > MaxHeight {
		return fmt.Errorf("%w: height must be in [%d, %d]", ErrInvalidProfile, MinHeight, MaxHeight)
	}
	if p.Weight < MinWeight || p.Weight > MaxWeight {
		return fmt.Errorf("%w: weight must be in [%d, %d]", ErrInvalidProfile, MinWeight, MaxWeight)
	}
	if p.BMI != nil && (*p.BMI < MinBMI || *p.BMI > MaxBMI || math.IsNaN(*p.BMI)) {
		return fmt.Errorf("%w: bmi must be in [%.1f, %.1f]", ErrInvalidProfile, MinBMI, MaxBMI)
	}
	return nil
}

// CalculateBMI returns weight / height^2 rounded to one decimal, height in cm and weight in kg.
func CalculateBMI(height, weight int) (float64, error) {
	if height <= 0 || weight <= 0 {
		return 0, fmt.Errorf("%w: height and weight must be positive", ErrInvalidProfile)
	}
	h := float64(height) / 100
	bmi := float64(weight) / (h * h)
	return math.Round(bmi*10) / 10, nil
}
