package estimator

import "math"

const numFeatures = 7

// Features are the model inputs. Height in cm, weight in kg, duration in minutes,
// heart rate in bpm, body temperature in °C.
type Features struct {
	Age       float64 `json:"age"`
	Height    float64 `json:"height"`
	Weight    float64 `json:"weight"`
	Duration  float64 `json:"duration"`
	HeartRate float64 `json:"heartRate"`
	BodyTemp  float64 `json:"bodyTemp"`
	Steps     float64 `json:"steps"`
}

// Vector returns the features in the order the model was fitted on.
func (f Features) Vector() [numFeatures]float64 {
	return [numFeatures]float64{
		f.Age,
		f.Height,
		f.Weight,
		f.Duration,
		f.HeartRate,
		f.BodyTemp,
		f.Steps,
	}
}

type Predictor interface {
	Predict(f Features) (float64, error)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// METCalories is the rough metabolic-equivalent estimate: met = hr/100 + steps/10000,
// kcal = met * weight * minutes / 60.
func METCalories(weight, duration, steps, heartRate float64) float64 {
	met := heartRate/100 + steps/10000
	return round2(met * weight * duration / 60)
}
