package main

import (
	"fmt"

	"github.com/2beens/fittracker/internal/estimator"
	"github.com/2beens/fittracker/internal/progress"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type predictOptions struct {
	modelPath  string
	scalerPath string

	age       int
	height    int
	weight    int
	heartRate int
	duration  int
	bodyTemp  float64
	steps     int
}

func newPredictCmd(rootOpts *rootOptions) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Estimate calories burned for a single workout",
		Long: `Runs the calorie model the service uses. The MET estimate is printed
for comparison only, the service never stores it.

Without --model and --scaler the artifact paths come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workout := progress.Workout{
				Duration:   opts.duration,
				HeartRate:  opts.heartRate,
				BodyTemp:   opts.bodyTemp,
				StepsTaken: opts.steps,
			}
			if err := workout.Validate(); err != nil {
				return err
			}

			modelPath, scalerPath := opts.modelPath, opts.scalerPath
			if modelPath == "" || scalerPath == "" {
				cfg, err := rootOpts.loadConfig()
				if err != nil {
					return fmt.Errorf("no --model/--scaler given and config failed: %w", err)
				}
				modelPath, scalerPath = cfg.ModelPath, cfg.ScalerPath
			}

			model, err := estimator.LoadModel(modelPath, scalerPath)
			if err != nil {
				return err
			}

			calories, err := model.Predict(estimator.Features{
				Age:       float64(opts.age),
				Height:    float64(opts.height),
				Weight:    float64(opts.weight),
				Duration:  float64(opts.duration),
				HeartRate: float64(opts.heartRate),
				BodyTemp:  opts.bodyTemp,
				Steps:     float64(opts.steps),
			})
			if err != nil {
				return err
			}
			met := estimator.METCalories(float64(opts.weight), float64(opts.duration), float64(opts.steps), float64(opts.heartRate))

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			bold.Fprintf(out, "calories: %.2f\n", calories)
			color.New(color.Faint).Fprintf(out, "met estimate: %.2f\n", met)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.modelPath, "model", "", "regressor artifact (JSON)")
	flags.StringVar(&opts.scalerPath, "scaler", "", "scaler artifact (JSON)")
	flags.IntVar(&opts.age, "age", 30, "age in years")
	flags.IntVar(&opts.height, "height", 175, "height in cm")
	flags.IntVar(&opts.weight, "weight", 70, "weight in kg")
	flags.IntVar(&opts.duration, "duration", 30, "workout duration in minutes")
	flags.IntVar(&opts.heartRate, "heart-rate", 120, "average heart rate in bpm")
	flags.Float64Var(&opts.bodyTemp, "body-temp", 37.0, "body temperature in °C")
	flags.IntVar(&opts.steps, "steps", 0, "steps taken")

	return cmd
}
