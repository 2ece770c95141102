package cmd

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sergev/gimbal/ahrs"
	"github.com/sergev/gimbal/clock"
	"github.com/sergev/gimbal/config"
	"github.com/sergev/gimbal/stabilizer"
	"github.com/sergev/gimbal/telemetry"

	"github.com/spf13/cobra"
)

var (
	simDuration  float64
	simRate      float64
	simDropout   float64
	simYaw       float64
	simTelemetry string
)

// simEnable records the simulated enable line state.
type simEnable struct {
	on bool
}

func (e *simEnable) Set(on bool) { e.on = on }

// simMotor records the last duty triple written to one port.
type simMotor struct {
	a, b, c uint16
	writes  int
}

func (m *simMotor) Set(a, b, c uint16) {
	m.a, m.b, m.c = a, b, c
	m.writes++
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the control loop offline against a synthetic sensor",
	Long: "Run the stabilization loop deterministically with a simulated clock " +
		"and a synthetic attitude stream, without any hardware attached. " +
		"Useful for checking gains and the settling/watchdog timing.",
	Run: func(cmd *cobra.Command, args []string) {
		clk := clock.NewSimulated(1e6)

		var sink io.Writer = io.Discard
		if simTelemetry != "" {
			file, err := os.Create(simTelemetry)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to create telemetry file: %w", err))
			}
			defer file.Close()
			sink = file
		}
		registry := telemetry.NewRegistry(sink)

		enable := &simEnable{}
		motor1 := &simMotor{}
		motor2 := &simMotor{}

		cfg := config.Gimbal
		stab, err := stabilizer.New(clk, &cfg, registry, enable, motor1, motor2)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create stabilizer: %w", err))
		}
		stab.SetTorque(true)

		samplePeriod := 1.0 / simRate
		nextSample := 0.0
		lastState := stab.State()
		fmt.Printf("%8.3f s  state %v\n", 0.0, lastState)

		// Step the host scheduler at 1 ms, the same period the run
		// command uses for the watchdog tick.
		for t := 0.0; t < simDuration; t += 0.001 {
			if t >= nextSample && (simDropout <= 0 || t < simDropout) {
				sample := syntheticSample(t)
				sample.Timestamp = clk.Timestamp()
				stab.HandleSample(sample)
				nextSample += samplePeriod
			}

			clk.AdvanceSeconds(0.001)
			stab.PollTick()

			if state := stab.State(); state != lastState {
				fmt.Printf("%8.3f s  state %v\n", t, state)
				lastState = state
			}
		}

		data := stab.Snapshot()
		fmt.Printf("\nFinal state: %v\n", data.State)
		fmt.Printf("Desired: pitch %.2f deg, yaw %.2f deg\n",
			data.DesiredDeg.Pitch, data.DesiredDeg.Yaw)
		fmt.Printf("Enable line: %v\n", enable.on)
		fmt.Printf("Motor 1: %5d %5d %5d (%d writes)\n", motor1.a, motor1.b, motor1.c, motor1.writes)
		fmt.Printf("Motor 2: %5d %5d %5d (%d writes)\n", motor2.a, motor2.b, motor2.c, motor2.writes)
	},
}

// syntheticSample produces an error-free attitude reading with a slow
// pitch disturbance around the commanded yaw heading.
func syntheticSample(t float64) *ahrs.Sample {
	const disturbanceHz = 0.5
	const disturbanceDeg = 2.0

	omega := 2 * math.Pi * disturbanceHz
	return &ahrs.Sample{
		EulerDeg: ahrs.Euler{
			Pitch: disturbanceDeg * math.Sin(omega*t),
			Yaw:   simYaw,
		},
		BodyRateDPS: ahrs.BodyRate{
			X: disturbanceDeg * omega * math.Cos(omega*t),
		},
		RateHz: simRate,
	}
}

func init() {
	simCmd.Flags().Float64Var(&simDuration, "duration", 3.0, "simulated run time in seconds")
	simCmd.Flags().Float64Var(&simRate, "rate", 100, "attitude sample rate in Hz")
	simCmd.Flags().Float64Var(&simDropout, "dropout", 0, "stop the sample stream at this time to exercise the watchdog (0 = never)")
	simCmd.Flags().Float64Var(&simYaw, "yaw", 30, "simulated heading in degrees")
	simCmd.Flags().StringVar(&simTelemetry, "telemetry", "", "write telemetry snapshots to FILE")
	rootCmd.AddCommand(simCmd)
}
