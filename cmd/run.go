package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sergev/gimbal/clock"
	"github.com/sergev/gimbal/config"
	"github.com/sergev/gimbal/driver"
	"github.com/sergev/gimbal/imu"
	"github.com/sergev/gimbal/stabilizer"
	"github.com/sergev/gimbal/telemetry"

	"github.com/spf13/cobra"
)

var (
	runTorque    bool
	runTelemetry string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stabilization loop against the connected hardware",
	Long: "Run the stabilization loop: attitude samples from the sensor drive " +
		"the feedback law and the motor outputs, while a 1 ms watchdog tick " +
		"guards against a stalled sensor stream.",
	Run: func(cmd *cobra.Command, args []string) {
		board, err := driver.Find()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to find motor driver board: %w", err))
		}
		defer board.Close()

		clk := clock.NewMonotonic()
		sensor, err := imu.Find(clk)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to find attitude sensor: %w", err))
		}
		defer sensor.Close()

		// Telemetry snapshots go to stdout unless a file is given.
		var sink io.Writer = os.Stdout
		if runTelemetry != "" {
			file, err := os.Create(runTelemetry)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to create telemetry file: %w", err))
			}
			defer file.Close()
			sink = file
		}
		registry := telemetry.NewRegistry(sink)

		cfg := config.Gimbal
		stab, err := stabilizer.New(clk, &cfg, registry,
			board.EnableLine(), board.Motor(1), board.Motor(2))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create stabilizer: %w", err))
		}
		stab.SetTorque(config.Torque || runTorque)

		sensor.Subscribe(stab)
		readErr := make(chan error, 1)
		go func() {
			readErr <- sensor.Run()
		}()

		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		fmt.Printf("Stabilizer running, press Ctrl-C to stop\n")
		for {
			select {
			case <-ticker.C:
				stab.PollTick()
			case err := <-readErr:
				safeShutdown(board)
				cobra.CheckErr(fmt.Errorf("sensor stream failed: %w", err))
			case <-sig:
				fmt.Printf("Shutting down\n")
				safeShutdown(board)
				return
			}
		}
	},
}

// safeShutdown leaves the board in the disabled, all-zero output state.
func safeShutdown(board driver.MotorDriver) {
	board.EnableLine().Set(false)
	board.Motor(1).Set(0, 0, 0)
	board.Motor(2).Set(0, 0, 0)
}

func init() {
	runCmd.Flags().BoolVar(&runTorque, "torque", false, "apply motor power once operating")
	runCmd.Flags().StringVar(&runTelemetry, "telemetry", "", "write telemetry snapshots to FILE instead of stdout")
	rootCmd.AddCommand(runCmd)
}
