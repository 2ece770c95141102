package cmd

import (
	"fmt"

	"github.com/sergev/gimbal/clock"
	"github.com/sergev/gimbal/config"
	"github.com/sergev/gimbal/driver"
	"github.com/sergev/gimbal/imu"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the gimbal hardware",
	Long:  "Check the motor driver board and attitude sensor, and show the loaded configuration.",
	Run: func(cmd *cobra.Command, args []string) {
		board, err := driver.Find()
		if err != nil {
			fmt.Printf("Motor Driver Board: Not detected\n")
		} else {
			board.PrintStatus()
			board.Close()
		}

		fmt.Printf("\n")
		sensor, err := imu.Find(clock.NewMonotonic())
		if err != nil {
			fmt.Printf("Attitude Sensor: Not detected\n")
		} else {
			fmt.Printf("Attitude Sensor: Connected\n")
			sensor.Close()
		}

		fmt.Printf("\nConfiguration script: ~/.gimbal\n")
		fmt.Printf("Settling Period: %g s\n", config.Gimbal.InitializationPeriodS)
		fmt.Printf("Watchdog Period: %g s\n", config.Gimbal.WatchdogPeriodS)
		fmt.Printf("Pitch Axis: motor port %d\n", config.Gimbal.Pitch.Motor)
		fmt.Printf("Yaw Axis: motor port %d\n", config.Gimbal.Yaw.Motor)
		fmt.Printf("Torque On Start: %v\n", config.Torque)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
