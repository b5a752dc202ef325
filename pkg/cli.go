package pkg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"adb-socket-go/pkg/adb"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config  string
	host    string
	port    int
	timeout time.Duration
	verbose bool
}

// NewRootCommand 构建命令树
func NewRootCommand(logger *logrus.Logger) *cobra.Command {
	flags := &rootFlags{}

	var rootCmd = &cobra.Command{
		Use:           "adbsock",
		Short:         "Talks to a local ADB server over its TCP protocol.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", adb.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVarP(&flags.host, "host", "H", "", "ADB server host")
	rootCmd.PersistentFlags().IntVarP(&flags.port, "port", "P", 0, "ADB server port")
	rootCmd.PersistentFlags().DurationVarP(&flags.timeout, "timeout", "t", 0, "connect timeout")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	client := func() (*adb.Client, error) {
		cfg, err := adb.LoadConfig(flags.config)
		if err != nil {
			return nil, err
		}
		if flags.host != "" {
			cfg.Host = flags.host
		}
		if flags.port != 0 {
			cfg.Port = flags.port
		}
		if flags.timeout != 0 {
			cfg.Timeout = flags.timeout
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		if flags.verbose {
			level = logrus.DebugLevel
		}
		logger.SetLevel(level)

		return adb.NewClient(cfg.Options(logger)), nil
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the ADB server protocol version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			version, err := c.Version()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}

	var devicesCmd = &cobra.Command{
		Use:   "devices",
		Short: "Lists attached devices.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			devices, err := c.Devices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.Serial, d.State)
			}
			return nil
		},
	}

	var killCmd = &cobra.Command{
		Use:   "kill",
		Short: "Stops the ADB server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			return c.Kill()
		},
	}

	var shellCmd = &cobra.Command{
		Use:   "shell <serial> <command>...",
		Short: "Runs a shell command on a device and prints its output.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			output, err := c.Shell(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(output)
			return err
		},
	}

	var rawCmd = &cobra.Command{
		Use:   "raw <service>",
		Short: "Sends a host service request and prints the response frame.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			value, err := c.Raw(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(value))
			return nil
		},
	}

	rootCmd.AddCommand(versionCmd, devicesCmd, killCmd, shellCmd, rawCmd)
	return rootCmd
}

// Execute 运行命令行
func Execute() {
	logger := logrus.New()
	if err := NewRootCommand(logger).Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
