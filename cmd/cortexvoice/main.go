package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cortexhq/cortexvoice/internal/bus"
	"github.com/cortexhq/cortexvoice/internal/config"
	"github.com/cortexhq/cortexvoice/internal/daemon"
	"github.com/cortexhq/cortexvoice/internal/deps"
	"github.com/cortexhq/cortexvoice/internal/tui"
)

func main() {
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "cortexvoice",
	Short: "Voice transcription for Cortex",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		startCmd(),
		pauseCmd(),
		resumeCmd(),
		stopCmd(),
		statusCmd(),
		versionCmd(),
		quitCmd(),
		configureCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New()
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

// sessionCmd builds a command that forwards one control byte to the daemon
// and prints its reply.
func sessionCmd(use, short string, letter byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(letter)
			if err != nil {
				return fmt.Errorf("failed to reach daemon (is it running?): %w", err)
			}
			fmt.Print(resp)
			if strings.HasPrefix(resp, "ERR") {
				return fmt.Errorf("daemon rejected %s", use)
			}
			return nil
		},
	}
}

func startCmd() *cobra.Command {
	return sessionCmd("start", "Start a transcription session", 'r')
}

func pauseCmd() *cobra.Command {
	return sessionCmd("pause", "Pause audio capture", 'p')
}

func resumeCmd() *cobra.Command {
	return sessionCmd("resume", "Resume audio capture", 'u')
}

func stopCmd() *cobra.Command {
	return sessionCmd("stop", "Finish the session and deliver the transcript", 'f')
}

func statusCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('s')
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if raw {
				fmt.Print(resp)
				return nil
			}
			info, err := tui.ParseStatus(resp)
			if err != nil {
				fmt.Print(resp)
				return nil
			}
			fmt.Println(tui.RenderStatus(info))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw daemon reply (for scripting)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('v')
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func quitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand('q')
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration form for cortexvoice.
This will guide you through setting up:
- The Cortex transcription endpoint and access token
- Audio capture
- LLM transcript polish
- Transcript delivery and notification preferences`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.DefaultConfig()
	} else if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration form error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Println()
	showNextSteps()

	return nil
}

func showNextSteps() {
	fmt.Println("Next Steps:")
	fmt.Println("1. Start the daemon: cortexvoice serve (or systemctl --user start cortexvoice.service)")
	fmt.Println("2. Start a session: cortexvoice start")
	fmt.Println("3. Finish and deliver: cortexvoice stop")
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools cortexvoice depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := []struct {
				name     string
				status   deps.Status
				required bool
				hint     string
			}{
				{"pw-record", deps.CheckPwRecord(), true, "install pipewire-utils"},
				{"pw-cli", deps.CheckPwCli(), true, "install pipewire-utils"},
				{"notify-send", deps.CheckNotifySend(), false, "install libnotify (desktop notifications)"},
				{"clipboard", deps.CheckClipboardTool(), false, "install wl-clipboard or xclip (clipboard delivery)"},
			}

			missingRequired := false
			for _, c := range checks {
				if c.status.Installed {
					line := fmt.Sprintf("[ok] %s (%s)", c.name, c.status.Path)
					if c.status.Version != "" {
						line += " " + c.status.Version
					}
					fmt.Println(line)
					continue
				}

				if c.required {
					missingRequired = true
					fmt.Printf("[missing] %s - %s\n", c.name, c.hint)
				} else {
					fmt.Printf("[optional] %s not found - %s\n", c.name, c.hint)
				}
			}

			if missingRequired {
				return fmt.Errorf("required tools missing")
			}
			return nil
		},
	}
}
