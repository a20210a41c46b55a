package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/onair/internal/config"
	"github.com/BioHazard786/onair/internal/ui"
	"github.com/BioHazard786/onair/internal/version"
)

var flagConfig config.Options

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "onair",
	Short:   "Go live in a room and let anyone listen over WebRTC",
	Long:    `OnAir opens a live room on a signaling relay. The speaker types, every listener sees each line as it is said, straight over a peer-to-peer WebRTC data channel.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&flagConfig.Domain, "domain", "d", "", "Relay domain (tries wss://<domain>/ws then /api/ws)")
	f.StringSliceVar(&flagConfig.ServerURLs, "server", nil, "Explicit relay websocket URL, tried first (repeatable)")
	f.StringVarP(&flagConfig.STUNServer, "stun", "s", "", "Custom STUN server")
	f.StringVarP(&flagConfig.TURNServer, "turn", "t", "", "Custom TURN server")
	f.StringVar(&flagConfig.TURNUser, "turn-user", "", "TURN username")
	f.StringVar(&flagConfig.TURNPass, "turn-pass", "", "TURN password")
	f.BoolVarP(&flagConfig.ForceRelay, "relay", "r", false, "Force relay mode")
}
