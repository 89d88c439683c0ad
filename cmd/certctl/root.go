package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "certctl",
		Short:         "certflow operator client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("server", "http://localhost:8080", "certflow server base URL")
	root.PersistentFlags().String("token", "", "bearer token from POST /auth/login")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "HTTP request timeout")

	root.AddCommand(
		keygenCommand(),
		signCommand(),
		loginCommand(),
		roleCommand(),
		pendingCommand(),
		certificatesCommand(),
		verifyCommand(),
	)
	return root
}

// settings binds the parsed flags of cmd, inherited ones included, so each
// value can also come from a CERTCTL_ environment variable.
func settings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("CERTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

func clientFrom(v *viper.Viper) *client {
	return newClient(v.GetString("server"), v.GetString("token"), v.GetDuration("timeout"))
}
