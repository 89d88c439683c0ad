package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"certflow/internal/identity"
	"certflow/pkg/domain"
)

func keygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate a sealed secp256k1 wallet key and print its identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := settings(cmd)
			if err != nil {
				return err
			}
			out := conf.GetString("out")
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			passphrase := conf.GetString("passphrase")
			if passphrase == "" {
				return fmt.Errorf("--passphrase is required")
			}
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}

			key, err := crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			sealed, err := identity.Seal(key, passphrase)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, sealed, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), domain.IdentityFromAddress(crypto.PubkeyToAddress(key.PublicKey)))
			return nil
		},
	}
	cmd.Flags().String("out", "", "path of the sealed key file to create")
	cmd.Flags().String("passphrase", "", "passphrase sealing the key")
	return cmd
}

func signCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "produce an EIP-191 signature over a message, as used by POST /auth/login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := settings(cmd)
			if err != nil {
				return err
			}
			signer, err := loadSigner(conf)
			if err != nil {
				return err
			}
			sig, err := identity.SignMessage(signer, []byte(conf.GetString("message")))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().String("key", "", "sealed key file")
	cmd.Flags().String("passphrase", "", "passphrase of the sealed key")
	cmd.Flags().String("message", "", "message to sign")
	return cmd
}

func loadSigner(conf *viper.Viper) (*identity.KeySigner, error) {
	path := conf.GetString("key")
	if path == "" {
		return nil, fmt.Errorf("--key is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	key, err := identity.Open(data, conf.GetString("passphrase"))
	if err != nil {
		return nil, err
	}
	return identity.NewKeySigner(key), nil
}
