package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"certflow/internal/identity"
	"certflow/pkg/domain"
)

func loginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "sign a server challenge with a sealed key and print the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := settings(cmd)
			if err != nil {
				return err
			}
			signer, err := loadSigner(conf)
			if err != nil {
				return err
			}
			c := clientFrom(conf)
			ctx := cmd.Context()

			var challenge struct {
				Message string `json:"message"`
			}
			if err := c.do(ctx, http.MethodPost, "/auth/challenge",
				map[string]string{"identity": signer.Identity().String()}, &challenge); err != nil {
				return err
			}
			sig, err := identity.SignMessage(signer, []byte(challenge.Message))
			if err != nil {
				return err
			}
			var session struct {
				AccessToken string `json:"access_token"`
			}
			if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
				"identity":  signer.Identity().String(),
				"signature": hexutil.Encode(sig),
			}, &session); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.AccessToken)
			return nil
		},
	}
	cmd.Flags().String("key", "", "sealed key file")
	cmd.Flags().String("passphrase", "", "passphrase of the sealed key")
	return cmd
}

func roleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "role <identity>",
		Short: "resolve the role an identity holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			return get(cmd, "/roles/"+url.PathEscape(id.String()))
		},
	}
}

func pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "list certificate requests awaiting the caller's decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return get(cmd, "/requests/pending")
		},
	}
}

func certificatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "certificates <identity>",
		Short: "list the certificates held by an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			return get(cmd, "/holders/"+url.PathEscape(id.String())+"/certificates")
		},
	}
}

func verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate-id>",
		Short: "check whether a certificate's issuer is still authorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseCertificateID(args[0])
			if err != nil {
				return err
			}
			return get(cmd, "/certificates/"+id.String()+"/verification")
		},
	}
}

func get(cmd *cobra.Command, path string) error {
	conf, err := settings(cmd)
	if err != nil {
		return err
	}
	var out json.RawMessage
	if err := clientFrom(conf).do(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}
