package cli

import (
	"fmt"
	"time"

	mocktls "github.com/getmockd/cannedmock/pkg/tls"
	"github.com/spf13/cobra"
)

func newGencertCommand() *cobra.Command {
	var (
		keyPath  string
		certPath string
		hosts    []string
		org      string
		validFor time.Duration
	)

	defaults := mocktls.DefaultCertificateConfig()

	cmd := &cobra.Command{
		Use:   "gencert",
		Short: "Write a self-signed TLS key and certificate for the HTTPS listener",
		Example: `  cannedmock gencert --key server.key --cert server.crt
  cannedmock gencert --key k.pem --cert c.pem --host localhost --host 10.0.0.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			material, err := mocktls.GenerateSelfSigned(&mocktls.CertificateConfig{
				Organization: org,
				Hosts:        hosts,
				ValidFor:     validFor,
			})
			if err != nil {
				return err
			}
			if err := material.WriteFiles(keyPath, certPath); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote key to %s and certificate to %s (valid until %s)\n",
				keyPath, certPath, material.Certificate.NotAfter.Format(time.RFC3339))
			return err
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "Output path for the PEM private key")
	cmd.Flags().StringVar(&certPath, "cert", "", "Output path for the PEM certificate")
	cmd.Flags().StringSliceVar(&hosts, "host", defaults.Hosts, "DNS name or IP the certificate is valid for (repeatable)")
	cmd.Flags().StringVar(&org, "org", defaults.Organization, "Certificate organization")
	cmd.Flags().DurationVar(&validFor, "valid-for", defaults.ValidFor, "Certificate validity period")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("cert")
	return cmd
}
