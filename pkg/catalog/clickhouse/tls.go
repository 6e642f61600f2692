package clickhouse

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

type (
	// TLSSettings locates the files used for mutual TLS.
	TLSSettings struct {
		CertFile string
		KeyFile  string
		CAFile   string
	}

	// Option customizes how Open connects.
	Option func(*options)

	options struct {
		tls *tls.Config
	}
)

// Enabled reports whether any TLS file is configured.
func (s TLSSettings) Enabled() bool {
	return s.CertFile != "" || s.KeyFile != "" || s.CAFile != ""
}

// LoadTLSConfig creates a TLS config for connecting to ClickHouse over mTLS.
//
// Example usage:
//
//	cfg, err := LoadTLSConfig(TLSSettings{CertFile: "tls.crt", KeyFile: "tls.key", CAFile: "ca.crt"})
//	if err != nil {
//		return err
//	}
//
//	cat, err := Open(ctx, dsn, WithTLS(cfg))
func LoadTLSConfig(s TLSSettings) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load certfile/keyfile")
	}

	caCert, err := os.ReadFile(s.CAFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load cafile")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.Errorf("no certificates found in %s", s.CAFile)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// WithTLS connects over TLS with cfg, overriding any TLS settings in the DSN.
func WithTLS(cfg *tls.Config) Option {
	return func(o *options) {
		o.tls = cfg
	}
}
