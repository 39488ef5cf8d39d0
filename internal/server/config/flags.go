package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/triagekeeper/internal/flagx"
)

// parseFlags overlays command-line flags. Secrets other than the encryption
// key are deliberately not accepted on the command line.
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-d string     PostgreSQL DSN
//	-k string     encryption key secret
//	-i uint       encryption key id written into new blobs
//	-kdf string   key derivation: pad or argon2id
//	-s string     JWT HMAC secret
//	-u string     hosted auth base URL
//	-t duration   erasure timeout
//	-b string     S3 bucket
//	-g string     S3 region
//	-e string     S3 base endpoint
//	-l string     log level
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-k", "-i", "-kdf", "-s", "-u", "-t", "-b", "-g", "-e", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "encryption key")
	keyID := fs.Uint("i", uint(config.EncryptionKeyID), "encryption key id (1-255)")
	fs.StringVar(&config.KeyDerivation, "kdf", config.KeyDerivation, "key derivation (pad|argon2id)")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret")
	fs.StringVar(&config.AuthBaseURL, "u", config.AuthBaseURL, "auth service base URL")
	fs.DurationVar(&config.ErasureTimeout, "t", config.ErasureTimeout, "erasure timeout")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyID > 255 {
		return fmt.Errorf("flag -i: key id %d does not fit in one byte", *keyID)
	}
	config.EncryptionKeyID = uint8(*keyID)
	return nil
}
