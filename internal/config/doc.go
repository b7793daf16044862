// Package config collects every environment-variable-driven setting
// cmd/engine needs, with the defaults-on-zero-value pattern this repo's
// other configuration struct uses.
//
// Grounded on wal/config.go's Config/New, which fills in a default for
// every zero field instead of requiring every caller to specify
// everything; extended with chycee-CryptoGo/internal/infra/config.go's
// env-var-override convention for the fields that now come from the
// environment instead of a struct literal.
package config
