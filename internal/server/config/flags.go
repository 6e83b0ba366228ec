package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/dormnet/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-r string     registry PostgreSQL DSN
//	-t string     traffic PostgreSQL DSN
//	-l string     ledger PostgreSQL DSN
//	-u string     user database admin DSN
//	-d string     LDAP URL
//	-s string     JWT HMAC secret key
//	-k string     Kafka brokers, comma separated
//	-o duration   per store call timeout (e.g., "3s")
//	-m            run development migrations
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with -c/-env handled elsewhere.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-t", "-l", "-u", "-d", "-s", "-k", "-o", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.RegistryDSN, "r", config.RegistryDSN, "registry database DSN")
	fs.StringVar(&config.TrafficDSN, "t", config.TrafficDSN, "traffic database DSN")
	fs.StringVar(&config.LedgerDSN, "l", config.LedgerDSN, "ledger database DSN")
	fs.StringVar(&config.UserDBDSN, "u", config.UserDBDSN, "user database admin DSN")
	fs.StringVar(&config.LDAPURL, "d", config.LDAPURL, "LDAP URL")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	brokers := fs.String("k", "", "kafka brokers, comma separated")
	fs.DurationVar(&config.StoreTimeout, "o", config.StoreTimeout, "per store call timeout")
	fs.BoolVar(&config.RunMigrations, "m", config.RunMigrations, "run development migrations")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *brokers != "" {
		config.KafkaBrokers = splitList(*brokers)
	}
}
