package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "DORMNET_"

// parseEnv overlays Config with DORMNET_* environment variables. When the
// -env flag names a dotenv file it is loaded first; variables already set
// in the process environment win over the file. A missing or unreadable
// file panics, same as a broken JSON config.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("REGISTRY_DSN", &config.RegistryDSN)
	str("TRAFFIC_DSN", &config.TrafficDSN)
	str("LEDGER_DSN", &config.LedgerDSN)
	str("USERDB_DSN", &config.UserDBDSN)
	str("LDAP_URL", &config.LDAPURL)
	str("LDAP_BIND_DN", &config.LDAPBindDN)
	str("LDAP_BIND_PASSWORD", &config.LDAPBindPassword)
	str("LDAP_USER_BASE_DN", &config.LDAPUserBaseDN)
	str("LDAP_GROUP_BASE_DN", &config.LDAPGroupBaseDN)
	str("ACTIVE_GROUP", &config.ActiveGroup)
	str("EXACTIVE_GROUP", &config.ExactiveGroup)
	str("SECRET_KEY", &config.SecretKey)
	dur("TOKEN_VALIDITY", &config.TokenValidityDuration)
	dur("STORE_TIMEOUT", &config.StoreTimeout)
	dur("PERIOD_CUTOVER", &config.PeriodCutover)
	if v, ok := os.LookupEnv(EnvPrefix + "KAFKA_BROKERS"); ok {
		config.KafkaBrokers = splitList(v)
	}
	str("KAFKA_TOPIC", &config.KafkaTopic)
	str("LOG_BACKEND", &config.LogBackend)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)
	if v, ok := os.LookupEnv(EnvPrefix + "RUN_MIGRATIONS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.RunMigrations = b
	}
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
