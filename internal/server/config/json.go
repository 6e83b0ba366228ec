package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/dormnet/internal/flagx"
	"github.com/dmitrijs2005/dormnet/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from "zero" so a partial file only
// overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	RegistryDSN           *string         `json:"registry_dsn"`
	TrafficDSN            *string         `json:"traffic_dsn"`
	LedgerDSN             *string         `json:"ledger_dsn"`
	UserDBDSN             *string         `json:"userdb_dsn"`
	LDAPURL               *string         `json:"ldap_url"`
	LDAPBindDN            *string         `json:"ldap_bind_dn"`
	LDAPBindPassword      *string         `json:"ldap_bind_password"`
	LDAPUserBaseDN        *string         `json:"ldap_user_base_dn"`
	LDAPGroupBaseDN       *string         `json:"ldap_group_base_dn"`
	ActiveGroup           *string         `json:"active_group"`
	ExactiveGroup         *string         `json:"exactive_group"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	StoreTimeout          *timex.Duration `json:"store_timeout"`
	PeriodCutover         *timex.Duration `json:"period_cutover"`
	KafkaBrokers          []string        `json:"kafka_brokers"`
	KafkaTopic            *string         `json:"kafka_topic"`
	LogBackend            *string         `json:"log_backend"`
	LogLevel              *string         `json:"log_level"`
	LogFormat             *string         `json:"log_format"`
	RunMigrations         *bool           `json:"run_migrations"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.RegistryDSN, c.RegistryDSN)
	setString(&config.TrafficDSN, c.TrafficDSN)
	setString(&config.LedgerDSN, c.LedgerDSN)
	setString(&config.UserDBDSN, c.UserDBDSN)
	setString(&config.LDAPURL, c.LDAPURL)
	setString(&config.LDAPBindDN, c.LDAPBindDN)
	setString(&config.LDAPBindPassword, c.LDAPBindPassword)
	setString(&config.LDAPUserBaseDN, c.LDAPUserBaseDN)
	setString(&config.LDAPGroupBaseDN, c.LDAPGroupBaseDN)
	setString(&config.ActiveGroup, c.ActiveGroup)
	setString(&config.ExactiveGroup, c.ExactiveGroup)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.PeriodCutover != nil {
		config.PeriodCutover = c.PeriodCutover.Duration
	}
	if c.KafkaBrokers != nil {
		config.KafkaBrokers = c.KafkaBrokers
	}
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.RunMigrations != nil {
		config.RunMigrations = *c.RunMigrations
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
