// Package config handles loading and validating the health monitor configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (HEALTHMON_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker passwords, Redis passwords and InfluxDB tokens should be set via
//     environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/healthmon.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
