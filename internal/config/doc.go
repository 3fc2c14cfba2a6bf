// Package config loads assaymerge configuration.
//
// Values are layered: the built-in defaults from Default, then an optional
// YAML file (assaymerge.yaml, configs/assaymerge.yaml, or the path in
// ASSAY_CONFIG_FILE), then environment variables with the ASSAY prefix,
// for example:
//
//	ASSAY_SERVER_PORT=9000
//	ASSAY_MERGE_SHEET="Statistics"
//	ASSAY_SECURITY_RATE_LIMIT_RPS=5
//	ASSAY_LOGGING_OUTPUT=both
//
// A minimal YAML file:
//
//	server:
//	  port: 9000
//	merge:
//	  check_row_order: false
//	logging:
//	  level: debug
package config
