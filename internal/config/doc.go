// Package config loads the dashboard configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// The file is taken from SUCATA_CONFIG, or the first of config.yaml and
// configs/config.yaml that exists.
//
// # Environment Variables
//
// All environment variables follow the pattern SUCATA_<SECTION>_<KEY>:
//
//	SUCATA_SERVER_PORT=8080
//	SUCATA_SOURCE_KIND=sheets
//	SUCATA_SOURCE_SPREADSHEET_ID=1AbC...
//	SUCATA_SOURCE_SHEET_NAME=Corte
//	SUCATA_SOURCE_CREDENTIALS_FILE=credentials.json
//	SUCATA_SOURCE_HEADER_ROW=4
//	SUCATA_COLUMNS_SCRAP=Sucata
//	SUCATA_LOGGING_LEVEL=debug
//
// Service account JSON can be passed inline with SUCATA_SOURCE_CREDENTIALS_JSON;
// it is never read from the YAML file.
//
// # Sheet Layout
//
// HeaderRow and DataStartRow are zero-based row indexes. The defaults match the
// cutting sheet, where four title rows precede the header.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
