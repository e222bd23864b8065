package config

// Application constants
const (
	AppName    = "PCP Sucata"
	AppVersion = "1.2.0"

	// Page titles of the dashboard sidebar
	PageDaily   = "Apontamento Sucata"
	PageMonthly = "Acompanhamento Sucata"
)
