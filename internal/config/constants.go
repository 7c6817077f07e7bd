package config

import (
	"time"

	"ecorecovery/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "AI-EcoRecovery Dashboard"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable
	EnvPrefix = "ECORECOVERY"

	// PlaceholderDataURL must be replaced by a real CSV location before use
	PlaceholderDataURL = "https://raw.githubusercontent.com/<USERNAME>/<REPO>/main/sibolga_final_analysis_with_hibah.csv"

	// Files
	DefaultSecretsFile = "secrets.yaml"
	DefaultLogFile     = "logs/app.log"
	ExportBaseName     = "sibolga_filtered_results"

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second

	// Cache Settings
	DataCacheDuration = 5 * time.Minute

	// Dashboard
	DefaultTopN        = 15
	DefaultChartWidth  = 960
	DefaultChartHeight = 480
)

// Page texts
const (
	DefaultTitle    = "AI-EcoRecovery — Dashboard Pemulihan Ekonomi Pascabencana (Sibolga)"
	DefaultSubtitle = "Interactive dashboard: prioritas hibah / pinjaman, MMB, cicilan aman, dan analisis sensitivitas."
	DefaultCaption  = "Catatan: data simulasi. Untuk produksi, arahkan DATA_URL ke CSV yang terupdate di repo/Google Drive yang publik."
)
