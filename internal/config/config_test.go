package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/loan-review/internal/abusiveness"
	"github.com/iwvelando/loan-review/pkg/amortization"
	"github.com/iwvelando/loan-review/pkg/constants"
)

const sampleConfig = `
logging:
  level: debug
output:
  format: xlsx
  file: review.xlsx
rates:
  timeout: 10s
  retries: 2
  series:
    working-capital: "20739"
  cache:
    backend: redis
    ttl: 1h
    redis:
      address: localhost:6379
      db: 3
contract:
  modality: vehicle-financing
  contractDate: 15/05/2023
  principal: "60.000,00"
  contractedRate: 2.8
  termMonths: 48
  amortization: SAC
theses:
  customTolerance: 30
`

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Example config file",
			configPath: filepath.Join("..", "..", constants.ExampleConfigFile),
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Contract.Principal != "60.000,00" {
		t.Errorf("Contract.Principal = %q, expected 60.000,00", config.Contract.Principal)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, expected debug", config.Logging.Level)
	}
	if config.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, expected default console", config.Logging.Format)
	}
	if config.Output.Format != constants.OutputFormatXLSX || config.Output.File != "review.xlsx" {
		t.Errorf("Output = %+v, expected xlsx to review.xlsx", config.Output)
	}
	if config.Rates.Timeout != 10*time.Second {
		t.Errorf("Rates.Timeout = %v, expected 10s", config.Rates.Timeout)
	}
	if config.Rates.RetryBackoff != constants.DefaultRetryBackoff {
		t.Errorf("Rates.RetryBackoff = %v, expected default %v", config.Rates.RetryBackoff, constants.DefaultRetryBackoff)
	}
	if config.Rates.BaseURL != constants.DefaultRateBaseURL {
		t.Errorf("Rates.BaseURL = %q, expected default", config.Rates.BaseURL)
	}
	if config.Rates.Retries != 2 {
		t.Errorf("Rates.Retries = %d, expected 2", config.Rates.Retries)
	}
	if config.Rates.Series["working-capital"] != "20739" {
		t.Errorf("Rates.Series = %v, expected working-capital override", config.Rates.Series)
	}
	if config.Rates.Cache.Backend != constants.CacheBackendRedis || config.Rates.Cache.TTL != time.Hour {
		t.Errorf("Rates.Cache = %+v, expected redis with 1h ttl", config.Rates.Cache)
	}
	if config.Rates.Cache.Redis.Address != "localhost:6379" || config.Rates.Cache.Redis.DB != 3 {
		t.Errorf("Rates.Cache.Redis = %+v", config.Rates.Cache.Redis)
	}
	if config.Theses.CustomTolerance == nil || *config.Theses.CustomTolerance != 30 {
		t.Errorf("Theses.CustomTolerance = %v, expected 30", config.Theses.CustomTolerance)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader("contract:\n  modality: personal-credit\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if config.Output.Format != constants.OutputFormatPretty {
		t.Errorf("Output.Format = %q, expected pretty", config.Output.Format)
	}
	if config.Rates.Timeout != constants.DefaultRateTimeout {
		t.Errorf("Rates.Timeout = %v, expected %v", config.Rates.Timeout, constants.DefaultRateTimeout)
	}
	if config.Rates.Cache.Backend != constants.CacheBackendMemory {
		t.Errorf("Rates.Cache.Backend = %q, expected memory", config.Rates.Cache.Backend)
	}
	if config.Contract.Amortization != "price" {
		t.Errorf("Contract.Amortization = %q, expected price", config.Contract.Amortization)
	}
}

func TestLoadConfigurationInvalidYAML(t *testing.T) {
	if _, err := LoadConfigurationFromReader(strings.NewReader("contract: [unclosed")); err == nil {
		t.Errorf("LoadConfigurationFromReader() expected error for invalid YAML")
	}
}

func TestRequest(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	req, err := config.Request()
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if req.Modality != "vehicle-financing" {
		t.Errorf("Modality = %q", req.Modality)
	}
	if !req.ContractDate.Equal(time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ContractDate = %v, expected 2023-05-15", req.ContractDate)
	}
	if req.Principal != 60000 {
		t.Errorf("Principal = %v, expected 60000", req.Principal)
	}
	if math.Abs(req.ContractedRate-0.028) > 1e-12 {
		t.Errorf("ContractedRate = %v, expected 0.028", req.ContractedRate)
	}
	if req.Convention != amortization.FixedAmortization {
		t.Errorf("Convention = %q, expected sac", req.Convention)
	}

	expected := []abusiveness.Thesis{
		{Label: constants.ZeroToleranceLabel, Tolerance: 0},
		{Label: constants.FiftyPercentToleranceLabel, Tolerance: 0.5},
		{Label: constants.CustomToleranceLabel, Tolerance: 0.3},
	}
	if len(req.Theses) != len(expected) {
		t.Fatalf("Theses = %v, expected %v", req.Theses, expected)
	}
	for i := range expected {
		if req.Theses[i] != expected[i] {
			t.Errorf("Theses[%d] = %+v, expected %+v", i, req.Theses[i], expected[i])
		}
	}
}

func TestRequestThesisList(t *testing.T) {
	config := Configuration{
		Contract: Contract{
			Modality:       "payroll-credit",
			ContractDate:   "2023-05-15",
			Principal:      "10000",
			ContractedRate: 2,
			TermMonths:     24,
			Amortization:   "price",
		},
		Theses: Theses{List: []ThesisConfig{{Label: "stj", Tolerance: 50}, {Label: "strict", Tolerance: 0}}},
	}

	req, err := config.Request()
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if len(req.Theses) != 2 || req.Theses[0].Tolerance != 0.5 || req.Theses[1].Label != "strict" {
		t.Errorf("Theses = %+v, expected the configured list", req.Theses)
	}

	config.SetCustomTolerance(20)
	req, err = config.Request()
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if len(req.Theses) != 3 || req.Theses[2].Tolerance != 0.2 {
		t.Errorf("Theses = %+v, expected custom thesis appended", req.Theses)
	}
}

func TestRequestErrors(t *testing.T) {
	valid := Contract{
		Modality:       "vehicle-financing",
		ContractDate:   "15/05/2023",
		Principal:      "50000",
		ContractedRate: 2.5,
		TermMonths:     36,
		Amortization:   "price",
	}

	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"bad date", func(c *Configuration) { c.Contract.ContractDate = "2023/05/15" }},
		{"empty date", func(c *Configuration) { c.Contract.ContractDate = "" }},
		{"bad principal", func(c *Configuration) { c.Contract.Principal = "fifty thousand" }},
		{"zero principal", func(c *Configuration) { c.Contract.Principal = "0,00" }},
		{"unknown convention", func(c *Configuration) { c.Contract.Amortization = "bullet" }},
		{"missing modality", func(c *Configuration) { c.Contract.Modality = "" }},
		{"zero term", func(c *Configuration) { c.Contract.TermMonths = 0 }},
		{"negative custom tolerance", func(c *Configuration) { c.SetCustomTolerance(-10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Configuration{Contract: valid}
			tt.mutate(&config)

			if _, err := config.Request(); !errors.Is(err, abusiveness.ErrInvalidRequest) {
				t.Errorf("Request() error = %v, expected ErrInvalidRequest", err)
			}
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	config := Configuration{
		Contract: Contract{
			ContractDate:   "15/05/2023",
			ContractedRate: 28,
			TermMonths:     36,
		},
	}
	config.SetCustomTolerance(150)

	warnings := config.ValidateConfiguration()
	if len(warnings) != 2 {
		t.Fatalf("ValidateConfiguration() returned %v, expected rate and tolerance warnings", warnings)
	}
	if !strings.Contains(warnings[0], "yearly rate") {
		t.Errorf("first warning = %q, expected contracted rate warning", warnings[0])
	}
	if !strings.Contains(warnings[1], "'custom'") {
		t.Errorf("second warning = %q, expected tolerance warning", warnings[1])
	}
}
