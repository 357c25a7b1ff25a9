package config

import (
	"os"
	"strings"
)

// DefaultAcceptedExtensions is the allow-list applied when the config does
// not set one: model weight and topology formats, plus tensor name
// mappings. Arbitrary sidecar files in a model directory are not staged.
var DefaultAcceptedExtensions = []string{".bin", ".xml", ".onnx", ".pb", ".mapping"}

// ApplyDefaults sets default values for any unspecified configuration
// fields. Called after loading from file and environment; zero values are
// replaced, explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyFetchDefaults(&cfg.Fetch)
	applyStorageDefaults(&cfg.Storage)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalized once here so the rest of the code sees one spelling.
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyFetchDefaults(cfg *FetchConfig) {
	if cfg.StagingRoot == "" {
		cfg.StagingRoot = "/tmp/modelstage"
	}
	if len(cfg.AcceptedExtensions) == 0 {
		cfg.AcceptedExtensions = append([]string(nil), DefaultAcceptedExtensions...)
	}
}

// applyStorageDefaults fills the S3 option map and resolves the credential
// mode from the environment exactly once at startup. When no credentials
// are configured and no AWS credential source is present in the
// environment, remote access falls back to anonymous, mirroring
// credentials-file-driven backend selection. Hot-path operations never
// consult the environment.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if _, set := cfg.S3["region"]; !set {
		if region := os.Getenv("AWS_REGION"); region != "" {
			cfg.S3["region"] = region
		} else {
			cfg.S3["region"] = "us-east-1"
		}
	}
	if _, set := cfg.S3["anonymous"]; !set {
		_, hasStatic := cfg.S3["access_key_id"]
		hasEnvCreds := os.Getenv("AWS_SHARED_CREDENTIALS_FILE") != "" ||
			os.Getenv("AWS_ACCESS_KEY_ID") != ""
		cfg.S3["anonymous"] = !hasStatic && !hasEnvCreds
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}
