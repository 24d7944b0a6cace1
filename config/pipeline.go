package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// PipelineConfig describes one simulflow pipeline deployment: VAD
// thresholds, output-pacer timing, activity-monitor pings, and mute
// strategies, loaded via Viper the same way Config is (spec §A.3).
type PipelineConfig struct {
	VAD struct {
		SampleRate    int     `mapstructure:"sample_rate" validate:"required,gt=0"`
		MinConfidence float32 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
		MinSpeechMS   int     `mapstructure:"min_speech_ms" validate:"gte=0"`
		MinSilenceMS  int     `mapstructure:"min_silence_ms" validate:"gte=0"`
	} `mapstructure:"vad"`

	Pacer struct {
		ChunkDurationMS int  `mapstructure:"chunk_duration_ms" validate:"gt=0"`
		NetworkSink     bool `mapstructure:"network_sink"`
	} `mapstructure:"pacer"`

	Activity struct {
		TimeoutMS   int      `mapstructure:"timeout_ms" validate:"gt=0"`
		MaxPings    int      `mapstructure:"max_pings" validate:"gt=0"`
		PingPhrases []string `mapstructure:"ping_phrases" validate:"required,min=1"`
		EndPhrase   string   `mapstructure:"end_phrase"`
	} `mapstructure:"activity"`

	Mute struct {
		Strategies []string `mapstructure:"strategies"`
	} `mapstructure:"mute"`

	LLM struct {
		Model   string        `mapstructure:"model" validate:"required"`
		URL     string        `mapstructure:"url" validate:"required,url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"llm"`

	// SchemaChecking enables per-frame payload validation against
	// simulflow.frame.schema-checking (spec §6), applied by
	// frame.ValidatePayload's type-identity check.
	SchemaChecking bool `mapstructure:"schema_checking"`
}

var validate = validator.New()

// LoadPipelineConfig reads a PipelineConfig via its own Viper instance (a
// "pipeline" YAML file searched in "." and configPaths, plus
// SIMULFLOW_-prefixed env vars), applying defaults, then validates it with
// go-playground/validator. A validation failure is returned as a plain
// wrapped error.
func LoadPipelineConfig(configPaths ...string) (PipelineConfig, error) {
	v := viper.New()

	v.SetDefault("vad.sample_rate", 16000)
	v.SetDefault("vad.min_confidence", 0.5)
	v.SetDefault("vad.min_speech_ms", 60)
	v.SetDefault("vad.min_silence_ms", 600)
	v.SetDefault("pacer.chunk_duration_ms", 20)
	v.SetDefault("pacer.network_sink", false)
	v.SetDefault("activity.timeout_ms", 10000)
	v.SetDefault("activity.max_pings", 3)
	v.SetDefault("activity.ping_phrases", []string{"Are you still there?"})
	v.SetDefault("activity.end_phrase", "I haven't heard from you, goodbye.")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetConfigName("pipeline")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("simulflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return PipelineConfig{}, fmt.Errorf("config: read pipeline config: %w", err)
		}
	}

	var cfg PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return PipelineConfig{}, fmt.Errorf("config: unmarshal pipeline config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return PipelineConfig{}, fmt.Errorf("config: invalid pipeline config: %w", err)
	}
	return cfg, nil
}
