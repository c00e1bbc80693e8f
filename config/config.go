package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Log          Log
	Auth         Auth
	Judge        Judge
	Interview    Interview
	Reaper       Reaper
	Migration    Migration
	Content      Content
	GeminiApiKey string
}

type Server struct {
	Port string `validate:"required,numeric"`
}

type Database struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	User     string
	Password string
	Name     string `validate:"required"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

type Log struct {
	Level  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `validate:"oneof=json console"`
}

type Auth struct {
	JWTSecret string
}

type Judge struct {
	BaseURL      string `validate:"omitempty,url"`
	AuthToken    string
	PollInterval time.Duration `validate:"gt=0"`
	MaxPolls     int           `validate:"gte=1"`
	MaxRetries   int           `validate:"gte=1,lte=10"`
	CPUTimeLimit float64       `validate:"gte=0"`
	MemoryKB     int           `validate:"gte=0"`
}

type Interview struct {
	Model         string `validate:"required"`
	QuestionCount int    `validate:"gte=1,lte=20"`
}

type Reaper struct {
	Interval time.Duration `validate:"gt=0"`
}

const (
	ContentSourceBank      = "bank"
	ContentSourceGenerated = "generated"
)

// Content selects where drive questions and problems come from. Generated content
// falls back to the bank when generation fails.
type Content struct {
	Source              string `validate:"oneof=bank generated"`
	ReferenceLanguageID int    `validate:"gte=1"`
	ReferenceLanguage   string `validate:"required"`
}

type Migration struct {
	MinQuality          float64 `validate:"gte=0,lte=1"`
	MinQuestionAttempts int     `validate:"gte=0"`
	MinProblemAttempts  int     `validate:"gte=0"`
	SimilarityThreshold float64 `validate:"gt=0,lte=1"`
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_NAME", "mockdrive")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("INTERVIEW_QUESTION_COUNT", 5)
	viper.SetDefault("JUDGE_BASE_URL", "http://localhost:2358")
	viper.SetDefault("JUDGE_POLL_INTERVAL", time.Second)
	viper.SetDefault("JUDGE_MAX_POLLS", 20)
	viper.SetDefault("JUDGE_MAX_RETRIES", 3)
	viper.SetDefault("JUDGE_CPU_TIME_LIMIT", 2.0)
	viper.SetDefault("JUDGE_MEMORY_LIMIT_KB", 128000)
	viper.SetDefault("REAPER_INTERVAL", time.Minute)
	viper.SetDefault("MIGRATION_MIN_QUALITY", 0.7)
	viper.SetDefault("MIGRATION_MIN_QUESTION_ATTEMPTS", 10)
	viper.SetDefault("MIGRATION_MIN_PROBLEM_ATTEMPTS", 5)
	viper.SetDefault("MIGRATION_SIMILARITY", 0.85)
	viper.SetDefault("CONTENT_SOURCE", ContentSourceGenerated)
	viper.SetDefault("CONTENT_REFERENCE_LANGUAGE_ID", 71)
	viper.SetDefault("CONTENT_REFERENCE_LANGUAGE", "Python 3")
}

func NewConfig() (*Config, error) {
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Format = viper.GetString("LOG_FORMAT")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")

	config.Judge.BaseURL = viper.GetString("JUDGE_BASE_URL")
	config.Judge.AuthToken = viper.GetString("JUDGE_AUTH_TOKEN")
	config.Judge.PollInterval = viper.GetDuration("JUDGE_POLL_INTERVAL")
	config.Judge.MaxPolls = viper.GetInt("JUDGE_MAX_POLLS")
	config.Judge.MaxRetries = viper.GetInt("JUDGE_MAX_RETRIES")
	config.Judge.CPUTimeLimit = viper.GetFloat64("JUDGE_CPU_TIME_LIMIT")
	config.Judge.MemoryKB = viper.GetInt("JUDGE_MEMORY_LIMIT_KB")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Interview.Model = viper.GetString("GEMINI_MODEL")
	config.Interview.QuestionCount = viper.GetInt("INTERVIEW_QUESTION_COUNT")

	config.Reaper.Interval = viper.GetDuration("REAPER_INTERVAL")

	config.Migration.MinQuality = viper.GetFloat64("MIGRATION_MIN_QUALITY")
	config.Migration.MinQuestionAttempts = viper.GetInt("MIGRATION_MIN_QUESTION_ATTEMPTS")
	config.Migration.MinProblemAttempts = viper.GetInt("MIGRATION_MIN_PROBLEM_ATTEMPTS")
	config.Migration.SimilarityThreshold = viper.GetFloat64("MIGRATION_SIMILARITY")

	config.Content.Source = viper.GetString("CONTENT_SOURCE")
	config.Content.ReferenceLanguageID = viper.GetInt("CONTENT_REFERENCE_LANGUAGE_ID")
	config.Content.ReferenceLanguage = viper.GetString("CONTENT_REFERENCE_LANGUAGE")

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Str("judge", config.Judge.BaseURL).
		Bool("gemini", config.GeminiApiKey != "").
		Str("contentSource", config.Content.Source).
		Dur("reaperInterval", config.Reaper.Interval).
		Msg("Config loaded")
	return &config, nil
}

// DSN is the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}
