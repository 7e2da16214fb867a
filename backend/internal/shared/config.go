// ============================================================================
// backend/internal/shared/config.go
// Portal configuration management and environment loading
// ============================================================================

package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServiceConfig holds the configuration of the portal service
type ServiceConfig struct {
	ServiceName string
	ServicePort string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	// MongoDB Configuration
	MongoDB MongoConfig

	// Security Configuration
	Security SecurityConfig

	// CORS Configuration
	CORS CORSConfig

	// Gradebook / dashboards
	Portal PortalConfig
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int
	BCryptCost         int // BCrypt hashing cost (10-12 recommended)
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// PortalConfig holds the settings of the dashboards and the grade writer
type PortalConfig struct {
	StudentsCollection string        // per school-year roster collection, e.g. "2025-2026"
	WorkspaceTTL       time.Duration // idle gradebook workspaces are discarded after this
	GradeQueueSize     int
	GradeWriteTimeout  time.Duration
	ReportSubjects     []string
	PassingAverage     float64
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("%s not loaded: %w", envFile, err)
	}

	return nil
}

// LoadServiceConfig loads the service configuration from the environment
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &ServiceConfig{
		ServiceName: serviceName,
		ServicePort: v.GetString("SERVICE_PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
	}

	// Load MongoDB configuration
	mongoURI := v.GetString("MONGO_URI")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.MongoDB = MongoConfig{
		URI:            mongoURI,
		Database:       v.GetString("MONGO_DB_NAME"),
		ConnectTimeout: v.GetDuration("MONGO_CONNECT_TIMEOUT"),
		MaxPoolSize:    uint64(v.GetInt("MONGO_MAX_POOL_SIZE")),
		MinPoolSize:    uint64(v.GetInt("MONGO_MIN_POOL_SIZE")),
		MaxIdleTime:    v.GetDuration("MONGO_MAX_IDLE_TIME"),
	}

	// Load security configuration
	config.Security = SecurityConfig{
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpirationHours: v.GetInt("JWT_EXPIRATION_HOURS"),
		BCryptCost:         v.GetInt("BCRYPT_COST"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
		AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
		AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
		MaxAge:           v.GetInt("CORS_MAX_AGE"),
	}

	config.Portal = PortalConfig{
		StudentsCollection: v.GetString("STUDENTS_COLLECTION"),
		WorkspaceTTL:       v.GetDuration("WORKSPACE_TTL"),
		GradeQueueSize:     v.GetInt("GRADE_QUEUE_SIZE"),
		GradeWriteTimeout:  v.GetDuration("GRADE_WRITE_TIMEOUT"),
		ReportSubjects:     splitList(v.GetString("REPORT_SUBJECTS")),
		PassingAverage:     v.GetFloat64("PASSING_AVERAGE"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", DefaultHTTPPort)
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("MONGO_DB_NAME", "enderavila")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "20s")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 50)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 5)
	v.SetDefault("MONGO_MAX_IDLE_TIME", "30s")

	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS,PATCH")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Accept,Authorization,Content-Type,X-CSRF-Token")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", 300)

	v.SetDefault("STUDENTS_COLLECTION", "2025-2026")
	v.SetDefault("WORKSPACE_TTL", "2h")
	v.SetDefault("GRADE_QUEUE_SIZE", 256)
	v.SetDefault("GRADE_WRITE_TIMEOUT", "5s")
	v.SetDefault("REPORT_SUBJECTS", strings.Join(DefaultReportSubjects, ","))
	v.SetDefault("PASSING_AVERAGE", 10.0)
}

// splitList splits a comma-separated value, dropping blank items
func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if config.ServicePort == "" {
		return fmt.Errorf("service port is required")
	}

	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}

	if config.MongoDB.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}

	if config.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if config.Portal.StudentsCollection == "" {
		return fmt.Errorf("students collection is required")
	}

	if config.Portal.GradeQueueSize <= 0 {
		return fmt.Errorf("grade queue size must be positive")
	}

	return nil
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig logs the configuration (sanitized) for debugging
func PrintConfig(config *ServiceConfig, logger zerolog.Logger) {
	logger.Info().
		Str("service", config.ServiceName).
		Str("port", config.ServicePort).
		Str("environment", config.Environment).
		Str("log_level", config.LogLevel).
		Msg("service configuration")
	logger.Info().
		Str("database", config.MongoDB.Database).
		Uint64("max_pool_size", config.MongoDB.MaxPoolSize).
		Uint64("min_pool_size", config.MongoDB.MinPoolSize).
		Str("students_collection", config.Portal.StudentsCollection).
		Msg("mongodb configuration")
	logger.Info().
		Int("jwt_expiration_hours", config.Security.JWTExpirationHours).
		Int("bcrypt_cost", config.Security.BCryptCost).
		Strs("cors_origins", config.CORS.AllowedOrigins).
		Msg("security configuration")
	logger.Info().
		Dur("workspace_ttl", config.Portal.WorkspaceTTL).
		Int("grade_queue_size", config.Portal.GradeQueueSize).
		Strs("report_subjects", config.Portal.ReportSubjects).
		Float64("passing_average", config.Portal.PassingAverage).
		Msg("portal configuration")
}

// ============================================================================
// Environment-Specific Configuration
// ============================================================================

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServiceConfig) bool {
	return config.Environment == "development"
}

// GetLogLevel returns the configured log level
func GetLogLevel(config *ServiceConfig) string {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[config.LogLevel] {
		return config.LogLevel
	}

	return "info" // Default
}

const DefaultHTTPPort = "8080"

// DefaultReportSubjects are the subject columns of the coordinator report
var DefaultReportSubjects = []string{
	"Matemáticas",
	"Inglés",
	"Ciencias Naturales",
	"Historia",
	"Educación Física",
	"Arte",
}
