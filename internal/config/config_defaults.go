package config

import (
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by the application
const EnvPrefix = "WHITECARROT"

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	setServerDefaults(v)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxRequestSize", 1024*1024) // 1MB

	setStoreDefaults(v)

	// Screening Configuration
	v.SetDefault("screening.rejectBelow", 80.0)
	v.SetDefault("screening.fastTrackAbove", 80.0)
	v.SetDefault("screening.interviewPassRate", 0.9)
	v.SetDefault("screening.offerLetterURL", "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf")

	// Proctoring Configuration
	v.SetDefault("proctoring.noFaceFrames", 3)
	v.SetDefault("proctoring.multipleFacesFrames", 2)
	v.SetDefault("proctoring.lookingAwayFrames", 5)
	v.SetDefault("proctoring.speakingFrames", 10)
	v.SetDefault("proctoring.criticalLimit", 3)
	v.SetDefault("proctoring.sessionTTL", 2*time.Hour)
	v.SetDefault("proctoring.cleanupInterval", 10*time.Minute)

	// Upload Configuration
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.maxFileSize", 5*1024*1024) // 5MB
	v.SetDefault("upload.allowedTypes", []string{"jpeg", "jpg", "png", "pdf", "doc", "docx"})
	v.SetDefault("upload.inspectDocuments", true)

	// Notification Configuration
	v.SetDefault("notify.transport", "log")
	v.SetDefault("notify.sender", "hiring-team@whitecarrot.local")
	v.SetDefault("notify.amqp.url", "")
	v.SetDefault("notify.amqp.exchange", "whitecarrot.notifications")
	v.SetDefault("notify.amqp.routingKey", "email")
	setCircuitBreakerDefaults(v, "notify.circuitBreaker")

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.store", "")
	v.SetDefault("vault.secrets.amqp", "")

	setObservabilityDefaults(v)
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "3011")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.watch", false)
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.allowedOrigins", []string{"*"})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)
}

func setStoreDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.key", "mini_ats_db_v1")
	v.SetDefault("store.seedOnEmpty", true)
	v.SetDefault("store.simulatedLatency", time.Duration(0))
	v.SetDefault("store.file.path", "data/mini_ats_db_v1.json")
	v.SetDefault("store.file.watch", true)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "ats_documents")
	v.SetDefault("store.postgres.maxConns", 5)
	v.SetDefault("store.sqlite.path", "data/whitecarrot.db")
	v.SetDefault("store.sqlite.table", "ats_documents")
	setCircuitBreakerDefaults(v, "store.circuitBreaker")
}

func setCircuitBreakerDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".enabled", true)
	v.SetDefault(prefix+".maxRequests", 3)
	v.SetDefault(prefix+".interval", 60*time.Second)
	v.SetDefault(prefix+".timeout", 30*time.Second)
	v.SetDefault(prefix+".minRequests", 3)
	v.SetDefault(prefix+".failureThreshold", 0.6)
}

func setObservabilityDefaults(v *viper.Viper) {
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "whitecarrot")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackScreening", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackProctoring", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackUploadSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackStore", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
