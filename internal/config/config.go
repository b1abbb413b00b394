package config // package config loads application configuration from environment variables

import (
    "log/slog" // structured logging for configuration errors
    "os"       // os provides access to environment variables
    "strings"  // strings splits list-valued variables

    "github.com/joho/godotenv" // optional .env loading for local development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values (database, port and signing
// secret) terminate the process when missing; everything else has a default.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    LogLevel       string // debug | info | warn | error
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    DBMaxOpenConns int    // size of the connection pool
    JWTSecret      string // secret used to sign access tokens
    AccessTTLMin   int    // access token time-to-live in minutes
    OTPTTLMin      int    // one-time code time-to-live in minutes
    OTPMaxAttempts int    // failed verifications tolerated per issued code
    ResetTTLMin    int    // password reset token time-to-live in minutes
    BcryptCost     int    // bcrypt cost for password hashing

    SMTPHost string // mail relay host; empty disables delivery
    SMTPPort int    // mail relay port
    SMTPUser string // mail relay username
    SMTPPass string // mail relay password
    MailFrom string // From header for outgoing mail

    AMQPURL       string   // RabbitMQ URL; empty sends mail in-process
    PublicBaseURL string   // used to build links in emails
    StaticDir     string   // directory of public files
    PagesDir      string   // directory of the sign-in guarded pages, outside StaticDir
    CORSOrigins   []string // allowed origins for browser clients
    ScheduleFile  string   // optional YAML file with seeding and admin settings
    AdminEmails   []string // recipients of admin notification copies (overrides the YAML list)
    PurgeSchedule string   // cron spec of the expired code/token purge
}

// Load reads configuration values from the environment (after loading an
// optional .env file) and returns a Config.  Required variables are enforced
// by must() and missing values cause the program to exit.
func Load() Config {
    if err := godotenv.Load(); err != nil {
        slog.Debug("no .env file loaded", "error", err)
    }
    return Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           must("APP_PORT"),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
        OTPTTLMin:      envInt("OTP_TTL_MIN", 10),
        OTPMaxAttempts: envInt("OTP_MAX_ATTEMPTS", 5),
        ResetTTLMin:    envInt("RESET_TTL_MIN", 60),
        BcryptCost:     envInt("BCRYPT_COST", 10),

        SMTPHost: os.Getenv("SMTP_HOST"),
        SMTPPort: envInt("SMTP_PORT", 587),
        SMTPUser: os.Getenv("SMTP_USER"),
        SMTPPass: os.Getenv("SMTP_PASS"),
        MailFrom: envStr("MAIL_FROM", os.Getenv("SMTP_USER")),

        AMQPURL:       os.Getenv("AMQP_URL"),
        PublicBaseURL: strings.TrimRight(envStr("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
        StaticDir:     envStr("STATIC_DIR", "public"),
        PagesDir:      envStr("PAGES_DIR", "pages"),
        CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
        ScheduleFile:  envStr("SCHEDULE_FILE", "schedule.yaml"),
        AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),
        PurgeSchedule: envStr("PURGE_SCHEDULE", "*/15 * * * *"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs an error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        slog.Error("missing required env var", "key", key)
        os.Exit(1)
    }
    return v
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
