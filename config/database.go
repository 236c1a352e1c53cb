package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	godotenv.Load()
}

// DatabaseSettings is the connection and pool configuration read from DB_* env vars.
type DatabaseSettings struct {
	User        string
	Password    string
	Host        string
	Port        string
	Name        string
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	Location    *time.Location
}

func LoadDatabaseSettings() DatabaseSettings {
	return DatabaseSettings{
		User:        os.Getenv("DB_USER"),
		Password:    os.Getenv("DB_PASSWORD"),
		Host:        os.Getenv("DB_HOST"),
		Port:        os.Getenv("DB_PORT"),
		Name:        os.Getenv("DB_NAME"),
		MaxOpen:     intFromEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdle:     intFromEnv("DB_MAX_IDLE_CONNS", 10),
		MaxLifetime: time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
		Location:    BusinessLocation(),
	}
}

// DSN renders the settings as a go-sql-driver DSN. DB_HOST=/cloudsql/<CONNECTION_NAME>
// connects over the Cloud SQL proxy socket.
func (s DatabaseSettings) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.DBName = s.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.Loc = s.Location
	// applied to every pooled connection
	cfg.Params = map[string]string{"transaction_isolation": "'READ-COMMITTED'"}
	if cfg.Loc == nil {
		cfg.Loc = time.Local
	}
	if strings.HasPrefix(s.Host, "/cloudsql/") {
		cfg.Net = "unix"
		cfg.Addr = s.Host
	} else {
		cfg.Net = "tcp"
		cfg.Addr = s.Host + ":" + s.Port
	}
	return cfg.FormatDSN()
}

// ConnectDatabaseWithRetry blocks until the database answers, then installs the
// otelgorm plugin. Call it from main() after the HTTP server is listening.
func ConnectDatabaseWithRetry() {
	settings := LoadDatabaseSettings()
	dsn := settings.DSN()

	var attempt int
	for {
		attempt++
		conn, err := gorm.Open(mysql.Open(dsn), initConfig())
		if err == nil {
			applyPool(conn, settings)
			if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
				log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
			}
			db = conn
			log.Printf("connected to database %s (attempt=%d)", settings.Name, attempt)
			return
		}

		sleep := retryDelay(attempt)
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func applyPool(conn *gorm.DB, s DatabaseSettings) {
	sqlDB, err := conn.DB()
	if err != nil || sqlDB == nil {
		return
	}
	if s.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(s.MaxOpen)
	}
	if s.MaxIdle >= 0 {
		sqlDB.SetMaxIdleConns(s.MaxIdle)
	}
	if s.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(s.MaxLifetime)
	}
}

// retryDelay backs off exponentially, capped at 30s.
func retryDelay(attempt int) time.Duration {
	return min(time.Second*time.Duration(1<<min(attempt, 5)), 30*time.Second)
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: schema.NamingStrategy{},
	}
}

func initLog() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  logger.Error,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}
