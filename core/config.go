package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the process-wide configuration; set by NewConfig.
var Conf *Config

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		AppName          string
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeout time.Duration

		Server   ServerConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Reminder ReminderConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugAddr                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StorageConfig struct {
		Engine string // jsonfile (default) | postgres
		Dir    string // jsonfile collections directory
	}

	DatabaseConfig struct {
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	// ReminderConfig sets the local wall-clock time of the daily reminder sweep.
	ReminderConfig struct {
		Hour   int
		Minute int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Kazi")
	v.SetDefault("secretKey", "x#dwfp0)r7stif(q&0-a2y$e+kazi=3&u^$mh)1l8_o5c6gz%v")
	v.SetDefault("frontendBaseURL", "http://localhost:4200")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeout", 15*time.Minute)

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugAddr", ":8001")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 4*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("storageEngine", "jsonfile")
	v.SetDefault("storageDir", "data")

	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseUser", "postgres")
	v.SetDefault("databasePassword", "")
	v.SetDefault("databaseName", "kazi")
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("reminderHour", 10)
	v.SetDefault("reminderMinute", 0)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	appName := v.GetString("appName")
	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          appName,
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: appName, Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),

		PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Addr:                      v.GetString("serverAddr"),
			DebugAddr:                 v.GetString("serverDebugAddr"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Storage: StorageConfig{
			Engine: v.GetString("storageEngine"),
			Dir:    v.GetString("storageDir"),
		},
		Database: DatabaseConfig{
			Host:       v.GetString("databaseHost"),
			Port:       v.GetString("databasePort"),
			User:       v.GetString("databaseUser"),
			Password:   v.GetString("databasePassword"),
			Name:       v.GetString("databaseName"),
			DisableTLS: v.GetBool("databaseDisableTLS"),
		},
		Reminder: ReminderConfig{
			Hour:   v.GetInt("reminderHour"),
			Minute: v.GetInt("reminderMinute"),
		},
	}
	return Conf
}
