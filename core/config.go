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

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		RollbarToken     string
		SendgridAPIKey   string
		DefaultFromEmail mail.Address
		FrontendBaseURL  string

		API    apiConfig
		Server serverConfig
		Portal portalConfig
		Routes routesConfig
		Tokens tokensConfig
		Redis  redisConfig
	}

	// apiConfig is what the portal needs to reach the identity API.
	apiConfig struct {
		BaseURL string
		Timeout time.Duration // 0: transport default
	}

	serverConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	portalConfig struct {
		Address         string
		ShutdownTimeout time.Duration
	}

	routesConfig struct {
		Login        string
		Unauthorized string
		Dashboard    string
	}

	tokensConfig struct {
		Backend  string // memory | file | redis
		Scope    string
		FilePath string
	}

	redisConfig struct {
		Address  string
		Password string
		DB       int
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Campus")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2x8-q7)vb@#nw$+4r=fs&tl9h(z!m)#*e2(#ud^p$ciao3ky")
	v.SetDefault("defaultFromName", "Campus")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")

	v.SetDefault("api.baseURL", "http://localhost:8000/api")
	v.SetDefault("api.timeout", time.Duration(0))

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 15*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("portal.address", ":8080")
	v.SetDefault("portal.shutdownTimeout", 5*time.Second)

	v.SetDefault("routes.login", "/login")
	v.SetDefault("routes.unauthorized", "/unauthorized")
	v.SetDefault("routes.dashboard", "/dashboard")

	v.SetDefault("tokens.backend", "memory")
	v.SetDefault("tokens.scope", "default")
	v.SetDefault("tokens.filePath", defaultTokenFile())

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
}

// NewConfig loads the Config from the environment.
// Variables are read with the ENV prefix, e.g. DEV_API_BASEURL or PROD_TOKENS_BACKEND.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:        v.GetString("appName"),
		Env:            env,
		Build:          v.GetString("build"),
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridAPIKey: v.GetString("sendgridAPIKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		FrontendBaseURL: v.GetString("frontendBaseURL"),
	}
	conf.API.BaseURL = strings.TrimRight(v.GetString("api.baseURL"), "/")
	conf.API.Timeout = v.GetDuration("api.timeout")

	conf.Server.Host = v.GetString("server.host")
	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")

	conf.Portal.Address = v.GetString("portal.address")
	conf.Portal.ShutdownTimeout = v.GetDuration("portal.shutdownTimeout")

	conf.Routes.Login = v.GetString("routes.login")
	conf.Routes.Unauthorized = v.GetString("routes.unauthorized")
	conf.Routes.Dashboard = v.GetString("routes.dashboard")

	conf.Tokens.Backend = strings.ToLower(v.GetString("tokens.backend"))
	conf.Tokens.Scope = v.GetString("tokens.scope")
	conf.Tokens.FilePath = v.GetString("tokens.filePath")

	conf.Redis.Address = v.GetString("redis.address")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")
	return conf
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "campus", "tokens.json")
}
