package config

import (
	"flag"
	"strings"
	"time"

	"github.com/dmitrijs2005/fitkeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-driver", "-mongo-uri", "-mongo-db", "-d", "-s", "-t",
	"-u", "-p", "-b", "-g", "-e", "-public-url", "-log-level", "-admins",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-driver string     store driver: mongo, postgres, memory
//	-mongo-uri string  MongoDB URI
//	-mongo-db string   MongoDB database name
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-t int             access token validity, minutes
//	-u string          S3 root user
//	-p string          S3 root password
//	-b string          S3 bucket name
//	-g string          S3 region
//	-e string          S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-public-url string public URL prefix of uploaded objects
//	-log-level string  debug, info, warn, error
//	-admins string     comma-separated bootstrap admin usernames
//
// Args are filtered to the flags above first, so flags owned by other
// components (the -c config flag, go test flags) never collide.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.StoreDriver, "driver", config.StoreDriver, "store driver (mongo, postgres, memory)")
	fs.StringVar(&config.MongoURI, "mongo-uri", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.MongoDatabase, "mongo-db", config.MongoDatabase, "MongoDB database")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicURL, "public-url", config.S3PublicURL, "public URL prefix of uploaded objects")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	admins := fs.String("admins", strings.Join(config.AdminUsernames, ","), "comma-separated bootstrap admin usernames")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "admins":
			config.AdminUsernames = splitList(*admins)
		}
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
