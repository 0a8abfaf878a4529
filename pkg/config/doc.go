// Package config loads typed configuration structs from environment
// variables, with a one-time best-effort .env load for local development.
//
// Each component declares its own Config struct with env tags and loads
// it once; repeated loads of the same type return the cached value:
//
//	type FeedConfig struct {
//	    URL string `env:"FEED_REDIS_URL,required"`
//	}
//
//	var cfg FeedConfig
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
package config
