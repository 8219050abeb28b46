package config

import (
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// viper's Get* helpers swallow parse errors and return zero values,
// so every typed setting goes through cast's E variants instead.

func mustInt(v *viper.Viper, key, msg string) int {
	value, err := cast.ToIntE(v.Get(key))
	if err != nil {
		panic(msg)
	}

	return value
}

func mustFloat(v *viper.Viper, key, msg string) float64 {
	value, err := cast.ToFloat64E(v.Get(key))
	if err != nil {
		panic(msg)
	}

	return value
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	value, err := cast.ToDurationE(v.Get(key))
	if err != nil {
		panic(msg)
	}

	return value
}
