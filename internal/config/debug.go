package config

import "os"

func IsDebug() bool {
	return os.Getenv("MEMOCHAT_DEBUG") == "1"
}
