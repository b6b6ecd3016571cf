package config

import "os"

func osLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}
