package evaluate

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIBYL_EVALUATE_REQUEST_TIMEOUT" default:"60s"`
}
