package classify

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIBYL_CLASSIFY_REQUEST_TIMEOUT" default:"30s"`
	MaxPointsLen   int           `envconfig:"SIBYL_CLASSIFY_MAX_POINTS_LEN" default:"64"`
}
