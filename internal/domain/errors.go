package domain

import "fmt"

// ShapeError reports a structural problem with the input grid: temperature
// and mask dimensions that disagree, or coordinate vectors that are not
// strictly monotonic. It is raised during dataset construction, before any
// computation touches the data.
type ShapeError struct {
	Subject string // which array or coordinate is inconsistent
	Detail  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("grid shape: %s: %s", e.Subject, e.Detail)
}

// ConfigError reports an invalid analysis parameter. Parameters are checked
// up front so a bad run length or percentile fails before any chunk is read.
type ConfigError struct {
	Param  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Param, e.Detail)
}
