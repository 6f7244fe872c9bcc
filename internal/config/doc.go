// Package config provides configuration management for widgetuat.
// It defines defaults, validation, environment handling, and the
// .widgetuat.yaml objectives file format.
package config
